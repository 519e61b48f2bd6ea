// Package consolidate folds decoded transactions into keyed running
// totals and renders them as deterministically sorted output rows.
//
// Two key shapes exist. Rows carrying a product identifier consolidate by
// (kind, identifier, description, unit price) and sum their quantities.
// Rows without one are adjustments (fees, credits, refunds without
// inventory) consolidating by (kind, description) and summing signed
// cents. Every row maps to exactly one shape, decided once at
// classification time.
package consolidate

import (
	"github.com/rumor-ml/commons.systems/txnfold/internal/report"
)

// IdentifiedKey consolidates rows that carry a product identifier. Rows
// merge only when every component matches.
type IdentifiedKey struct {
	Kind        string
	SKU         string
	Description string
	UnitCents   int64
}

// AdjustmentKey consolidates rows without a product identifier.
type AdjustmentKey struct {
	Kind        string
	Description string
}

// Variant names the consolidation shape a row belongs to.
type Variant int

const (
	// VariantIdentified marks rows with a product identifier.
	VariantIdentified Variant = iota
	// VariantAdjustment marks rows without one.
	VariantAdjustment
)

// Classification commits a transaction to exactly one variant.
type Classification struct {
	Variant    Variant
	Identified IdentifiedKey // populated for VariantIdentified
	Adjustment AdjustmentKey // populated for VariantAdjustment
	Quantity   int64         // folded value for identified rows
	Cents      int64         // folded value for adjustment rows
}

// Classify maps a transaction onto its consolidation variant: a non-empty
// product identifier selects the identified shape, anything else is an
// adjustment. The decision is never revisited downstream.
func Classify(t *report.Transaction) Classification {
	if t.SKU != "" {
		return Classification{
			Variant: VariantIdentified,
			Identified: IdentifiedKey{
				Kind:        t.Kind,
				SKU:         t.SKU,
				Description: t.Description,
				UnitCents:   t.UnitCents(),
			},
			Quantity: t.Quantity,
		}
	}
	return Classification{
		Variant: VariantAdjustment,
		Adjustment: AdjustmentKey{
			Kind:        t.Kind,
			Description: t.Description,
		},
		Cents: t.TotalCents,
	}
}

// Row is one consolidated output row.
type Row struct {
	Kind        string
	SKU         string
	Description string
	Quantity    int64
	TotalCents  int64
}

// less orders rows by kind and description first, then the remaining
// fields, giving a total order independent of fold order.
func (r *Row) less(o *Row) bool {
	if r.Kind != o.Kind {
		return r.Kind < o.Kind
	}
	if r.Description != o.Description {
		return r.Description < o.Description
	}
	if r.SKU != o.SKU {
		return r.SKU < o.SKU
	}
	if r.TotalCents != o.TotalCents {
		return r.TotalCents < o.TotalCents
	}
	return r.Quantity < o.Quantity
}
