package consolidate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rumor-ml/commons.systems/txnfold/internal/memory"
)

// ErrFinalized indicates use of an aggregator whose totals have already
// been drained.
var ErrFinalized = errors.New("aggregator already finalized")

// Aggregator folds classified rows into keyed running totals for one
// report file. It starts empty, accumulates, and finalizes exactly once;
// after finalization it refuses further mutation.
//
// The aggregator also owns duplicate skipping: a row whose fingerprint the
// Memory already contains is never folded, and every folded row's
// fingerprint is remembered immediately, so an identical row later in the
// same file counts as a duplicate too.
type Aggregator struct {
	mem           *memory.Memory
	adjustmentSKU string
	identified    map[IdentifiedKey]int64
	adjustments   map[AdjustmentKey]int64
	folded        int
	finalized     bool
}

// NewAggregator creates an empty aggregator backed by mem. adjustmentSKU
// is written into the product column of finalized adjustment rows.
func NewAggregator(mem *memory.Memory, adjustmentSKU string) *Aggregator {
	return &Aggregator{
		mem:           mem,
		adjustmentSKU: adjustmentSKU,
		identified:    make(map[IdentifiedKey]int64),
		adjustments:   make(map[AdjustmentKey]int64),
	}
}

// Seen reports whether fp was already consolidated, in a prior run or
// earlier in this one. Callers use it to skip decoding duplicate rows.
func (a *Aggregator) Seen(fp memory.Fingerprint) bool {
	return a.mem.Contains(fp)
}

// Fold adds a classified row unless its fingerprint is already known,
// reporting whether the row was folded. Folding remembers fp.
func (a *Aggregator) Fold(c Classification, fp memory.Fingerprint) (bool, error) {
	if a.finalized {
		return false, ErrFinalized
	}
	if a.mem.Contains(fp) {
		return false, nil
	}

	switch c.Variant {
	case VariantIdentified:
		a.identified[c.Identified] += c.Quantity
	case VariantAdjustment:
		a.adjustments[c.Adjustment] += c.Cents
	default:
		return false, fmt.Errorf("unknown classification variant %d", c.Variant)
	}

	a.mem.Remember(fp)
	a.folded++
	return true, nil
}

// Folded returns how many rows this aggregator has folded.
func (a *Aggregator) Folded() int { return a.folded }

// Finalize drains both keyed totals into the final sorted rows and seals
// the aggregator.
//
// Identified rows render the exact extended amount, unit cents times
// summed quantity. Adjustment rows carry their accumulated signed cents, a
// quantity of +1 or -1 matching the sign (zero counts as positive), and
// the sentinel product identifier.
func (a *Aggregator) Finalize() ([]Row, error) {
	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true

	rows := make([]Row, 0, len(a.identified)+len(a.adjustments))
	for key, quantity := range a.identified {
		rows = append(rows, Row{
			Kind:        key.Kind,
			SKU:         key.SKU,
			Description: key.Description,
			Quantity:    quantity,
			TotalCents:  key.UnitCents * quantity,
		})
	}
	for key, cents := range a.adjustments {
		quantity := int64(1)
		if cents < 0 {
			quantity = -1
		}
		rows = append(rows, Row{
			Kind:        key.Kind,
			SKU:         a.adjustmentSKU,
			Description: key.Description,
			Quantity:    quantity,
			TotalCents:  cents,
		})
	}

	// Map drain order must never reach the artifact.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].less(&rows[j])
	})
	return rows, nil
}
