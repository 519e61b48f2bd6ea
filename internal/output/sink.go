// Package output renders consolidated rows into tabular artifacts.
package output

import (
	"github.com/rumor-ml/commons.systems/txnfold/internal/consolidate"
)

// Header returns the column order every sink renders: kind, product
// identifier, description, quantity, total amount.
func Header() []string {
	return []string{"type", "sku", "description", "quantity", "total"}
}

// Sink writes a complete consolidated report artifact. Write either
// produces the whole artifact or returns an error; callers treat any
// error as "no artifact" and leave their fingerprint store untouched.
type Sink interface {
	// Name identifies the sink target in logs and errors.
	Name() string

	// Write renders the header and the rows in their given order.
	Write(header []string, rows []consolidate.Row) error
}
