package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rumor-ml/commons.systems/txnfold/internal/consolidate"
	"github.com/rumor-ml/commons.systems/txnfold/internal/money"
)

// TSVSink writes tab-delimited artifacts, the layout the downstream
// bookkeeping tooling imports directly.
type TSVSink struct {
	path string
}

// NewTSVSink creates a sink writing to path.
func NewTSVSink(path string) *TSVSink {
	return &TSVSink{path: path}
}

// Name returns the artifact path.
func (s *TSVSink) Name() string { return s.path }

// Write renders the artifact. The file is created exclusively, so a path
// that already exists is an error, never truncated. Flush and close
// failures surface as errors; a partially written file must never count
// as success.
func (s *TSVSink) Write(header []string, rows []consolidate.Row) (err error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", s.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", s.path, closeErr)
		}
	}()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", s.path, err)
	}
	for _, row := range rows {
		record := []string{
			row.Kind,
			row.SKU,
			row.Description,
			strconv.FormatInt(row.Quantity, 10),
			money.FormatDollars(row.TotalCents),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", s.path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output file %s: %w", s.path, err)
	}
	return nil
}
