// Package report reads periodic transaction report files: a fixed number
// of free-form preamble rows, then a header row resolved by alias, then
// delimited data rows.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/rumor-ml/commons.systems/txnfold/internal/money"
	"github.com/rumor-ml/commons.systems/txnfold/internal/profile"
)

// ErrMissingHeader indicates the header row could not be located or lacks
// required columns.
var ErrMissingHeader = errors.New("missing header row")

// ErrDecode indicates a data row that cannot be decoded.
var ErrDecode = errors.New("row decode failed")

// Transaction is one decoded data row.
type Transaction struct {
	DateTime    string
	Kind        string
	SKU         string
	Description string
	Quantity    int64
	TotalCents  int64
}

// UnitCents returns the per-unit price of the transaction.
func (t *Transaction) UnitCents() int64 {
	return money.UnitPrice(t.TotalCents, t.Quantity)
}

// Reader decodes one report file.
//
// Construction consumes the preamble and resolves the header, so a Reader
// either fails fast with ErrMissingHeader or stands ready to stream data
// rows. The exporting systems cannot be trusted to produce UTF-8: the whole
// input passes through a lenient decoder that strips a leading BOM and
// replaces invalid byte sequences instead of rejecting them.
type Reader struct {
	path    string
	csv     *csv.Reader
	columns map[string]int // canonical column -> field index
	record  int            // 1-based index of the most recently read record
}

// NewReader builds a Reader over r using the given layout profile. The
// path is used only for error context.
func NewReader(r io.Reader, prof *profile.Profile, path string) (*Reader, error) {
	cr := csv.NewReader(unicode.UTF8BOM.NewDecoder().Reader(r))
	cr.Comma = prof.Delimiter()
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // preamble rows are ragged

	rd := &Reader{path: path, csv: cr}

	for i := 0; i < prof.PreambleRows(); i++ {
		if _, err := cr.Read(); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: %s ends inside the %d-row preamble", ErrMissingHeader, path, prof.PreambleRows())
			}
			return nil, fmt.Errorf("failed to read preamble of %s: %w", path, err)
		}
		rd.record++
	}

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s has no header row after the preamble", ErrMissingHeader, path)
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	rd.record++

	columns := make(map[string]int)
	for i, cell := range header {
		canonical, ok := prof.Canonical(cell)
		if !ok {
			continue
		}
		if _, claimed := columns[canonical]; !claimed {
			columns[canonical] = i
		}
	}

	var missing []string
	for _, column := range profile.Columns() {
		if _, ok := columns[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s header lacks columns: %s", ErrMissingHeader, path, strings.Join(missing, ", "))
	}

	rd.columns = columns
	return rd, nil
}

// Next returns the raw fields of the next data row, or io.EOF once the
// file is exhausted. The raw fields feed fingerprinting, so no trimming or
// reshaping happens here.
func (r *Reader) Next() ([]string, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %s record %d: %v", ErrDecode, r.path, r.record+1, err)
	}
	r.record++
	return record, nil
}

// Decode turns the most recently read record into a Transaction. Kept
// separate from Next so callers can skip decoding for rows the fingerprint
// set already knows.
func (r *Reader) Decode(record []string) (*Transaction, error) {
	fields := make(map[string]string, len(r.columns))
	for _, column := range profile.Columns() {
		idx := r.columns[column]
		if idx >= len(record) {
			return nil, fmt.Errorf("%w: %s record %d is missing the %s column", ErrDecode, r.path, r.record, column)
		}
		fields[column] = record[idx]
	}

	quantity := int64(0)
	if q := strings.TrimSpace(fields[profile.ColQuantity]); q != "" {
		v, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s record %d: invalid quantity %q", ErrDecode, r.path, r.record, fields[profile.ColQuantity])
		}
		quantity = v
	}

	totalCents, err := money.ParseCents(fields[profile.ColTotal])
	if err != nil {
		return nil, fmt.Errorf("%w: %s record %d: %w", ErrDecode, r.path, r.record, err)
	}

	return &Transaction{
		DateTime:    fields[profile.ColDateTime],
		Kind:        fields[profile.ColKind],
		SKU:         fields[profile.ColSKU],
		Description: fields[profile.ColDescription],
		Quantity:    quantity,
		TotalCents:  totalCents,
	}, nil
}

// Record returns the 1-based index of the most recently read record,
// counting preamble and header rows.
func (r *Reader) Record() int { return r.record }
