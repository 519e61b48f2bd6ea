// Package money converts report amount text to integer cents and back.
//
// All consolidation arithmetic happens on int64 cents. Floating point
// appears exactly once, inside FormatDollars, at the output boundary.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedAmount indicates amount text whose decimal shape cannot be
// mapped onto whole cents.
var ErrMalformedAmount = errors.New("malformed amount")

// ParseCents converts amount text to integer cents.
//
// The scale is inferred from the digit count after the last decimal
// separator ('.' or ','): two digits means the text already names cents,
// one digit means tenths, none means whole units. Any other count fails.
// All separator punctuation is stripped before the integer parse, so
// grouped forms like "1,345.30" work unchanged.
func ParseCents(s string) (int64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrMalformedAmount)
	}

	scale := int64(100)
	if i := strings.LastIndexAny(text, ".,"); i >= 0 {
		switch len(text) - i - 1 {
		case 0:
			scale = 100
		case 1:
			scale = 10
		case 2:
			scale = 1
		default:
			return 0, fmt.Errorf("%w: %q has %d digits after the decimal separator", ErrMalformedAmount, s, len(text)-i-1)
		}
	}

	digits := strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, text)

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	if n > math.MaxInt64/scale || n < math.MinInt64/scale {
		return 0, fmt.Errorf("%w: %q overflows cents", ErrMalformedAmount, s)
	}
	return n * scale, nil
}

// FormatDollars renders cents as a decimal dollar string in shortest
// round-trip form ("1.5", never "1.50"). The only floating-point use in
// the module.
func FormatDollars(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', -1, 64)
}

// UnitPrice derives per-unit cents from a row total. A zero quantity
// yields the total itself, which keeps quantity-less adjustment rows
// meaningful instead of dividing by zero.
func UnitPrice(totalCents, quantity int64) int64 {
	if quantity == 0 {
		return totalCents
	}
	return totalCents / quantity
}
