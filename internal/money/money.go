// Package money parses, rounds and formats currency amounts.
//
// All amounts are decimal.Decimal values held at two decimal places. Floats
// never appear in arithmetic; they only exist at the edges (JSON clients).
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for empty, signed, non-numeric or zero input.
var ErrInvalidAmount = errors.New("amount must be a positive number")

// Cent is the smallest currency unit handled, and the reconciliation tolerance.
var Cent = decimal.New(1, -2)

// Parse converts user input such as "12.34" or "12,34" to a positive amount
// rounded half-up to cents.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = Round(d)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Round rounds half away from zero to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NearZero reports whether d is within one cent of zero, exclusive.
func NearZero(d decimal.Decimal) bool {
	return d.Abs().LessThan(Cent)
}

// Sum adds amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}
