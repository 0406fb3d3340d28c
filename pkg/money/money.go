// Package money provides the monetary arithmetic helpers used across the fund
// engine. All amounts are a single currency with two-decimal precision; every
// monetary computation boundary rounds half-up through Round.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// two decimal places at every monetary boundary
const scale = 2

// Round rounds an amount half-up to two decimal places.
//
// decimal.Round rounds half away from zero, which for the non-negative
// amounts handled here is exactly half-up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(scale)
}

// FromString parses an amount string into a decimal.
func FromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustFromString parses an amount string and panics on error. Intended for
// package-level variables and test fixtures only.
func MustFromString(s string) decimal.Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum adds the given amounts. Sum of nothing is zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// FloorZero clamps a negative amount to zero.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Percent converts a percentage figure (e.g. 2 meaning 2%) into its decimal
// fraction (0.02).
func Percent(p decimal.Decimal) decimal.Decimal {
	return p.Div(decimal.NewFromInt(100))
}
