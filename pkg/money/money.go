// Package money centralizes monetary arithmetic rules. Amounts are
// arbitrary-precision decimals; comparisons that absorb rounding noise
// use a fixed one-cent tolerance.
package money

import "github.com/shopspring/decimal"

// Tolerance is one minor unit (0.01). Share sums and settlement checks
// compare within this epsilon, never exactly.
var Tolerance = decimal.New(1, -2)

// Round normalizes an amount to two decimal places, half-up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinTolerance reports whether a and b differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// ClampNonNegative floors d at zero.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
