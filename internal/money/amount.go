// Package money holds the rules for monetary amounts: exact decimals with at
// most Scale fractional digits, rounded half away from zero.
package money

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits in the smallest currency unit.
const Scale = 2

// Exact reports whether d carries no precision beyond Scale fractional
// digits. Amounts failing this are rejected rather than silently rounded.
func Exact(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

// Valid reports whether d is usable as an operation amount: strictly
// positive and exact at Scale.
func Valid(d decimal.Decimal) bool {
	return d.IsPositive() && Exact(d)
}

// Round normalizes d to Scale fractional digits, half away from zero. For
// amounts that passed Exact this is the identity.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}
