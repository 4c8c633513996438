// Package money centralises the decimal rounding rule the broker applies
// to every monetary write: six decimal places, half-away-from-zero. All
// cash, price, and fee fields in this module are shopspring/decimal
// values rounded to six places at the point they are produced (through
// Round6 in marketdata, through decimal's Round(6) directly elsewhere),
// so two runs with identical inputs produce byte-identical decimal strings.
package money

import "github.com/shopspring/decimal"

const places = 6

// Round6 rounds d to 6 decimal places.
func Round6(d decimal.Decimal) decimal.Decimal {
	return d.Round(places)
}

// Zero is the canonical zero value, already at the module's precision.
var Zero = decimal.Zero

// FromFloat builds a Decimal from a float64 raw order field (prices and
// quantities arrive from callers as float64-shaped JSON numbers) and
// rounds it to the module's precision.
func FromFloat(f float64) decimal.Decimal {
	return Round6(decimal.NewFromFloat(f))
}
