package models

import "github.com/shopspring/decimal"

// Round2 rounds a currency amount to 2 decimal places. Every write path
// must pass currency values through this; rounding is a storage boundary,
// not a display step.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
