package view

import "github.com/shopspring/decimal"

// FormatPrice formats d as dollars with exactly two decimals.
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
