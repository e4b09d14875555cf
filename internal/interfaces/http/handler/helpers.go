package handler

import "github.com/shopspring/decimal"

// toDecimalPtr converts an optional JSON number into a nullable monetary amount.
func toDecimalPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

// toDecimal converts a JSON number into a monetary amount.
func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
