package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percentage is a value object for percentage values in the 0-100 range.
// It is immutable - all operations return new instances.
type Percentage struct {
	value decimal.Decimal
}

// NewPercentage creates a Percentage, rejecting values outside [0, 100]
func NewPercentage(value decimal.Decimal) (Percentage, error) {
	if value.IsNegative() {
		return Percentage{}, fmt.Errorf("percentage cannot be negative: %s", value)
	}
	if value.GreaterThan(decimal.NewFromInt(100)) {
		return Percentage{}, fmt.Errorf("percentage cannot exceed 100: %s", value)
	}
	return Percentage{value: value}, nil
}

// NewPercentageFromFloat creates a Percentage from a float64
func NewPercentageFromFloat(value float64) (Percentage, error) {
	return NewPercentage(decimal.NewFromFloat(value))
}

// MustPercentage creates a Percentage, panicking on invalid input.
// Intended for constants and tests.
func MustPercentage(value float64) Percentage {
	p, err := NewPercentageFromFloat(value)
	if err != nil {
		panic(err)
	}
	return p
}

// ZeroPercent returns a zero percentage
func ZeroPercent() Percentage {
	return Percentage{value: decimal.Zero}
}

// Value returns the decimal value (0-100)
func (p Percentage) Value() decimal.Decimal {
	return p.value
}

// Fraction returns the value as a fraction (value/100)
func (p Percentage) Fraction() decimal.Decimal {
	return p.value.Div(decimal.NewFromInt(100))
}

// IsZero returns true if the percentage is zero
func (p Percentage) IsZero() bool {
	return p.value.IsZero()
}

// Add returns the sum of two percentages (unvalidated; may exceed 100)
func (p Percentage) Add(other Percentage) decimal.Decimal {
	return p.value.Add(other.value)
}

// Equals returns true if both percentages have the same value
func (p Percentage) Equals(other Percentage) bool {
	return p.value.Equal(other.value)
}

// String returns the percentage formatted with two decimal places
func (p Percentage) String() string {
	return p.value.StringFixed(2) + "%"
}
