package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPercentage(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"zero is valid", 0, false},
		{"mid-range is valid", 75, false},
		{"exactly 100 is valid", 100, false},
		{"negative fails", -1, true},
		{"over 100 fails", 100.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPercentageFromFloat(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.Value().Equal(decimal.NewFromFloat(tt.value)))
		})
	}
}

func TestPercentageFraction(t *testing.T) {
	p := MustPercentage(23)
	assert.Equal(t, "0.23", p.Fraction().String())
}

func TestPercentageAdd(t *testing.T) {
	driver := MustPercentage(75)
	partner := MustPercentage(25)
	assert.True(t, driver.Add(partner).Equal(decimal.NewFromInt(100)))
}
