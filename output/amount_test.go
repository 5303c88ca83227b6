package output

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		currency string
		want     string
	}{
		{"USD", "1234.5", "USD", "$1,234.50"},
		{"NegativeUSD", "-37.45", "USD", "-$37.45"},
		{"UnknownCommodity", "10", "HOOL", "10.00 HOOL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatAmount(decimal.RequireFromString(tt.value), tt.currency)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "12.30", FormatNumber(decimal.RequireFromString("12.3"), "EUR"))
	assert.Equal(t, "12", FormatNumber(decimal.RequireFromString("12.3"), "JPY"))
	assert.Equal(t, 2, Fraction("HOOL"))
}
