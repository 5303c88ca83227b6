package output

import (
	"bytes"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestStylesPlainForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	for _, render := range []func(string) string{
		styles.Success,
		styles.Error,
		styles.Warning,
		styles.FilePath,
		styles.Account,
		styles.Amount,
		styles.Keyword,
		styles.Dim,
	} {
		assert.Equal(t, "Assets:Checking", render("Assets:Checking"))
	}
}

func TestStylesSigned(t *testing.T) {
	styles := NewStyles(&bytes.Buffer{})

	tests := []struct {
		name  string
		value string
	}{
		{"Negative", "-12.00"},
		{"Positive", "12.00"},
		{"Zero", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := decimal.RequireFromString(tt.value)
			assert.Equal(t, tt.value, styles.Signed(value, tt.value))
		})
	}
}

func TestStylesMoney(t *testing.T) {
	styles := NewStyles(&bytes.Buffer{})

	assert.Equal(t, "-$1,200.00", styles.Money(decimal.RequireFromString("-1200"), "USD"))
	assert.Equal(t, "$2,600.00", styles.Money(decimal.RequireFromString("2600"), "USD"))
}
