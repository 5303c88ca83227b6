package output

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// defaultFraction is used for commodities unknown to the ISO 4217 table.
const defaultFraction = 2

// Fraction returns the number of minor-unit digits of a currency.
func Fraction(currency string) int {
	if cur := money.GetCurrency(currency); cur != nil {
		return cur.Fraction
	}
	return defaultFraction
}

// FormatAmount renders value using the currency's symbol and separators
// ("$1,234.56", "1.234,56 €"). Commodities without ISO metadata fall back to
// "1234.56 HOOL".
func FormatAmount(value decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return value.StringFixed(defaultFraction) + " " + currency
	}
	minor := value.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// FormatNumber renders value with the currency's number of fraction digits
// and no symbol, for aligned table columns.
func FormatNumber(value decimal.Decimal, currency string) string {
	return value.StringFixed(int32(Fraction(currency)))
}
