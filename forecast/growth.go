package forecast

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// Growth holds annual rates compounded over the projection. A rate of 0.03
// is three percent a year. Zero rates keep the run-rate flat.
type Growth struct {
	// Income grows the baseline income, a salary raise.
	Income float64 `json:"income,omitempty" yaml:"income"`

	// Expenses grows the baseline expenses, inflation.
	Expenses float64 `json:"expenses,omitempty" yaml:"expenses"`

	// Return is earned on the net worth at the start of every period.
	Return float64 `json:"return,omitempty" yaml:"return"`
}

// Validate rejects rates of minus one hundred percent or less.
func (g Growth) Validate() error {
	for _, r := range []struct {
		name string
		rate float64
	}{
		{"income growth", g.Income},
		{"expense growth", g.Expenses},
		{"investment return", g.Return},
	} {
		if r.rate <= -1 || math.IsNaN(r.rate) || math.IsInf(r.rate, 0) {
			return ledger.NewInvalidParameterError(r.name, r.rate, "must be greater than -1")
		}
	}
	return nil
}

// compound grows amount at an annual rate for a number of years. The result
// is rounded to cents unless the rate is zero.
func compound(amount decimal.Decimal, rate, years float64) decimal.Decimal {
	if rate == 0 {
		return amount
	}
	return amount.Mul(decimal.NewFromFloat(math.Pow(1+rate, years))).Round(2)
}

// periodic converts an annual rate to the equivalent rate over months.
func periodic(rate float64, months int) decimal.Decimal {
	return decimal.NewFromFloat(math.Pow(1+rate, float64(months)/12) - 1)
}
