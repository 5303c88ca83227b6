package forecast

import (
	"math"

	"github.com/shopspring/decimal"
)

// Summary condenses a projection.
type Summary struct {
	FinalNetWorth decimal.Decimal `json:"final_net_worth"`

	// TotalGrowth is the final net worth minus the seed.
	TotalGrowth decimal.Decimal `json:"total_growth"`

	// AnnualizedReturn is the yearly growth rate of net worth in percent.
	// It is zero when the seed is not positive.
	AnnualizedReturn decimal.Decimal `json:"annualized_return"`

	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TotalTax         decimal.Decimal `json:"total_tax"`
	TotalReturns     decimal.Decimal `json:"total_returns"`
	TotalAdjustments decimal.Decimal `json:"total_adjustments"`

	// AverageNet is the mean change in net worth per period.
	AverageNet decimal.Decimal `json:"average_net"`

	// BreakEvenYears is the time from the as-of date until net worth is
	// back at the seed for good, set only when the projection falls below
	// it. When the horizon ends below the seed it is extrapolated from the
	// last period's net; without a positive net it stays unset.
	BreakEvenYears *decimal.Decimal `json:"break_even_years,omitempty"`
}

func summarize(seed decimal.Decimal, rows []Row, months int) Summary {
	s := Summary{FinalNetWorth: seed}
	if len(rows) == 0 {
		return s
	}
	for _, row := range rows {
		s.TotalIncome = s.TotalIncome.Add(row.Income)
		s.TotalExpenses = s.TotalExpenses.Add(row.Expenses)
		s.TotalTax = s.TotalTax.Add(row.Tax)
		s.TotalReturns = s.TotalReturns.Add(row.Returns)
		s.TotalAdjustments = s.TotalAdjustments.Add(row.Adjustments)
	}
	final := rows[len(rows)-1]
	s.FinalNetWorth = final.End
	s.TotalGrowth = final.End.Sub(seed)
	s.AverageNet = s.TotalGrowth.Div(decimal.NewFromInt(int64(len(rows)))).Round(2)

	if seed.IsPositive() {
		years := float64(len(rows)*months) / 12
		rate := -100.0
		if final.End.IsPositive() {
			rate = (math.Pow(final.End.Div(seed).InexactFloat64(), 1/years) - 1) * 100
		}
		s.AnnualizedReturn = decimal.NewFromFloat(rate).Round(2)
	}

	below := -1
	for i, row := range rows {
		if row.End.LessThan(seed) {
			below = i
		}
	}
	switch {
	case below < 0:
	case below < len(rows)-1:
		s.BreakEvenYears = yearsOf(below+2, months)
	case final.Net.IsPositive():
		short := seed.Sub(final.End).Div(final.Net).Ceil().IntPart()
		s.BreakEvenYears = yearsOf(len(rows)+int(short), months)
	}
	return s
}

func yearsOf(periods, months int) *decimal.Decimal {
	years := decimal.NewFromInt(int64(periods * months)).Div(decimal.NewFromInt(12)).Round(2)
	return &years
}
