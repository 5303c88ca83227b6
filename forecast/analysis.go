package forecast

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

// ExpensePattern describes the monthly spending of one top-level expense
// category. Months without spending count as zero.
type ExpensePattern struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Average  decimal.Decimal `json:"average"`
	StdDev   decimal.Decimal `json:"std_dev"`

	// Trend is the least-squares slope of the monthly totals, the change
	// in spending per month.
	Trend decimal.Decimal `json:"trend"`

	Monthly []decimal.Decimal `json:"monthly"`
}

// AnalyzeExpenses summarises spending in currency per "Expenses:<name>"
// category over the last calendar months, the month of the latest
// transaction included. Categories are ordered by name.
func AnalyzeExpenses(s *ledger.Snapshot, months int, currency string) ([]ExpensePattern, error) {
	if months <= 0 {
		return nil, ledger.NewInvalidParameterError("months", months, "must be positive")
	}
	span, ok := s.DateSpan()
	if !ok {
		return nil, &ledger.InsufficientDataError{Operation: "expense analysis", Reason: "ledger has no transactions"}
	}
	if currency == "" {
		currency = s.PrimaryCurrency()
	}

	first := report.Monthly.Add(report.Monthly.Start(span.To), 1-months)
	r := ledger.DateRange{From: first, To: span.To}
	buckets, err := report.Buckets(r, report.Monthly)
	if err != nil {
		return nil, err
	}
	totals, err := report.Breakdown(s, r, ledger.CategoryExpenses, 2)
	if err != nil {
		return nil, err
	}

	patterns := make([]ExpensePattern, 0, len(totals))
	for _, total := range totals {
		if total.Account == "Expenses" || total.Total.Get(currency).IsZero() {
			continue
		}
		monthly := make([]decimal.Decimal, len(buckets))
		for i, b := range buckets {
			monthly[i] = report.BalanceAsOf(s, total.Account, currency, b.Last()).
				Sub(report.BalanceAsOf(s, total.Account, currency, b.Start.AddDays(-1)))
		}
		patterns = append(patterns, describe(total.Account, total.Total.Get(currency), monthly))
	}
	return patterns, nil
}

func describe(category string, total decimal.Decimal, monthly []decimal.Decimal) ExpensePattern {
	data := make(stats.Float64Data, len(monthly))
	series := make(stats.Series, len(monthly))
	for i, m := range monthly {
		data[i] = m.InexactFloat64()
		series[i] = stats.Coordinate{X: float64(i), Y: data[i]}
	}

	p := ExpensePattern{Category: category, Total: total, Monthly: monthly}
	if mean, err := stats.Mean(data); err == nil {
		p.Average = round(mean)
	}
	if len(data) < 2 {
		return p
	}
	if sd, err := stats.StandardDeviationSample(data); err == nil {
		p.StdDev = round(sd)
	}
	if fit, err := stats.LinearRegression(series); err == nil && len(fit) >= 2 {
		p.Trend = round((fit[1].Y - fit[0].Y) / (fit[1].X - fit[0].X))
	}
	return p
}

func round(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
