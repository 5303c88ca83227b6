// Package forecast projects net worth forward from historical income and
// expense run-rates, with optional scenario adjustments, growth rates and
// income tax.
package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

// Params configures a forecast.
type Params struct {
	// Window is the number of trailing periods averaged into the baseline.
	Window int `json:"window"`

	// Horizon is the number of future periods to project.
	Horizon int `json:"horizon"`

	Granularity report.Granularity `json:"granularity"`

	// Currency selects the currency to project. Empty uses the ledger's
	// primary currency.
	Currency string `json:"currency,omitempty"`

	Scenarios []Scenario `json:"scenarios,omitempty"`

	Growth Growth `json:"growth"`

	// Tax deducts income tax from projected income when set.
	Tax *TaxSchedule `json:"tax,omitempty"`
}

// Validate rejects non-positive window or horizon, an unknown granularity,
// malformed scenarios and out of range rates.
func (p Params) Validate() error {
	if p.Window <= 0 {
		return ledger.NewInvalidParameterError("window", p.Window, "must be at least one period")
	}
	if p.Horizon <= 0 {
		return ledger.NewInvalidParameterError("horizon", p.Horizon, "must be at least one period")
	}
	if !p.Granularity.Valid() {
		return ledger.NewInvalidParameterError("granularity", p.Granularity, "expected monthly, quarterly or yearly")
	}
	for _, s := range p.Scenarios {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if err := p.Growth.Validate(); err != nil {
		return err
	}
	if p.Tax != nil {
		return p.Tax.Validate()
	}
	return nil
}

// Baseline is the average income and expense per period over the window.
type Baseline struct {
	Window   ledger.DateRange `json:"window"`
	Periods  int              `json:"periods"`
	Income   decimal.Decimal  `json:"income"`
	Expenses decimal.Decimal  `json:"expenses"`
}

// Net is the baseline change in net worth per period.
func (b Baseline) Net() decimal.Decimal {
	return b.Income.Sub(b.Expenses)
}

// Row is one projected period. Net is Income minus Expenses and Tax, plus
// Returns and Adjustments.
type Row struct {
	Bucket      report.Bucket   `json:"bucket"`
	Start       decimal.Decimal `json:"start"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Tax         decimal.Decimal `json:"tax"`
	Returns     decimal.Decimal `json:"returns"`
	Adjustments decimal.Decimal `json:"adjustments"`
	Net         decimal.Decimal `json:"net"`
	End         decimal.Decimal `json:"end"`

	// Applied names the adjustments and events counted in this period as
	// "scenario: description".
	Applied []string `json:"applied,omitempty"`
}

// Result is a complete projection.
type Result struct {
	Currency    string             `json:"currency"`
	Granularity report.Granularity `json:"granularity"`
	AsOf        ledger.Date        `json:"as_of"`
	Seed        decimal.Decimal    `json:"seed"`
	Baseline    Baseline           `json:"baseline"`
	Rows        []Row              `json:"rows"`
	Summary     Summary            `json:"summary"`

	// Taxes is set when the projection deducts tax.
	Taxes []TaxYear `json:"taxes,omitempty"`
}

// Final returns the projected net worth at the end of the horizon.
func (r *Result) Final() decimal.Decimal {
	if len(r.Rows) == 0 {
		return r.Seed
	}
	return r.Rows[len(r.Rows)-1].End
}

// Run projects net worth for p.Horizon periods after the period holding
// the latest transaction. The baseline averages the Window periods ending
// on that transaction's date; the projection starts from the real net
// worth on that date. Income and expenses compound from the baseline at
// the growth rates, and returns compound on the running net worth.
// Identical inputs always give identical output.
func Run(s *ledger.Snapshot, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	span, ok := s.DateSpan()
	if !ok {
		return nil, &ledger.InsufficientDataError{Operation: "forecast", Reason: "ledger has no transactions"}
	}

	currency := p.Currency
	if currency == "" {
		currency = s.PrimaryCurrency()
	}
	latest := span.To

	baseline, err := computeBaseline(s, latest, p.Window, p.Granularity, currency)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Currency:    currency,
		Granularity: p.Granularity,
		AsOf:        latest,
		Seed:        report.NetWorth(s, latest).Get(currency),
		Baseline:    baseline,
		Rows:        make([]Row, p.Horizon),
	}

	months := p.Granularity.Months()
	perYear := decimal.NewFromInt(int64(12 / months))
	returnRate := periodic(p.Growth.Return, months)

	balance := result.Seed
	start := p.Granularity.Start(latest)
	for i := range p.Horizon {
		b := report.BucketOf(p.Granularity.Add(start, i+1), p.Granularity)
		years := float64((i+1)*months) / 12
		row := Row{
			Bucket:      b,
			Start:       balance,
			Income:      compound(baseline.Income, p.Growth.Income, years),
			Expenses:    compound(baseline.Expenses, p.Growth.Expenses, years),
			Tax:         decimal.Zero,
			Returns:     decimal.Zero,
			Adjustments: decimal.Zero,
		}
		if p.Tax != nil {
			row.Tax = p.Tax.Assess(row.Income.Mul(perYear)).Total.Div(perYear).Round(2)
		}
		if p.Growth.Return != 0 {
			row.Returns = balance.Mul(returnRate).Round(2)
		}
		for _, sc := range p.Scenarios {
			for _, a := range sc.Adjustments {
				if !a.Overlaps(b) {
					continue
				}
				row.Adjustments = row.Adjustments.Add(a.Amount)
				row.Applied = append(row.Applied, label(sc.Name, a.Description))
			}
			for _, e := range sc.Events {
				if !b.Contains(e.Date) {
					continue
				}
				row.Adjustments = row.Adjustments.Add(e.Signed())
				row.Applied = append(row.Applied, label(sc.Name, e.Description))
			}
		}
		row.Net = row.Income.Sub(row.Expenses).Sub(row.Tax).Add(row.Returns).Add(row.Adjustments)
		row.End = row.Start.Add(row.Net)
		balance = row.End
		result.Rows[i] = row
	}

	result.Summary = summarize(result.Seed, result.Rows, months)
	if p.Tax != nil {
		result.Taxes = taxSummary(result.Rows)
	}
	return result, nil
}

func label(scenario, description string) string {
	if description == "" {
		return scenario
	}
	return scenario + ": " + description
}

// computeBaseline averages normalised income and expenses in currency over
// the window periods ending on latest.
func computeBaseline(s *ledger.Snapshot, latest ledger.Date, window int, g report.Granularity, currency string) (Baseline, error) {
	r := ledger.DateRange{From: g.Add(latest, -window).AddDays(1), To: latest}

	income, expenses := decimal.Zero, decimal.Zero
	seen := 0
	for txn := range s.Between(r) {
		touched := false
		for p := range txn.AllPostings() {
			if p.Currency != currency {
				continue
			}
			touched = true
			switch p.Category() {
			case ledger.CategoryIncome:
				income = income.Sub(p.Amount)
			case ledger.CategoryExpenses:
				expenses = expenses.Add(p.Amount)
			}
		}
		if touched {
			seen++
		}
	}
	if seen == 0 {
		return Baseline{}, &ledger.InsufficientDataError{
			Operation: "forecast",
			Reason:    fmt.Sprintf("no %s transactions between %s and %s", currency, r.From, r.To),
		}
	}

	n := decimal.NewFromInt(int64(window))
	return Baseline{
		Window:   r,
		Periods:  window,
		Income:   income.Div(n),
		Expenses: expenses.Div(n),
	}, nil
}
