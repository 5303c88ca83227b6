package web

import (
	"net/http"

	"github.com/robinvdvleuten/ourfinance/forecast"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

// IncomeResponse is an income statement with optional per-account detail.
type IncomeResponse struct {
	Granularity report.Granularity    `json:"granularity"`
	Rows        []report.IncomeRow    `json:"rows"`
	Total       report.IncomeRow      `json:"total"`
	Income      []report.AccountTotal `json:"income_accounts,omitempty"`
	Expenses    []report.AccountTotal `json:"expense_accounts,omitempty"`
}

// handleGetIncome handles GET requests to /api/income.
//
// Query parameters:
//   - from, to: Period in YYYY-MM-DD format. Defaults to the ledger's span.
//   - granularity: monthly (default), quarterly or yearly.
//   - depth: When set, adds income and expense totals grouped by account
//     truncated to this many segments.
func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	g, err := queryGranularity(q, "granularity", report.Monthly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	span, _ := snapshot.DateSpan()
	period, err := queryRange(q, span)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	depth, err := queryInt(q, "depth", -1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	response := &IncomeResponse{Granularity: g, Rows: []report.IncomeRow{}}
	if !period.To.IsZero() {
		if response.Rows, err = report.IncomeStatement(snapshot, period, g); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	response.Total = report.Summarize(response.Rows)

	if depth >= 0 {
		if response.Income, err = report.Breakdown(snapshot, period, ledger.CategoryIncome, depth); err != nil {
			s.writeError(w, r, err)
			return
		}
		if response.Expenses, err = report.Breakdown(snapshot, period, ledger.CategoryExpenses, depth); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	writeJSONResponse(w, response)
}

// HealthResponse combines the health report with the expense patterns over
// the same months.
type HealthResponse struct {
	*report.HealthReport
	Expenses []forecast.ExpensePattern `json:"expense_patterns"`
}

// handleGetHealth handles GET requests to /api/health.
//
// Query parameters:
//   - as_of: Date in YYYY-MM-DD format. Defaults to today.
//   - months: Months averaged for income and expenses. Defaults to 3.
//   - currency: Defaults to the ledger's primary currency.
func (s *Server) handleGetHealth(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	asOf, err := queryDate(q, "as_of", s.today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	months, err := queryInt(q, "months", 3)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	currency := q.Get("currency")
	if currency == "" {
		currency = s.Forecast.Currency
	}

	health, err := report.Health(snapshot, asOf, months, currency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	patterns, err := forecast.AnalyzeExpenses(snapshot, months, health.Currency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSONResponse(w, &HealthResponse{HealthReport: health, Expenses: patterns})
}
