package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

// BalancesResponse is the JSON response structure for the balances endpoint.
type BalancesResponse struct {
	Roots      []*report.Node `json:"roots"`
	Currencies []string       `json:"currencies"`
	From       *ledger.Date   `json:"from,omitempty"`
	To         ledger.Date    `json:"to"`
}

// AccountBalanceResponse is the balance of one account subtree.
type AccountBalanceResponse struct {
	Account string                     `json:"account"`
	AsOf    ledger.Date                `json:"as_of"`
	Balance map[string]decimal.Decimal `json:"balance"`
}

// handleGetBalances handles GET requests to /api/balances.
//
// Query parameters:
//   - account: Return the balance of this account and its descendants
//     instead of a tree. Combine with currency to select one currency.
//   - categories: Comma-separated categories (Assets,Liabilities,Equity,Income,Expenses).
//     If omitted, returns all categories (trial balance).
//   - as_of: Balance date in YYYY-MM-DD format. Defaults to today.
//   - from, to: Period in YYYY-MM-DD format, bounds included.
//
// Date semantics:
//   - from and to omitted: Point-in-time balance as of as_of (balance sheet).
//   - from and to given: Change over the period (income statement).
//
// Examples:
//   - GET /api/balances?categories=Assets,Liabilities&as_of=2024-01-31 - Balance sheet
//   - GET /api/balances?categories=Income,Expenses&from=2024-01-01&to=2024-01-31 - Income statement
//   - GET /api/balances?account=Assets:Checking&currency=USD&as_of=2024-01-31 - Single balance
func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
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

	if account := q.Get("account"); account != "" {
		currencies := snapshot.Currencies()
		if currency := q.Get("currency"); currency != "" {
			currencies = []string{currency}
		}
		balance := make(map[string]decimal.Decimal, len(currencies))
		for _, currency := range currencies {
			amount := report.BalanceAsOf(snapshot, account, currency, asOf)
			if !amount.IsZero() || len(currencies) == 1 {
				balance[currency] = amount
			}
		}
		writeJSONResponse(w, &AccountBalanceResponse{Account: account, AsOf: asOf, Balance: balance})
		return
	}

	categories, err := queryCategories(q, "categories")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var tree *report.Tree
	if q.Get("from") != "" || q.Get("to") != "" {
		period, err := queryRange(q, ledger.DateRange{})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if tree, err = report.ActivityTree(snapshot, period, categories...); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		tree = report.BalanceTree(snapshot, asOf, categories...)
	}

	writeJSONResponse(w, convertBalanceTree(tree))
}

// convertBalanceTree converts a report.Tree to a BalancesResponse.
func convertBalanceTree(tree *report.Tree) *BalancesResponse {
	response := &BalancesResponse{
		Roots:      tree.Roots,
		Currencies: tree.Currencies,
		To:         tree.Range.To,
	}
	if !tree.Range.From.IsZero() {
		from := tree.Range.From
		response.From = &from
	}
	return response
}

// NetWorthResponse is the net worth at a date or over a series of periods.
type NetWorthResponse struct {
	AsOf     *ledger.Date           `json:"as_of,omitempty"`
	NetWorth *report.Balance        `json:"net_worth,omitempty"`
	Series   []report.NetWorthPoint `json:"series,omitempty"`
}

// handleGetNetWorth handles GET requests to /api/networth.
//
// Without from, to or granularity it returns the net worth as of as_of
// (default today). Otherwise it returns one point per period, defaulting to
// monthly periods over the ledger's date span.
func (s *Server) handleGetNetWorth(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" && q.Get("granularity") == "" {
		asOf, err := queryDate(q, "as_of", s.today())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSONResponse(w, &NetWorthResponse{AsOf: &asOf, NetWorth: report.NetWorth(snapshot, asOf)})
		return
	}

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

	series := []report.NetWorthPoint{}
	if !period.To.IsZero() {
		if series, err = report.NetWorthSeries(snapshot, period, g); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSONResponse(w, &NetWorthResponse{Series: series})
}
