package web

import (
	"net/http"
	"slices"

	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

// AccountInfo represents basic information about a ledger account.
type AccountInfo struct {
	Account  string          `json:"account"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Depth    int             `json:"depth"`
	Parent   string          `json:"parent,omitempty"`
	Declared bool            `json:"declared"`
	Open     ledger.Date     `json:"open"`
	Close    ledger.Date     `json:"close"`
	Balance  *report.Balance `json:"balance"`
}

// AccountsResponse is the JSON response structure for the accounts endpoint.
type AccountsResponse struct {
	AsOf     ledger.Date   `json:"as_of"`
	Accounts []AccountInfo `json:"accounts"`
}

// handleGetAccounts handles GET requests to /api/accounts.
// Returns every known account sorted by path, with its own balance.
//
// Query parameters:
//   - category: Comma-separated categories to keep (Assets,Income,...).
//   - as_of: Balance date in YYYY-MM-DD format. Defaults to today.
func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	categories, err := queryCategories(q, "category")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asOf, err := queryDate(q, "as_of", s.today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	balances := make(map[string]*report.Balance)
	for _, b := range report.Balances(snapshot, asOf) {
		balances[b.Account] = b.Balance
	}

	accounts := make([]AccountInfo, 0, len(snapshot.AccountPaths()))
	for _, a := range snapshot.Accounts() {
		if len(categories) > 0 && !slices.Contains(categories, a.Category) {
			continue
		}
		balance := balances[a.Path]
		if balance == nil {
			balance = report.NewBalance()
		}
		accounts = append(accounts, AccountInfo{
			Account:  a.Path,
			Name:     a.Name(),
			Category: a.Category.String(),
			Depth:    a.Depth,
			Parent:   a.Parent,
			Declared: a.Declared,
			Open:     a.Open,
			Close:    a.Close,
			Balance:  balance,
		})
	}

	writeJSONResponse(w, &AccountsResponse{AsOf: asOf, Accounts: accounts})
}
