package web

import (
	"net/http"

	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/query"
)

// JournalResponse lists matching postings, newest first.
type JournalResponse struct {
	Total int          `json:"total"`
	Rows  []query.Row  `json:"rows"`
	Flows []query.Flow `json:"flows"`
}

// handleGetJournal handles GET requests to /api/journal.
//
// Query parameters (all optional, combined with AND):
//   - account: Case-insensitive substring of a posting account.
//   - q: Case-insensitive substring of the narration, payee or a tag.
//   - from, to: Date range in YYYY-MM-DD format, bounds included.
//   - min, max: Posting amount bounds.
//   - absolute: Compare amount magnitudes against min and max.
//   - limit: Maximum number of rows returned. Flows cover all rows.
func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	c, limit, err := parseCriteria(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	txns, err := query.Filter(snapshot, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows := query.Newest(query.Rows(txns, c.Account))
	flows := query.Flows(rows)
	if flows == nil {
		flows = []query.Flow{}
	}

	response := &JournalResponse{Total: len(rows), Rows: rows, Flows: flows}
	if limit > 0 && len(rows) > limit {
		response.Rows = rows[:limit]
	}
	writeJSONResponse(w, response)
}

func parseCriteria(r *http.Request) (query.Criteria, int, error) {
	q := r.URL.Query()
	c := query.Criteria{
		Account: q.Get("account"),
		Text:    q.Get("q"),
	}

	if q.Get("from") != "" || q.Get("to") != "" {
		period, err := queryRange(q, ledger.DateRange{})
		if err != nil {
			return c, 0, err
		}
		c.Range = &period
	}

	var err error
	if c.Min, err = queryDecimal(q, "min"); err != nil {
		return c, 0, err
	}
	if c.Max, err = queryDecimal(q, "max"); err != nil {
		return c, 0, err
	}
	if c.Absolute, err = queryBool(q, "absolute"); err != nil {
		return c, 0, err
	}

	limit, err := queryInt(q, "limit", 0)
	if err != nil {
		return c, 0, err
	}
	if limit < 0 {
		return c, 0, ledger.NewInvalidParameterError("limit", limit, "must not be negative")
	}
	return c, limit, nil
}
