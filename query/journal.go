package query

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// Row is one posting of the journal, flattened with its transaction.
type Row struct {
	Date      ledger.Date     `json:"date"`
	Flag      string          `json:"flag"`
	Payee     string          `json:"payee,omitempty"`
	Narration string          `json:"narration"`
	Account   string          `json:"account"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Tags      []string        `json:"tags,omitempty"`
	Links     []string        `json:"links,omitempty"`
	File      string          `json:"file,omitempty"`
	Line      int             `json:"line,omitempty"`
}

// Rows flattens transactions into one row per posting. When account is set
// only postings whose account contains it, ignoring case, are kept. Rows
// keep the order of txns.
func Rows(txns []*ledger.Transaction, account string) []Row {
	needle := strings.ToLower(account)
	rows := make([]Row, 0, len(txns))
	for _, t := range txns {
		pos := t.Position()
		for p := range t.AllPostings() {
			if needle != "" && !strings.Contains(strings.ToLower(p.Account), needle) {
				continue
			}
			rows = append(rows, Row{
				Date:      t.Date(),
				Flag:      t.Flag(),
				Payee:     t.Payee(),
				Narration: t.Narration(),
				Account:   p.Account,
				Amount:    p.Amount,
				Currency:  p.Currency,
				Tags:      t.Tags(),
				Links:     t.Links(),
				File:      pos.Filename,
				Line:      pos.Line,
			})
		}
	}
	return rows
}

// Newest returns a copy of rows ordered from the latest date to the
// earliest. Rows on the same date keep their relative order.
func Newest(rows []Row) []Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b Row) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// Flow is the money moving through a set of rows in one currency.
type Flow struct {
	Currency string          `json:"currency"`
	Inflow   decimal.Decimal `json:"inflow"`
	Outflow  decimal.Decimal `json:"outflow"`
	Count    int             `json:"count"`
}

// Net returns inflow minus outflow.
func (f Flow) Net() decimal.Decimal {
	return f.Inflow.Sub(f.Outflow)
}

// Flows totals positive and negative row amounts per currency. Outflow is
// reported as a positive magnitude. Flows are ordered by currency.
func Flows(rows []Row) []Flow {
	index := make(map[string]int)
	var flows []Flow
	for _, r := range rows {
		i, ok := index[r.Currency]
		if !ok {
			i = len(flows)
			index[r.Currency] = i
			flows = append(flows, Flow{Currency: r.Currency})
		}
		f := &flows[i]
		f.Count++
		if r.Amount.IsNegative() {
			f.Outflow = f.Outflow.Add(r.Amount.Neg())
		} else {
			f.Inflow = f.Inflow.Add(r.Amount)
		}
	}
	slices.SortFunc(flows, func(a, b Flow) int {
		return strings.Compare(a.Currency, b.Currency)
	})
	return flows
}
