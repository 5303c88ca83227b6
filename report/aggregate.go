package report

import (
	"iter"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// AccountBalance is the raw balance of one account.
type AccountBalance struct {
	Account  string          `json:"account"`
	Category ledger.Category `json:"-"`
	Balance  *Balance        `json:"balance"`
}

// BalanceAsOf sums the postings of accounts at or below prefix, in
// currency, dated on or before asOf. The sum keeps the ledger's sign.
// Postings in other currencies are ignored; nothing is converted.
func BalanceAsOf(s *ledger.Snapshot, prefix, currency string, asOf ledger.Date) decimal.Decimal {
	total := decimal.Zero
	for txn := range s.Until(asOf) {
		for p := range txn.AllPostings() {
			if p.Currency == currency && ledger.IsDescendant(p.Account, prefix) {
				total = total.Add(p.Amount)
			}
		}
	}
	return total
}

// accountTotals sums postings per account over a transaction sequence.
func accountTotals(txns iter.Seq[*ledger.Transaction]) map[string]*Balance {
	totals := make(map[string]*Balance)
	for txn := range txns {
		for p := range txn.AllPostings() {
			b, ok := totals[p.Account]
			if !ok {
				b = NewBalance()
				totals[p.Account] = b
			}
			b.Add(p.Currency, p.Amount)
		}
	}
	return totals
}

// Balances returns the raw balance of every posted account as of asOf,
// ordered by account. Accounts whose amounts cancel out are omitted.
func Balances(s *ledger.Snapshot, asOf ledger.Date) []AccountBalance {
	totals := accountTotals(s.Until(asOf))
	balances := make([]AccountBalance, 0, len(totals))
	for _, account := range sortedKeys(totals) {
		b := totals[account].Prune()
		if b.IsZero() {
			continue
		}
		balances = append(balances, AccountBalance{
			Account:  account,
			Category: ledger.Classify(account),
			Balance:  b,
		})
	}
	return balances
}

// NetWorth returns assets minus liabilities per currency as of asOf. With
// liabilities stored as negative amounts this is the raw sum of both
// categories.
func NetWorth(s *ledger.Snapshot, asOf ledger.Date) *Balance {
	worth := NewBalance()
	for txn := range s.Until(asOf) {
		for p := range txn.AllPostings() {
			switch p.Category() {
			case ledger.CategoryAssets, ledger.CategoryLiabilities:
				worth.Add(p.Currency, p.Amount)
			}
		}
	}
	return worth
}

// NetWorthPoint is the net worth at the end of a bucket.
type NetWorthPoint struct {
	Bucket   Bucket   `json:"bucket"`
	NetWorth *Balance `json:"net_worth"`
}

// NetWorthSeries returns the net worth at the last day of every bucket of
// granularity g covering r.
func NetWorthSeries(s *ledger.Snapshot, r ledger.DateRange, g Granularity) ([]NetWorthPoint, error) {
	buckets, err := Buckets(r, g)
	if err != nil {
		return nil, err
	}

	points := make([]NetWorthPoint, len(buckets))
	running := NetWorth(s, r.From.AddDays(-1))
	for i, b := range buckets {
		for txn := range s.Between(b.Range()) {
			for p := range txn.AllPostings() {
				switch p.Category() {
				case ledger.CategoryAssets, ledger.CategoryLiabilities:
					running.Add(p.Currency, p.Amount)
				}
			}
		}
		points[i] = NetWorthPoint{Bucket: b, NetWorth: running.Copy()}
	}
	return points, nil
}

// BalanceTree builds the hierarchy of raw balances as of asOf. Without
// categories every category present is included, unknown roots last.
func BalanceTree(s *ledger.Snapshot, asOf ledger.Date, categories ...ledger.Category) *Tree {
	return newTree(accountTotals(s.Until(asOf)), ledger.DateRange{To: asOf}, categories)
}

// ActivityTree builds the hierarchy of postings made within r, the change
// in every account over the period.
func ActivityTree(s *ledger.Snapshot, r ledger.DateRange, categories ...ledger.Category) (*Tree, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return newTree(accountTotals(s.Between(r)), r, categories), nil
}

