package report

import (
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// IncomeRow is one bucket of an income statement. Income and Expenses are
// normalised to positive flows; Net is Income minus Expenses.
type IncomeRow struct {
	Bucket   Bucket   `json:"bucket"`
	Income   *Balance `json:"income"`
	Expenses *Balance `json:"expenses"`
	Net      *Balance `json:"net"`
}

// IncomeStatement totals Income and Expenses postings per bucket of
// granularity g covering r. Every bucket is present even when it holds no
// transactions, and rows follow calendar order.
func IncomeStatement(s *ledger.Snapshot, r ledger.DateRange, g Granularity) ([]IncomeRow, error) {
	buckets, err := Buckets(r, g)
	if err != nil {
		return nil, err
	}

	rows := make([]IncomeRow, len(buckets))
	for i, b := range buckets {
		rows[i] = IncomeRow{Bucket: b, Income: NewBalance(), Expenses: NewBalance()}
	}

	for txn := range s.Between(r) {
		i := locate(buckets, txn.Date())
		if i < 0 {
			continue
		}
		for p := range txn.AllPostings() {
			switch c := p.Category(); c {
			case ledger.CategoryIncome:
				rows[i].Income.Add(p.Currency, natural(c, p.Amount))
			case ledger.CategoryExpenses:
				rows[i].Expenses.Add(p.Currency, natural(c, p.Amount))
			}
		}
	}

	for i := range rows {
		rows[i].Net = rows[i].Income.Sub(rows[i].Expenses)
	}
	return rows, nil
}

// Summarize adds up the rows of an income statement into one row spanning
// all of them.
func Summarize(rows []IncomeRow) IncomeRow {
	total := IncomeRow{Income: NewBalance(), Expenses: NewBalance(), Net: NewBalance()}
	if len(rows) == 0 {
		return total
	}
	total.Bucket = Bucket{
		Label: rows[0].Bucket.Label + ".." + rows[len(rows)-1].Bucket.Label,
		Start: rows[0].Bucket.Start,
		End:   rows[len(rows)-1].Bucket.End,
	}
	for _, row := range rows {
		total.Income.Merge(row.Income)
		total.Expenses.Merge(row.Expenses)
		total.Net.Merge(row.Net)
	}
	return total
}

// AccountTotal is the normalised total of an account group over a period.
type AccountTotal struct {
	Account string   `json:"account"`
	Total   *Balance `json:"total"`
}

// Breakdown totals the postings of one category within r, grouped by
// account truncated to depth segments. "Expenses:Food:Groceries" at depth 2
// is reported under "Expenses:Food". A depth of zero or less keeps full
// paths. Totals are normalised, so income and expenses are positive.
func Breakdown(s *ledger.Snapshot, r ledger.DateRange, category ledger.Category, depth int) ([]AccountTotal, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	groups := make(map[string]*Balance)
	for txn := range s.Between(r) {
		for p := range txn.AllPostings() {
			if p.Category() != category {
				continue
			}
			key := ledger.Truncate(p.Account, depth)
			b, ok := groups[key]
			if !ok {
				b = NewBalance()
				groups[key] = b
			}
			b.Add(p.Currency, natural(category, p.Amount))
		}
	}

	totals := make([]AccountTotal, 0, len(groups))
	for _, account := range sortedKeys(groups) {
		totals = append(totals, AccountTotal{Account: account, Total: groups[account]})
	}
	return totals, nil
}

func natural(c ledger.Category, amount decimal.Decimal) decimal.Decimal {
	if c.Sign() < 0 {
		return amount.Neg()
	}
	return amount
}
