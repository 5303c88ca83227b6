package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ast"
	"github.com/robinvdvleuten/ourfinance/telemetry"
)

// Build converts a parsed ledger into a snapshot.
//
// Open and close directives populate the account index. Transactions keep
// the units of every posting; a single posting without an amount receives
// the negated residual of the others, one posting per residual currency.
// Problems that do not prevent aggregation, such as an unbalanced
// transaction, are recorded as warnings on the snapshot.
func Build(ctx context.Context, tree *ast.AST, opts ...SnapshotOption) *Snapshot {
	timer := telemetry.StartTimer(ctx, "ledger.build")
	defer timer.End()

	tolerance, warnings := toleranceFromOptions(tree)

	accounts := make(map[string]Account)
	txns := make([]*Transaction, 0, len(tree.Directives))

	for _, directive := range tree.Directives {
		switch d := directive.(type) {
		case *ast.Open:
			path := string(d.Account)
			a, ok := accounts[path]
			if !ok {
				a = NewAccount(path)
			}
			a.Declared = true
			a.Open = DateOf(d.Date.Time)
			accounts[path] = a

		case *ast.Close:
			path := string(d.Account)
			a, ok := accounts[path]
			if !ok {
				a = NewAccount(path)
			}
			a.Close = DateOf(d.Date.Time)
			accounts[path] = a

		case *ast.Transaction:
			txn, txnWarnings := convertTransaction(d, tolerance)
			txns = append(txns, txn)
			warnings = append(warnings, txnWarnings...)
		}
	}

	declared := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		declared = append(declared, a)
	}
	sort.Slice(declared, func(i, j int) bool { return declared[i].Path < declared[j].Path })

	base := []SnapshotOption{
		WithAccounts(declared...),
		WithOperatingCurrencies(tree.OptionValues("operating_currency")...),
		WithWarnings(warnings...),
		WithSkipped(tree.Skipped),
	}
	return NewSnapshot(txns, append(base, opts...)...)
}

func convertTransaction(txn *ast.Transaction, tolerance *Tolerance) (*Transaction, []error) {
	var warnings []error

	date := DateOf(txn.Date.Time)
	residual := make(map[string]decimal.Decimal)
	tolerances := tolerance.newSet()

	units := make([]decimal.Decimal, len(txn.Postings))
	var elided []int
	weightsKnown := true

	for i, posting := range txn.Postings {
		if posting.Amount == nil {
			elided = append(elided, i)
			continue
		}

		amount, err := parseAmount(posting.Amount)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		units[i] = amount
		tolerances.observe(amount, posting.Amount.Currency)

		w, ok, err := postingWeight(posting, amount)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		if !ok {
			weightsKnown = false
			continue
		}
		residual[w.Currency] = residual[w.Currency].Add(w.Amount)
	}

	postings := make([]Posting, 0, len(txn.Postings)+len(residual))

	switch {
	case len(elided) > 1:
		accounts := make([]string, len(elided))
		for i, idx := range elided {
			accounts[i] = string(txn.Postings[idx].Account)
		}
		warnings = append(warnings, &AmbiguousPostingError{Pos: txn.Pos, Date: date, Accounts: accounts})

	case len(elided) == 0 && weightsKnown:
		unbalanced := make(map[string]decimal.Decimal)
		for currency, sum := range residual {
			if tolerances.exceeds(sum, currency) {
				unbalanced[currency] = sum
			}
		}
		if len(unbalanced) > 0 {
			warnings = append(warnings, &UnbalancedError{
				Pos:       txn.Pos,
				Date:      date,
				Narration: txn.Narration,
				Residuals: unbalanced,
			})
		}
	}

	for i, posting := range txn.Postings {
		account := string(posting.Account)
		if posting.Amount != nil {
			postings = append(postings, Posting{Account: account, Amount: units[i], Currency: posting.Amount.Currency})
			continue
		}
		if len(elided) != 1 {
			continue
		}
		for _, currency := range sortedKeys(residual) {
			if sum := residual[currency]; !sum.IsZero() {
				postings = append(postings, Posting{Account: account, Amount: sum.Neg(), Currency: currency})
			}
		}
	}

	opts := []TransactionOption{
		WithFlag(txn.Flag),
		WithPayee(txn.Payee),
		WithPosition(txn.Pos),
	}
	if len(txn.Tags) > 0 {
		tags := make([]string, len(txn.Tags))
		for i, tag := range txn.Tags {
			tags[i] = string(tag)
		}
		opts = append(opts, WithTags(tags...))
	}
	if len(txn.Links) > 0 {
		links := make([]string, len(txn.Links))
		for i, link := range txn.Links {
			links[i] = string(link)
		}
		opts = append(opts, WithLinks(links...))
	}

	return NewTransaction(date, txn.Narration, postings, opts...), warnings
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
