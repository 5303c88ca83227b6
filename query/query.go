// Package query filters the transactions of a ledger snapshot for the
// journal and for filtered aggregates.
package query

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// Criteria selects transactions. Every field is optional and the set fields
// combine with AND. The zero value matches everything.
type Criteria struct {
	// Range keeps transactions dated within it, bounds included.
	Range *ledger.DateRange

	// Account matches when any posting's account contains it, ignoring case.
	Account string

	// Text matches the narration, the payee or any tag, ignoring case.
	Text string

	// Min and Max bound the posting amounts. A transaction matches when at
	// least one posting in any currency lies within [Min, Max].
	Min *decimal.Decimal
	Max *decimal.Decimal

	// Absolute compares amount magnitudes, so a bound of 50 also matches
	// a -75 outflow.
	Absolute bool
}

// IsZero reports whether no predicate is set.
func (c Criteria) IsZero() bool {
	return c.Range == nil && c.Account == "" && c.Text == "" && c.Min == nil && c.Max == nil
}

// Validate rejects an inverted range or amount bounds.
func (c Criteria) Validate() error {
	if c.Range != nil {
		if err := c.Range.Validate(); err != nil {
			return err
		}
	}
	if c.Min != nil && c.Max != nil && c.Min.GreaterThan(*c.Max) {
		return &ledger.InvalidParameterError{
			Parameter: "amount",
			Value:     c.Min.String() + ".." + c.Max.String(),
			Reason:    "minimum is greater than maximum",
		}
	}
	return nil
}

// matcher is a Criteria prepared for repeated matching.
type matcher struct {
	Criteria
	account string
	text    string
}

func newMatcher(c Criteria) matcher {
	return matcher{
		Criteria: c,
		account:  strings.ToLower(c.Account),
		text:     strings.ToLower(c.Text),
	}
}

func (m matcher) match(t *ledger.Transaction) bool {
	if m.Range != nil && !m.Range.Contains(t.Date()) {
		return false
	}
	if m.account != "" && !m.matchAccount(t) {
		return false
	}
	if m.text != "" && !m.matchText(t) {
		return false
	}
	if (m.Min != nil || m.Max != nil) && !m.matchAmount(t) {
		return false
	}
	return true
}

func (m matcher) matchAccount(t *ledger.Transaction) bool {
	for p := range t.AllPostings() {
		if m.accountMatches(p.Account) {
			return true
		}
	}
	return false
}

func (m matcher) accountMatches(account string) bool {
	return strings.Contains(strings.ToLower(account), m.account)
}

func (m matcher) matchText(t *ledger.Transaction) bool {
	if strings.Contains(strings.ToLower(t.Narration()), m.text) ||
		strings.Contains(strings.ToLower(t.Payee()), m.text) {
		return true
	}
	for _, tag := range t.Tags() {
		if strings.Contains(strings.ToLower(tag), m.text) {
			return true
		}
	}
	return false
}

func (m matcher) matchAmount(t *ledger.Transaction) bool {
	for p := range t.AllPostings() {
		amount := p.Amount
		if m.Absolute {
			amount = amount.Abs()
		}
		if m.Min != nil && amount.LessThan(*m.Min) {
			continue
		}
		if m.Max != nil && amount.GreaterThan(*m.Max) {
			continue
		}
		return true
	}
	return false
}

// Filter returns the transactions matching c in chronological order. With
// no predicates it returns every transaction of the snapshot.
func Filter(s *ledger.Snapshot, c Criteria) ([]*ledger.Transaction, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.IsZero() {
		return s.Transactions(), nil
	}

	source := s.All()
	if c.Range != nil {
		source = s.Between(*c.Range)
	}

	m := newMatcher(c)
	txns := make([]*ledger.Transaction, 0)
	for t := range source {
		if m.match(t) {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

// Narrow returns a snapshot holding only the transactions matching c, so
// that balances and income statements can be computed over a selection.
func Narrow(s *ledger.Snapshot, c Criteria) (*ledger.Snapshot, error) {
	txns, err := Filter(s, c)
	if err != nil {
		return nil, err
	}
	return s.Derive(txns), nil
}
