package ledger

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ast"
)

// Posting is one signed amount booked to an account. Postings are values;
// copying one never aliases ledger state.
type Posting struct {
	Account  string
	Amount   decimal.Decimal
	Currency string
}

// Category classifies the posting's account.
func (p Posting) Category() Category {
	return Classify(p.Account)
}

// Transaction is an immutable ledger entry. All accessors return copies.
type Transaction struct {
	date      Date
	flag      string
	payee     string
	narration string
	tags      []string
	links     []string
	postings  []Posting
	pos       ast.Position
}

// TransactionOption configures NewTransaction.
type TransactionOption func(*Transaction)

// WithPayee sets the payee.
func WithPayee(payee string) TransactionOption {
	return func(t *Transaction) { t.payee = payee }
}

// WithFlag sets the flag ("*" cleared, "!" pending).
func WithFlag(flag string) TransactionOption {
	return func(t *Transaction) { t.flag = flag }
}

// WithTags sets the tags.
func WithTags(tags ...string) TransactionOption {
	return func(t *Transaction) { t.tags = slices.Clone(tags) }
}

// WithLinks sets the links.
func WithLinks(links ...string) TransactionOption {
	return func(t *Transaction) { t.links = slices.Clone(links) }
}

// WithPosition records where the transaction was defined.
func WithPosition(pos ast.Position) TransactionOption {
	return func(t *Transaction) { t.pos = pos }
}

// NewTransaction creates a transaction. The postings slice is copied.
func NewTransaction(date Date, narration string, postings []Posting, opts ...TransactionOption) *Transaction {
	t := &Transaction{
		date:      date,
		flag:      "*",
		narration: narration,
		postings:  slices.Clone(postings),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transaction) Date() Date               { return t.date }
func (t *Transaction) Flag() string             { return t.flag }
func (t *Transaction) Payee() string            { return t.payee }
func (t *Transaction) Narration() string        { return t.narration }
func (t *Transaction) Position() ast.Position   { return t.pos }
func (t *Transaction) Tags() []string           { return slices.Clone(t.tags) }
func (t *Transaction) Links() []string          { return slices.Clone(t.links) }
func (t *Transaction) Postings() []Posting      { return slices.Clone(t.postings) }
func (t *Transaction) NumPostings() int         { return len(t.postings) }
func (t *Transaction) HasTag(tag string) bool   { return slices.Contains(t.tags, tag) }
func (t *Transaction) HasLink(link string) bool { return slices.Contains(t.links, link) }

// AllPostings iterates the postings without copying the slice.
func (t *Transaction) AllPostings() iter.Seq[Posting] {
	return func(yield func(Posting) bool) {
		for _, p := range t.postings {
			if !yield(p) {
				return
			}
		}
	}
}

// Residual returns the per-currency sum of the postings. A balanced
// transaction holding only simple amounts has an empty residual.
func (t *Transaction) Residual() map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, p := range t.postings {
		sums[p.Currency] = sums[p.Currency].Add(p.Amount)
	}
	for currency, sum := range sums {
		if sum.IsZero() {
			delete(sums, currency)
		}
	}
	return sums
}
