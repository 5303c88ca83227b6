package ast

// Constructors for building syntax trees in code, mainly used by tests and
// importers. Complex nodes take functional options.

// NewAmount creates an Amount. No validation is performed.
func NewAmount(value, currency string) *Amount {
	return &Amount{Value: value, Currency: currency}
}

// TransactionOption configures a Transaction built by NewTransaction.
type TransactionOption func(*Transaction)

// NewTransaction creates a cleared transaction.
//
//	txn := ast.NewTransaction(date, "Groceries",
//	    ast.WithPostings(
//	        ast.NewPosting("Expenses:Food", ast.WithAmount("45.60", "USD")),
//	        ast.NewPosting("Assets:Checking"),
//	    ),
//	)
func NewTransaction(date *Date, narration string, opts ...TransactionOption) *Transaction {
	txn := &Transaction{Date: date, Flag: "*", Narration: narration}
	for _, opt := range opts {
		opt(txn)
	}
	return txn
}

// WithFlag sets the transaction flag.
func WithFlag(flag string) TransactionOption {
	return func(t *Transaction) { t.Flag = flag }
}

// WithPayee sets the payee.
func WithPayee(payee string) TransactionOption {
	return func(t *Transaction) { t.Payee = payee }
}

// WithTags appends tags.
func WithTags(tags ...string) TransactionOption {
	return func(t *Transaction) {
		for _, tag := range tags {
			t.Tags = append(t.Tags, Tag(tag))
		}
	}
}

// WithLinks appends links.
func WithLinks(links ...string) TransactionOption {
	return func(t *Transaction) {
		for _, link := range links {
			t.Links = append(t.Links, Link(link))
		}
	}
}

// WithPostings appends postings.
func WithPostings(postings ...*Posting) TransactionOption {
	return func(t *Transaction) { t.Postings = append(t.Postings, postings...) }
}

// PostingOption configures a Posting built by NewPosting.
type PostingOption func(*Posting)

// NewPosting creates a posting on account.
func NewPosting(account Account, opts ...PostingOption) *Posting {
	p := &Posting{Account: account}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithAmount sets the units of the posting.
func WithAmount(value, currency string) PostingOption {
	return func(p *Posting) { p.Amount = NewAmount(value, currency) }
}

// WithCost sets a per-unit cost.
func WithCost(value, currency string) PostingOption {
	return func(p *Posting) { p.Cost = &Cost{Amount: NewAmount(value, currency)} }
}

// WithTotalCost sets a total cost {{...}}.
func WithTotalCost(value, currency string) PostingOption {
	return func(p *Posting) { p.Cost = &Cost{IsTotal: true, Amount: NewAmount(value, currency)} }
}

// WithPrice sets a per-unit price.
func WithPrice(value, currency string) PostingOption {
	return func(p *Posting) {
		p.Price = NewAmount(value, currency)
		p.PriceTotal = false
	}
}

// WithTotalPrice sets a total price (@@).
func WithTotalPrice(value, currency string) PostingOption {
	return func(p *Posting) {
		p.Price = NewAmount(value, currency)
		p.PriceTotal = true
	}
}
