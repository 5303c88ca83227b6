package ast

// Transaction records a dated movement between accounts. The flag is '*' for
// cleared and '!' for pending entries.
//
//	2014-05-05 * "Cafe Mogador" "Lamb tagine with wine"
//	  Liabilities:CreditCard:CapitalOne         -37.45 USD
//	  Expenses:Food:Restaurant
type Transaction struct {
	Pos       Position
	Date      *Date
	Flag      string
	Payee     string
	Narration string
	Links     []Link
	Tags      []Tag
	Metadata  []*Metadata
	Postings  []*Posting
}

var _ Directive = &Transaction{}

func (t *Transaction) Position() Position { return t.Pos }
func (t *Transaction) Kind() string       { return "transaction" }
func (t *Transaction) date() *Date        { return t.Date }

// Posting is one leg of a transaction. Amount is nil when it is left for the
// ledger to infer.
//
//	Assets:Investments:Brokerage    10 HOOL {518.73 USD}
//	Assets:Investments:Cash        200 EUR @ 1.35 USD
//	Assets:Checking
type Posting struct {
	Pos        Position
	Flag       string
	Account    Account
	Amount     *Amount
	Cost       *Cost
	Price      *Amount
	PriceTotal bool
	Metadata   []*Metadata
}
