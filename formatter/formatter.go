// Package formatter prints ledger transactions back in Beancount syntax
// with amounts aligned on a currency column.
package formatter

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

const (
	// DefaultCurrencyColumn is the default column position for currency alignment
	// (matches bean-format behavior)
	DefaultCurrencyColumn = 52

	// DefaultIndentation is the default indentation for postings
	DefaultIndentation = 2

	// MinimumSpacing is the minimum number of spaces between account and number
	MinimumSpacing = 2
)

// Formatter writes transactions with aligned amounts.
type Formatter struct {
	// CurrencyColumn is the column the currency of every posting starts
	// after. Zero selects a column from the content being formatted.
	CurrencyColumn int

	// Indentation is the number of spaces before each posting.
	Indentation int
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// WithCurrencyColumn sets a specific column for currency alignment.
func WithCurrencyColumn(col int) Option {
	return func(f *Formatter) {
		f.CurrencyColumn = col
	}
}

// WithIndentation sets the posting indentation.
func WithIndentation(n int) Option {
	return func(f *Formatter) {
		f.Indentation = n
	}
}

// New creates a new Formatter with the given options.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		CurrencyColumn: DefaultCurrencyColumn,
		Indentation:    DefaultIndentation,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format writes every transaction, separated by blank lines. With a zero
// CurrencyColumn the column is chosen so the widest posting still has the
// minimum spacing.
func (f *Formatter) Format(txns []*ledger.Transaction, w io.Writer) error {
	column := f.CurrencyColumn
	if column == 0 {
		column = f.currencyColumn(txns)
	}

	var buf strings.Builder
	for i, t := range txns {
		if i > 0 {
			buf.WriteByte('\n')
		}
		f.formatTransaction(t, column, &buf)
	}
	_, err := io.WriteString(w, buf.String())
	return err
}

// FormatTransaction writes a single transaction.
func (f *Formatter) FormatTransaction(t *ledger.Transaction, w io.Writer) error {
	column := f.CurrencyColumn
	if column == 0 {
		column = f.currencyColumn([]*ledger.Transaction{t})
	}
	var buf strings.Builder
	f.formatTransaction(t, column, &buf)
	_, err := io.WriteString(w, buf.String())
	return err
}

// currencyColumn calculates the column from the widest account plus number.
func (f *Formatter) currencyColumn(txns []*ledger.Transaction) int {
	width := 0
	for _, t := range txns {
		for p := range t.AllPostings() {
			w := f.Indentation + runewidth.StringWidth(p.Account) + MinimumSpacing + len(p.Amount.String())
			width = max(width, w)
		}
	}
	if width == 0 {
		return DefaultCurrencyColumn
	}
	return width + MinimumSpacing
}

// Format: date flag [payee] [narration] [links] [tags]
func (f *Formatter) formatTransaction(t *ledger.Transaction, column int, buf *strings.Builder) {
	buf.WriteString(t.Date().String())
	buf.WriteByte(' ')
	buf.WriteString(t.Flag())

	if t.Payee() != "" {
		buf.WriteByte(' ')
		buf.WriteString(quote(t.Payee()))
	}
	buf.WriteByte(' ')
	buf.WriteString(quote(t.Narration()))

	for _, link := range t.Links() {
		buf.WriteString(" ^")
		buf.WriteString(link)
	}
	for _, tag := range t.Tags() {
		buf.WriteString(" #")
		buf.WriteString(tag)
	}
	buf.WriteByte('\n')

	for p := range t.AllPostings() {
		f.formatPosting(p, column, buf)
	}
}

// formatPosting pads the amount so its currency starts at the column.
// Wide runes in account names count as two columns.
func (f *Formatter) formatPosting(p ledger.Posting, column int, buf *strings.Builder) {
	buf.WriteString(strings.Repeat(" ", f.Indentation))
	buf.WriteString(p.Account)

	amount := p.Amount.String()
	width := f.Indentation + runewidth.StringWidth(p.Account)
	padding := max(column-width-len(amount), MinimumSpacing)

	buf.WriteString(strings.Repeat(" ", padding))
	buf.WriteString(amount)
	buf.WriteByte(' ')
	buf.WriteString(p.Currency)
	buf.WriteByte('\n')
}
