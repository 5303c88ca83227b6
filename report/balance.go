// Package report aggregates ledger snapshots into balances, net worth and
// income statements.
//
// Amounts keep the ledger's sign: postings to Income, Liabilities and
// Equity are credits and therefore negative. Functions that report flows
// (IncomeStatement, Breakdown) normalise with ledger.Category.Sign so that
// income and expenses are positive magnitudes; balance queries return raw
// sums. Currencies are never converted or mixed.
package report

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Balance holds one amount per currency in currency order.
type Balance struct {
	entries []CurrencyAmount
}

// CurrencyAmount is an amount in a specific currency.
type CurrencyAmount struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// NewBalance creates an empty balance.
func NewBalance() *Balance {
	return &Balance{}
}

// NewBalanceFromMap converts a map to a sorted Balance.
func NewBalanceFromMap(m map[string]decimal.Decimal) *Balance {
	b := &Balance{entries: make([]CurrencyAmount, 0, len(m))}
	for currency, amount := range m {
		b.entries = append(b.entries, CurrencyAmount{Currency: currency, Amount: amount})
	}
	sort.Slice(b.entries, func(i, j int) bool {
		return b.entries[i].Currency < b.entries[j].Currency
	})
	return b
}

func (b *Balance) index(currency string) (int, bool) {
	i := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].Currency >= currency
	})
	return i, i < len(b.entries) && b.entries[i].Currency == currency
}

// Get returns the amount for currency, or zero.
func (b *Balance) Get(currency string) decimal.Decimal {
	if b == nil {
		return decimal.Zero
	}
	if i, ok := b.index(currency); ok {
		return b.entries[i].Amount
	}
	return decimal.Zero
}

// Add adds amount to the currency's total.
func (b *Balance) Add(currency string, amount decimal.Decimal) {
	i, ok := b.index(currency)
	if ok {
		b.entries[i].Amount = b.entries[i].Amount.Add(amount)
		return
	}
	b.entries = append(b.entries, CurrencyAmount{})
	copy(b.entries[i+1:], b.entries[i:])
	b.entries[i] = CurrencyAmount{Currency: currency, Amount: amount}
}

// Merge adds every amount of other.
func (b *Balance) Merge(other *Balance) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		b.Add(e.Currency, e.Amount)
	}
}

// IsZero reports whether all amounts are zero or the balance is empty.
func (b *Balance) IsZero() bool {
	if b == nil {
		return true
	}
	for _, e := range b.entries {
		if !e.Amount.IsZero() {
			return false
		}
	}
	return true
}

// Currencies returns the currencies in order.
func (b *Balance) Currencies() []string {
	if b == nil {
		return nil
	}
	currencies := make([]string, len(b.entries))
	for i, e := range b.entries {
		currencies[i] = e.Currency
	}
	return currencies
}

// Entries returns a copy of the amounts in currency order.
func (b *Balance) Entries() []CurrencyAmount {
	if b == nil {
		return nil
	}
	return append([]CurrencyAmount(nil), b.entries...)
}

// ToMap converts the balance to a map.
func (b *Balance) ToMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal)
	if b == nil {
		return m
	}
	for _, e := range b.entries {
		m[e.Currency] = e.Amount
	}
	return m
}

// Copy returns a deep copy.
func (b *Balance) Copy() *Balance {
	if b == nil {
		return NewBalance()
	}
	return &Balance{entries: append([]CurrencyAmount(nil), b.entries...)}
}

// Scale returns a copy with every amount multiplied by factor.
func (b *Balance) Scale(factor int64) *Balance {
	out := b.Copy()
	f := decimal.NewFromInt(factor)
	for i := range out.entries {
		out.entries[i].Amount = out.entries[i].Amount.Mul(f)
	}
	return out
}

// Sub returns b - other as a new balance.
func (b *Balance) Sub(other *Balance) *Balance {
	out := b.Copy()
	out.Merge(other.Scale(-1))
	return out
}

// Prune returns a copy without zero amounts.
func (b *Balance) Prune() *Balance {
	out := NewBalance()
	if b == nil {
		return out
	}
	for _, e := range b.entries {
		if !e.Amount.IsZero() {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

func (b *Balance) String() string {
	if b == nil || len(b.entries) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(b.entries))
	for i, e := range b.entries {
		parts[i] = e.Amount.String() + " " + e.Currency
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the balance as {"EUR": "1.50", "USD": "-3"}.
func (b *Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.ToMap())
}
