package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Category
	}{
		{"Assets:Bank:Checking", CategoryAssets},
		{"Liabilities:CreditCard", CategoryLiabilities},
		{"Equity:Opening-Balances", CategoryEquity},
		{"Income:Salary", CategoryIncome},
		{"Expenses:Food:Groceries", CategoryExpenses},
		{"Expenses", CategoryExpenses},
		{"assets:Bank", CategoryUnknown},
		{"Revenue:Sales", CategoryUnknown},
		{"", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestCategorySign(t *testing.T) {
	assert.Equal(t, 1, CategoryAssets.Sign())
	assert.Equal(t, 1, CategoryExpenses.Sign())
	assert.Equal(t, -1, CategoryIncome.Sign())
	assert.Equal(t, -1, CategoryLiabilities.Sign())
	assert.Equal(t, -1, CategoryEquity.Sign())
	assert.Equal(t, 1, CategoryUnknown.Sign())
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" expenses ")
	assert.True(t, ok)
	assert.Equal(t, CategoryExpenses, c)

	_, ok = ParseCategory("Revenue")
	assert.False(t, ok)
}

func TestAncestors(t *testing.T) {
	assert.Equal(t, []string{"Expenses", "Expenses:Food"}, Ancestors("Expenses:Food:Groceries"))
	assert.Equal(t, 0, len(Ancestors("Assets")))
	assert.Equal(t, "Expenses:Food", Parent("Expenses:Food:Groceries"))
	assert.Equal(t, "", Parent("Expenses"))
}

func TestDepthAndTruncate(t *testing.T) {
	assert.Equal(t, 3, Depth("Expenses:Food:Groceries"))
	assert.Equal(t, 0, Depth(""))
	assert.Equal(t, "Expenses:Food", Truncate("Expenses:Food:Groceries", 2))
	assert.Equal(t, "Expenses", Truncate("Expenses:Food:Groceries", 1))
	assert.Equal(t, "Expenses:Food", Truncate("Expenses:Food", 5))
	assert.Equal(t, "Expenses:Food", Truncate("Expenses:Food", 0))
}

func TestIsDescendant(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         bool
	}{
		{"Assets:Bank", "Assets:Bank", true},
		{"Assets:Bank:Checking", "Assets:Bank", true},
		{"Assets:BankOfFoo", "Assets:Bank", false},
		{"Assets:Bank", "Assets:Bank:Checking", false},
		{"Assets:Bank", "Assets", true},
		{"Liabilities:Bank", "Assets", false},
		{"Assets:Bank", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDescendant(tt.path, tt.prefix))
		})
	}
}

func TestAccount(t *testing.T) {
	a := NewAccount("Expenses:Food:Groceries")
	assert.Equal(t, CategoryExpenses, a.Category)
	assert.Equal(t, 3, a.Depth)
	assert.Equal(t, "Expenses:Food", a.Parent)
	assert.Equal(t, "Groceries", a.Name())
	assert.False(t, a.Declared)
	assert.True(t, a.IsOpenOn(NewDate(1990, time.January, 1)))

	a.Declared = true
	a.Open = NewDate(2024, time.January, 1)
	a.Close = NewDate(2024, time.June, 30)
	assert.False(t, a.IsOpenOn(NewDate(2023, time.December, 31)))
	assert.True(t, a.IsOpenOn(NewDate(2024, time.January, 1)))
	assert.True(t, a.IsOpenOn(NewDate(2024, time.June, 30)))
	assert.False(t, a.IsOpenOn(NewDate(2024, time.July, 1)))
}
