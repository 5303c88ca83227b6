package ledger

import (
	"strings"
)

// Category is the top-level classification of an account.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryAssets
	CategoryLiabilities
	CategoryEquity
	CategoryIncome
	CategoryExpenses
)

// Categories lists the known categories in balance-sheet order.
var Categories = []Category{
	CategoryAssets,
	CategoryLiabilities,
	CategoryEquity,
	CategoryIncome,
	CategoryExpenses,
}

func (c Category) String() string {
	switch c {
	case CategoryAssets:
		return "Assets"
	case CategoryLiabilities:
		return "Liabilities"
	case CategoryEquity:
		return "Equity"
	case CategoryIncome:
		return "Income"
	case CategoryExpenses:
		return "Expenses"
	default:
		return "Unknown"
	}
}

// Sign is the factor that turns a raw ledger amount into a natural-sign
// amount for the category. Income, Liabilities and Equity are credit
// accounts and hold negative balances in the ledger, so their natural value
// is the negation.
func (c Category) Sign() int {
	switch c {
	case CategoryLiabilities, CategoryIncome, CategoryEquity:
		return -1
	default:
		return 1
	}
}

// ParseCategory parses a category name. Matching is case-insensitive here
// because the input comes from users, not from the ledger.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(c.String(), strings.TrimSpace(name)) {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// Classify returns the category named by the first segment of path. The
// match is case-sensitive; anything else is CategoryUnknown.
func Classify(path string) Category {
	root := path
	if i := strings.IndexByte(path, ':'); i >= 0 {
		root = path[:i]
	}
	switch root {
	case "Assets":
		return CategoryAssets
	case "Liabilities":
		return CategoryLiabilities
	case "Equity":
		return CategoryEquity
	case "Income":
		return CategoryIncome
	case "Expenses":
		return CategoryExpenses
	default:
		return CategoryUnknown
	}
}

// Ancestors returns the ancestor paths of path from the root down to the
// immediate parent. "Expenses:Food:Groceries" yields ["Expenses", "Expenses:Food"].
func Ancestors(path string) []string {
	var ancestors []string
	for i := 0; i < len(path); i++ {
		if path[i] == ':' {
			ancestors = append(ancestors, path[:i])
		}
	}
	return ancestors
}

// Parent returns the immediate parent path, or "" for a root.
func Parent(path string) string {
	if i := strings.LastIndexByte(path, ':'); i >= 0 {
		return path[:i]
	}
	return ""
}

// Depth returns the number of segments in path.
func Depth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, ":") + 1
}

// Truncate keeps at most depth segments of path.
func Truncate(path string, depth int) string {
	if depth <= 0 {
		return path
	}
	n := 0
	for i := 0; i < len(path); i++ {
		if path[i] == ':' {
			n++
			if n == depth {
				return path[:i]
			}
		}
	}
	return path
}

// IsDescendant reports whether path equals prefix or lies below it. Matching
// is by whole segments: "Assets:BankOfFoo" is not below "Assets:Bank".
// The empty prefix matches every path.
func IsDescendant(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == ':'
}

// Account describes one account path in the snapshot's index.
type Account struct {
	Path     string
	Category Category
	Depth    int
	Parent   string

	// Declared is true when an open directive exists for the account.
	Declared bool
	// Open and Close are zero when not declared.
	Open  Date
	Close Date
}

// NewAccount computes the derived fields for path.
func NewAccount(path string) Account {
	return Account{
		Path:     path,
		Category: Classify(path),
		Depth:    Depth(path),
		Parent:   Parent(path),
	}
}

// Name returns the last segment of the path.
func (a Account) Name() string {
	if i := strings.LastIndexByte(a.Path, ':'); i >= 0 {
		return a.Path[i+1:]
	}
	return a.Path
}

// IsOpenOn reports whether the account is open on d. Undeclared accounts
// are treated as always open.
func (a Account) IsOpenOn(d Date) bool {
	if !a.Declared {
		return true
	}
	if d.Before(a.Open) {
		return false
	}
	return a.Close.IsZero() || !d.After(a.Close)
}
