package report

import (
	"sort"
	"strings"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// Tree is a hierarchical view of account balances, used for balance sheets
// and per-period activity.
//
// There is one root per category, in balance-sheet order. Balances roll up
// bottom-up, so every node includes the sum of its descendants.
type Tree struct {
	Roots []*Node `json:"roots"`

	// Currencies lists all currencies present in the tree, sorted.
	Currencies []string `json:"currencies"`

	// Range is the period the tree covers. For a point-in-time balance
	// From is zero and To is the as-of date.
	Range ledger.DateRange `json:"range"`
}

// Node is a single account in the tree. Category roots carry the bare
// category name as their Account.
type Node struct {
	Name     string          `json:"name"`
	Account  string          `json:"account"`
	Category ledger.Category `json:"-"`
	Depth    int             `json:"depth"`

	// Balance is the raw ledger sum for this node and all descendants.
	Balance *Balance `json:"balance"`

	// Own is the part of Balance posted to this exact account.
	Own *Balance `json:"-"`

	Children []*Node `json:"children,omitempty"`
}

// Natural returns the balance normalised by the category sign, so income
// and liabilities read as positive amounts.
func (n *Node) Natural() *Balance {
	return n.Balance.Scale(int64(n.Category.Sign()))
}

// Find returns the node for an account path, or nil.
func (t *Tree) Find(account string) *Node {
	for _, root := range t.Roots {
		if n := root.find(account); n != nil {
			return n
		}
	}
	return nil
}

func (n *Node) find(account string) *Node {
	if n.Account == account {
		return n
	}
	if !ledger.IsDescendant(account, n.Account) {
		return nil
	}
	for _, child := range n.Children {
		if found := child.find(account); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every node depth-first, parents before children. Returning
// false from fn skips the node's children.
func (t *Tree) Walk(fn func(*Node) bool) {
	var walk func(*Node)
	walk = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range t.Roots {
		walk(root)
	}
}

// Total sums the roots of the given category.
func (t *Tree) Total(category ledger.Category) *Balance {
	total := NewBalance()
	for _, root := range t.Roots {
		if root.Category == category {
			total.Merge(root.Balance)
		}
	}
	return total
}

// newTree builds a tree from per-account raw balances. Only the listed
// categories get a root; with none, every category seen gets one.
func newTree(balances map[string]*Balance, r ledger.DateRange, categories []ledger.Category) *Tree {
	allowed := make(map[ledger.Category]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}

	nodes := make(map[string]*Node)
	currencies := make(map[string]bool)
	var roots []*Node

	node := func(path string, category ledger.Category) *Node {
		if n, ok := nodes[path]; ok {
			return n
		}
		name := path
		if i := strings.LastIndexByte(path, ':'); i >= 0 {
			name = path[i+1:]
		}
		n := &Node{
			Name:     name,
			Account:  path,
			Category: category,
			Depth:    ledger.Depth(path) - 1,
			Balance:  NewBalance(),
			Own:      NewBalance(),
		}
		nodes[path] = n
		if parent := ledger.Parent(path); parent != "" {
			p := nodes[parent]
			p.Children = append(p.Children, n)
		} else {
			roots = append(roots, n)
		}
		return n
	}

	accounts := make([]string, 0, len(balances))
	for account := range balances {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	for _, account := range accounts {
		category := ledger.Classify(account)
		if len(allowed) > 0 && !allowed[category] {
			continue
		}
		balance := balances[account]
		for _, ancestor := range ledger.Ancestors(account) {
			node(ancestor, category).Balance.Merge(balance)
		}
		leaf := node(account, category)
		leaf.Balance.Merge(balance)
		leaf.Own.Merge(balance)
		for _, currency := range balance.Currencies() {
			currencies[currency] = true
		}
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return categoryOrder(roots[i].Category) < categoryOrder(roots[j].Category)
	})
	for _, n := range nodes {
		sort.Slice(n.Children, func(i, j int) bool {
			return n.Children[i].Name < n.Children[j].Name
		})
	}

	return &Tree{
		Roots:      roots,
		Currencies: sortedKeys(currencies),
		Range:      r,
	}
}

// categoryOrder places unknown roots after the five known categories.
func categoryOrder(c ledger.Category) int {
	if c == ledger.CategoryUnknown {
		return len(ledger.Categories) + 1
	}
	return int(c)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
