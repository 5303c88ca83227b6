// Package ast declares the syntax tree produced by the parser for Beancount
// ledger files.
//
// Only the directives that carry analytical meaning are represented:
// transactions, account open/close, options and includes. Every other dated
// directive is recognised by the parser and skipped.
package ast

import (
	"golang.org/x/exp/slices"
)

// Directives is a slice of Directive ordered by date.
type Directives []Directive

func (d Directives) Len() int           { return len(d) }
func (d Directives) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }
func (d Directives) Less(i, j int) bool { return compareDirectives(d[i], d[j]) < 0 }

// compareDirectives orders by date, then opens before closes before everything else.
func compareDirectives(a, b Directive) int {
	if a.date().Before(b.date().Time) {
		return -1
	} else if a.date().After(b.date().Time) {
		return 1
	}

	ap, bp := directiveTypePriority(a), directiveTypePriority(b)
	if ap < bp {
		return -1
	} else if ap > bp {
		return 1
	}
	return 0
}

func directiveTypePriority(d Directive) int {
	switch d.(type) {
	case *Open:
		return 0
	case *Close:
		return 1
	default:
		return 2
	}
}

// AST represents a parsed Beancount file.
type AST struct {
	Directives Directives
	Options    []*Option
	Includes   []*Include

	// Skipped counts dated directives the parser recognised but does not model
	// (balance, price, pad, note, ...).
	Skipped int
}

// Directive is implemented by every dated directive.
type Directive interface {
	Position() Position
	Kind() string

	date() *Date
}

// DateOf returns the date of a directive.
func DateOf(d Directive) *Date {
	return d.date()
}

func isSorted(d Directives) bool {
	for i := 1; i < len(d); i++ {
		if d.Less(i, i-1) {
			return false
		}
	}
	return true
}

// SortDirectives sorts the directives by date. The sort is stable so that
// same-day transactions keep their file order.
func SortDirectives(tree *AST) {
	if isSorted(tree.Directives) {
		return
	}
	slices.SortStableFunc(tree.Directives, compareDirectives)
}

// OptionValues returns all values of the named option in file order.
func (a *AST) OptionValues(name string) []string {
	var values []string
	for _, opt := range a.Options {
		if opt.Name == name {
			values = append(values, opt.Value)
		}
	}
	return values
}
