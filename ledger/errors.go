package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ast"
)

// LoadError is returned when a ledger cannot be loaded: the file is missing
// or unreadable, or the parser rejected it. The underlying error, usually a
// *parser.ParseError or an fs error, is available through Unwrap.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load ledger %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// GetPosition returns the position of the underlying diagnostic, or a
// position naming only the file when there is none.
func (e *LoadError) GetPosition() ast.Position {
	var positioned interface{ GetPosition() ast.Position }
	if errors.As(e.Err, &positioned) {
		return positioned.GetPosition()
	}
	return ast.Position{Filename: e.Path}
}

// InsufficientDataError is returned when an operation needs history the
// ledger does not have, for example a forecast over an empty window.
type InsufficientDataError struct {
	Operation string
	Reason    string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: %s", e.Operation, e.Reason)
}

// InvalidParameterError is returned for caller mistakes such as an inverted
// date range or a non-positive horizon.
type InvalidParameterError struct {
	Parameter string
	Value     string
	Reason    string
}

func (e *InvalidParameterError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Parameter, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Parameter, e.Value, e.Reason)
}

// NewInvalidParameterError formats value with %v.
func NewInvalidParameterError(parameter string, value any, reason string) *InvalidParameterError {
	return &InvalidParameterError{Parameter: parameter, Value: fmt.Sprint(value), Reason: reason}
}

// UnbalancedError is a warning: the transaction's weights do not sum to zero
// within tolerance. The transaction is still aggregated as written.
type UnbalancedError struct {
	Pos       ast.Position
	Date      Date
	Narration string
	Residuals map[string]decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("%s: Transaction does not balance: %s", location(e.Pos, e.Date), formatResiduals(e.Residuals))
}

func (e *UnbalancedError) GetPosition() ast.Position {
	return e.Pos
}

// AmbiguousPostingError is a warning: more than one posting omits its
// amount, so none of them can be inferred.
type AmbiguousPostingError struct {
	Pos      ast.Position
	Date     Date
	Accounts []string
}

func (e *AmbiguousPostingError) Error() string {
	return fmt.Sprintf("%s: Cannot infer amounts for more than one posting (%s)",
		location(e.Pos, e.Date), strings.Join(e.Accounts, ", "))
}

func (e *AmbiguousPostingError) GetPosition() ast.Position {
	return e.Pos
}

// InvalidOptionError is a warning about an option value the ledger ignores.
type InvalidOptionError struct {
	Pos    ast.Position
	Name   string
	Value  string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("%s: Invalid option %s %q: %s", location(e.Pos, Date{}), e.Name, e.Value, e.Reason)
}

func (e *InvalidOptionError) GetPosition() ast.Position {
	return e.Pos
}

func location(pos ast.Position, date Date) string {
	if pos.IsZero() {
		return date.String()
	}
	return pos.Location()
}

// formatResiduals renders "(0.01 USD, -2 EUR)" in currency order.
func formatResiduals(residuals map[string]decimal.Decimal) string {
	currencies := make([]string, 0, len(residuals))
	for currency := range residuals {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	var buf strings.Builder
	buf.WriteByte('(')
	for i, currency := range currencies {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(residuals[currency].String())
		buf.WriteByte(' ')
		buf.WriteString(currency)
	}
	buf.WriteByte(')')
	return buf.String()
}
