// Package errors renders ledger, parser and parameter errors for different
// consumers: plain text with source context for the terminal and structured
// JSON for the HTTP API.
//
// Domain error types stay in their packages (ledger, parser); this package
// only handles presentation.
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/robinvdvleuten/ourfinance/ast"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/parser"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// TextFormatter formats errors for command-line output in bean-check style.
type TextFormatter struct {
	sourceContent []byte
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource sets the source content used to show context for positioned
// errors that do not carry their own source.
func WithSource(source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sourceContent = source
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error. Parse errors, including those wrapped in
// a load error, are followed by the source lines around the position and a
// caret under the column.
func (tf *TextFormatter) Format(err error) string {
	var parseErr *parser.ParseError
	if stderrors.As(err, &parseErr) {
		source := parseErr.Source
		if source == nil {
			source = tf.sourceContent
		}
		if source != nil {
			return formatWithSourceContext(parseErr.Pos, err.Error(), source)
		}
		return err.Error()
	}

	if e, ok := err.(interface{ GetPosition() ast.Position }); ok && tf.sourceContent != nil {
		if pos := e.GetPosition(); pos.Line > 0 {
			return formatWithSourceContext(pos, err.Error(), tf.sourceContent)
		}
	}

	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// formatWithSourceContext shows the message followed by the two lines
// before the error line, the line itself with a caret, and one line after.
func formatWithSourceContext(pos ast.Position, message string, sourceContent []byte) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(sourceContent), "\n")

	startLine := max(pos.Line-3, 0)
	endLine := min(pos.Line, len(sourceLines)-1)

	for i := startLine; i <= endLine; i++ {
		buf.WriteString("   ")
		buf.WriteString(sourceLines[i])
		buf.WriteByte('\n')

		// pos.Line is 1-based, i is 0-based
		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString("^\n")
		}
	}

	return buf.String()
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Position *PositionJSON  `json:"position,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// PositionJSON represents a file position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.ToJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.ToJSON(err))
	}
	return result
}

// ToJSON converts an error to ErrorJSON.
func (jf *JSONFormatter) ToJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    Kind(err),
		Message: err.Error(),
		Details: make(map[string]any),
	}

	if e, ok := err.(interface{ GetPosition() ast.Position }); ok {
		if pos := e.GetPosition(); !pos.IsZero() {
			errJSON.Position = &PositionJSON{
				Filename: pos.Filename,
				Line:     pos.Line,
				Column:   pos.Column,
			}
		}
	}

	var (
		invalid      *ledger.InvalidParameterError
		insufficient *ledger.InsufficientDataError
		load         *ledger.LoadError
		unbalanced   *ledger.UnbalancedError
	)
	switch {
	case stderrors.As(err, &invalid):
		errJSON.Details["parameter"] = invalid.Parameter
		if invalid.Value != "" {
			errJSON.Details["value"] = invalid.Value
		}
		errJSON.Details["reason"] = invalid.Reason
	case stderrors.As(err, &insufficient):
		errJSON.Details["operation"] = insufficient.Operation
		errJSON.Details["reason"] = insufficient.Reason
	case stderrors.As(err, &unbalanced):
		errJSON.Details["date"] = unbalanced.Date.String()
		residuals := make(map[string]string, len(unbalanced.Residuals))
		for currency, amount := range unbalanced.Residuals {
			residuals[currency] = amount.String()
		}
		errJSON.Details["residuals"] = residuals
	case stderrors.As(err, &load):
		errJSON.Details["path"] = load.Path
	}
	if len(errJSON.Details) == 0 {
		errJSON.Details = nil
	}

	return errJSON
}

// Kind names the category of err for API consumers.
func Kind(err error) string {
	var (
		parseErr     *parser.ParseError
		load         *ledger.LoadError
		invalid      *ledger.InvalidParameterError
		insufficient *ledger.InsufficientDataError
		unbalanced   *ledger.UnbalancedError
		ambiguous    *ledger.AmbiguousPostingError
		option       *ledger.InvalidOptionError
	)
	switch {
	case stderrors.As(err, &invalid):
		return "invalid_parameter"
	case stderrors.As(err, &insufficient):
		return "insufficient_data"
	case stderrors.As(err, &parseErr):
		return "parse_error"
	case stderrors.As(err, &load):
		return "load_error"
	case stderrors.As(err, &unbalanced):
		return "unbalanced_transaction"
	case stderrors.As(err, &ambiguous):
		return "ambiguous_posting"
	case stderrors.As(err, &option):
		return "invalid_option"
	default:
		return fmt.Sprintf("%T", err)
	}
}
