package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/ourfinance/ast"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/parser"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
	errHintStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#5FAFFF"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	source   []byte
	filename string
}

// NewErrorRenderer creates a renderer with source content for context.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	return &ErrorRenderer{source: source}
}

// WithFilename marks which file the source content belongs to. Positions
// pointing into other (included) files are rendered from disk.
func (r *ErrorRenderer) WithFilename(filename string) *ErrorRenderer {
	r.filename = filename
	return r
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		source := parseErr.Source
		if source == nil {
			source = r.sourceFor(parseErr.Pos)
		}
		if source != nil {
			return r.renderWithSourceContext(parseErr.Pos, err.Error(), source)
		}
	}

	var invalid *ledger.InvalidParameterError
	if errors.As(err, &invalid) {
		return r.renderWithHint(err.Error(), fmt.Sprintf("check the value passed for %s", invalid.Parameter))
	}

	var insufficient *ledger.InsufficientDataError
	if errors.As(err, &insufficient) {
		return r.renderWithHint(err.Error(), "widen the date range or pick another currency with --currency")
	}

	if e, ok := err.(interface{ GetPosition() ast.Position }); ok {
		if pos := e.GetPosition(); pos.Line > 0 {
			if source := r.sourceFor(pos); source != nil {
				return r.renderWithSourceContext(pos, err.Error(), source)
			}
		}
	}

	return err.Error()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) sourceFor(pos ast.Position) []byte {
	if pos.Filename == "" || r.filename == "" || pos.Filename == r.filename {
		return r.source
	}
	data, err := os.ReadFile(pos.Filename)
	if err != nil {
		return nil
	}
	return data
}

func (r *ErrorRenderer) renderWithHint(message, hint string) string {
	return errorStyle.Render(message) + "\n   " + errHintStyle.Render("hint: "+hint)
}

func (r *ErrorRenderer) renderWithSourceContext(pos ast.Position, message string, sourceContent []byte) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(sourceContent), "\n")

	startLine := max(pos.Line-3, 0)
	endLine := min(pos.Line+1, len(sourceLines)-1)

	for i := startLine; i <= endLine; i++ {
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(sourceLines[i]))
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}
