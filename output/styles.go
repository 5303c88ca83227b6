// Package output provides styling and number formatting helpers for
// terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
)

// ANSI palette indices.
const (
	red     = "1"
	green   = "2"
	yellow  = "3"
	magenta = "5"
	cyan    = "6"
)

// Styles colours report output. Writers that are not terminals get plain
// text, so rendered reports stay comparable in tests and pipes.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w)}
}

func (s *Styles) paint(text, color string, bold bool) string {
	style := s.output.String(text)
	if color != "" {
		style = style.Foreground(s.output.Color(color))
	}
	if bold {
		style = style.Bold()
	}
	return style.String()
}

func (s *Styles) Success(text string) string  { return s.paint(text, green, true) }
func (s *Styles) Error(text string) string    { return s.paint(text, red, true) }
func (s *Styles) Warning(text string) string  { return s.paint(text, yellow, true) }
func (s *Styles) FilePath(text string) string { return s.paint(text, cyan, false) }
func (s *Styles) Account(text string) string  { return s.paint(text, yellow, false) }
func (s *Styles) Amount(text string) string   { return s.paint(text, magenta, false) }
func (s *Styles) Keyword(text string) string  { return s.paint(text, "", true) }

// Dim returns faint text for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Signed colours text by the sign of value: red below zero, green above,
// dim at zero.
func (s *Styles) Signed(value decimal.Decimal, text string) string {
	switch value.Sign() {
	case -1:
		return s.paint(text, red, false)
	case 1:
		return s.paint(text, green, false)
	}
	return s.Dim(text)
}

// Money formats value in currency and colours it by sign.
func (s *Styles) Money(value decimal.Decimal, currency string) string {
	return s.Signed(value, FormatAmount(value, currency))
}
