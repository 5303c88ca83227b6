package parser

import (
	"fmt"

	"github.com/robinvdvleuten/ourfinance/ast"
)

// ParseError is a fatal syntax error. Source holds the text of the file the
// error occurred in so callers can render context around the position.
type ParseError struct {
	Pos     ast.Position
	Message string
	Source  []byte
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos.Location(), e.Message)
}

func (e *ParseError) GetPosition() ast.Position {
	return e.Pos
}

func newErrorf(pos ast.Position, source []byte, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
		Source:  source,
	}
}
