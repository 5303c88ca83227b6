package ast

import "fmt"

// Position is a location in a source file. Line and Column are 1-based;
// the zero value means the location is unknown.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// IsZero reports whether the position carries no location.
func (p Position) IsZero() bool {
	return p.Filename == "" && p.Line == 0
}

// Location renders the line-level location used in messages:
// "main.beancount:12", or "line 12" when the filename is unknown.
func (p Position) Location() string {
	if p.Filename == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
