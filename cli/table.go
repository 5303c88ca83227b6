package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// grid collects rows for a bordered table. Columns listed in numeric are
// right-aligned.
type grid struct {
	headers []string
	numeric map[int]bool
	rows    [][]string
}

func newGrid(headers ...string) *grid {
	return &grid{headers: headers, numeric: make(map[int]bool)}
}

// Numeric marks columns as right-aligned.
func (g *grid) Numeric(cols ...int) *grid {
	for _, c := range cols {
		g.numeric[c] = true
	}
	return g
}

func (g *grid) Row(cells ...string) {
	g.rows = append(g.rows, cells)
}

func (g *grid) Len() int { return len(g.rows) }

func (g *grid) Render(w io.Writer) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(g.headers...).
		Rows(g.rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case g.numeric[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
	_, _ = fmt.Fprintln(w, t.Render())
}
