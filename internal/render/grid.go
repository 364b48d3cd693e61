// Package render projects result sets into display grids and encodes
// them for terminals, files and the web console.
package render

import "github.com/leapstack-labs/sqlrepl/internal/engine"

// Grid is a result set reduced to strings: one header row and a body.
// Every body row has exactly len(Header) cells.
type Grid struct {
	Header []string
	Rows   [][]string
}

// Width returns the number of columns.
func (g Grid) Width() int { return len(g.Header) }

// Empty reports whether the grid has no columns.
func (g Grid) Empty() bool { return len(g.Header) == 0 }

// Render converts a result set into a grid. Column and row order are
// preserved. Rows shorter than the header are padded with empty cells,
// longer rows are truncated. A result set without columns yields an
// empty grid.
func Render(rs engine.ResultSet) Grid {
	if len(rs.Columns) == 0 {
		return Grid{}
	}

	header := make([]string, len(rs.Columns))
	copy(header, rs.Columns)

	rows := make([][]string, len(rs.Rows))
	for i, row := range rs.Rows {
		cells := make([]string, len(header))
		for j := range cells {
			if j < len(row) {
				cells[j] = row[j].String()
			}
		}
		rows[i] = cells
	}

	return Grid{Header: header, Rows: rows}
}

// RenderAll renders each result set in order.
func RenderAll(sets []engine.ResultSet) []Grid {
	grids := make([]Grid, 0, len(sets))
	for _, rs := range sets {
		grids = append(grids, Render(rs))
	}
	return grids
}
