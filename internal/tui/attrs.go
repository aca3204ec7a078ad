package tui

import (
	"fmt"
	"math"

	table "github.com/charmbracelet/bubbles/table"
)

var cellColumns = []table.Column{
	{Title: "#", Width: 6},
	{Title: "row", Width: 4},
	{Title: "col", Width: 4},
	{Title: "lon", Width: 15},
	{Title: "lat", Width: 15},
	{Title: "value", Width: 12},
	{Title: "pieces", Width: 6},
}

// refreshAttrs rebuilds the cell table from the dataset and the current mesh.
func (m *Model) refreshAttrs() {
	rows := m.cellRows()
	if len(rows) == 0 {
		m.showAttrs = false
		m.status = "no cells for current dataset"
		return
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(cellColumns)
	m.tbl.SetRows(rows)
	if m.hoverOnCell {
		_, cols := m.data.Grid.Shape()
		m.tbl.SetCursor(m.hoverRow*cols + m.hoverCol)
	}
}

// cellRows lists every grid cell with its edges in degrees, its value and
// the number of polygons it became in the current mesh.
func (m *Model) cellRows() []table.Row {
	if m.data == nil {
		return nil
	}
	g := m.data.Grid
	nrows, ncols := g.Shape()
	pieces := make([]int, nrows*ncols)
	if m.mesh != nil {
		for _, p := range m.mesh.Polygons {
			pieces[p.Row*ncols+p.Col]++
		}
	}
	out := make([]table.Row, 0, nrows*ncols)
	for i := 0; i < nrows; i++ {
		for j := 0; j < ncols; j++ {
			v := m.data.Field[i][j]
			val := "gap"
			if !math.IsNaN(v) {
				val = fmt.Sprintf("%.5g", v)
			}
			out = append(out, table.Row{
				fmt.Sprintf("%d", i*ncols+j+1),
				fmt.Sprintf("%d", i),
				fmt.Sprintf("%d", j),
				fmt.Sprintf("%.2f..%.2f", degrees(g.LonEdges[j]), degrees(g.LonEdges[j+1])),
				fmt.Sprintf("%.2f..%.2f", degrees(g.LatEdges[i]), degrees(g.LatEdges[i+1])),
				val,
				fmt.Sprintf("%d", pieces[i*ncols+j]),
			})
		}
	}
	return out
}
