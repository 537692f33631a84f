package drilldown

// DisplayCell pairs the raw table value with the text actually shown.
type DisplayCell struct {
	Raw     string `json:"raw"`
	Display string `json:"display"`
}

// Blank reports whether the cell renders as empty.
func (c DisplayCell) Blank() bool {
	return c.Display == ""
}

// DisplayGrid is indexed [row][col].
type DisplayGrid [][]DisplayCell

// Normalize collapses repeated values: a cell equal to the cell above it in the
// same column displays blank. Raw values are kept untouched.
func Normalize(t *Table) DisplayGrid {
	if t == nil {
		return nil
	}

	grid := make(DisplayGrid, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]DisplayCell, len(row))
		for j, v := range row {
			cells[j] = DisplayCell{Raw: v, Display: v}
			if i > 0 && j < len(t.Rows[i-1]) && t.Rows[i-1][j] == v {
				cells[j].Display = ""
			}
		}
		grid[i] = cells
	}
	return grid
}

// View bundles everything a renderer needs for one table.
type View struct {
	Title   string
	Columns []ColumnMeta
	Rows    DisplayGrid
}

// NewView classifies the columns and normalizes the rows of t.
func NewView(t *Table) View {
	return View{
		Title:   t.Title,
		Columns: ClassifyAll(t.Columns),
		Rows:    Normalize(t),
	}
}
