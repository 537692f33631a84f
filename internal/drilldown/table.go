// Package drilldown builds the per-KPI scoring table from a CSV or spreadsheet
// export and prepares it for display.
package drilldown

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-studio/internal/csvgrid"
)

// Build failures. Callers match them with errors.Is.
var (
	ErrEmptyInput    = eris.New("drilldown: input has no rows")
	ErrMissingHeader = eris.New("drilldown: no header row")
	ErrNoDataRows    = eris.New("drilldown: no data rows")
	ErrRowWidth      = eris.New("drilldown: row width does not match columns")
)

const scoreHeader = "score"

// Table is the flattened drill-down table. Every row holds exactly
// len(Columns) cells.
type Table struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Options tunes how raw input is tokenized.
type Options struct {
	// StrictQuotes rejects input that ends inside a quoted field instead of
	// flushing what was read.
	StrictQuotes bool
}

// Build parses CSV text and builds a Table from it.
func Build(text string) (*Table, error) {
	return BuildWithOptions(text, Options{})
}

// BuildWithOptions is Build with explicit tokenizer options.
func BuildWithOptions(text string, opts Options) (*Table, error) {
	var grid csvgrid.Grid
	if opts.StrictQuotes {
		g, err := csvgrid.ParseStrict(text)
		if err != nil {
			return nil, eris.Wrap(err, "drilldown: parse csv")
		}
		grid = g
	} else {
		grid = csvgrid.Parse(text)
	}
	return BuildGrid(grid)
}

// BuildGrid builds a Table from an already tokenized grid. Cells are expected
// to be trimmed and blank rows removed, as csvgrid.Parse guarantees.
func BuildGrid(grid csvgrid.Grid) (*Table, error) {
	if len(grid) == 0 {
		return nil, ErrEmptyInput
	}

	rows := grid
	table := &Table{}

	if isTitleRow(rows[0]) {
		table.Title = rows[0][0]
		rows = rows[1:]
	}

	if len(rows) == 0 {
		return nil, ErrMissingHeader
	}

	table.Columns = headers(rows[0])
	rows = rows[1:]

	scoreIdx := -1
	for i, h := range table.Columns {
		if strings.EqualFold(h, scoreHeader) {
			scoreIdx = i
			break
		}
	}

	for _, row := range rows {
		cells := fit(row, len(table.Columns))
		if scoreIdx >= 0 && cells[scoreIdx] == "" {
			continue
		}
		table.Rows = append(table.Rows, cells)
	}

	if len(table.Rows) == 0 {
		return nil, ErrNoDataRows
	}

	return table, nil
}

// isTitleRow reports whether a row carries at most one value in its first
// cell.
func isTitleRow(row []string) bool {
	if len(row) <= 1 {
		return true
	}
	for _, c := range row[1:] {
		if c != "" {
			return false
		}
	}
	return true
}

func headers(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = h
	}
	return out
}

// fit pads or truncates row to n cells.
func fit(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

// Check verifies that every row holds exactly len(Columns) cells. Tables
// from BuildGrid always pass; decoded tables may not.
func (t *Table) Check() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return eris.Wrapf(ErrRowWidth, "row %d has %d cells for %d columns", i+1, len(row), len(t.Columns))
		}
	}
	return nil
}

// ColumnIndex returns the position of the first column whose header equals
// name case-insensitively, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return i
		}
	}
	return -1
}
