// Package csvgrid tokenizes report CSV exports into a rectangular-ish grid of
// trimmed cells.
//
// The tokenizer is deliberately lenient: quotes may open mid-cell, carriage
// returns are discarded everywhere, and an unterminated quoted span is flushed
// rather than rejected. ParseStrict offers the rejecting variant.
package csvgrid

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnterminatedQuote is returned by ParseStrict when input ends inside a
// quoted span.
var ErrUnterminatedQuote = eris.New("csvgrid: unterminated quoted field")

const bom = "\ufeff"

// Grid is an ordered sequence of rows, each an ordered sequence of cells.
type Grid [][]string

// Parse converts raw CSV text into a Grid. It never fails.
func Parse(text string) Grid {
	grid, _ := scan(text)
	return grid
}

// ParseStrict behaves like Parse but returns ErrUnterminatedQuote when the
// input ends while a quoted span is still open.
func ParseStrict(text string) (Grid, error) {
	grid, open := scan(text)
	if open {
		return nil, ErrUnterminatedQuote
	}
	return grid, nil
}

// scan runs the tokenizer and reports whether a quoted span was left open.
func scan(text string) (Grid, bool) {
	text = strings.TrimPrefix(text, bom)

	var (
		rows     Grid
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	endCell := func() {
		row = append(row, strings.TrimSpace(cell.String()))
		cell.Reset()
	}
	endRow := func() {
		endCell()
		rows = append(rows, row)
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if inQuotes {
			switch {
			case ch == '"' && i+1 < len(runes) && runes[i+1] == '"':
				cell.WriteRune('"')
				i++
			case ch == '"':
				inQuotes = false
			case ch == '\r':
			default:
				cell.WriteRune(ch)
			}
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			endCell()
		case '\n':
			endRow()
		case '\r':
		default:
			cell.WriteRune(ch)
		}
	}

	// Flush the trailing cell/row. A trailing newline already flushed the last
	// row and leaves an empty pending row, which the blank-row filter drops.
	endRow()

	return clean(rows), inQuotes
}

// FromRows applies the same cell trimming and blank-row filtering as Parse to
// rows obtained elsewhere, such as a spreadsheet sheet. The input is not
// modified.
func FromRows(rows [][]string) Grid {
	cp := make(Grid, len(rows))
	for i, row := range rows {
		cp[i] = append([]string(nil), row...)
	}
	return clean(cp)
}

// clean trims every cell again and drops rows whose cells are all empty.
func clean(rows Grid) Grid {
	out := make(Grid, 0, len(rows))
	for _, row := range rows {
		blank := true
		for j, c := range row {
			row[j] = strings.TrimSpace(c)
			if row[j] != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}

// Width returns the maximum row length in the grid.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}
