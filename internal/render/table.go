// Package render writes records and tables for terminal or file
// consumption. Output is deterministic: identical input produces
// byte-identical output.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Table is an aligned, pipe-separated table. Column widths track the
// widest cell (or header) in each column.
type Table struct {
	Columns []string
	Rows    [][]string

	// Color emphasizes the header row. Leave off when writing to a
	// file or in tests.
	Color bool
}

// AddRow appends one row. Short rows are padded with empty cells.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.Columns) {
		cells = append(cells, "")
	}
	t.Rows = append(t.Rows, cells)
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = len(col)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

// Write renders the table to w.
func (t *Table) Write(w io.Writer) error {
	widths := t.widths()

	var header, divider strings.Builder
	for i, col := range t.Columns {
		fmt.Fprintf(&header, "%-*s|", widths[i], col)
		divider.WriteString(strings.Repeat("-", widths[i]) + "|")
	}

	if t.Color {
		if _, err := color.New(color.Bold).Fprintln(w, header.String()); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, header.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, divider.String()); err != nil {
		return err
	}

	for _, row := range t.Rows {
		var line strings.Builder
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprintf(&line, "%-*s|", widths[i], cell)
		}
		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}
