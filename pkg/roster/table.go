package roster

import "strings"

// Table is a sheet read from a spreadsheet or CSV file
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// Cell returns the trimmed value at (row, col), or "" when out of range
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// ColumnIndex returns the index of the first header matching any name, or -1
func (t *Table) ColumnIndex(names ...string) int {
	for _, name := range names {
		want := fold(name)
		for i, h := range t.Header {
			if fold(h) == want {
				return i
			}
		}
	}
	return -1
}
