package export

import "fmt"

// Table is one rendered sheet: a header row followed by positional rows.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Validate checks that every row matches the header width.
func (t Table) Validate() error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table %q requires at least one header", t.Title)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("table %q row %d has %d cells, want %d", t.Title, i, len(row), len(t.Headers))
		}
	}
	return nil
}

// Workbook is an ordered set of tables.
type Workbook struct {
	Tables []Table
}
