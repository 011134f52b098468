// Package metadata holds the sample metadata table: one header row naming
// variables, one string row per sample, and a designated identifier column.
package metadata

import (
	"fmt"

	"gokw/domain/core"
)

// Table is a header plus string rows. Short rows are padded with empty
// (missing) values; rows longer than the header are rejected.
type Table struct {
	columns  []string
	rows     [][]string
	idColumn int
	index    map[string]int
}

// NewTable validates the header and rows. The first column is the
// identifier column until SetIDColumn says otherwise.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	if len(columns) == 0 {
		return nil, core.NewValidationError("metadata", "header row is empty")
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, core.NewValidationError("metadata", fmt.Sprintf("column %d has an empty name", i+1))
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: metadata column %q", core.ErrDuplicateID, c)
		}
		index[c] = i
	}

	t := &Table{
		columns: append([]string(nil), columns...),
		rows:    make([][]string, len(rows)),
		index:   index,
	}
	for r, row := range rows {
		if len(row) > len(columns) {
			return nil, core.NewValidationError("metadata", fmt.Sprintf("row %d has %d fields for %d columns", r+1, len(row), len(columns)))
		}
		padded := make([]string, len(columns))
		copy(padded, row)
		t.rows[r] = padded
	}
	return t, nil
}

// Columns returns a copy of the header
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumColumns returns the header width
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether name is a header entry
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at row r, column name
func (t *Table) Value(r int, name string) (string, bool) {
	c, ok := t.index[name]
	if !ok || r < 0 || r >= len(t.rows) {
		return "", false
	}
	return t.rows[r][c], true
}

// Row returns a copy of row r
func (t *Table) Row(r int) []string {
	return append([]string(nil), t.rows[r]...)
}

// Column returns a copy of the named column
func (t *Table) Column(name string) ([]string, error) {
	c, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: metadata column %q", core.ErrNotFound, name)
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[c]
	}
	return out, nil
}

// IDColumn returns the name of the sample identifier column
func (t *Table) IDColumn() string {
	return t.columns[t.idColumn]
}

// SetIDColumn designates the sample identifier column
func (t *Table) SetIDColumn(name string) error {
	c, ok := t.index[name]
	if !ok {
		return fmt.Errorf("%w: metadata column %q", core.ErrNotFound, name)
	}
	t.idColumn = c
	return nil
}

// SampleID returns the identifier of row r
func (t *Table) SampleID(r int) core.SampleID {
	return core.SampleID(t.rows[r][t.idColumn])
}

// SampleIDs returns identifiers in row order
func (t *Table) SampleIDs() []core.SampleID {
	out := make([]core.SampleID, len(t.rows))
	for r := range t.rows {
		out[r] = t.SampleID(r)
	}
	return out
}

// Filter returns a table holding the rows for which keep is true
func (t *Table) Filter(keep func(r int) bool) *Table {
	out := &Table{
		columns:  t.columns,
		idColumn: t.idColumn,
		index:    t.index,
	}
	for r, row := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}
