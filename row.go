package keyset

import (
	"fmt"
	"slices"
)

// Row is one result row: logical cells named after the plan outputs.
type Row struct {
	columns []string
	values  []any
}

// NewRow creates a row of values named by columns. Both slices are kept,
// not copied.
func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

func (r Row) Len() int { return len(r.values) }

// At returns the cell at position i.
func (r Row) At(i int) (any, error) {
	if i < 0 || i >= len(r.values) {
		return nil, fmt.Errorf("row has no column at position %d", i)
	}

	return r.values[i], nil
}

// Get returns the cell named name. Later columns shadow earlier ones.
func (r Row) Get(name string) (any, error) {
	for i := len(r.columns) - 1; i >= 0; i-- {
		if r.columns[i] == name && i < len(r.values) {
			return r.values[i], nil
		}
	}

	return nil, fmt.Errorf("row has no column '%s'", name)
}

func (r Row) Values() []any { return r.values }

func (r Row) Columns() []string { return r.columns }

// Map returns the row as a column name to value map.
func (r Row) Map() map[string]any {
	ret := make(map[string]any, len(r.values))
	for i, v := range r.values {
		if i < len(r.columns) {
			ret[r.columns[i]] = v
		}
	}

	return ret
}

// trim drops the last n cells.
func (r Row) trim(n int) Row {
	if n <= 0 {
		return r
	}
	n = min(n, len(r.values))

	return Row{
		columns: slices.Clip(r.columns[:max(len(r.columns)-n, 0)]),
		values:  slices.Clip(r.values[:len(r.values)-n]),
	}
}
