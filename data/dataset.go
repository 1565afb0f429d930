// Package data provides the tabular dataset abstraction used by the
// prediction tasks: column-major numeric tables, split-addressable datasets,
// column transforms, and slice specifications for disaggregated evaluation.
//
// Tables are mutable in place so that prediction columns can be written back
// onto a shared dataset during evaluation.
package data

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Numeric is anything convertible to a dense feature matrix.
type Numeric interface {
	Dense() (*mat.Dense, error)
}

// Rows is a row-major slice of feature vectors.
type Rows [][]float64

// Dense converts the rows to a dense matrix. All rows must have the same
// length.
func (r Rows) Dense() (*mat.Dense, error) {
	if len(r) == 0 {
		return nil, fmt.Errorf("cannot build a matrix from zero rows")
	}
	width := len(r[0])
	out := mat.NewDense(len(r), width, nil)
	for i, row := range r {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), width)
		}
		out.SetRow(i, row)
	}
	return out, nil
}

// Matrix wraps an existing dense matrix so it satisfies Numeric.
type Matrix struct {
	M *mat.Dense
}

// Dense returns the wrapped matrix.
func (m Matrix) Dense() (*mat.Dense, error) {
	if m.M == nil {
		return nil, fmt.Errorf("nil matrix")
	}
	return m.M, nil
}

// Table is an ordered collection of named float64 columns of equal length.
type Table struct {
	names []string
	cols  map[string][]float64
	rows  int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{cols: make(map[string][]float64)}
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns in the table.
func (t *Table) NumColumns() int { return len(t.names) }

// ColumnNames returns the column names in insertion order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	values, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("column %q does not exist, have %v", name, t.names)
	}
	return values, nil
}

// AddColumn adds a column in place. The first column fixes the row count;
// every later column must match it. Adding an existing name replaces its
// values, which is how repeated prediction runs refresh their output.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(t.names) > 0 && len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	if _, exists := t.cols[name]; !exists {
		t.names = append(t.names, name)
	}
	t.cols[name] = values
	t.rows = len(values)
	return nil
}

// ColumnsWithPrefix returns the names of all columns starting with
// prefix+".", sorted for deterministic iteration.
func (t *Table) ColumnsWithPrefix(prefix string) []string {
	var out []string
	for _, name := range t.names {
		if strings.HasPrefix(name, prefix+".") {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Matrix extracts the named columns as a row-major dense matrix. With no
// names it extracts every column in insertion order.
func (t *Table) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		names = t.names
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}
	cols := make([][]float64, len(names))
	for i, name := range names {
		values, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = values
	}
	out := mat.NewDense(t.rows, len(names), nil)
	for j, values := range cols {
		for i, v := range values {
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// Dense converts the whole table to a dense matrix, satisfying Numeric.
func (t *Table) Dense() (*mat.Dense, error) {
	return t.Matrix()
}

// Select returns a new table holding only the rows where mask is true.
// Column slices are copied.
func (t *Table) Select(mask []bool) (*Table, error) {
	if len(mask) != t.rows {
		return nil, fmt.Errorf("mask has %d entries, table has %d rows", len(mask), t.rows)
	}
	out := NewTable()
	for _, name := range t.names {
		src := t.cols[name]
		var kept []float64
		for i, keep := range mask {
			if keep {
				kept = append(kept, src[i])
			}
		}
		if err := out.AddColumn(name, kept); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WithoutColumns returns a shallow copy of the table with the named columns
// removed. Column value slices are shared with the original.
func (t *Table) WithoutColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	out := NewTable()
	for _, name := range t.names {
		if drop[name] {
			continue
		}
		out.names = append(out.names, name)
		out.cols[name] = t.cols[name]
		out.rows = t.rows
	}
	return out
}

// Dataset is a collection of named splits, each a table. It mirrors the
// usual train/validation/test partitioning of clinical datasets.
type Dataset struct {
	names  []string
	splits map[string]*Table
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{splits: make(map[string]*Table)}
}

// AddSplit adds or replaces a named split.
func (d *Dataset) AddSplit(name string, t *Table) {
	if _, exists := d.splits[name]; !exists {
		d.names = append(d.names, name)
	}
	d.splits[name] = t
}

// SplitNames returns the split names in insertion order.
func (d *Dataset) SplitNames() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Split returns the named split.
func (d *Dataset) Split(name string) (*Table, error) {
	t, ok := d.splits[name]
	if !ok {
		return nil, fmt.Errorf("split %q does not exist, have %v", name, d.names)
	}
	return t, nil
}

// Resolve maps a logical role ("train", "validation", "test") to an actual
// split through the given mapping. When the mapped split is absent and the
// dataset holds exactly one split, that split is used, matching the behavior
// of single-partition datasets.
func (d *Dataset) Resolve(role string, mapping map[string]string) (*Table, error) {
	name := role
	if mapped, ok := mapping[role]; ok {
		name = mapped
	}
	if t, ok := d.splits[name]; ok {
		return t, nil
	}
	if len(d.names) == 1 {
		return d.splits[d.names[0]], nil
	}
	return nil, fmt.Errorf("no split for role %q (mapped to %q), have %v", role, name, d.names)
}
