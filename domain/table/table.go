// Package table provides the in-memory tabular dataset abstraction the
// pipeline engine operates on: named, typed columns of equal length with
// value-semantics operations. Row order is meaningful and preserved by
// every operation that does not explicitly partition.
package table

import (
	"tablefit/domain/core"
)

// Field describes one column in a table schema
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered column descriptor list of a table
type Schema []Field

// Has reports whether the schema contains a column with the given name
func (s Schema) Has(name string) bool {
	for _, f := range s {
		if f.Name == name {
			return true
		}
	}
	return false
}

// KindOf returns the kind of the named column
func (s Schema) KindOf(name string) (Kind, error) {
	for _, f := range s {
		if f.Name == name {
			return f.Kind, nil
		}
	}
	return "", core.NewColumnNotFoundError(name)
}

// Table is an ordered sequence of named columns with equal row counts.
// All operations return new Table values; nothing mutates in place, so a
// prepared recipe can be re-applied to the original data at any lifecycle
// stage.
type Table struct {
	cols  []Column
	index map[string]int
}

// New builds a table from columns, validating equal lengths and unique names
func New(cols ...Column) (Table, error) {
	t := Table{cols: cols, index: make(map[string]int, len(cols))}
	rows := -1
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return Table{}, core.NewColumnNotFoundError(c.Name + " (duplicate)")
		}
		t.index[c.Name] = i
		if rows == -1 {
			rows = c.Len()
		} else if c.Len() != rows {
			return Table{}, core.NewLengthMismatchError(c.Name, c.Len(), rows)
		}
	}
	return t, nil
}

// MustNew is New that panics on error, for fixtures and literals
func MustNew(cols ...Column) Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the row count
func (t Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count
func (t Table) NumCols() int {
	return len(t.cols)
}

// Names returns the column names in order
func (t Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table contains the named column
func (t Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column
func (t Table) Column(name string) (Column, error) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, core.NewColumnNotFoundError(name)
	}
	return t.cols[i], nil
}

// Columns returns the columns in order. The slice is a copy; the column
// value slices are shared and must not be written through.
func (t Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Schema returns the ordered column descriptors
func (t Table) Schema() Schema {
	s := make(Schema, len(t.cols))
	for i, c := range t.cols {
		s[i] = Field{Name: c.Name, Kind: c.Kind}
	}
	return s
}

// Select returns a new table holding only the named columns, in the
// requested order
func (t Table) Select(names ...string) (Table, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return Table{}, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Drop returns a new table without the named columns. Dropping a column
// the table does not have is a no-op: the zero-variance filter must be
// applicable to data that never carried the degenerate column.
func (t Table) Drop(names ...string) Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	cols := make([]Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !drop[c.Name] {
			cols = append(cols, c)
		}
	}
	out, _ := New(cols...)
	return out
}

// WithColumn returns a new table with the column appended, or replaced in
// place if a column of the same name exists
func (t Table) WithColumn(col Column) (Table, error) {
	if t.NumCols() > 0 && col.Len() != t.NumRows() {
		return Table{}, core.NewLengthMismatchError(col.Name, col.Len(), t.NumRows())
	}
	cols := t.Columns()
	if i, ok := t.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols...)
}

// Filter returns a new table holding only the rows for which keep returns
// true, preserving row order
func (t Table) Filter(keep func(row int) bool) Table {
	var indices []int
	for i := 0; i < t.NumRows(); i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	out, _ := t.Take(indices)
	return out
}

// Take returns a new table holding the rows at the given indices, in the
// given order
func (t Table) Take(indices []int) (Table, error) {
	rows := t.NumRows()
	for _, i := range indices {
		if i < 0 || i >= rows {
			return Table{}, core.NewLengthMismatchError("row index", i, rows)
		}
	}
	cols := make([]Column, len(t.cols))
	for j, c := range t.cols {
		cols[j] = c.take(indices)
	}
	return New(cols...)
}

// Split partitions the table into (rows at indices, remaining rows). The
// second table keeps the original row order of the complement.
func (t Table) Split(indices []int) (Table, Table, error) {
	in, err := t.Take(indices)
	if err != nil {
		return Table{}, Table{}, err
	}
	member := make(map[int]bool, len(indices))
	for _, i := range indices {
		member[i] = true
	}
	var rest []int
	for i := 0; i < t.NumRows(); i++ {
		if !member[i] {
			rest = append(rest, i)
		}
	}
	out, err := t.Take(rest)
	if err != nil {
		return Table{}, Table{}, err
	}
	return in, out, nil
}
