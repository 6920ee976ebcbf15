package table

import (
	"fmt"
)

// Column is a named float64 column with a per-cell validity mask. A cell
// that is not valid carries no meaningful value.
//
// Columns held by a Table are never modified in place; derive a new column
// with Clone and swap it in with Table.With.
type Column struct {
	Name   string
	Values []float64
	Valid  []bool
}

// NewColumn returns a column whose cells are all valid.
func NewColumn(name string, values []float64) *Column {
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = true
	}
	return &Column{Name: name, Values: values, Valid: valid}
}

// NewEmptyColumn returns a column of n invalid cells, to be filled with Set.
func NewEmptyColumn(name string, n int) *Column {
	return &Column{Name: name, Values: make([]float64, n), Valid: make([]bool, n)}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// At returns the value at row i and whether it is valid.
func (c *Column) At(i int) (float64, bool) {
	return c.Values[i], c.Valid[i]
}

// IsValid reports whether row i holds a value.
func (c *Column) IsValid(i int) bool { return c.Valid[i] }

// Set stores v at row i and marks it valid.
func (c *Column) Set(i int, v float64) {
	c.Values[i] = v
	c.Valid[i] = true
}

// Invalidate marks row i as holding no value.
func (c *Column) Invalidate(i int) {
	c.Values[i] = 0
	c.Valid[i] = false
}

// ValidCount returns the number of valid cells.
func (c *Column) ValidCount() int {
	n := 0
	for _, ok := range c.Valid {
		if ok {
			n++
		}
	}
	return n
}

// ValidValues returns the valid cells in row order.
func (c *Column) ValidValues() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i, ok := range c.Valid {
		if ok {
			out = append(out, c.Values[i])
		}
	}
	return out
}

// Clone returns a deep copy, optionally under a new name.
func (c *Column) Clone(name ...string) *Column {
	n := c.Name
	if len(name) > 0 {
		n = name[0]
	}
	values := make([]float64, len(c.Values))
	copy(values, c.Values)
	valid := make([]bool, len(c.Valid))
	copy(valid, c.Valid)
	return &Column{Name: n, Values: values, Valid: valid}
}

// Table is an ordered set of equally long columns. Tables are values: every
// operation that changes the column set returns a new Table sharing the
// untouched columns with its source.
type Table struct {
	rows  int
	cols  []*Column
	index map[string]int
}

// New builds a table from columns, which must all have rows cells, carry a
// validity mask of the same length and have unique names.
func New(rows int, cols ...*Column) (*Table, error) {
	t := &Table{rows: rows, index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if err := t.check(c); err != nil {
			return nil, err
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// FromValues builds a table from fully valid columns given in order.
func FromValues(names []string, values [][]float64) (*Table, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("table: %d names for %d columns", len(names), len(values))
	}
	rows := 0
	if len(values) > 0 {
		rows = len(values[0])
	}
	cols := make([]*Column, len(names))
	for i, name := range names {
		cols[i] = NewColumn(name, values[i])
	}
	return New(rows, cols...)
}

func (t *Table) check(c *Column) error {
	if c == nil {
		return fmt.Errorf("table: nil column")
	}
	if c.Name == "" {
		return fmt.Errorf("table: column without a name")
	}
	if len(c.Values) != t.rows || len(c.Valid) != t.rows {
		return fmt.Errorf("table: column %q has %d values and %d validity flags, want %d rows",
			c.Name, len(c.Values), len(c.Valid), t.rows)
	}
	return nil
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. Callers must not modify them.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Value returns the cell at (name, row) and whether it exists and is valid.
func (t *Table) Value(name string, row int) (float64, bool) {
	c, ok := t.Column(name)
	if !ok || row < 0 || row >= t.rows {
		return 0, false
	}
	return c.At(row)
}

// Missing returns the names that are not columns of t, in the given order.
func (t *Table) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := t.index[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// With returns a new table in which each given column replaces the column of
// the same name, or is appended when no such column exists.
func (t *Table) With(cols ...*Column) (*Table, error) {
	out := &Table{rows: t.rows, cols: make([]*Column, len(t.cols)), index: make(map[string]int, len(t.cols)+len(cols))}
	copy(out.cols, t.cols)
	for k, v := range t.index {
		out.index[k] = v
	}
	for _, c := range cols {
		if err := out.check(c); err != nil {
			return nil, err
		}
		if i, ok := out.index[c.Name]; ok {
			out.cols[i] = c
			continue
		}
		out.index[c.Name] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("table: unknown column %q", n)
		}
		cols = append(cols, c)
	}
	return New(t.rows, cols...)
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	cols := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !skip[c.Name] {
			cols = append(cols, c)
		}
	}
	out, _ := New(t.rows, cols...)
	return out
}

// Filter returns the rows for which keep returns true, preserving order.
func (t *Table) Filter(keep func(row int) bool) *Table {
	var rows []int
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	cols := make([]*Column, len(t.cols))
	for j, c := range t.cols {
		nc := NewEmptyColumn(c.Name, len(rows))
		for k, r := range rows {
			nc.Values[k] = c.Values[r]
			nc.Valid[k] = c.Valid[r]
		}
		cols[j] = nc
	}
	out, _ := New(len(rows), cols...)
	return out
}

// Concat appends the rows of tables in order. Every table must have the
// same set of column names; the column order of the first table is kept.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(0)
	}
	names := tables[0].Names()
	total := 0
	for i, tb := range tables {
		if tb.NumCols() != len(names) {
			return nil, fmt.Errorf("table: table %d has %d columns, want %d", i, tb.NumCols(), len(names))
		}
		if missing := tb.Missing(names...); len(missing) > 0 {
			return nil, fmt.Errorf("table: table %d lacks columns %v", i, missing)
		}
		total += tb.Rows()
	}
	cols := make([]*Column, len(names))
	for j, name := range names {
		nc := &Column{Name: name, Values: make([]float64, 0, total), Valid: make([]bool, 0, total)}
		for _, tb := range tables {
			c, _ := tb.Column(name)
			nc.Values = append(nc.Values, c.Values...)
			nc.Valid = append(nc.Valid, c.Valid...)
		}
		cols[j] = nc
	}
	return New(total, cols...)
}

// Records returns one map per row, keyed by column name. Invalid cells map
// to nil so they encode as JSON null.
func (t *Table) Records() []map[string]*float64 {
	out := make([]map[string]*float64, t.rows)
	for i := range out {
		rec := make(map[string]*float64, len(t.cols))
		for _, c := range t.cols {
			if c.Valid[i] {
				v := c.Values[i]
				rec[c.Name] = &v
			} else {
				rec[c.Name] = nil
			}
		}
		out[i] = rec
	}
	return out
}
