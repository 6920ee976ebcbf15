package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Pool is the allocator used when the caller does not supply one.
var Pool = memory.NewGoAllocator()

// Schema returns an Arrow schema with one nullable float64 field per column.
func (t *Table) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.cols))
	for i, c := range t.cols {
		fields[i] = arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToRecord converts the table to an Arrow record. Invalid cells become nulls.
// The caller owns the record and must Release it.
func (t *Table) ToRecord(mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = Pool
	}
	b := array.NewFloat64Builder(mem)
	defer b.Release()

	arrs := make([]arrow.Array, len(t.cols))
	for i, c := range t.cols {
		b.AppendValues(c.Values, c.Valid)
		arrs[i] = b.NewArray()
	}
	rec := array.NewRecord(t.Schema(), arrs, int64(t.rows))
	for _, a := range arrs {
		a.Release()
	}
	return rec
}

// FromRecord converts an Arrow record into a table. Integer and float
// columns are widened to float64 and nulls become invalid cells; any other
// column type is rejected.
func FromRecord(rec arrow.Record) (*Table, error) {
	rows := int(rec.NumRows())
	schema := rec.Schema()
	cols := make([]*Column, 0, rec.NumCols())
	for i, f := range schema.Fields() {
		c := NewEmptyColumn(f.Name, rows)
		if err := fillColumn(c, rec.Column(i)); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(rows, cols...)
}

func fillColumn(c *Column, arr arrow.Array) error {
	var at func(int) float64
	switch a := arr.(type) {
	case *array.Float64:
		at = a.Value
	case *array.Float32:
		at = func(i int) float64 { return float64(a.Value(i)) }
	case *array.Int64:
		at = func(i int) float64 { return float64(a.Value(i)) }
	case *array.Int32:
		at = func(i int) float64 { return float64(a.Value(i)) }
	case *array.Null:
		return nil
	default:
		return fmt.Errorf("column %q has non-numeric type %s", c.Name, arr.DataType())
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		c.Set(i, at(i))
	}
	return nil
}
