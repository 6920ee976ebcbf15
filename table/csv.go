package table

import (
	"bytes"
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
)

// NullValues are the cell spellings read as a missing value.
var NullValues = []string{"", "NA", "NaN", "nan", "null"}

// csvOptions configures ReadCSV and WriteCSV.
type csvOptions struct {
	comma     rune
	nullToken string
}

// CSVOption configures CSV reading and writing.
type CSVOption func(*csvOptions)

// WithComma sets the field delimiter (default ',').
func WithComma(r rune) CSVOption {
	return func(o *csvOptions) { o.comma = r }
}

// WithNullToken sets how invalid cells are written (default "").
func WithNullToken(s string) CSVOption {
	return func(o *csvOptions) { o.nullToken = s }
}

func newCSVOptions(opts []CSVOption) csvOptions {
	o := csvOptions{comma: ','}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ReadCSV parses a delimited file with a header row into a table. Header
// names and cells are trimmed of surrounding spaces. Every column must be
// numeric: a cell that does not parse as a number fails the whole read,
// while null spellings (see NullValues) become invalid cells.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Table, error) {
	o := newCSVOptions(opts)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	names, err := readHeader(data, o.comma)
	if err != nil {
		return nil, err
	}

	// Cells are read as text so they can be trimmed before parsing. The
	// reader renames fields from the raw header, so columns are built from
	// names by position.
	fields := make([]arrow.Field, len(names))
	for i, n := range names {
		fields[i] = arrow.Field{Name: n, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	rdr := csv.NewReader(bytes.NewReader(data), arrow.NewSchema(fields, nil),
		csv.WithHeader(true),
		csv.WithComma(o.comma),
		csv.WithChunk(-1),
		csv.WithNullReader(true, NullValues...),
		csv.WithAllocator(Pool),
	)
	defer rdr.Release()

	var parts []*Table
	line := 2
	for rdr.Next() {
		rec := rdr.Record()
		rows := int(rec.NumRows())
		cols := make([]*Column, len(names))
		for i, n := range names {
			c, err := parseColumn(n, rec.Column(i), line)
			if err != nil {
				return nil, err
			}
			cols[i] = c
		}
		t, err := New(rows, cols...)
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
		line += rows
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(parts) == 0 {
		cols := make([]*Column, len(names))
		for i, n := range names {
			cols[i] = NewEmptyColumn(n, 0)
		}
		return New(0, cols...)
	}
	return Concat(parts...)
}

// parseColumn converts a text column read from line firstLine onwards.
func parseColumn(name string, arr arrow.Array, firstLine int) (*Column, error) {
	text, ok := arr.(*array.String)
	if !ok {
		return nil, fmt.Errorf("csv column %q: unexpected type %s", name, arr.DataType())
	}
	c := NewEmptyColumn(name, text.Len())
	for i := 0; i < text.Len(); i++ {
		if text.IsNull(i) {
			continue
		}
		cell := strings.TrimSpace(text.Value(i))
		if slices.Contains(NullValues, cell) {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d, column %q: %q is not a number (only numeric columns are supported)",
				firstLine+i, name, cell)
		}
		c.Set(i, v)
	}
	return c, nil
}

// readHeader returns the trimmed column names of the first record.
func readHeader(data []byte, comma rune) ([]string, error) {
	hr := stdcsv.NewReader(bytes.NewReader(data))
	hr.Comma = comma
	header, err := hr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	seen := make(map[string]bool, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, fmt.Errorf("csv header column %d is empty", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("csv header repeats column %q", name)
		}
		seen[name] = true
		names[i] = name
	}
	return names, nil
}

// ReadCSVFile reads a CSV file from disk.
func ReadCSVFile(path string, opts ...CSVOption) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes the table with a header row. Invalid cells are written
// as the null token.
func WriteCSV(w io.Writer, t *Table, opts ...CSVOption) error {
	o := newCSVOptions(opts)
	rec := t.ToRecord(Pool)
	defer rec.Release()

	cw := csv.NewWriter(w, rec.Schema(),
		csv.WithHeader(true),
		csv.WithComma(o.comma),
		csv.WithNullWriter(o.nullToken),
	)
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return cw.Flush()
}

// WriteCSVFile writes the table to path, creating or truncating it.
func WriteCSVFile(path string, t *Table, opts ...CSVOption) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t, opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
