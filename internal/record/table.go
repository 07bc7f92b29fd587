package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Table is a CSV file held in memory: a header and rows of the same width.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable creates an empty table with the given header.
func NewTable(header ...string) *Table {
	return &Table{Header: append([]string(nil), header...)}
}

// ReadTable parses CSV with a header line. A leading UTF-8 byte order mark
// is ignored. Every row must have as many fields as the header.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: no header")
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return &Table{Header: header, Rows: records[1:]}, nil
}

// ReadFile reads the table stored at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write writes the header and rows as CSV.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteFile writes the table to path, replacing any existing file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row i in column name, or "" if the column is
// absent.
func (t *Table) Value(i int, name string) string {
	j := t.Index(name)
	if j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Column returns every value of column name.
func (t *Table) Column(name string) ([]string, bool) {
	j := t.Index(name)
	if j < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if j < len(row) {
			out[i] = row[j]
		}
	}
	return out, true
}

// Floats parses column name as numbers. Empty cells are an error.
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("missing column %q", name)
	}
	out := make([]float64, len(col))
	for i, v := range col {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, i+2, err)
		}
		out[i] = f
	}
	return out, nil
}

// Drop returns a copy of t without the named columns. Names that are not
// present are ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []int
	out := &Table{}
	for i, h := range t.Header {
		if !drop[h] {
			keep = append(keep, i)
			out.Header = append(out.Header, h)
		}
	}
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(keep))
		for k, i := range keep {
			if i < len(row) {
				nr[k] = row[i]
			}
		}
		out.Rows[r] = nr
	}
	return out
}

// WithConstant returns a copy of t with a column name set to value on
// every row. An existing column of that name is overwritten.
func (t *Table) WithConstant(name, value string) *Table {
	out := &Table{Header: append([]string(nil), t.Header...)}
	j := out.Index(name)
	if j < 0 {
		out.Header = append(out.Header, name)
		j = len(out.Header) - 1
	}
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(out.Header))
		copy(nr, row)
		nr[j] = value
		out.Rows[r] = nr
	}
	return out
}

// Concat stacks tables. The header is the union of all headers in order of
// first appearance; cells a table has no column for are left empty.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	pos := map[string]int{}
	for _, t := range tables {
		for _, h := range t.Header {
			if _, ok := pos[h]; !ok {
				pos[h] = len(out.Header)
				out.Header = append(out.Header, h)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			nr := make([]string, len(out.Header))
			for i, h := range t.Header {
				if i < len(row) {
					nr[pos[h]] = row[i]
				}
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}
