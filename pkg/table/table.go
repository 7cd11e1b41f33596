// Package table holds the tabular values passed between units: named string columns and rows,
// with CSV encoding and a short summary for logs.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrRowWidth        = errors.New("row width does not match columns")
)

// Table is a rectangular set of string cells. The zero value is an empty table with no columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New creates an empty table with the given columns.
func New(columns ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if err := t.addColumnName(c); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Table) addColumnName(name string) error {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, ok := t.index[name]; ok {
		return errors.Wrap(ErrDuplicateColumn, name)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)

	return nil
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Shape returns the row and column counts.
func (t *Table) Shape() (int, int) {
	return len(t.rows), len(t.columns)
}

// Has reports whether column exists.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]

	return ok
}

// Append adds a row. It must have one cell per column.
func (t *Table) Append(row ...string) error {
	if len(row) != len(t.columns) {
		return errors.Wrapf(ErrRowWidth, "got %d cells for %d columns", len(row), len(t.columns))
	}
	t.rows = append(t.rows, slices.Clone(row))

	return nil
}

// AppendRecord adds a row from a column-to-value mapping. Unknown columns are added to the table,
// backfilling earlier rows with empty cells. Columns absent from record are left empty.
func (t *Table) AppendRecord(record map[string]string, order []string) error {
	for _, c := range order {
		if _, ok := record[c]; !ok || t.Has(c) {
			continue
		}
		if err := t.addColumnName(c); err != nil {
			return err
		}
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], "")
		}
	}

	row := make([]string, len(t.columns))
	for c, v := range record {
		idx, ok := t.index[c]
		if !ok {
			return errors.Wrapf(ErrUnknownColumn, "%s is not in the record order", c)
		}
		row[idx] = v
	}
	t.rows = append(t.rows, row)

	return nil
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return slices.Clone(t.rows[i])
}

// Value returns the cell at row i in column.
func (t *Table) Value(i int, column string) (string, error) {
	idx, ok := t.index[column]
	if !ok {
		return "", errors.Wrap(ErrUnknownColumn, column)
	}
	if i < 0 || i >= len(t.rows) {
		return "", errors.Errorf("row %d out of range [0,%d)", i, len(t.rows))
	}

	return t.rows[i][idx], nil
}

// Column returns a copy of every cell in column.
func (t *Table) Column(column string) ([]string, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, errors.Wrap(ErrUnknownColumn, column)
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[idx]
	}

	return out, nil
}

// RowsWhere returns the positions of the rows whose column equals value.
func (t *Table) RowsWhere(column, value string) ([]int, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, errors.Wrap(ErrUnknownColumn, column)
	}
	var out []int
	for i, row := range t.rows {
		if row[idx] == value {
			out = append(out, i)
		}
	}

	return out, nil
}

// SetColumn adds column, or replaces it if it exists. values must have one entry per row.
func (t *Table) SetColumn(column string, values []string) error {
	if len(values) != len(t.rows) {
		return errors.Wrapf(ErrRowWidth, "got %d values for %d rows", len(values), len(t.rows))
	}
	idx, ok := t.index[column]
	if !ok {
		if err := t.addColumnName(column); err != nil {
			return err
		}
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], values[i])
		}

		return nil
	}
	for i := range t.rows {
		t.rows[i][idx] = values[i]
	}

	return nil
}

// RenameColumns maps every column name through fn. The result must stay unique.
func (t *Table) RenameColumns(fn func(string) string) error {
	renamed := make([]string, len(t.columns))
	index := make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		n := fn(c)
		if _, ok := index[n]; ok {
			return errors.Wrap(ErrDuplicateColumn, n)
		}
		renamed[i] = n
		index[n] = i
	}
	t.columns = renamed
	t.index = index

	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		columns: slices.Clone(t.columns),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]string, len(t.rows)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for i, row := range t.rows {
		out.rows[i] = slices.Clone(row)
	}

	return out
}

// Head returns a copy holding at most n first rows.
func (t *Table) Head(n int) *Table {
	out := t.Clone()
	if n >= 0 && n < len(out.rows) {
		out.rows = out.rows[:n]
	}

	return out
}

// Summary describes the table by shape and column names, for logs.
func (t *Table) Summary() string {
	if t == nil {
		return "Table(nil)"
	}

	return fmt.Sprintf("Table (%d, %d) cols: [%s]", len(t.rows), len(t.columns), strings.Join(t.columns, " "))
}

func (t *Table) String() string {
	return t.Summary()
}

// WriteCSV writes a header line followed by every row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return errors.Wrap(err, "unable to write header")
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return errors.Wrap(err, "unable to write rows")
	}

	return nil
}

// ReadCSV reads a table whose first line is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read header")
	}

	t, err := New(header...)
	if err != nil {
		return nil, err
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "unable to read row")
		}
		t.rows = append(t.rows, record)
	}

	return t, nil
}
