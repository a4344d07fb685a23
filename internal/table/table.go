// Package table holds the in-memory respondent table loaded from the survey
// CSV export: one row per respondent, one column per question.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInvalidColumn is returned when a column is not part of the table.
var ErrInvalidColumn = errors.New("invalid column")

// Table is an ordered set of named string columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a table from a header and its rows. Short rows are padded with
// empty values and long rows are truncated to the header width.
func New(columns []string, rows [][]string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, 0, len(rows)),
	}

	for i, name := range t.columns {
		// first occurrence wins on duplicated headers
		if _, ok := t.index[name]; !ok {
			t.index[name] = i
		}
	}

	for _, row := range rows {
		t.rows = append(t.rows, t.fit(row))
	}

	return t
}

// Load reads a CSV file whose first record is the header.
func Load(path string) (*Table, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from the run configuration
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return t, nil
}

// Read parses CSV data whose first record is the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv: missing header")
		}
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}

	return New(header, records), nil
}

// Columns returns a copy of the column names in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrInvalidColumn, name)
	}
	return i, nil
}

// ColumnName returns the name of the column at position i.
func (t *Table) ColumnName(i int) (string, error) {
	if i < 0 || i >= len(t.columns) {
		return "", fmt.Errorf("%w: index %d of %d columns", ErrInvalidColumn, i, len(t.columns))
	}
	return t.columns[i], nil
}

// Values returns a copy of every value of the named column, in row order.
func (t *Table) Values(name string) ([]string, error) {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}

	values := make([]string, len(t.rows))
	for r, row := range t.rows {
		values[r] = row[i]
	}
	return values, nil
}

// Row returns a copy of row r.
func (t *Table) Row(r int) []string {
	return append([]string(nil), t.rows[r]...)
}

// ExpandColumn returns a new table in which every row is repeated once per
// value produced by split for the named column. The other columns are copied
// unchanged into each repetition. A split result with no values keeps the
// row with an empty cell, so the expansion never drops a respondent.
func (t *Table) ExpandColumn(name string, split func(string) []string) (*Table, error) {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}

	out := &Table{
		columns: t.columns,
		index:   t.index,
		rows:    make([][]string, 0, len(t.rows)),
	}

	for _, row := range t.rows {
		parts := split(row[i])
		if len(parts) == 0 {
			parts = []string{""}
		}
		for _, part := range parts {
			expanded := append([]string(nil), row...)
			expanded[i] = part
			out.rows = append(out.rows, expanded)
		}
	}

	return out, nil
}

func (t *Table) fit(row []string) []string {
	out := make([]string, len(t.columns))
	copy(out, row)
	return out
}
