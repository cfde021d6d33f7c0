// Package frame provides the in-memory table every cleaning function operates on.
//
// A Frame is a header plus rows of string cells, the same shape a CSV file has.
// The empty string is the missing value: converters in this package return
// ok=false for it and writers emit an empty cell.
//
// Functions in the toolkit never mutate a Frame they receive. They Clone it,
// transform the copy, and return the copy.
package frame

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrColumnNotFound is returned when a named column is not in the header.
	ErrColumnNotFound = errors.New("column not found")

	// ErrRaggedRow is returned when a row has more cells than the header.
	ErrRaggedRow = errors.New("row wider than header")

	// ErrLengthMismatch is returned when a column slice does not match the row count.
	ErrLengthMismatch = errors.New("column length does not match row count")

	// ErrNotDate is returned when a cell that must hold a date does not parse.
	ErrNotDate = errors.New("value is not a date")
)

// Frame is an in-memory table of string cells.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// New builds a Frame, padding short rows with missing cells.
// Rows wider than the header are rejected.
func New(columns []string, rows [][]string) (*Frame, error) {
	f := &Frame{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) > len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d: %w",
				i+1, len(row), len(columns), ErrRaggedRow)
		}
		r := make([]string, len(columns))
		copy(r, row)
		f.Rows = append(f.Rows, r)
	}
	return f, nil
}

// MustNew is New for literals in tests and examples. It panics on error.
func MustNew(columns []string, rows [][]string) *Frame {
	f, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return f
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([][]string, len(f.Rows)),
	}
	for i, row := range f.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Shape returns (rows, columns).
func (f *Frame) Shape() (int, int) { return len(f.Rows), len(f.Columns) }

// Index returns the position of col in the header (exact match).
func (f *Frame) Index(col string) (int, error) {
	for i, c := range f.Columns {
		if c == col {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%q: %w", col, ErrColumnNotFound)
}

// Indexes resolves several columns at once, reporting every missing one.
func (f *Frame) Indexes(cols []string) ([]int, error) {
	idx := make([]int, 0, len(cols))
	var missing []string
	for _, c := range cols {
		i, err := f.Index(c)
		if err != nil {
			missing = append(missing, c)
			continue
		}
		idx = append(idx, i)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(missing, ", "), ErrColumnNotFound)
	}
	return idx, nil
}

// Column returns a copy of the values of col.
func (f *Frame) Column(col string) ([]string, error) {
	i, err := f.Index(col)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Dates parses col with ParseDate. Missing cells give the zero time; any
// other cell that does not parse is an error wrapping ErrNotDate.
func (f *Frame) Dates(col string) ([]time.Time, error) {
	vals, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(vals))
	for r, s := range vals {
		if IsMissing(s) {
			continue
		}
		d, ok := ParseDate(s)
		if !ok {
			return nil, fmt.Errorf("%q row %d value %q: %w", col, r+1, s, ErrNotDate)
		}
		out[r] = d
	}
	return out, nil
}

// SetColumn overwrites the values of an existing column in place.
func (f *Frame) SetColumn(col string, values []string) error {
	i, err := f.Index(col)
	if err != nil {
		return err
	}
	if len(values) != len(f.Rows) {
		return fmt.Errorf("%q has %d values for %d rows: %w", col, len(values), len(f.Rows), ErrLengthMismatch)
	}
	for r := range f.Rows {
		f.Rows[r][i] = values[r]
	}
	return nil
}

// AddColumn appends a column, or overwrites it if the name already exists.
func (f *Frame) AddColumn(col string, values []string) error {
	if _, err := f.Index(col); err == nil {
		return f.SetColumn(col, values)
	}
	if len(values) != len(f.Rows) {
		return fmt.Errorf("%q has %d values for %d rows: %w", col, len(values), len(f.Rows), ErrLengthMismatch)
	}
	f.Columns = append(f.Columns, col)
	for r := range f.Rows {
		f.Rows[r] = append(f.Rows[r], values[r])
	}
	return nil
}

// Filter returns a new Frame holding the rows where keep is true.
// keep must have one entry per row.
func (f *Frame) Filter(keep []bool) *Frame {
	out := &Frame{Columns: append([]string(nil), f.Columns...)}
	for r, row := range f.Rows {
		if r < len(keep) && keep[r] {
			out.Rows = append(out.Rows, append([]string(nil), row...))
		}
	}
	return out
}

// RowKey joins the cells at idx into a single comparable key.
func (f *Frame) RowKey(row int, idx []int) string {
	var b strings.Builder
	for n, i := range idx {
		if n > 0 {
			b.WriteByte(0x1f) // ASCII unit separator
		}
		b.WriteString(f.Rows[row][i])
	}
	return b.String()
}

// IsMissing reports whether a cell holds no value.
func IsMissing(s string) bool {
	return strings.TrimSpace(s) == ""
}
