package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("empty input")

// ReadOptions controls ReadCSV.
type ReadOptions struct {
	// MaxBytes rejects input larger than this many bytes. Zero disables the limit.
	MaxBytes int64

	// Comma is the field delimiter (default ',').
	Comma rune
}

// ReadCSV parses CSV input into a Frame. The first record is the header.
// Short records are padded with missing cells.
func ReadCSV(r io.Reader, opts ReadOptions) (*Frame, error) {
	cr := csv.NewReader(wrapInput(r, opts.MaxBytes))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}

	return New(header, rows)
}

// WriteCSV writes the header and every row.
func WriteCSV(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(f.Rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}
