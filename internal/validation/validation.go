// Package validation checks tables against schema, integrity and range rules.
//
// Checks come in two shapes:
//  1. Assertions (ValidateRequiredFields, AssertPrimaryKey) return an error
//     describing every failure, or nil.
//  2. Row checks (ValidateCategorySet, ValidateDataRanges) return masks that
//     mark the offending rows, leaving the decision to the caller.
//
// Each check records one audit event whether it passes or fails.
package validation

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a single validation failure for a field.
type ValidationError struct {
	Field   string // Column name
	Value   string // The offending value, if any
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Errors collects every failure of one check.
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Fields returns the distinct field names, in order of first appearance.
func (e Errors) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ve := range e {
		if !seen[ve.Field] {
			seen[ve.Field] = true
			out = append(out, ve.Field)
		}
	}
	return out
}

// Violations marks offending rows per checked column.
type Violations struct {
	Columns []string          // Checked columns, sorted
	Flags   map[string][]bool // Column -> one flag per row
}

func newViolations(columns []string, rows int) Violations {
	cols := append([]string(nil), columns...)
	sort.Strings(cols)
	v := Violations{Columns: cols, Flags: make(map[string][]bool, len(cols))}
	for _, c := range cols {
		v.Flags[c] = make([]bool, rows)
	}
	return v
}

// Count returns the number of violations in column.
func (v Violations) Count(column string) int {
	n := 0
	for _, f := range v.Flags[column] {
		if f {
			n++
		}
	}
	return n
}

// Total returns the number of violations across all columns.
func (v Violations) Total() int {
	n := 0
	for _, c := range v.Columns {
		n += v.Count(c)
	}
	return n
}

// Rows reports, per row, whether any column was violated.
func (v Violations) Rows() []bool {
	var out []bool
	for _, c := range v.Columns {
		flags := v.Flags[c]
		if out == nil {
			out = make([]bool, len(flags))
		}
		for i, f := range flags {
			out[i] = out[i] || f
		}
	}
	return out
}

func (v Violations) counts() map[string]any {
	m := make(map[string]any, len(v.Columns))
	for _, c := range v.Columns {
		m[c] = v.Count(c)
	}
	return m
}
