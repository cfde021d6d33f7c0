package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// HeaderOptions controls CleanColumnHeaders.
type HeaderOptions struct {
	Lowercase      bool   // Convert headers to lower case
	Separator      string // Replaces runs of whitespace
	RemoveNonAlnum bool   // Drop everything but letters, digits, '_' and Separator
}

// DefaultHeaderOptions lowercases, uses "_" and strips punctuation.
func DefaultHeaderOptions() HeaderOptions {
	return HeaderOptions{Lowercase: true, Separator: "_", RemoveNonAlnum: true}
}

// CleanColumnHeaders standardizes header names:
// "Name " -> "name", "Age (years)" -> "age_years".
// Headers that collide after cleaning get numeric suffixes.
func CleanColumnHeaders(rec audit.Recorder, f *frame.Frame, opts HeaderOptions) *frame.Frame {
	out := f.Clone()

	renamed := 0
	for i, col := range out.Columns {
		c := CleanHeader(col, opts)
		if c != col {
			renamed++
		}
		out.Columns[i] = c
	}
	out.Columns = uniqueNames(out.Columns)

	before := audit.Shape(f)
	before["headers"] = append([]string(nil), f.Columns...)
	after := audit.Shape(out)
	after["headers"] = append([]string(nil), out.Columns...)
	after["renamed"] = renamed
	rec.Record("clean_column_headers", before, after)

	return out
}

// CleanHeader applies the CleanColumnHeaders rules to a single name, without
// collision suffixes.
func CleanHeader(name string, opts HeaderOptions) string {
	sep := opts.Separator
	c := strings.TrimSpace(name)
	if opts.Lowercase {
		c = strings.ToLower(c)
	}
	c = whitespaceRun.ReplaceAllString(c, sep)
	if opts.RemoveNonAlnum {
		c = stripNonAlnum(c, sep)
	}
	if sep != "" {
		for strings.Contains(c, sep+sep) {
			c = strings.ReplaceAll(c, sep+sep, sep)
		}
		c = strings.Trim(c, sep)
	}
	return c
}

func stripNonAlnum(s, sep string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case sep != "" && strings.ContainsRune(sep, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MakeUniqueColumns appends _1, _2, ... to repeated header names.
// The first occurrence keeps its name.
func MakeUniqueColumns(rec audit.Recorder, f *frame.Frame) *frame.Frame {
	out := f.Clone()
	out.Columns = uniqueNames(out.Columns)

	changed := 0
	for i := range out.Columns {
		if out.Columns[i] != f.Columns[i] {
			changed++
		}
	}

	after := audit.Shape(out)
	after["renamed"] = changed
	rec.Record("make_unique_columns", audit.Shape(f), after)
	return out
}

// uniqueNames suffixes duplicates, skipping suffixes that are already taken.
func uniqueNames(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}

	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		count := seen[n]
		seen[n] = count + 1
		if count == 0 {
			out[i] = n
			continue
		}
		candidate := fmt.Sprintf("%s_%d", n, count)
		for taken[candidate] {
			count++
			candidate = fmt.Sprintf("%s_%d", n, count)
		}
		seen[n] = count + 1
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}
