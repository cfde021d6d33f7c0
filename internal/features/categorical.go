package features

import (
	"errors"
	"fmt"
	"sort"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

var (
	// ErrInvalidTopN is returned by LimitCardinality when topN < 1.
	ErrInvalidTopN = errors.New("top_n must be at least 1")

	// ErrInvalidMinCount is returned by RareCategoryHandler when minCount < 1.
	ErrInvalidMinCount = errors.New("min_count must be at least 1")
)

// DefaultOtherLabel replaces values folded away by LimitCardinality and
// RareCategoryHandler.
const DefaultOtherLabel = "Other"

// LimitCardinality keeps the topN most frequent values and replaces the rest
// with otherLabel. Ties go to the value seen first. Missing values stay missing.
func LimitCardinality(rec audit.Recorder, values []string, topN int, otherLabel string) ([]string, error) {
	if topN < 1 {
		return nil, fmt.Errorf("limit_cardinality: %d: %w", topN, ErrInvalidTopN)
	}
	if otherLabel == "" {
		otherLabel = DefaultOtherLabel
	}

	counts := countValues(values)
	keep := make(map[string]bool, topN)
	for i, c := range counts {
		if i == topN {
			break
		}
		keep[c.value] = true
	}

	out, replaced := fold(values, func(v string) bool { return !keep[v] }, otherLabel)
	rec.Record("limit_cardinality",
		audit.State{"values": len(values), "categories": len(counts), "top_n": topN},
		audit.State{"values": len(out), "categories": len(countValues(out)), "replaced": replaced},
	)
	return out, nil
}

// RareCategoryHandler replaces values seen fewer than minCount times with
// otherLabel. Missing values stay missing.
func RareCategoryHandler(rec audit.Recorder, values []string, minCount int, otherLabel string) ([]string, error) {
	if minCount < 1 {
		return nil, fmt.Errorf("rare_category_handler: %d: %w", minCount, ErrInvalidMinCount)
	}
	if otherLabel == "" {
		otherLabel = DefaultOtherLabel
	}

	counts := countValues(values)
	n := make(map[string]int, len(counts))
	var rare []string
	for _, c := range counts {
		n[c.value] = c.count
		if c.count < minCount {
			rare = append(rare, c.value)
		}
	}

	out, replaced := fold(values, func(v string) bool { return n[v] < minCount }, otherLabel)
	rec.Record("rare_category_handler",
		audit.State{"values": len(values), "categories": len(counts), "min_count": minCount},
		audit.State{"values": len(out), "rare_categories": len(rare), "replaced": replaced},
	)
	return out, nil
}

// EncodeCategoricalVariables one-hot encodes columns. Each column is replaced
// by one "true"/"false" column per distinct value, named <column>_<value>
// and appended in sorted value order. With dropFirst the first of those is
// left out. A missing cell is false in every indicator.
func EncodeCategoricalVariables(rec audit.Recorder, f *frame.Frame, columns []string, dropFirst bool) (*frame.Frame, error) {
	idx, err := f.Indexes(columns)
	if err != nil {
		return nil, fmt.Errorf("encode_categorical_variables: %w", err)
	}

	encoded := make(map[int]bool, len(idx))
	for _, c := range idx {
		encoded[c] = true
	}

	var keepCols []int
	out := &frame.Frame{}
	for c, name := range f.Columns {
		if !encoded[c] {
			keepCols = append(keepCols, c)
			out.Columns = append(out.Columns, name)
		}
	}
	out.Rows = make([][]string, f.Len())
	for r, row := range f.Rows {
		cells := make([]string, len(keepCols))
		for i, c := range keepCols {
			cells[i] = row[c]
		}
		out.Rows[r] = cells
	}

	added := 0
	for n, c := range idx {
		levels := levelsOf(f, c)
		if dropFirst && len(levels) > 0 {
			levels = levels[1:]
		}
		for _, level := range levels {
			flags := make([]string, f.Len())
			for r, row := range f.Rows {
				flags[r] = fmt.Sprint(row[c] == level)
			}
			if err := out.AddColumn(columns[n]+"_"+level, flags); err != nil {
				return nil, fmt.Errorf("encode_categorical_variables: %w", err)
			}
			added++
		}
	}

	before := audit.Shape(f)
	before["encoded"] = append([]string(nil), columns...)
	before["drop_first"] = dropFirst
	after := audit.Shape(out)
	after["indicators"] = added
	rec.Record("encode_categorical_variables", before, after)
	return out, nil
}

type valueCount struct {
	value string
	count int
}

// countValues tallies non-missing values, most frequent first and in order
// of first appearance among equals.
func countValues(values []string) []valueCount {
	pos := make(map[string]int)
	var counts []valueCount
	for _, v := range values {
		if frame.IsMissing(v) {
			continue
		}
		if p, ok := pos[v]; ok {
			counts[p].count++
			continue
		}
		pos[v] = len(counts)
		counts = append(counts, valueCount{value: v, count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	return counts
}

func fold(values []string, replace func(string) bool, other string) ([]string, int) {
	out := make([]string, len(values))
	replaced := 0
	for i, v := range values {
		if !frame.IsMissing(v) && replace(v) {
			out[i] = other
			replaced++
			continue
		}
		out[i] = v
	}
	return out, replaced
}

func levelsOf(f *frame.Frame, c int) []string {
	seen := make(map[string]bool)
	var levels []string
	for _, row := range f.Rows {
		v := row[c]
		if frame.IsMissing(v) || seen[v] {
			continue
		}
		seen[v] = true
		levels = append(levels, v)
	}
	sort.Strings(levels)
	return levels
}
