package frame

import (
	"sort"
	"strings"
)

// SortBy returns a copy of f with rows stably ordered by cols, ascending.
// Missing cells sort last.
func (f *Frame) SortBy(cols []string) (*Frame, error) {
	idx, err := f.Indexes(cols)
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		for _, c := range idx {
			if d := CompareCells(out.Rows[i][c], out.Rows[j][c]); d != 0 {
				return d < 0
			}
		}
		return false
	})
	return out, nil
}

// CompareCells orders two cells: numbers numerically, dates chronologically,
// anything else as text. A missing cell sorts after every present one.
func CompareCells(a, b string) int {
	am, bm := IsMissing(a), IsMissing(b)
	switch {
	case am && bm:
		return 0
	case am:
		return 1
	case bm:
		return -1
	}

	if x, ok := ParseNumeric(a); ok {
		if y, ok := ParseNumeric(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	if x, ok := ParseDate(a); ok {
		if y, ok := ParseDate(b); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(a, b)
}
