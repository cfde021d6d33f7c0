package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// ErrInvalidKeep is returned for a Keep value other than first, last or none.
var ErrInvalidKeep = errors.New("keep must be first, last or none")

// Keep selects which member of a duplicate group survives.
type Keep string

const (
	KeepFirst Keep = "first" // First occurrence is not a duplicate
	KeepLast  Keep = "last"  // Last occurrence is not a duplicate
	KeepNone  Keep = "none"  // Every member of a group is a duplicate
)

// FindDuplicates marks duplicate rows, comparing only the subset columns
// (all columns when subset is empty).
func FindDuplicates(rec audit.Recorder, f *frame.Frame, subset []string, keep Keep) ([]bool, error) {
	mask, err := duplicateMask(f, subset, keep)
	if err != nil {
		return nil, fmt.Errorf("find_duplicates: %w", err)
	}

	rec.Record("find_duplicates",
		audit.State{"rows": f.Len(), "subset": subsetLabel(subset), "keep": string(keep)},
		audit.State{"duplicates": countTrue(mask)},
	)
	return mask, nil
}

// RemoveDuplicates drops duplicate rows as marked by FindDuplicates.
func RemoveDuplicates(rec audit.Recorder, f *frame.Frame, subset []string, keep Keep) (*frame.Frame, error) {
	mask, err := duplicateMask(f, subset, keep)
	if err != nil {
		return nil, fmt.Errorf("remove_duplicates: %w", err)
	}

	out := f.Filter(invert(mask))

	after := audit.Shape(out)
	after["removed"] = f.Len() - out.Len()
	rec.Record("remove_duplicates", audit.Shape(f), after)
	return out, nil
}

// DeduplicateByPriority orders rows by sortBy (missing values last) and then
// drops duplicates over subset, so keep decides which priority survives.
// The result stays in sorted order.
func DeduplicateByPriority(rec audit.Recorder, f *frame.Frame, subset, sortBy []string, keep Keep) (*frame.Frame, error) {
	if keep == "" {
		keep = KeepLast
	}
	sorted, err := f.SortBy(sortBy)
	if err != nil {
		return nil, fmt.Errorf("deduplicate_by_priority: %w", err)
	}
	mask, err := duplicateMask(sorted, subset, keep)
	if err != nil {
		return nil, fmt.Errorf("deduplicate_by_priority: %w", err)
	}

	out := sorted.Filter(invert(mask))

	before := audit.Shape(f)
	before["subset"] = subsetLabel(subset)
	before["sort_by"] = append([]string(nil), sortBy...)
	before["keep"] = string(keep)
	after := audit.Shape(out)
	after["removed"] = f.Len() - out.Len()
	rec.Record("deduplicate_by_priority", before, after)
	return out, nil
}

func duplicateMask(f *frame.Frame, subset []string, keep Keep) ([]bool, error) {
	if keep == "" {
		keep = KeepFirst
	}
	if keep != KeepFirst && keep != KeepLast && keep != KeepNone {
		return nil, fmt.Errorf("%q: %w", keep, ErrInvalidKeep)
	}

	var idx []int
	if len(subset) == 0 {
		idx = make([]int, len(f.Columns))
		for i := range idx {
			idx[i] = i
		}
	} else {
		var err error
		if idx, err = f.Indexes(subset); err != nil {
			return nil, err
		}
	}

	n := f.Len()
	keys := make([]string, n)
	counts := make(map[string]int, n)
	for r := 0; r < n; r++ {
		keys[r] = f.RowKey(r, idx)
		counts[keys[r]]++
	}

	mask := make([]bool, n)
	switch keep {
	case KeepFirst:
		seen := make(map[string]bool, n)
		for r, k := range keys {
			mask[r] = seen[k]
			seen[k] = true
		}
	case KeepLast:
		seen := make(map[string]bool, n)
		for r := n - 1; r >= 0; r-- {
			mask[r] = seen[keys[r]]
			seen[keys[r]] = true
		}
	case KeepNone:
		for r, k := range keys {
			mask[r] = counts[k] > 1
		}
	}
	return mask, nil
}

func subsetLabel(subset []string) any {
	if len(subset) == 0 {
		return "all"
	}
	return append([]string(nil), subset...)
}

func invert(mask []bool) []bool {
	out := make([]bool, len(mask))
	for i, m := range mask {
		out[i] = !m
	}
	return out
}

func countTrue(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}
