package validation

import (
	"fmt"
	"sort"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/core"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// ReconciliationCheck compares column totals between two versions of a
// table. Without group columns the result has one row per value column:
// column, before, after, delta. With group columns it has one row per group
// found in either table, in group order, followed by <col>_before,
// <col>_after and <col>_delta columns. A group absent from one side counts
// as zero there. Missing cells count as zero; rows with a missing group key
// are left out.
func ReconciliationCheck(rec audit.Recorder, before, after *frame.Frame, valueCols, groupCols []string) (*frame.Frame, error) {
	bt, err := totals(before, valueCols, groupCols)
	if err != nil {
		return nil, fmt.Errorf("reconciliation_check: before: %w", err)
	}
	at, err := totals(after, valueCols, groupCols)
	if err != nil {
		return nil, fmt.Errorf("reconciliation_check: after: %w", err)
	}

	var out *frame.Frame
	mismatched := 0
	if len(groupCols) == 0 {
		out = &frame.Frame{Columns: []string{"column", "before", "after", "delta"}}
		b, a := bt.sums[""], at.sums[""]
		for i, vc := range valueCols {
			d := a[i] - b[i]
			if d != 0 {
				mismatched++
			}
			out.Rows = append(out.Rows, []string{vc, frame.FormatNumber(b[i]), frame.FormatNumber(a[i]), frame.FormatNumber(d)})
		}
	} else {
		out = &frame.Frame{Columns: append([]string(nil), groupCols...)}
		for _, suffix := range []string{"_before", "_after", "_delta"} {
			for _, vc := range valueCols {
				out.Columns = append(out.Columns, vc+suffix)
			}
		}

		keys := make(map[string][]string)
		for k, cells := range bt.keys {
			keys[k] = cells
		}
		for k, cells := range at.keys {
			keys[k] = cells
		}
		order := make([]string, 0, len(keys))
		for k := range keys {
			order = append(order, k)
		}
		sort.Slice(order, func(i, j int) bool {
			a, b := keys[order[i]], keys[order[j]]
			for n := range a {
				if d := frame.CompareCells(a[n], b[n]); d != 0 {
					return d < 0
				}
			}
			return order[i] < order[j]
		})

		zero := make([]float64, len(valueCols))
		for _, k := range order {
			b, ok := bt.sums[k]
			if !ok {
				b = zero
			}
			a, ok := at.sums[k]
			if !ok {
				a = zero
			}
			row := append([]string(nil), keys[k]...)
			for i := range valueCols {
				row = append(row, frame.FormatNumber(b[i]))
			}
			for i := range valueCols {
				row = append(row, frame.FormatNumber(a[i]))
			}
			off := false
			for i := range valueCols {
				d := a[i] - b[i]
				off = off || d != 0
				row = append(row, frame.FormatNumber(d))
			}
			if off {
				mismatched++
			}
			out.Rows = append(out.Rows, row)
		}
	}

	rec.Record("reconciliation_check",
		audit.State{
			"before_rows": before.Len(),
			"after_rows":  after.Len(),
			"values":      append([]string(nil), valueCols...),
			"group_by":    append([]string(nil), groupCols...),
		},
		audit.State{"rows": out.Len(), "mismatched": mismatched},
	)
	return out, nil
}

type groupTotals struct {
	sums map[string][]float64 // Group key -> one total per value column
	keys map[string][]string  // Group key -> group cells
}

func totals(f *frame.Frame, valueCols, groupCols []string) (groupTotals, error) {
	vidx, err := f.Indexes(valueCols)
	if err != nil {
		return groupTotals{}, err
	}
	gidx, err := f.Indexes(groupCols)
	if err != nil {
		return groupTotals{}, err
	}

	t := groupTotals{sums: make(map[string][]float64), keys: make(map[string][]string)}
	if len(groupCols) == 0 {
		t.sums[""] = make([]float64, len(valueCols))
	}
rows:
	for r, row := range f.Rows {
		cells := make([]string, len(gidx))
		for n, i := range gidx {
			if frame.IsMissing(row[i]) {
				continue rows
			}
			cells[n] = row[i]
		}
		k := f.RowKey(r, gidx)
		sums, ok := t.sums[k]
		if !ok {
			sums = make([]float64, len(valueCols))
			t.sums[k] = sums
			t.keys[k] = cells
		}
		for n, i := range vidx {
			if frame.IsMissing(row[i]) {
				continue
			}
			v, ok := frame.ParseNumeric(row[i])
			if !ok {
				return groupTotals{}, fmt.Errorf("%q row %d value %q: %w", valueCols[n], r+1, row[i], core.ErrNotNumeric)
			}
			sums[n] += v
		}
	}
	return t, nil
}
