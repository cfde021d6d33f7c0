package reporting

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// Snapshot fingerprints a table so two versions can be compared later.
type Snapshot struct {
	TotalRows    int      `json:"total_rows" yaml:"total_rows"`
	TotalColumns int      `json:"total_columns" yaml:"total_columns"`
	Columns      []string `json:"columns" yaml:"columns"`
	KeyColumns   []string `json:"key_columns,omitempty" yaml:"key_columns,omitempty"`
	RowHashes    []string `json:"row_hashes" yaml:"row_hashes"`
	DatasetHash  string   `json:"dataset_hash" yaml:"dataset_hash"`
}

// SnapshotDataset hashes every row (only keyCols when given) and the
// sequence of row hashes.
func SnapshotDataset(rec audit.Recorder, f *frame.Frame, keyCols []string) (Snapshot, error) {
	var idx []int
	if len(keyCols) > 0 {
		var err error
		if idx, err = f.Indexes(keyCols); err != nil {
			return Snapshot{}, fmt.Errorf("snapshot_dataset: %w", err)
		}
	} else {
		idx = make([]int, len(f.Columns))
		for i := range idx {
			idx[i] = i
		}
	}

	snap := Snapshot{
		TotalRows:    f.Len(),
		TotalColumns: len(f.Columns),
		Columns:      append([]string(nil), f.Columns...),
		KeyColumns:   append([]string(nil), keyCols...),
		RowHashes:    make([]string, f.Len()),
	}

	all := sha256.New()
	for r := range f.Rows {
		snap.RowHashes[r] = shortHash(f.RowKey(r, idx))
		all.Write([]byte(snap.RowHashes[r]))
	}
	snap.DatasetHash = hex.EncodeToString(all.Sum(nil))[:32]

	rec.Record("snapshot_dataset", audit.Shape(f), audit.State{"dataset_hash": snap.DatasetHash})
	return snap, nil
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:32]
}

// SnapshotDiff is the result of CompareSnapshots.
type SnapshotDiff struct {
	RowChange      int      `json:"row_change" yaml:"row_change"`
	ColumnChange   int      `json:"column_change" yaml:"column_change"`
	ColumnsAdded   []string `json:"columns_added" yaml:"columns_added"`
	ColumnsRemoved []string `json:"columns_removed" yaml:"columns_removed"`
	HashChanged    bool     `json:"dataset_hash_changed" yaml:"dataset_hash_changed"`
}

// CompareSnapshots reports how a table changed between two snapshots.
func CompareSnapshots(rec audit.Recorder, before, after Snapshot) SnapshotDiff {
	d := SnapshotDiff{
		RowChange:      after.TotalRows - before.TotalRows,
		ColumnChange:   after.TotalColumns - before.TotalColumns,
		ColumnsAdded:   difference(after.Columns, before.Columns),
		ColumnsRemoved: difference(before.Columns, after.Columns),
		HashChanged:    before.DatasetHash != after.DatasetHash,
	}

	rec.Record("compare_snapshots",
		audit.State{"rows": before.TotalRows, "columns": before.TotalColumns},
		audit.State{"rows": after.TotalRows, "columns": after.TotalColumns, "hash_changed": d.HashChanged},
	)
	return d
}

// difference returns the members of a missing from b, in a's order.
func difference(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}
	out := []string{}
	for _, s := range a {
		if !in[s] {
			out = append(out, s)
		}
	}
	return out
}

// Delta is the row-level change report between two versions of a table.
type Delta struct {
	Added     []string `json:"added_keys" yaml:"added_keys"`
	Removed   []string `json:"removed_keys" yaml:"removed_keys"`
	Changed   []string `json:"changed_keys" yaml:"changed_keys"`
	Unchanged int      `json:"total_unchanged" yaml:"total_unchanged"`
}

// DeltaReport matches rows by keyCol and reports added, removed and changed
// keys, each sorted. Rows are compared by their values in the columns the two
// tables share; the first row wins when a key repeats.
func DeltaReport(rec audit.Recorder, before, after *frame.Frame, keyCol string) (Delta, error) {
	bk, err := before.Index(keyCol)
	if err != nil {
		return Delta{}, fmt.Errorf("delta_report: before: %w", err)
	}
	ak, err := after.Index(keyCol)
	if err != nil {
		return Delta{}, fmt.Errorf("delta_report: after: %w", err)
	}

	shared := difference(before.Columns, difference(before.Columns, after.Columns))
	bIdx, _ := before.Indexes(shared)
	aIdx, _ := after.Indexes(shared)

	rowsByKey := func(f *frame.Frame, k int, idx []int) map[string]string {
		m := make(map[string]string, f.Len())
		for r, row := range f.Rows {
			key := row[k]
			if frame.IsMissing(key) {
				continue
			}
			if _, dup := m[key]; !dup {
				m[key] = f.RowKey(r, idx)
			}
		}
		return m
	}
	bRows := rowsByKey(before, bk, bIdx)
	aRows := rowsByKey(after, ak, aIdx)

	d := Delta{Added: []string{}, Removed: []string{}, Changed: []string{}}
	for k, v := range bRows {
		av, ok := aRows[k]
		switch {
		case !ok:
			d.Removed = append(d.Removed, k)
		case av != v:
			d.Changed = append(d.Changed, k)
		default:
			d.Unchanged++
		}
	}
	for k := range aRows {
		if _, ok := bRows[k]; !ok {
			d.Added = append(d.Added, k)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)

	rec.Record("delta_report",
		audit.State{"rows": before.Len(), "key": keyCol},
		audit.State{
			"rows":      after.Len(),
			"added":     len(d.Added),
			"removed":   len(d.Removed),
			"changed":   len(d.Changed),
			"unchanged": d.Unchanged,
		},
	)
	return d, nil
}
