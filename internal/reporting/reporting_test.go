package reporting

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
	"github.com/JonMunkholm/fdakit/internal/registry"
)

func sample() *frame.Frame {
	return frame.MustNew([]string{"id", "amount", "notes"}, [][]string{
		{"1", "10", ""},
		{"2", "", ""},
		{"1", "10", ""},
		{"3", "7.5", "late"},
	})
}

func TestGetDataSummary(t *testing.T) {
	log := audit.New()
	s := GetDataSummary(log, sample())

	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 3, s.Columns)
	assert.Equal(t, 12, s.TotalCells)
	assert.Equal(t, 4, s.NullCells)
	assert.Equal(t, 33.33, s.NullPercent)
	assert.Equal(t, 1, s.DuplicatedRows)

	require.Equal(t, 1, log.Len())
	assert.Equal(t, "get_data_summary", log.Events()[0].Name)
}

func TestGetDataSummary_Empty(t *testing.T) {
	s := GetDataSummary(audit.Discard, frame.MustNew([]string{"a"}, nil))
	assert.Equal(t, 0, s.TotalCells)
	assert.Equal(t, 0.0, s.NullPercent)
}

func TestMissingnessProfile(t *testing.T) {
	log := audit.New()
	got := MissingnessProfile(log, sample())

	require.Len(t, got, 3)
	assert.Equal(t, ColumnMissing{Column: "notes", MissingCount: 3, MissingPercent: 75, NonNullCount: 1}, got[0])
	assert.Equal(t, "amount", got[1].Column)
	assert.Equal(t, "id", got[2].Column)

	after := log.Events()[0].After
	assert.Equal(t, "notes", after["worst_column"])
	assert.Equal(t, 1, after["high_missing"])
}

func TestInferAndReportTypes(t *testing.T) {
	f := frame.MustNew([]string{"n", "b", "d", "t", "e"}, [][]string{
		{"1.5", "yes", "2024-01-31", "x", ""},
		{"", "no", "01/02/2024", "2", ""},
	})

	got := InferAndReportTypes(audit.Discard, f)
	types := make([]string, len(got))
	for i, ct := range got {
		types[i] = ct.InferredType
	}
	assert.Equal(t, []string{TypeNumeric, TypeBoolean, TypeDate, TypeText, TypeEmpty}, types)
	assert.Equal(t, 1, got[0].NullCount)
	assert.Equal(t, 1, got[0].NonNullCount)
}

func TestQuickCheck(t *testing.T) {
	color.NoColor = true

	log := audit.New()
	var buf bytes.Buffer
	s, err := QuickCheck(log, &buf, sample())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Shape:            (4, 3)")
	assert.Contains(t, out, "Duplicated rows:  1")
	assert.Contains(t, out, "High missing values (>50%):")
	assert.Contains(t, out, "   notes: 75.00%")
	assert.Equal(t, 1, s.DuplicatedRows)

	ev := log.ByName("quick_check")
	require.Len(t, ev, 1)
	assert.Equal(t, 1, ev[0].After["high_missing"])
}

func TestQuickCheck_Clean(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	_, err := QuickCheck(audit.Discard, &buf, frame.MustNew([]string{"a"}, [][]string{{"1"}}))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No columns above the missing threshold")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestQuickCheck_WriteError(t *testing.T) {
	log := audit.New()
	_, err := QuickCheck(log, failingWriter{}, sample())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, log.Len(), "event is recorded even when the report cannot be written")
}

// ----------------------------------------------------------------------------
// Snapshots
// ----------------------------------------------------------------------------

func TestSnapshotDataset(t *testing.T) {
	a, err := SnapshotDataset(audit.Discard, sample(), nil)
	require.NoError(t, err)
	b, err := SnapshotDataset(audit.Discard, sample(), nil)
	require.NoError(t, err)

	assert.Equal(t, a.DatasetHash, b.DatasetHash, "hash is deterministic")
	assert.Len(t, a.DatasetHash, 32)
	require.Len(t, a.RowHashes, 4)
	assert.Equal(t, a.RowHashes[0], a.RowHashes[2], "identical rows hash alike")
	assert.NotEqual(t, a.RowHashes[0], a.RowHashes[1])

	_, err = SnapshotDataset(audit.Discard, sample(), []string{"nope"})
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

func TestSnapshotDataset_KeyColumns(t *testing.T) {
	f := sample()
	before, err := SnapshotDataset(audit.Discard, f, []string{"id"})
	require.NoError(t, err)

	g := f.Clone()
	g.Rows[1][2] = "edited"
	after, err := SnapshotDataset(audit.Discard, g, []string{"id"})
	require.NoError(t, err)

	assert.Equal(t, before.DatasetHash, after.DatasetHash, "non-key edits are invisible")
}

func TestCompareSnapshots(t *testing.T) {
	before, err := SnapshotDataset(audit.Discard, sample(), nil)
	require.NoError(t, err)

	changed := frame.MustNew([]string{"id", "amount", "region"}, [][]string{
		{"1", "10", "EU"},
		{"4", "2", "US"},
	})
	after, err := SnapshotDataset(audit.Discard, changed, nil)
	require.NoError(t, err)

	log := audit.New()
	d := CompareSnapshots(log, before, after)

	assert.Equal(t, -2, d.RowChange)
	assert.Equal(t, 0, d.ColumnChange)
	assert.Equal(t, []string{"region"}, d.ColumnsAdded)
	assert.Equal(t, []string{"notes"}, d.ColumnsRemoved)
	assert.True(t, d.HashChanged)
	assert.Equal(t, "compare_snapshots", log.Events()[0].Name)

	same := CompareSnapshots(audit.Discard, before, before)
	assert.False(t, same.HashChanged)
	assert.Empty(t, same.ColumnsAdded)
}

func TestDeltaReport(t *testing.T) {
	before := frame.MustNew([]string{"id", "amount"}, [][]string{
		{"a", "1"}, {"b", "2"}, {"c", "3"},
	})
	after := frame.MustNew([]string{"id", "amount", "extra"}, [][]string{
		{"a", "1", "x"}, {"c", "30", ""}, {"d", "4", ""},
	})

	log := audit.New()
	d, err := DeltaReport(log, before, after, "id")
	require.NoError(t, err)

	assert.Equal(t, []string{"d"}, d.Added)
	assert.Equal(t, []string{"b"}, d.Removed)
	assert.Equal(t, []string{"c"}, d.Changed)
	assert.Equal(t, 1, d.Unchanged)
	assert.Equal(t, 1, log.Events()[0].After["added"])

	_, err = DeltaReport(audit.Discard, before, after, "missing")
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

// ----------------------------------------------------------------------------
// Info
// ----------------------------------------------------------------------------

func TestInfo(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(registry.Entry{Name: "b_fn", Category: "Finance", Module: "finance.parsing", Fn: func() {}})
	reg.MustRegister(registry.Entry{Name: "a_fn", Category: "Finance", Module: "finance.parsing", Fn: func() {}})
	reg.MustRegister(registry.Entry{Name: "c_fn", Category: "Reporting", Module: "reporting.profiling", Fn: func() {}})

	log := audit.New()
	rows := Info(log, reg, "Finance")
	require.Len(t, rows, 2)
	assert.Equal(t, "a_fn", rows[0].Function)

	assert.Len(t, Info(log, reg, ""), 3)
	assert.Empty(t, Info(log, reg, "Nope"))

	ev := log.ByName("info")
	require.Len(t, ev, 3)
	assert.Equal(t, "Finance", ev[0].Before["category"])
	assert.NotContains(t, ev[1].Before, "category")
}

func TestMemoryProfile(t *testing.T) {
	f := frame.MustNew([]string{"a", "bb"}, [][]string{{"x", "yyyy"}, {"", "z"}})
	got := MemoryProfile(audit.Discard, f)
	assert.Equal(t, []ColumnMemory{{Column: "bb", Bytes: 7}, {Column: "a", Bytes: 2}}, got)
}

func TestProfileReport(t *testing.T) {
	f := frame.MustNew([]string{"amount", "label"}, [][]string{
		{"10", "a"}, {"11", "b"}, {"12", "c"}, {"13", "d"}, {"1000", ""},
	})
	log := audit.New()
	p := ProfileReport(log, f, 1.5)

	assert.Equal(t, 5, p.Summary.Rows)
	require.Len(t, p.Types, 2)
	assert.Equal(t, TypeNumeric, p.Types[0].InferredType)
	assert.Equal(t, TypeText, p.Types[1].InferredType)
	assert.Equal(t, "label", p.Missingness[0].Column)
	require.Len(t, p.Outliers, 1)
	assert.Equal(t, ColumnOutliers{Column: "amount", Outliers: 1, Lower: 8, Upper: 16}, p.Outliers[0])

	require.Equal(t, 1, log.Len(), "one event for the whole report")
	assert.Equal(t, "profile_report", log.Events()[0].Name)
	assert.Equal(t, 1, log.Events()[0].After["outliers"])
}
