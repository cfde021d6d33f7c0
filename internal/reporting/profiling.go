// Package reporting summarizes tables and the toolkit itself: data summaries,
// missingness and type profiles, the quick_check console report, snapshots,
// and the function listing.
package reporting

import (
	"math"
	"sort"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// Summary describes a table at a glance.
type Summary struct {
	Rows           int     `json:"rows" yaml:"rows"`
	Columns        int     `json:"columns" yaml:"columns"`
	TotalCells     int     `json:"total_cells" yaml:"total_cells"`
	NullCells      int     `json:"null_cells" yaml:"null_cells"`
	NullPercent    float64 `json:"null_percent" yaml:"null_percent"`
	DuplicatedRows int     `json:"duplicated_rows" yaml:"duplicated_rows"`
	ApproxBytes    int64   `json:"approx_bytes" yaml:"approx_bytes"`
}

// GetDataSummary returns the shape, missing cell and duplicate row counts.
func GetDataSummary(rec audit.Recorder, f *frame.Frame) Summary {
	s := summarize(f)
	rec.Record("get_data_summary", audit.Shape(f), audit.State{
		"total_cells":     s.TotalCells,
		"null_cells":      s.NullCells,
		"null_percent":    s.NullPercent,
		"duplicated_rows": s.DuplicatedRows,
	})
	return s
}

func summarize(f *frame.Frame) Summary {
	rows, cols := f.Shape()
	s := Summary{Rows: rows, Columns: cols, TotalCells: rows * cols}

	seen := make(map[string]bool, rows)
	all := make([]int, cols)
	for i := range all {
		all[i] = i
	}
	for r, row := range f.Rows {
		for _, cell := range row {
			if frame.IsMissing(cell) {
				s.NullCells++
			}
			s.ApproxBytes += int64(len(cell))
		}
		k := f.RowKey(r, all)
		if seen[k] {
			s.DuplicatedRows++
		}
		seen[k] = true
	}
	for _, c := range f.Columns {
		s.ApproxBytes += int64(len(c))
	}
	s.NullPercent = percent(s.NullCells, s.TotalCells)
	return s
}

// ColumnMissing is one row of MissingnessProfile.
type ColumnMissing struct {
	Column         string  `json:"column" yaml:"column"`
	MissingCount   int     `json:"missing_count" yaml:"missing_count"`
	MissingPercent float64 `json:"missing_percent" yaml:"missing_percent"`
	NonNullCount   int     `json:"non_null_count" yaml:"non_null_count"`
}

// MissingnessProfile reports missing cells per column, worst first.
// Columns with equal percentages keep header order.
func MissingnessProfile(rec audit.Recorder, f *frame.Frame) []ColumnMissing {
	out := missingness(f)

	worst := ""
	if len(out) > 0 {
		worst = out[0].Column
	}
	rec.Record("missingness_profile", audit.Shape(f), audit.State{
		"columns":      len(out),
		"worst_column": worst,
		"high_missing": len(highMissing(out, HighMissingThreshold)),
	})
	return out
}

func missingness(f *frame.Frame) []ColumnMissing {
	n := f.Len()
	out := make([]ColumnMissing, len(f.Columns))
	for c, name := range f.Columns {
		missing := 0
		for _, row := range f.Rows {
			if frame.IsMissing(row[c]) {
				missing++
			}
		}
		out[c] = ColumnMissing{
			Column:         name,
			MissingCount:   missing,
			MissingPercent: percent(missing, n),
			NonNullCount:   n - missing,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MissingPercent > out[j].MissingPercent
	})
	return out
}

func highMissing(profile []ColumnMissing, threshold float64) []ColumnMissing {
	var out []ColumnMissing
	for _, p := range profile {
		if p.MissingPercent > threshold {
			out = append(out, p)
		}
	}
	return out
}

// Inferred column types.
const (
	TypeEmpty   = "empty"
	TypeNumeric = "numeric"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeText    = "text"
)

// ColumnType is one row of InferAndReportTypes.
type ColumnType struct {
	Column       string `json:"column" yaml:"column"`
	InferredType string `json:"inferred_type" yaml:"inferred_type"`
	NonNullCount int    `json:"non_null_count" yaml:"non_null_count"`
	NullCount    int    `json:"null_count" yaml:"null_count"`
}

// InferAndReportTypes reports the narrowest type every non-missing value of
// each column parses as: numeric, then boolean, then date, else text.
// Columns of 0/1 values report as numeric.
func InferAndReportTypes(rec audit.Recorder, f *frame.Frame) []ColumnType {
	out := make([]ColumnType, len(f.Columns))
	counts := make(map[string]any)
	for c, name := range f.Columns {
		vals, _ := f.Column(name)
		ct := columnType(name, vals)
		out[c] = ct
		n, _ := counts[ct.InferredType].(int)
		counts[ct.InferredType] = n + 1
	}

	rec.Record("infer_and_report_types", audit.Shape(f), audit.State{"types": counts})
	return out
}

func columnType(name string, values []string) ColumnType {
	ct := ColumnType{Column: name, InferredType: inferType(values)}
	for _, v := range values {
		if frame.IsMissing(v) {
			ct.NullCount++
		} else {
			ct.NonNullCount++
		}
	}
	return ct
}

func inferType(values []string) string {
	numeric, boolean, date := true, true, true
	seen := false
	for _, v := range values {
		if frame.IsMissing(v) {
			continue
		}
		seen = true
		if numeric {
			_, numeric = frame.ParseNumeric(v)
		}
		if boolean {
			_, boolean = frame.ParseBool(v)
		}
		if date {
			_, date = frame.ParseDate(v)
		}
		if !numeric && !boolean && !date {
			return TypeText
		}
	}
	switch {
	case !seen:
		return TypeEmpty
	case numeric:
		return TypeNumeric
	case boolean:
		return TypeBoolean
	case date:
		return TypeDate
	default:
		return TypeText
	}
}

// percent returns part/whole*100 rounded to two decimals; zero when whole is zero.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*100*100) / 100
}
