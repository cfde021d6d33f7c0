package reporting

import (
	"math"
	"sort"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/core"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// ColumnMemory is one row of MemoryProfile.
type ColumnMemory struct {
	Column string `json:"column" yaml:"column"`
	Bytes  int64  `json:"bytes" yaml:"bytes"`
}

// MemoryProfile reports the bytes held by each column's cells, largest first.
func MemoryProfile(rec audit.Recorder, f *frame.Frame) []ColumnMemory {
	out := memory(f)
	var total int64
	for _, m := range out {
		total += m.Bytes
	}
	rec.Record("memory_profile", audit.Shape(f), audit.State{"total_bytes": total})
	return out
}

func memory(f *frame.Frame) []ColumnMemory {
	out := make([]ColumnMemory, len(f.Columns))
	for c, name := range f.Columns {
		n := int64(len(name))
		for _, row := range f.Rows {
			n += int64(len(row[c]))
		}
		out[c] = ColumnMemory{Column: name, Bytes: n}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Bytes > out[j].Bytes })
	return out
}

// ColumnOutliers counts IQR outliers in one numeric column.
type ColumnOutliers struct {
	Column   string  `json:"column" yaml:"column"`
	Outliers int     `json:"outliers" yaml:"outliers"`
	Lower    float64 `json:"lower" yaml:"lower"`
	Upper    float64 `json:"upper" yaml:"upper"`
}

// Profile is the combined report of ProfileReport.
type Profile struct {
	Summary     Summary          `json:"summary" yaml:"summary"`
	Types       []ColumnType     `json:"types" yaml:"types"`
	Missingness []ColumnMissing  `json:"missingness" yaml:"missingness"`
	Memory      []ColumnMemory   `json:"memory" yaml:"memory"`
	Outliers    []ColumnOutliers `json:"outliers" yaml:"outliers"`
}

// ProfileReport combines the summary, type, missingness and memory profiles
// with IQR outlier counts (multiplier k) for every numeric column. It records
// a single profile_report event.
func ProfileReport(rec audit.Recorder, f *frame.Frame, k float64) Profile {
	if k <= 0 {
		k = core.DefaultIQRMultiplier
	}

	p := Profile{
		Summary:     summarize(f),
		Types:       make([]ColumnType, len(f.Columns)),
		Missingness: missingness(f),
		Memory:      memory(f),
		Outliers:    []ColumnOutliers{},
	}

	flagged := 0
	for c, name := range f.Columns {
		vals, _ := f.Column(name)
		ct := columnType(name, vals)
		p.Types[c] = ct

		if ct.InferredType != TypeNumeric {
			continue
		}
		nums := make([]float64, len(vals))
		for i, v := range vals {
			if n, ok := frame.ParseNumeric(v); ok {
				nums[i] = n
			} else {
				nums[i] = math.NaN()
			}
		}
		lower, upper := core.IQRBounds(nums, k)
		co := ColumnOutliers{Column: name, Lower: lower, Upper: upper}
		for _, n := range nums {
			if !math.IsNaN(n) && (n < lower || n > upper) {
				co.Outliers++
			}
		}
		flagged += co.Outliers
		p.Outliers = append(p.Outliers, co)
	}

	rec.Record("profile_report", audit.Shape(f), audit.State{
		"null_cells":      p.Summary.NullCells,
		"duplicated_rows": p.Summary.DuplicatedRows,
		"numeric_columns": len(p.Outliers),
		"outliers":        flagged,
	})
	return p
}
