package validation

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

var (
	// ErrNullKey is returned when a primary key cell is missing.
	ErrNullKey = errors.New("primary key contains missing values")

	// ErrDuplicateKey is returned when two rows share a primary key.
	ErrDuplicateKey = errors.New("primary key has duplicates")
)

// AssertPrimaryKey checks that keyCols are present, never missing and unique
// across rows.
func AssertPrimaryKey(rec audit.Recorder, f *frame.Frame, keyCols []string) error {
	err := checkPrimaryKey(f, keyCols)

	after := audit.State{"passed": err == nil}
	if err != nil {
		after["error"] = err.Error()
	}
	rec.Record("assert_primary_key",
		audit.State{"rows": f.Len(), "key": append([]string(nil), keyCols...)},
		after,
	)
	return err
}

func checkPrimaryKey(f *frame.Frame, keyCols []string) error {
	idx, err := f.Indexes(keyCols)
	if err != nil {
		return err
	}

	nulls := 0
	for _, row := range f.Rows {
		for _, i := range idx {
			if frame.IsMissing(row[i]) {
				nulls++
				break
			}
		}
	}
	if nulls > 0 {
		return fmt.Errorf("%d row(s): %w", nulls, ErrNullKey)
	}

	seen := make(map[string]bool, f.Len())
	dups := 0
	for r := range f.Rows {
		k := f.RowKey(r, idx)
		if seen[k] {
			dups++
		}
		seen[k] = true
	}
	if dups > 0 {
		return fmt.Errorf("%d duplicate(s): %w", dups, ErrDuplicateKey)
	}
	return nil
}

// CheckReferentialIntegrity returns the fact rows whose factKey has no match
// in dim's dimKey. Rows with a missing key are orphans.
func CheckReferentialIntegrity(rec audit.Recorder, fact, dim *frame.Frame, factKey, dimKey string) (*frame.Frame, error) {
	fk, err := fact.Index(factKey)
	if err != nil {
		return nil, fmt.Errorf("fact table: %w", err)
	}
	dimVals, err := dim.Column(dimKey)
	if err != nil {
		return nil, fmt.Errorf("dim table: %w", err)
	}

	valid := make(map[string]bool, len(dimVals))
	for _, v := range dimVals {
		if !frame.IsMissing(v) {
			valid[v] = true
		}
	}

	keep := make([]bool, fact.Len())
	for r, row := range fact.Rows {
		keep[r] = !valid[row[fk]]
	}
	orphans := fact.Filter(keep)

	rec.Record("check_referential_integrity",
		audit.State{"fact_rows": fact.Len(), "dim_keys": len(valid)},
		audit.State{"orphans": orphans.Len()},
	)
	return orphans, nil
}
