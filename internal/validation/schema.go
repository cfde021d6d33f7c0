package validation

import (
	"strings"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// ValidateRequiredFields checks that every required column exists and holds
// at least one value. Missing columns are reported before empty ones, and a
// table missing columns is not checked for empty ones.
func ValidateRequiredFields(rec audit.Recorder, f *frame.Frame, required []string) error {
	var errs Errors

	for _, col := range required {
		if _, err := f.Index(col); err != nil {
			errs = append(errs, ValidationError{Field: col, Message: "required column missing"})
		}
	}

	if len(errs) == 0 {
		for _, col := range required {
			vals, _ := f.Column(col)
			if allMissing(vals) {
				errs = append(errs, ValidationError{Field: col, Message: "required column is entirely empty"})
			}
		}
	}

	after := audit.State{"passed": len(errs) == 0, "failures": len(errs)}
	if len(errs) > 0 {
		after["fields"] = errs.Fields()
	}
	rec.Record("validate_required_fields",
		audit.State{"rows": f.Len(), "required": append([]string(nil), required...)},
		after,
	)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// StandardizeSchema checks that every required column exists, then renames
// columns by rename (old -> new). Names not in rename are kept. A missing
// required column fails the call with Errors and nothing is renamed.
func StandardizeSchema(rec audit.Recorder, f *frame.Frame, required []string, rename map[string]string) (*frame.Frame, error) {
	var errs Errors
	for _, col := range required {
		if _, err := f.Index(col); err != nil {
			errs = append(errs, ValidationError{Field: col, Message: "required column missing"})
		}
	}
	if len(errs) > 0 {
		rec.Record("standardize_schema",
			audit.State{"columns": append([]string(nil), f.Columns...)},
			audit.State{"passed": false, "fields": errs.Fields()},
		)
		return nil, errs
	}

	out := f.Clone()
	renamed := 0
	for i, c := range out.Columns {
		if to, ok := rename[c]; ok && to != c {
			out.Columns[i] = to
			renamed++
		}
	}

	rec.Record("standardize_schema",
		audit.State{"columns": append([]string(nil), f.Columns...)},
		audit.State{"passed": true, "columns": append([]string(nil), out.Columns...), "renamed": renamed},
	)
	return out, nil
}

// ValidateCategorySet marks values outside the allowed set. Missing values
// are not in any set and are marked too.
func ValidateCategorySet(rec audit.Recorder, values []string, allowed []string, caseInsensitive bool) []bool {
	norm := func(s string) string {
		s = strings.TrimSpace(s)
		if caseInsensitive {
			return strings.ToLower(s)
		}
		return s
	}

	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[norm(a)] = true
	}

	invalid := make([]bool, len(values))
	n := 0
	for i, v := range values {
		if frame.IsMissing(v) || !set[norm(v)] {
			invalid[i] = true
			n++
		}
	}

	rec.Record("validate_category_set",
		audit.State{"values": len(values), "allowed": len(set)},
		audit.State{"invalid": n},
	)
	return invalid
}

func allMissing(values []string) bool {
	for _, v := range values {
		if !frame.IsMissing(v) {
			return false
		}
	}
	return true
}
