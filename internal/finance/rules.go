package finance

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
	"github.com/JonMunkholm/fdakit/internal/validation"
)

// ErrUnknownSignRule is returned for a SignRule not listed below.
var ErrUnknownSignRule = errors.New("unknown sign rule")

// SignRule constrains the sign of a numeric column.
type SignRule string

const (
	NonNegative SignRule = "non_negative" // >= 0
	NonPositive SignRule = "non_positive" // <= 0
	Positive    SignRule = "positive"     // > 0
	Negative    SignRule = "negative"     // < 0
)

func (r SignRule) violatedBy(v float64) (bool, error) {
	switch r {
	case NonNegative:
		return v < 0, nil
	case NonPositive:
		return v > 0, nil
	case Positive:
		return v <= 0, nil
	case Negative:
		return v >= 0, nil
	default:
		return false, fmt.Errorf("%q: %w", r, ErrUnknownSignRule)
	}
}

// ValidateSignConventions marks values breaking their column's sign rule,
// e.g. {"revenue": NonNegative, "refund": NonPositive}. Missing and
// non-numeric cells are not checked.
func ValidateSignConventions(rec audit.Recorder, f *frame.Frame, rules map[string]SignRule) (validation.Violations, error) {
	cols := make([]string, 0, len(rules))
	for c := range rules {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	v := validation.Violations{Columns: cols, Flags: make(map[string][]bool, len(cols))}
	for _, c := range cols {
		if _, err := rules[c].violatedBy(0); err != nil {
			return validation.Violations{}, fmt.Errorf("validate_sign_conventions: %q: %w", c, err)
		}
		vals, err := f.Column(c)
		if err != nil {
			return validation.Violations{}, fmt.Errorf("validate_sign_conventions: %w", err)
		}
		flags := make([]bool, len(vals))
		for r, cell := range vals {
			n, ok := frame.ParseNumeric(cell)
			if !ok {
				continue
			}
			flags[r], _ = rules[c].violatedBy(n)
		}
		v.Flags[c] = flags
	}

	rec.Record("validate_sign_conventions",
		audit.State{"rows": f.Len(), "columns": cols},
		audit.State{"total": v.Total()},
	)
	return v, nil
}

// BalanceOptions controls CheckBalancedEntries.
type BalanceOptions struct {
	DebitColumn  string   // Default "debit"
	CreditColumn string   // Default "credit"
	GroupColumns []string // Empty checks each row on its own
	Tolerance    float64  // Largest allowed |debit - credit|
}

// CheckBalancedEntries flags rows where debits and credits differ by more
// than the tolerance. With group columns, totals are compared per group and
// every row of an imbalanced group is flagged. Missing amounts count as zero.
func CheckBalancedEntries(rec audit.Recorder, f *frame.Frame, opts BalanceOptions) ([]bool, error) {
	debitCol, creditCol := opts.DebitColumn, opts.CreditColumn
	if debitCol == "" {
		debitCol = "debit"
	}
	if creditCol == "" {
		creditCol = "credit"
	}

	idx, err := f.Indexes([]string{debitCol, creditCol})
	if err != nil {
		return nil, fmt.Errorf("check_balanced_entries: %w", err)
	}
	var groupIdx []int
	if len(opts.GroupColumns) > 0 {
		if groupIdx, err = f.Indexes(opts.GroupColumns); err != nil {
			return nil, fmt.Errorf("check_balanced_entries: %w", err)
		}
	}

	amount := func(s string) float64 {
		n, ok := frame.ParseNumeric(s)
		if !ok {
			return 0
		}
		return n
	}

	out := make([]bool, f.Len())
	groups := 0
	if groupIdx == nil {
		for r, row := range f.Rows {
			out[r] = math.Abs(amount(row[idx[0]])-amount(row[idx[1]])) > opts.Tolerance
		}
		groups = f.Len()
	} else {
		net := make(map[string]float64)
		keys := make([]string, f.Len())
		for r, row := range f.Rows {
			keys[r] = f.RowKey(r, groupIdx)
			net[keys[r]] += amount(row[idx[0]]) - amount(row[idx[1]])
		}
		for r, k := range keys {
			out[r] = math.Abs(net[k]) > opts.Tolerance
		}
		groups = len(net)
	}

	flagged := 0
	for _, b := range out {
		if b {
			flagged++
		}
	}
	rec.Record("check_balanced_entries",
		audit.State{"rows": f.Len(), "groups": groups, "tolerance": opts.Tolerance},
		audit.State{"imbalanced_rows": flagged},
	)
	return out, nil
}
