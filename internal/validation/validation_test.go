package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/core"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "amount: bad", ValidationError{Field: "amount", Message: "bad"}.Error())
	assert.Equal(t, "bad", ValidationError{Message: "bad"}.Error())

	errs := Errors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}, {Field: "a", Message: "z"}}
	assert.Equal(t, "validation failed: a: x; b: y; a: z", errs.Error())
	assert.Equal(t, []string{"a", "b"}, errs.Fields())
}

// ----------------------------------------------------------------------------
// Schema
// ----------------------------------------------------------------------------

func TestValidateRequiredFields(t *testing.T) {
	f := frame.MustNew([]string{"id", "name", "notes"}, [][]string{
		{"1", "a", ""},
		{"2", "", " "},
	})

	tests := []struct {
		name       string
		required   []string
		wantFields []string
	}{
		{"all present", []string{"id", "name"}, nil},
		{"missing columns", []string{"id", "email", "phone"}, []string{"email", "phone"}},
		{"fully empty column", []string{"id", "notes"}, []string{"notes"}},
		{"missing wins over empty", []string{"notes", "email"}, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := audit.New()
			err := ValidateRequiredFields(log, f, tt.required)

			require.Equal(t, 1, log.Len(), "one event whether or not the check passes")
			if tt.wantFields == nil {
				require.NoError(t, err)
				assert.Equal(t, true, log.Events()[0].After["passed"])
				return
			}

			var errs Errors
			require.True(t, errors.As(err, &errs), "error = %v", err)
			assert.Equal(t, tt.wantFields, errs.Fields())
			assert.Equal(t, false, log.Events()[0].After["passed"])
		})
	}
}

func TestStandardizeSchema(t *testing.T) {
	f := frame.MustNew([]string{"id", "amt", "memo"}, [][]string{{"1", "10", "x"}})

	log := audit.New()
	out, err := StandardizeSchema(log, f, []string{"id", "amt"}, map[string]string{"amt": "amount", "gone": "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount", "memo"}, out.Columns)
	assert.Equal(t, []string{"id", "amt", "memo"}, f.Columns, "input mutated")
	assert.Equal(t, 1, log.Events()[0].After["renamed"])

	_, err = StandardizeSchema(log, f, []string{"id", "date"}, nil)
	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, []string{"date"}, errs.Fields())
	assert.Equal(t, false, log.Events()[1].After["passed"])
}

func TestValidateCategorySet(t *testing.T) {
	values := []string{"Open", "closed", "PENDING", "", "archived"}
	allowed := []string{"open", "closed", "pending"}

	got := ValidateCategorySet(audit.Discard, values, allowed, true)
	assert.Equal(t, []bool{false, false, false, true, true}, got)

	strict := ValidateCategorySet(audit.Discard, values, allowed, false)
	assert.Equal(t, []bool{true, false, true, true, true}, strict)
}

// ----------------------------------------------------------------------------
// Integrity
// ----------------------------------------------------------------------------

func TestAssertPrimaryKey(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		key     []string
		wantErr error
	}{
		{"unique", [][]string{{"1", "a"}, {"2", "a"}}, []string{"id"}, nil},
		{"composite unique", [][]string{{"1", "a"}, {"1", "b"}}, []string{"id", "v"}, nil},
		{"duplicate", [][]string{{"1", "a"}, {"1", "b"}}, []string{"id"}, ErrDuplicateKey},
		{"missing key", [][]string{{"1", "a"}, {"", "b"}}, []string{"id"}, ErrNullKey},
		{"unknown column", [][]string{{"1", "a"}}, []string{"nope"}, frame.ErrColumnNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := audit.New()
			f := frame.MustNew([]string{"id", "v"}, tt.rows)

			err := AssertPrimaryKey(log, f, tt.key)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, 1, log.Len())
		})
	}
}

func TestCheckReferentialIntegrity(t *testing.T) {
	fact := frame.MustNew([]string{"order", "customer"}, [][]string{
		{"o1", "c1"},
		{"o2", "c9"},
		{"o3", ""},
	})
	dim := frame.MustNew([]string{"id"}, [][]string{{"c1"}, {"c2"}})

	orphans, err := CheckReferentialIntegrity(audit.Discard, fact, dim, "customer", "id")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"o2", "c9"}, {"o3", ""}}, orphans.Rows)

	_, err = CheckReferentialIntegrity(audit.Discard, fact, dim, "customer", "missing")
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

// ----------------------------------------------------------------------------
// Ranges
// ----------------------------------------------------------------------------

func TestValidateDataRanges(t *testing.T) {
	f := frame.MustNew([]string{"age", "joined"}, [][]string{
		{"30", "2024-01-15"},
		{"-1", "2019-12-31"},
		{"", "not a date"},
		{"200", ""},
	})

	log := audit.New()
	v, err := ValidateDataRanges(log, f, map[string]Range{
		"age":    {Min: "0", Max: "120"},
		"joined": {Min: "2020-01-01", Max: "2024-12-31"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "joined"}, v.Columns)
	assert.Equal(t, []bool{false, true, false, true}, v.Flags["age"])
	assert.Equal(t, []bool{false, true, true, false}, v.Flags["joined"])
	assert.Equal(t, 4, v.Total())
	assert.Equal(t, []bool{false, true, true, true}, v.Rows())
	assert.Equal(t, 4, log.Events()[0].After["total"])
}

func TestValidateDataRanges_Errors(t *testing.T) {
	f := frame.MustNew([]string{"a"}, [][]string{{"1"}})

	_, err := ValidateDataRanges(audit.Discard, f, map[string]Range{"a": {Min: "10", Max: "1"}})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ValidateDataRanges(audit.Discard, f, map[string]Range{"a": {Min: "low", Max: "high"}})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ValidateDataRanges(audit.Discard, f, map[string]Range{"b": {Min: "0", Max: "1"}})
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

// ----------------------------------------------------------------------------
// Continuity and Consistency
// ----------------------------------------------------------------------------

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCheckTimeContinuity(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		freq  Frequency
		want  []time.Time
	}{
		{"daily gaps", []string{"2024-01-01", "2024-01-05", "", "2024-01-02"}, Daily, []time.Time{day("2024-01-03"), day("2024-01-04")}},
		{"default is daily", []string{"2024-01-01", "2024-01-03"}, "", []time.Time{day("2024-01-02")}},
		{"weekly", []string{"2024-01-01", "2024-01-15"}, Weekly, []time.Time{day("2024-01-08")}},
		{"monthly ignores day", []string{"2024-01-15", "2024-04-02", "2024-02-20"}, Monthly, []time.Time{day("2024-03-01")}},
		{"no gaps", []string{"2024-01-01", "2024-01-02"}, Daily, nil},
		{"single date", []string{"2024-01-01"}, Daily, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]string, len(tt.dates))
			for i, d := range tt.dates {
				rows[i] = []string{d}
			}
			log := audit.New()
			got, err := CheckTimeContinuity(log, frame.MustNew([]string{"d"}, rows), "d", tt.freq)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), log.Events()[0].After["gaps"])
		})
	}
}

func TestCheckTimeContinuity_Errors(t *testing.T) {
	f := frame.MustNew([]string{"d"}, [][]string{{"2024-01-01"}, {"whenever"}})

	_, err := CheckTimeContinuity(audit.Discard, f, "d", Daily)
	assert.ErrorIs(t, err, frame.ErrNotDate)

	_, err = CheckTimeContinuity(audit.Discard, f, "d", "H")
	assert.ErrorIs(t, err, ErrUnknownFrequency)

	_, err = CheckTimeContinuity(audit.Discard, f, "nope", Daily)
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

func TestCheckDataConsistency(t *testing.T) {
	f := frame.MustNew([]string{"a", "b", "c"}, [][]string{
		{"", "0", "1"},
		{"", "0", "2"},
		{"", "0", "3"},
		{"x", "0", "4"},
	})

	log := audit.New()
	got := CheckDataConsistency(log, f)
	assert.Equal(t, []Issue{
		{Column: "a", Issue: IssueHighNull, Percentage: 75},
		{Column: "a", Issue: IssueConstant, Value: "x"},
		{Column: "b", Issue: IssueConstant, Value: "0"},
		{Column: "b", Issue: IssueMostlyZeros, Percentage: 90},
	}, got)

	ev := log.Events()[0]
	assert.Equal(t, 4, ev.After["issues"])
	assert.Equal(t, map[string]any{IssueHighNull: 1, IssueConstant: 2, IssueMostlyZeros: 1}, ev.After["by_kind"])

	assert.Empty(t, CheckDataConsistency(audit.Discard, frame.MustNew([]string{"a"}, nil)))
}

// ----------------------------------------------------------------------------
// Reconciliation
// ----------------------------------------------------------------------------

func TestReconciliationCheck(t *testing.T) {
	before := frame.MustNew([]string{"region", "amount"}, [][]string{
		{"E", "10"}, {"W", "20"}, {"E", "5"}, {"", "99"},
	})
	after := frame.MustNew([]string{"region", "amount"}, [][]string{
		{"E", "15"}, {"N", "$7"}, {"E", ""},
	})

	t.Run("totals", func(t *testing.T) {
		log := audit.New()
		out, err := ReconciliationCheck(log, before, after, []string{"amount"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"column", "before", "after", "delta"}, out.Columns)
		assert.Equal(t, [][]string{{"amount", "134", "22", "-112"}}, out.Rows)
		assert.Equal(t, 1, log.Events()[0].After["mismatched"])
	})

	t.Run("grouped", func(t *testing.T) {
		log := audit.New()
		out, err := ReconciliationCheck(log, before, after, []string{"amount"}, []string{"region"})
		require.NoError(t, err)
		assert.Equal(t, []string{"region", "amount_before", "amount_after", "amount_delta"}, out.Columns)
		assert.Equal(t, [][]string{
			{"E", "15", "15", "0"},
			{"N", "0", "7", "7"},
			{"W", "20", "0", "-20"},
		}, out.Rows)
		assert.Equal(t, 2, log.Events()[0].After["mismatched"])
	})

	t.Run("errors", func(t *testing.T) {
		bad := frame.MustNew([]string{"region", "amount"}, [][]string{{"E", "ten"}})
		_, err := ReconciliationCheck(audit.Discard, bad, after, []string{"amount"}, nil)
		assert.ErrorIs(t, err, core.ErrNotNumeric)

		_, err = ReconciliationCheck(audit.Discard, before, after, []string{"qty"}, nil)
		assert.ErrorIs(t, err, frame.ErrColumnNotFound)
	})
}
