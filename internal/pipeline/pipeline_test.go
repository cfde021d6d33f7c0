package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/finance"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

func eventNames(log *audit.Log) []string {
	var names []string
	for _, e := range log.Events() {
		names = append(names, e.Name)
	}
	return names
}

func TestQuickClean(t *testing.T) {
	in := frame.MustNew([]string{"Name ", "Age (years)"}, [][]string{
		{"Alice", "25"},
		{"Bob", "NA"},
		{"Alice", "25"},
	})
	log := audit.New()

	out, err := QuickClean(context.Background(), log, in, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age_years"}, out.Columns)
	assert.Equal(t, [][]string{{"Alice", "25"}, {"Bob", "0"}}, out.Rows)
	assert.Equal(t, []string{"Name ", "Age (years)"}, in.Columns, "input is not modified")

	assert.Equal(t, []string{
		"clean_column_headers",
		"coerce_empty_to_null",
		"remove_duplicates",
		"fill_missing",
		"quick_clean",
	}, eventNames(log))

	last := log.Events()[log.Len()-1]
	assert.Equal(t, 3, last.Before["rows"])
	assert.Equal(t, 2, last.After["rows"])
}

func TestQuickClean_Options(t *testing.T) {
	in := frame.MustNew([]string{"a"}, [][]string{{"?"}, {"x"}})
	out, err := QuickClean(context.Background(), audit.Discard, in, Options{
		Placeholders: []string{"?"},
		FillValue:    "unknown",
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"unknown"}, {"x"}}, out.Rows)
}

func invoices() *frame.Frame {
	return frame.MustNew([]string{"Invoice ID", "Date", "Amount"}, [][]string{
		{"INV001", "01/01/2020", "$1,234.56"},
		{"INV002", "02/01/2020", "$2,345.67"},
		{"INV003", "", "N/A"},
	})
}

func TestQuickCleanFinance(t *testing.T) {
	log := audit.New()
	out, err := QuickCleanFinance(context.Background(), log, invoices(), FinanceOptions{
		PrimaryKey:   "Invoice ID",
		DateCols:     []string{"Date"},
		CurrencyCols: []string{"amount"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"invoice_id", "date", "amount"}, out.Columns)
	dates, _ := out.Column("date")
	assert.Equal(t, []string{"2020-01-01", "2020-02-01", ""}, dates)
	amounts, _ := out.Column("amount")
	assert.Equal(t, []string{"1234.56", "2345.67", ""}, amounts)

	final := log.Events()[log.Len()-1]
	assert.Equal(t, "quick_clean_finance", final.Name)
	assert.Equal(t, true, final.After["primary_key_valid"])
	assert.Len(t, log.ByName("quick_clean_finance"), 1)
}

func TestQuickCleanFinance_DayFirst(t *testing.T) {
	out, err := QuickCleanFinance(context.Background(), audit.Discard, invoices(), FinanceOptions{
		DateCols: []string{"date"},
		DayFirst: true,
	})
	require.NoError(t, err)
	dates, _ := out.Column("date")
	assert.Equal(t, []string{"2020-01-01", "2020-01-02", ""}, dates)
}

func TestQuickCleanFinance_EuropeanCurrency(t *testing.T) {
	in := frame.MustNew([]string{"amount"}, [][]string{{"€1.234,50"}})
	out, err := QuickCleanFinance(context.Background(), audit.Discard, in, FinanceOptions{
		CurrencyCols: []string{"amount"},
		Currency:     &finance.CurrencyOptions{Symbols: []string{"€"}, Thousands: ".", Decimal: ","},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1234.5"}}, out.Rows)
}

func TestQuickCleanFinance_PrimaryKeyViolationDoesNotFail(t *testing.T) {
	in := frame.MustNew([]string{"id", "amount"}, [][]string{
		{"A", "1"},
		{"A", "2"},
	})
	log := audit.New()

	out, err := QuickCleanFinance(context.Background(), log, in, FinanceOptions{PrimaryKey: "id"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())

	events := log.ByName("quick_clean_finance")
	require.Len(t, events, 2)
	assert.Contains(t, events[0].After["warning"], "primary key validation failed")
	assert.Equal(t, false, events[1].After["primary_key_valid"])

	pk := log.ByName("assert_primary_key")
	require.Len(t, pk, 1)
	assert.Equal(t, false, pk[0].After["passed"])
}

func TestQuickCleanFinance_UnknownColumnsSkipped(t *testing.T) {
	log := audit.New()
	_, err := QuickCleanFinance(context.Background(), log, invoices(), FinanceOptions{
		CurrencyCols: []string{"total"},
		DateCols:     []string{"posted"},
	})
	require.NoError(t, err)

	final := log.Events()[log.Len()-1]
	assert.Equal(t, []string{"total", "posted"}, final.After["skipped_columns"])
}
