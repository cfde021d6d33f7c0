package pipeline

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/core"
	"github.com/JonMunkholm/fdakit/internal/finance"
	"github.com/JonMunkholm/fdakit/internal/frame"
	"github.com/JonMunkholm/fdakit/internal/logging"
	"github.com/JonMunkholm/fdakit/internal/validation"
)

// FinanceOptions configures QuickCleanFinance. Column names may be given
// either as they appear in the input or in their cleaned form.
type FinanceOptions struct {
	Options
	PrimaryKey   string
	DateCols     []string
	CurrencyCols []string
	DayFirst     bool
	Currency     *finance.CurrencyOptions // nil uses finance.DefaultCurrencyOptions
}

// QuickCleanFinance runs the QuickClean header, placeholder and duplicate
// steps, then parses currency and date columns and checks the primary key.
// Unknown currency or date columns are skipped. A primary key violation is
// logged and recorded as a warning event; it does not fail the run.
func QuickCleanFinance(ctx context.Context, rec audit.Recorder, f *frame.Frame, opts FinanceOptions) (*frame.Frame, error) {
	log := logging.FromContext(ctx)

	out, err := baseClean(rec, f, opts.Placeholders)
	if err != nil {
		return nil, fmt.Errorf("quick_clean_finance: %w", err)
	}

	currency := finance.DefaultCurrencyOptions()
	if opts.Currency != nil {
		currency = *opts.Currency
	}

	var skipped []string
	for _, col := range opts.CurrencyCols {
		name, ok := resolve(out, col)
		if !ok {
			skipped = append(skipped, col)
			continue
		}
		vals, _ := out.Column(name)
		_ = out.SetColumn(name, core.FormatNumbers(finance.ParseCurrency(rec, vals, currency)))
	}
	for _, col := range opts.DateCols {
		name, ok := resolve(out, col)
		if !ok {
			skipped = append(skipped, col)
			continue
		}
		vals, _ := out.Column(name)
		_ = out.SetColumn(name, core.FormatDates(core.CleanDateColumn(rec, vals, opts.DayFirst)))
	}
	if len(skipped) > 0 {
		log.Warn("quick_clean_finance: columns not found, skipped", "columns", skipped)
	}

	keyOK := true
	if opts.PrimaryKey != "" {
		key, ok := resolve(out, opts.PrimaryKey)
		if !ok {
			key = opts.PrimaryKey
		}
		if err := validation.AssertPrimaryKey(rec, out, []string{key}); err != nil {
			keyOK = false
			log.Warn("quick_clean_finance: primary key validation failed", "key", key, "error", err)
			rec.Record("quick_clean_finance", nil, audit.State{
				"warning": fmt.Sprintf("primary key validation failed: %v", err),
			})
		}
	}

	after := audit.Shape(out)
	if len(skipped) > 0 {
		after["skipped_columns"] = skipped
	}
	if opts.PrimaryKey != "" {
		after["primary_key_valid"] = keyOK
	}
	rec.Record("quick_clean_finance", audit.Shape(f), after)
	log.Info("quick_clean_finance finished", "rows_in", f.Len(), "rows_out", out.Len())
	return out, nil
}

// resolve finds col in the cleaned header, by exact name or by its cleaned form.
func resolve(f *frame.Frame, col string) (string, bool) {
	if _, err := f.Index(col); err == nil {
		return col, true
	}
	cleaned := core.CleanHeader(col, core.DefaultHeaderOptions())
	if _, err := f.Index(cleaned); err == nil {
		return cleaned, true
	}
	return "", false
}
