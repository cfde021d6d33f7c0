package main

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fdakit/internal/frame"
	"github.com/JonMunkholm/fdakit/internal/logging"
	"github.com/JonMunkholm/fdakit/internal/pipeline"
)

var cleanCmd = &cobra.Command{
	Use:   "clean FILE",
	Short: "Run a cleaning pipeline over a CSV file",
	Long: `clean runs quick_clean: headers are normalized, placeholder values become
missing, duplicate rows are dropped and remaining gaps are filled.

With --finance it runs quick_clean_finance instead, which also parses the
--currency-col and --date-col columns and checks --primary-key.
Column names may be given raw ("Invoice ID") or cleaned ("invoice_id").`,
	Example: `  fdakit clean raw.csv > clean.csv
  fdakit clean ledger.csv --finance --primary-key invoice_id \
      --currency-col amount --date-col posted --day-first \
      --out ledger_clean.csv --audit-out audit.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		finance, _ := flags.GetBool("finance")
		out, _ := flags.GetString("out")
		fill, _ := flags.GetString("fill")
		if !flags.Changed("fill") {
			fill = cfg.Clean.FillValue
		}

		runID := uuid.NewString()
		ctx := logging.WithRunID(cmd.Context(), runID)
		log := logging.FromContext(ctx)

		f, err := readFrame(cmd, args[0])
		if err != nil {
			return err
		}

		opts := pipeline.Options{Placeholders: cfg.Clean.Placeholders, FillValue: fill}
		var cleaned *frame.Frame
		if finance {
			fo := pipeline.FinanceOptions{Options: opts, DayFirst: cfg.Clean.DayFirst}
			fo.PrimaryKey, _ = flags.GetString("primary-key")
			fo.CurrencyCols, _ = flags.GetStringSlice("currency-col")
			fo.DateCols, _ = flags.GetStringSlice("date-col")
			if flags.Changed("day-first") {
				fo.DayFirst, _ = flags.GetBool("day-first")
			}
			cleaned, err = pipeline.QuickCleanFinance(ctx, kit.Audit, f, fo)
		} else {
			cleaned, err = pipeline.QuickClean(ctx, kit.Audit, f, opts)
		}
		if err != nil {
			return err
		}

		if err := writeFrame(cmd, out, cleaned); err != nil {
			return err
		}
		log.Info("clean finished",
			slog.Int("rows_in", f.Len()),
			slog.Int("rows_out", cleaned.Len()),
			slog.String("out", out),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	f := cleanCmd.Flags()
	f.StringP("out", "o", "", "Write cleaned CSV here instead of stdout")
	f.String("fill", "", "Value for cells still missing after cleaning (default from config)")
	f.Bool("finance", false, "Run quick_clean_finance")
	f.String("primary-key", "", "Column that must be unique and non-missing (finance)")
	f.StringSlice("currency-col", nil, "Column to parse as currency; repeatable (finance)")
	f.StringSlice("date-col", nil, "Column to parse as a date; repeatable (finance)")
	f.Bool("day-first", false, "Read 03/04/2024 as 3 April (finance)")
}
