package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fdakit/internal/reporting"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Print a quick diagnostic report for a CSV file",
	Long: `check prints the shape, missing cells and duplicate rows of a CSV file.
With --profile it adds per-column types, missingness, memory and IQR
outlier tables. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readFrame(cmd, args[0])
		if err != nil {
			return err
		}
		if _, err := reporting.QuickCheck(kit.Audit, cmd.OutOrStdout(), f); err != nil {
			return err
		}

		profile, _ := cmd.Flags().GetBool("profile")
		if !profile {
			return nil
		}
		k, _ := cmd.Flags().GetFloat64("iqr")
		if !cmd.Flags().Changed("iqr") {
			k = cfg.Clean.IQRMultiplier
		}
		renderProfile(cmd.OutOrStdout(), reporting.ProfileReport(kit.Audit, f, k))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolP("profile", "p", false, "Print the full column profile")
	checkCmd.Flags().Float64("iqr", 1.5, "IQR multiplier for outlier bounds (default from config)")
}

func renderProfile(w io.Writer, p reporting.Profile) {
	missing := make(map[string]reporting.ColumnMissing, len(p.Missingness))
	for _, m := range p.Missingness {
		missing[m.Column] = m
	}
	bytes := make(map[string]int64, len(p.Memory))
	for _, m := range p.Memory {
		bytes[m.Column] = m.Bytes
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Columns")
	t.AppendHeader(table.Row{"Column", "Type", "Non-null", "Missing", "Missing %", "Bytes"})
	for _, ct := range p.Types {
		m := missing[ct.Column]
		t.AppendRow(table.Row{ct.Column, ct.InferredType, ct.NonNullCount, m.MissingCount,
			fmt.Sprintf("%.2f", m.MissingPercent), bytes[ct.Column]})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	if len(p.Outliers) == 0 {
		return
	}
	o := table.NewWriter()
	o.SetOutputMirror(w)
	o.SetTitle("IQR outliers")
	o.AppendHeader(table.Row{"Column", "Outliers", "Lower", "Upper"})
	for _, c := range p.Outliers {
		o.AppendRow(table.Row{c.Column, c.Outliers, c.Lower, c.Upper})
	}
	o.SetStyle(table.StyleLight)
	o.Render()
}
