package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fdakit/internal/toolkit"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List the registered functions",
	Example: `  fdakit info
  fdakit info --category Finance
  fdakit info --format yaml > functions.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		format, _ := cmd.Flags().GetString("format")

		if format != "table" {
			return toolkit.WriteRows(cmd.OutOrStdout(), kit.Info(category), format)
		}

		rows := kit.Info(category)
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Function", "Category", "Module"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.Function, r.Category, r.Module})
		}
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d functions", len(rows))})
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringP("category", "c", "", "Only list functions in this category")
	infoCmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")
}
