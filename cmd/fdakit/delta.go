package main

import (
	"encoding/json"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fdakit/internal/reporting"
)

var deltaCmd = &cobra.Command{
	Use:   "delta BEFORE AFTER",
	Short: "Compare two versions of a CSV file",
	Long: `delta compares two versions of a table. Without --key it reports the
snapshot difference (row and column counts, added and removed columns, and
whether the content hash changed). With --key it matches rows by that column
and lists added, removed and changed keys.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")

		before, err := readFrame(cmd, args[0])
		if err != nil {
			return err
		}
		after, err := readFrame(cmd, args[1])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if key != "" {
			d, err := reporting.DeltaReport(kit.Audit, before, after, key)
			if err != nil {
				return err
			}
			return enc.Encode(d)
		}

		bs, err := reporting.SnapshotDataset(kit.Audit, before, nil)
		if err != nil {
			return err
		}
		as, err := reporting.SnapshotDataset(kit.Audit, after, nil)
		if err != nil {
			return err
		}
		diff := reporting.CompareSnapshots(kit.Audit, bs, as)
		if diff.HashChanged {
			color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "content changed")
		} else {
			color.New(color.FgGreen).Fprintln(cmd.ErrOrStderr(), "content unchanged")
		}
		return enc.Encode(diff)
	},
}

func init() {
	rootCmd.AddCommand(deltaCmd)

	deltaCmd.Flags().StringP("key", "k", "", "Key column for a row-level delta")
}
