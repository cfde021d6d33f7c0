package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fdakit/internal/config"
	"github.com/JonMunkholm/fdakit/internal/frame"
	"github.com/JonMunkholm/fdakit/internal/logging"
	"github.com/JonMunkholm/fdakit/internal/toolkit"
)

// global flags
var (
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
	auditOut   string
	auditFmt   string
)

// set by PersistentPreRunE
var (
	cfg *config.Config
	kit *toolkit.Toolkit
)

var rootCmd = &cobra.Command{
	Use:   "fdakit",
	Short: "Clean, validate and profile tabular data",
	Long: `fdakit is a toolkit of data cleaning functions for CSV tables.
Every function records what it did in an audit log, which can be
exported as JSON or YAML after a run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win
		_ = godotenv.Load()

		path := configPath
		if path == "" {
			path = os.Getenv(config.ConfigFileEnv)
		}
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Logging.Format = logFormat
		}
		logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

		if noColor {
			color.NoColor = true
		}
		if auditOut != "" {
			cfg.Audit.ExportPath = auditOut
			cfg.Audit.ExportFormat = toolkit.FormatFromPath(auditOut)
		}
		if auditFmt != "" {
			cfg.Audit.ExportFormat = auditFmt
		}

		kit = toolkit.Default()
		slog.Debug("configuration loaded", "functions", kit.Registry.Len(), "config", path)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Audit.ExportPath == "" {
			return nil
		}
		if err := kit.ExportAudit(cfg.Audit.ExportPath, cfg.Audit.ExportFormat); err != nil {
			return fmt.Errorf("exporting audit log: %w", err)
		}
		slog.Info("audit log exported", "path", cfg.Audit.ExportPath, "events", kit.Audit.Len())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "TOML configuration file (default $"+config.ConfigFileEnv+")")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	pf.BoolVar(&noColor, "no-color", false, "Disable color output")
	pf.StringVar(&auditOut, "audit-out", "", "Write the audit log to this file after the command")
	pf.StringVar(&auditFmt, "audit-format", "", "Audit export format (json, yaml); default from the file extension")
}

// readFrame loads a CSV file, or the command's input when path is "-".
func readFrame(cmd *cobra.Command, path string) (*frame.Frame, error) {
	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}

	fr, err := frame.ReadCSV(in, frame.ReadOptions{MaxBytes: cfg.Clean.MaxInputBytes})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	slog.Debug("input loaded", "path", path, "rows", fr.Len(), "columns", len(fr.Columns))
	return fr, nil
}

// writeFrame writes CSV to path, or the command's output when path is "" or "-".
func writeFrame(cmd *cobra.Command, path string, fr *frame.Frame) error {
	if path == "" || path == "-" {
		return frame.WriteCSV(cmd.OutOrStdout(), fr)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := frame.WriteCSV(out, fr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
