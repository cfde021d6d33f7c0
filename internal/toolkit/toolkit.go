// Package toolkit ties the function registry and the audit log together.
//
// Default returns the process-wide toolkit that the CLI and HTTP server
// share. New builds an isolated one, which is what tests should use.
package toolkit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/registry"
	"github.com/JonMunkholm/fdakit/internal/reporting"
)

// Toolkit is a registry of functions plus the audit log they record to.
type Toolkit struct {
	Registry *registry.Registry
	Audit    *audit.Log
}

// New returns a toolkit with every built-in function registered and an
// empty audit log.
func New(opts ...audit.Option) *Toolkit {
	reg := registry.New()
	RegisterBuiltins(reg)
	return &Toolkit{Registry: reg, Audit: audit.New(opts...)}
}

var (
	defaultOnce sync.Once
	defaultKit  *Toolkit
)

// Default returns the shared toolkit. Its audit log is audit.Global().
func Default() *Toolkit {
	defaultOnce.Do(func() {
		reg := registry.New()
		RegisterBuiltins(reg)
		defaultKit = &Toolkit{Registry: reg, Audit: audit.Global()}
	})
	return defaultKit
}

// Info lists the registered functions in a category ("" for all) and
// records an info event.
func (t *Toolkit) Info(category string) []registry.Row {
	return reporting.Info(t.Audit, t.Registry, category)
}

// FormatFromPath picks "yaml" for .yaml/.yml files and "json" otherwise.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// ExportAudit writes the audit log to path. An empty format is taken from
// the file extension.
func (t *Toolkit) ExportAudit(path, format string) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	if err := checkFormat(format); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return t.Audit.Write(w, strings.ToLower(format))
	})
}

// ExportInfo writes the function listing to path as JSON or YAML.
func (t *Toolkit) ExportInfo(path, category, format string) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	if err := checkFormat(format); err != nil {
		return err
	}
	rows := t.Info(category)
	return writeFile(path, func(w io.Writer) error {
		return WriteRows(w, rows, format)
	})
}

// WriteRows encodes a function listing as JSON or YAML.
func WriteRows(w io.Writer, rows []registry.Row, format string) error {
	if rows == nil {
		rows = []registry.Row{}
	}
	switch strings.ToLower(format) {
	case "", "json":
		return writeJSON(w, rows)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding function list: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%q: %w", format, audit.ErrUnknownFormat)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding function list: %w", err)
	}
	return nil
}

func checkFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "json", "yaml", "yml":
		return nil
	default:
		return fmt.Errorf("%q: %w", format, audit.ErrUnknownFormat)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
