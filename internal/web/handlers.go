package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
	"github.com/JonMunkholm/fdakit/internal/logging"
	"github.com/JonMunkholm/fdakit/internal/pipeline"
	"github.com/JonMunkholm/fdakit/internal/reporting"
	"github.com/JonMunkholm/fdakit/internal/security"
	"github.com/JonMunkholm/fdakit/internal/toolkit"
)

// SaltHeader carries the salt for /api/anonymize so it stays out of URLs and access logs.
const SaltHeader = "X-Anonymize-Salt"

// ----------------------------------------------------------------------------
// Discovery
// ----------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":       "ok",
		"functions":    s.kit.Registry.Len(),
		"audit_events": s.kit.Audit.Len(),
		"runs":         s.runs.Status(),
	})
}

// handleListFunctions returns the registry listing, optionally filtered by
// ?category= and encoded per ?format=json|yaml.
func (s *Server) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	contentType, err := exportContentType(format)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rows := s.kit.Info(r.URL.Query().Get("category"))
	w.Header().Set("Content-Type", contentType)
	if err := toolkit.WriteRows(w, rows, format); err != nil {
		logging.FromContext(r.Context()).Error("writing function list", "error", err)
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.kit.Registry.Categories())
}

// handleAuditLog exports the audit log as JSON or YAML.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	contentType, err := exportContentType(format)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if err := s.kit.Audit.Write(w, strings.ToLower(format)); err != nil {
		logging.FromContext(r.Context()).Error("writing audit log", "error", err)
	}
}

func exportContentType(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return "application/json", nil
	case "yaml", "yml":
		return "application/yaml", nil
	default:
		return "", fmt.Errorf("%q: %w", format, audit.ErrUnknownFormat)
	}
}

// ----------------------------------------------------------------------------
// Data operations
// ----------------------------------------------------------------------------

// readFrame parses the request body as CSV within the configured size limit.
func (s *Server) readFrame(w http.ResponseWriter, r *http.Request) (*frame.Frame, error) {
	limit := s.cfg.Clean.MaxInputBytes
	body := http.MaxBytesReader(w, r.Body, limit+1)
	return frame.ReadCSV(body, frame.ReadOptions{MaxBytes: limit})
}

// handleCheck returns the profile report of the posted CSV.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.runs.Acquire(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.runs.Release()

	f, err := s.readFrame(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, reporting.ProfileReport(s.kit.Audit, f, s.cfg.Clean.IQRMultiplier))
}

// handleClean runs a cleaning pipeline over the posted CSV and returns the
// cleaned CSV. Query parameters:
//
//	pipeline      quick_clean (default) or quick_clean_finance
//	primary_key   key column checked by quick_clean_finance
//	currency_col  repeatable, parsed as currency
//	date_col      repeatable, parsed as dates
//	day_first     true to read 03/04/2024 as 3 April
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("pipeline")
	if name == "" {
		name = "quick_clean"
	}
	if name != "quick_clean" && name != "quick_clean_finance" {
		respondError(w, r, fmt.Errorf("%q: %w", name, errUnknownPipeline))
		return
	}

	dayFirst := s.cfg.Clean.DayFirst
	if v := q.Get("day_first"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("day_first=%q: %w", v, errBadParam))
			return
		}
		dayFirst = b
	}

	if err := s.runs.Acquire(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.runs.Release()

	ctx, runID := startRun(w, r)
	logger := logging.WithFields(ctx, "pipeline", name)

	f, err := s.readFrame(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logger.Info("clean started", "rows", f.Len(), "columns", len(f.Columns))

	opts := pipeline.Options{Placeholders: s.cfg.Clean.Placeholders, FillValue: s.cfg.Clean.FillValue}
	var out *frame.Frame
	if name == "quick_clean" {
		out, err = pipeline.QuickClean(ctx, s.kit.Audit, f, opts)
	} else {
		out, err = pipeline.QuickCleanFinance(ctx, s.kit.Audit, f, pipeline.FinanceOptions{
			Options:      opts,
			PrimaryKey:   q.Get("primary_key"),
			CurrencyCols: q["currency_col"],
			DateCols:     q["date_col"],
			DayFirst:     dayFirst,
		})
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+".csv"))
	if err := frame.WriteCSV(w, out); err != nil {
		logger.Error("writing cleaned csv", "error", err)
	}
}

// handleMask replaces values in every ?col= column with ?mask= (default ***).
func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	cols := r.URL.Query()["col"]
	if len(cols) == 0 {
		respondError(w, r, fmt.Errorf("col is required: %w", errBadParam))
		return
	}
	s.transform(w, r, func(f *frame.Frame) (*frame.Frame, error) {
		return security.MaskSensitiveFields(s.kit.Audit, f, cols, r.URL.Query().Get("mask"))
	})
}

// handleAnonymize hashes every ?col= column with the salt from X-Anonymize-Salt.
func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	cols := r.URL.Query()["col"]
	if len(cols) == 0 {
		respondError(w, r, fmt.Errorf("col is required: %w", errBadParam))
		return
	}
	s.transform(w, r, func(f *frame.Frame) (*frame.Frame, error) {
		return security.AnonymizeIdentifiers(s.kit.Audit, f, cols, r.Header.Get(SaltHeader))
	})
}

// transform reads the CSV body, applies fn and writes the result as CSV.
func (s *Server) transform(w http.ResponseWriter, r *http.Request, fn func(*frame.Frame) (*frame.Frame, error)) {
	if err := s.runs.Acquire(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.runs.Release()

	f, err := s.readFrame(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out, err := fn(f)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if err := frame.WriteCSV(w, out); err != nil {
		logging.FromContext(r.Context()).Error("writing csv", "error", err)
	}
}
