package web

// errors.go turns errors from the toolkit into JSON responses with a stable
// code that users can quote:
//
//	FILE001  input exceeds the size limit         413
//	FILE002  malformed CSV                         400
//	FILE005  empty input                           400
//	VAL005   column not found                      400
//	REQ001   unknown pipeline                      400
//	REQ002   unknown export format                 400
//	REQ003   bad query parameter                   400
//	RUN002   too many runs in progress             503
//	RUN004   request cancelled                     499
//	RUN005   request timed out                     504
//	RATE001  rate limited                          429
//	ERR000   anything else                         500
//
// Sentinels are matched with errors.Is, first match wins. The technical error
// is logged server-side with the request id; only the catalog message is sent.

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

var (
	errUnknownPipeline = errors.New("unknown pipeline")
	errBadParam        = errors.New("bad query parameter")
	errRateLimited     = errors.New("rate limit exceeded")
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type apiError struct {
	status  int
	code    string
	message string
	action  string
}

var errorCatalog = []struct {
	target error
	apiError
}{
	{frame.ErrInputTooLarge, apiError{http.StatusRequestEntityTooLarge, "FILE001",
		"Input exceeds the size limit", "Split the file into smaller chunks"}},
	{frame.ErrRaggedRow, apiError{http.StatusBadRequest, "FILE002",
		"A row has more cells than the header", "Check the file for unquoted delimiters"}},
	{frame.ErrEmptyInput, apiError{http.StatusBadRequest, "FILE005",
		"The request body is empty", "Send a CSV file with a header row"}},
	{frame.ErrColumnNotFound, apiError{http.StatusBadRequest, "VAL005",
		"Column not found", "Column names refer to the cleaned headers, e.g. invoice_id"}},
	{errUnknownPipeline, apiError{http.StatusBadRequest, "REQ001",
		"Unknown pipeline", "Use quick_clean or quick_clean_finance"}},
	{audit.ErrUnknownFormat, apiError{http.StatusBadRequest, "REQ002",
		"Unknown export format", "Use json or yaml"}},
	{errBadParam, apiError{http.StatusBadRequest, "REQ003",
		"Invalid query parameter", ""}},
	{ErrTooManyRuns, apiError{http.StatusServiceUnavailable, "RUN002",
		"Too many cleaning runs in progress", "Please wait a moment and try again"}},
	{context.Canceled, apiError{499, "RUN004",
		"Request was cancelled", "Please try again"}},
	{context.DeadlineExceeded, apiError{http.StatusGatewayTimeout, "RUN005",
		"Request timed out", "Try a smaller file or try again later"}},
	{errRateLimited, apiError{http.StatusTooManyRequests, "RATE001",
		"Too many requests", "Please wait a moment before trying again"}},
}

var unknownError = apiError{http.StatusInternalServerError, "ERR000",
	"An unexpected error occurred", "Please try again or contact support"}

// mapError finds the catalog entry for err.
func mapError(err error) apiError {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return apiError{http.StatusBadRequest, "FILE002", "The file is not valid CSV", "Ensure fields are comma-separated and quotes are balanced"}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return mapError(frame.ErrInputTooLarge)
	}
	for _, e := range errorCatalog {
		if errors.Is(err, e.target) {
			return e.apiError
		}
	}
	return unknownError
}

// respondError logs err and writes its catalog entry as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	ae := mapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", ae.status,
		"code", ae.code,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   ae.message,
		Message: ae.message,
		Action:  ae.action,
		Code:    ae.code,
	})
}

// writeJSON encodes v as JSON. Encoding errors are logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
