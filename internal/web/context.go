package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fdakit/internal/logging"
)

// RunIDHeader carries the id of a cleaning run in the response.
const RunIDHeader = "X-Run-ID"

// startRun assigns a fresh run id, stores it in the request context for
// logging and echoes it in the response header.
func startRun(w http.ResponseWriter, r *http.Request) (context.Context, string) {
	id := uuid.NewString()
	w.Header().Set(RunIDHeader, id)
	return logging.WithRunID(r.Context(), id), id
}
