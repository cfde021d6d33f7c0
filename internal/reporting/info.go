package reporting

import (
	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/registry"
)

// Info lists registered functions, optionally limited to one category.
// An unknown category gives an empty listing, not an error.
func Info(rec audit.Recorder, reg *registry.Registry, category string) []registry.Row {
	rows := reg.Describe(category)

	before := audit.State{"registered": reg.Len()}
	if category != "" {
		before["category"] = category
	}
	rec.Record("info", before, audit.State{"rows": len(rows)})
	return rows
}
