// Package registry provides the catalog of toolkit functions.
//
// Every public cleaning, validation and reporting function is registered once
// at startup with its name, category and module path. The catalog backs the
// discovery listing (Describe) and lets callers look functions up by name.
//
// Registration rules:
//
//   - Name and Category must be non-empty and Fn must be non-nil.
//   - Names are unique. Registering a name that already exists fails with
//     ErrDuplicateName and leaves the registry unchanged.
//
// A Registry is safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidEntry is returned for an entry with an empty name or category, or a nil Fn.
	ErrInvalidEntry = errors.New("invalid registry entry")

	// ErrDuplicateName is returned when the name is already registered.
	ErrDuplicateName = errors.New("function already registered")
)

// Entry describes one registered function.
type Entry struct {
	Name        string // Unique identifier: "clean_column_headers"
	Category    string // Grouping label: "Column Management"
	Module      string // Dotted display path: "core.columns"
	Description string // One-line summary for listings
	Fn          any    // The function value itself; the registry never calls it
}

// Row is the display projection of an Entry.
type Row struct {
	Function string `json:"function" yaml:"function"`
	Category string `json:"category" yaml:"category"`
	Module   string `json:"module" yaml:"module"`
}

// Registry maps function names to entries.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds an entry. See the package doc for the rules.
func (r *Registry) Register(e Entry) error {
	if err := validate(e); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("%q (already in %s): %w", e.Name, prev.Module, ErrDuplicateName)
	}
	r.entries[e.Name] = e
	return nil
}

// MustRegister is Register for startup code. It panics on error, since a
// bad registration is a coding defect rather than a data problem.
func (r *Registry) MustRegister(e Entry) {
	if err := r.Register(e); err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
}

func validate(e Entry) error {
	var problems []string
	if strings.TrimSpace(e.Name) == "" {
		problems = append(problems, "name is empty")
	}
	if strings.TrimSpace(e.Category) == "" {
		problems = append(problems, "category is empty")
	}
	if e.Fn == nil {
		problems = append(problems, "function is nil")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%q: %s: %w", e.Name, strings.Join(problems, ", "), ErrInvalidEntry)
	}
	return nil
}

// Get returns an entry by name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	return e, ok
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// List returns entries sorted by category then name.
// An empty category returns everything; otherwise the match is exact.
// An unknown category yields an empty, non-nil slice.
func (r *Registry) List(category string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if category == "" || e.Category == category {
			result = append(result, e)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Name < result[j].Name
	})

	return result
}

// Describe projects List onto display rows.
func (r *Registry) Describe(category string) []Row {
	entries := r.List(category)
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{Function: e.Name, Category: e.Category, Module: e.Module}
	}
	return rows
}

// Categories returns all unique category names, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, e := range r.entries {
		seen[e.Category] = true
	}

	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Clear removes all entries.
// Primarily useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]Entry)
}
