// Package audit records what each toolkit operation did to the data.
//
// A Log is an append-only, chronologically ordered sequence of events. Every
// cleaning function appends one event describing the table before and after
// it ran. The Log never fails because of what a caller put in an event: payload
// values are stored as deep copies and only coerced into plain data on export.
package audit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/fdakit/internal/frame"
)

// State is the descriptive payload of an event: row counts, column lists,
// parameters, counts of changed cells. Values should be primitives, slices or
// nested maps, but anything is accepted.
type State map[string]any

// Event is a single audit entry. Events are immutable once recorded.
type Event struct {
	Name      string
	Timestamp time.Time // Always UTC
	Before    State
	After     State
}

// Recorder is what business functions need from the audit log.
type Recorder interface {
	Record(name string, before, after State) Event
}

type discard struct{}

func (discard) Record(name string, before, after State) Event {
	return Event{Name: name, Timestamp: time.Now().UTC(), Before: before, After: after}
}

// Discard is a Recorder that keeps nothing.
var Discard Recorder = discard{}

// Option configures a Log.
type Option func(*Log)

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithLogger sets the logger that receives a debug line per event.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// Log is an append-only audit log. It is safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	events []Event
	last   time.Time
	now    func() time.Time
	logger *slog.Logger
}

// New returns an empty Log.
func New(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Record appends an event stamped with the current UTC time and returns it.
// Timestamps never go backwards within a Log: a clock reading earlier than the
// previous event is raised to match it.
func (l *Log) Record(name string, before, after State) Event {
	l.mu.Lock()
	ts := l.now().UTC()
	if ts.Before(l.last) {
		ts = l.last
	}
	l.last = ts

	ev := Event{
		Name:      name,
		Timestamp: ts,
		Before:    copyState(before),
		After:     copyState(after),
	}
	l.events = append(l.events, ev)
	n := len(l.events)
	l.mu.Unlock()

	l.logger.Debug("audit event recorded", "name", name, "seq", n)
	return cloneEvent(ev)
}

// Events returns a deep copy of all events in recording order.
func (l *Log) Events() []Event {
	l.mu.Lock()
	events := make([]Event, len(l.events))
	copy(events, l.events)
	l.mu.Unlock()

	for i := range events {
		events[i] = cloneEvent(events[i])
	}
	return events
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Find returns the events matching keep, in recording order. keep sees
// copies and runs without the log locked, so it may call back into l.
func (l *Log) Find(keep func(Event) bool) []Event {
	events := l.Events()
	if keep == nil {
		return events
	}
	out := events[:0]
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// ByName returns the events recorded under name.
func (l *Log) ByName(name string) []Event {
	return l.Find(func(e Event) bool { return e.Name == name })
}

// Reset discards every event.
// Only test harnesses should call this.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
	l.last = time.Time{}
}

func cloneEvent(e Event) Event {
	e.Before = copyState(e.Before)
	e.After = copyState(e.After)
	return e
}

// Shape describes a table's dimensions.
func Shape(f *frame.Frame) State {
	rows, cols := f.Shape()
	return State{"rows": rows, "columns": cols}
}
