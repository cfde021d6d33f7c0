package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// TimestampLayout is the export format of timestamp_utc. It is fixed width,
// so sorting the strings sorts the events.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

const (
	maxCoercedLen = 100
	maxDepth      = 32
)

type eventDoc struct {
	Name      string         `json:"name" yaml:"name"`
	Timestamp string         `json:"timestamp_utc" yaml:"timestamp_utc"`
	Before    map[string]any `json:"before" yaml:"before"`
	After     map[string]any `json:"after" yaml:"after"`
}

type logDoc struct {
	Events []eventDoc `json:"events" yaml:"events"`
}

func (l *Log) document() logDoc {
	events := l.Events()
	doc := logDoc{Events: make([]eventDoc, len(events))}
	for i, e := range events {
		doc.Events[i] = eventDoc{
			Name:      e.Name,
			Timestamp: e.Timestamp.UTC().Format(TimestampLayout),
			Before:    normalizeState(e.Before),
			After:     normalizeState(e.After),
		}
	}
	return doc
}

// ToDict returns the log as plain nested data:
//
//	{"events": [{"name", "timestamp_utc", "before", "after"}, ...]}
//
// Only strings, bools, numbers, nil, []any and map[string]any appear in the
// result. Anything else is coerced to a short string.
func (l *Log) ToDict() map[string]any {
	doc := l.document()
	events := make([]any, len(doc.Events))
	for i, e := range doc.Events {
		events[i] = map[string]any{
			"name":          e.Name,
			"timestamp_utc": e.Timestamp,
			"before":        e.Before,
			"after":         e.After,
		}
	}
	return map[string]any{"events": events}
}

// WriteJSON writes the ToDict data as indented JSON.
func (l *Log) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l.document()); err != nil {
		return fmt.Errorf("encoding audit log: %w", err)
	}
	return nil
}

// WriteYAML writes the ToDict data as YAML.
func (l *Log) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l.document()); err != nil {
		return fmt.Errorf("encoding audit log: %w", err)
	}
	return enc.Close()
}

// ErrUnknownFormat is returned by Write for a format other than json or yaml.
var ErrUnknownFormat = errors.New("unknown export format")

// Write dispatches to WriteJSON or WriteYAML.
func (l *Log) Write(w io.Writer, format string) error {
	switch format {
	case "", "json":
		return l.WriteJSON(w)
	case "yaml", "yml":
		return l.WriteYAML(w)
	default:
		return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// ----------------------------------------------------------------------------
// Payload coercion
// ----------------------------------------------------------------------------

func normalizeState(s State) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = normalize(v, 0)
	}
	return out
}

func normalize(v any, depth int) any {
	if v == nil {
		return nil
	}
	if depth > maxDepth {
		return typeName(v)
	}

	switch x := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	case State:
		return normalizeMap(reflect.ValueOf(map[string]any(x)), depth)
	case json.Number:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if _, ok := v.(fmt.Stringer); ok {
			return coerce(v)
		}
		if _, ok := v.(error); ok {
			return coerce(v)
		}
		return normalize(rv.Elem().Interface(), depth+1)
	case reflect.Slice:
		if rv.IsNil() {
			return []any{}
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Map:
		return normalizeMap(rv, depth)
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		if _, ok := v.(fmt.Stringer); ok {
			return coerce(v)
		}
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if _, ok := v.(fmt.Stringer); ok {
			return coerce(v)
		}
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return normalizeFloat(rv.Float())
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return typeName(v)
	}

	return coerce(v)
}

func normalizeMap(rv reflect.Value, depth int) any {
	if rv.IsNil() {
		return map[string]any{}
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key()
		var k string
		if key.Kind() == reflect.String {
			k = key.String()
		} else {
			k = coerce(key.Interface())
		}
		out[k] = normalize(iter.Value().Interface(), depth+1)
	}
	return out
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

// coerce renders v as a string of at most maxCoercedLen runes. A String or
// Error method that panics yields the type name instead.
func coerce(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = typeName(v)
		}
	}()

	switch x := v.(type) {
	case error:
		s = x.Error()
	case fmt.Stringer:
		s = x.String()
	default:
		s = fmt.Sprintf("%v", v)
	}
	return truncate(s, maxCoercedLen)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func typeName(v any) string {
	return fmt.Sprintf("<%T>", v)
}
