package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/fdakit/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// stepClock returns times from a fixed list, repeating the last one.
func stepClock(times ...time.Time) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

var base = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestRecord_OrderAndCount(t *testing.T) {
	l := New()
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		l.Record(n, State{"rows": 1}, State{"rows": 1})
	}

	events := l.Events()
	require.Len(t, events, len(names))
	for i, e := range events {
		assert.Equal(t, names[i], e.Name)
		assert.Equal(t, time.UTC, e.Timestamp.Location())
		if i > 0 {
			assert.False(t, e.Timestamp.Before(events[i-1].Timestamp), "timestamps went backwards at %d", i)
		}
	}
}

func TestRecord_ClampsBackwardClock(t *testing.T) {
	l := New(WithClock(stepClock(base, base.Add(-time.Hour), base.Add(time.Second))))
	l.Record("first", nil, nil)
	second := l.Record("second", nil, nil)
	third := l.Record("third", nil, nil)

	assert.Equal(t, base, second.Timestamp)
	assert.Equal(t, base.Add(time.Second), third.Timestamp)
}

func TestRecord_ConvertsToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	l := New(WithClock(func() time.Time { return time.Date(2024, 1, 1, 7, 0, 0, 0, est) }))
	ev := l.Record("x", nil, nil)
	assert.Equal(t, 12, ev.Timestamp.Hour())
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
}

func TestRecord_StoresCopies(t *testing.T) {
	l := New()
	before := State{"rows": 3}
	l.Record("x", before, nil)
	before["rows"] = 99

	got := l.Events()[0]
	assert.Equal(t, 3, got.Before["rows"])

	got.Before["rows"] = 42
	assert.Equal(t, 3, l.Events()[0].Before["rows"])
}

func TestRecord_StoresDeepCopies(t *testing.T) {
	l := New()
	headers := []string{"A", "B"}
	inner := map[string]any{"k": 1}
	returned := l.Record("x", State{"headers": headers, "m": inner}, nil)

	headers[0] = "caller"
	inner["k"] = 2
	returned.Before["headers"].([]string)[1] = "returned"

	got := l.Events()[0]
	got.Before["headers"].([]string)[0] = "tampered"
	got.Before["m"].(map[string]any)["k"] = 99

	fresh := l.Events()[0]
	assert.Equal(t, []string{"A", "B"}, fresh.Before["headers"])
	assert.Equal(t, map[string]any{"k": 1}, fresh.Before["m"])
}

func TestRecord_CopiesNestedStates(t *testing.T) {
	l := New()
	params := State{"bounds": []any{1.0, []int{2, 3}}, "opts": State{"keep": "first"}}
	l.Record("x", nil, params)

	params["bounds"].([]any)[1].([]int)[0] = 0
	params["opts"].(State)["keep"] = "last"

	got := l.Events()[0].After
	assert.Equal(t, []any{1.0, []int{2, 3}}, got["bounds"])
	assert.Equal(t, State{"keep": "first"}, got["opts"])
}

func TestRecord_Concurrent(t *testing.T) {
	const goroutines, perGoroutine = 8, 100

	l := New()
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				l.Record("step", State{"g": g, "i": i}, nil)
			}
		}(g)
	}
	wg.Wait()

	events := l.Events()
	require.Len(t, events, goroutines*perGoroutine)
	assert.Equal(t, goroutines*perGoroutine, l.Len())

	next := make(map[int]int)
	for i, e := range events {
		if i > 0 {
			assert.False(t, e.Timestamp.Before(events[i-1].Timestamp), "timestamps went backwards at %d", i)
		}
		g := e.Before["g"].(int)
		assert.Equal(t, next[g], e.Before["i"], "goroutine %d out of order", g)
		next[g]++
	}
}

func TestFindAndByName(t *testing.T) {
	l := New()
	l.Record("clean", nil, nil)
	l.Record("check", nil, nil)
	l.Record("clean", nil, nil)

	assert.Len(t, l.ByName("clean"), 2)
	assert.Empty(t, l.ByName("nothing"))
	assert.Len(t, l.Find(func(e Event) bool { return strings.HasPrefix(e.Name, "c") }), 3)
}

func TestFind_PredicateCannotMutateLog(t *testing.T) {
	l := New()
	l.Record("x", State{"rows": 3}, nil)

	matched := l.Find(func(e Event) bool {
		e.Before["rows"] = 42
		return true
	})
	require.Len(t, matched, 1)
	assert.Equal(t, 3, l.Events()[0].Before["rows"])
}

func TestFind_PredicateMayCallLog(t *testing.T) {
	l := New()
	l.Record("a", nil, nil)
	l.Record("b", nil, nil)

	done := make(chan []Event, 1)
	go func() {
		done <- l.Find(func(e Event) bool {
			return l.Len() == 2 && e.Name == "b"
		})
	}()

	select {
	case got := <-done:
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("Find deadlocked when the predicate called Len")
	}
}

func TestReset(t *testing.T) {
	l := New()
	l.Record("x", nil, nil)
	l.Reset()
	assert.Zero(t, l.Len())
	assert.Empty(t, l.ToDict()["events"])
}

func TestGlobal_IsShared(t *testing.T) {
	assert.Same(t, Global(), Global())
}

func TestDiscard(t *testing.T) {
	ev := Discard.Record("x", State{"a": 1}, nil)
	assert.Equal(t, "x", ev.Name)
}

func TestShape(t *testing.T) {
	f := frame.MustNew([]string{"a", "b"}, [][]string{{"1", "2"}})
	assert.Equal(t, State{"rows": 1, "columns": 2}, Shape(f))
}

// ----------------------------------------------------------------------------
// Export Tests
// ----------------------------------------------------------------------------

func TestToDict_RoundTripsThroughJSON(t *testing.T) {
	l := New(WithClock(stepClock(base, base.Add(time.Millisecond))))
	l.Record("clean_column_headers", State{"rows": 2, "columns": []string{"A", "B"}}, State{"rows": 2})
	l.Record("parse_currency", State{"column": "amount"}, State{"parsed": 2, "failed": 0})

	var buf bytes.Buffer
	require.NoError(t, l.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	events, ok := decoded["events"].([]any)
	require.True(t, ok)
	require.Len(t, events, 2)

	first := events[0].(map[string]any)
	assert.Equal(t, "clean_column_headers", first["name"])
	assert.Equal(t, "2024-03-15T12:00:00.000000Z", first["timestamp_utc"])
	assert.Equal(t, []any{"A", "B"}, first["before"].(map[string]any)["columns"])

	second := events[1].(map[string]any)
	assert.Equal(t, "2024-03-15T12:00:00.001000Z", second["timestamp_utc"])

	dict := l.ToDict()
	dictEvents := dict["events"].([]any)
	assert.Equal(t, "parse_currency", dictEvents[1].(map[string]any)["name"])
}

func TestWriteJSON_FieldOrder(t *testing.T) {
	l := New()
	l.Record("x", nil, nil)

	var buf bytes.Buffer
	require.NoError(t, l.WriteJSON(&buf))
	out := buf.String()

	name := strings.Index(out, `"name"`)
	ts := strings.Index(out, `"timestamp_utc"`)
	before := strings.Index(out, `"before"`)
	after := strings.Index(out, `"after"`)
	assert.True(t, name < ts && ts < before && before < after, "unexpected field order:\n%s", out)
}

func TestWriteYAML(t *testing.T) {
	l := New(WithClock(stepClock(base)))
	l.Record("info", State{"category": "Finance"}, State{"rows": 5})

	var buf bytes.Buffer
	require.NoError(t, l.WriteYAML(&buf))

	var decoded struct {
		Events []struct {
			Name      string         `yaml:"name"`
			Timestamp string         `yaml:"timestamp_utc"`
			Before    map[string]any `yaml:"before"`
		} `yaml:"events"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Events, 1)
	assert.Equal(t, "info", decoded.Events[0].Name)
	assert.Equal(t, "2024-03-15T12:00:00.000000Z", decoded.Events[0].Timestamp)
	assert.Equal(t, "Finance", decoded.Events[0].Before["category"])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := New().Write(&bytes.Buffer{}, "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

type opaque struct {
	C  chan int
	Fn func()
}

type loud struct{}

func (loud) String() string { panic("boom") }

type named struct{ id int }

func (n named) String() string { return "named-" + strings.Repeat("x", n.id) }

func TestExport_CoercesUnserializablePayloads(t *testing.T) {
	l := New()
	l.Record("weird", State{
		"chan":     make(chan int),
		"func":     func() {},
		"struct":   opaque{C: make(chan int)},
		"panics":   loud{},
		"stringer": named{id: 3},
		"long":     named{id: 500},
		"err":      errors.New("bad thing"),
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
		"nested":   map[int][]any{1: {float32(1.5), nil}},
		"nilptr":   (*opaque)(nil),
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, l.WriteJSON(&buf))

	before := l.ToDict()["events"].([]any)[0].(map[string]any)["before"].(map[string]any)
	assert.Equal(t, "<chan int>", before["chan"])
	assert.Equal(t, "<func()>", before["func"])
	assert.IsType(t, "", before["struct"])
	assert.Equal(t, "<audit.loud>", before["panics"])
	assert.Equal(t, "named-xxx", before["stringer"])
	assert.Len(t, []rune(before["long"].(string)), 100)
	assert.Equal(t, "bad thing", before["err"])
	assert.Equal(t, "NaN", before["nan"])
	assert.Equal(t, "+Inf", before["inf"])
	assert.Equal(t, map[string]any{"1": []any{1.5, nil}}, before["nested"])
	assert.Nil(t, before["nilptr"])
}

func TestExport_SelfReferentialMap(t *testing.T) {
	loop := map[string]any{}
	loop["self"] = loop

	l := New()
	l.Record("loop", State{"m": loop}, nil)

	var buf bytes.Buffer
	assert.NoError(t, l.WriteJSON(&buf))

	twice := map[string]any{}
	twice["a"] = twice
	twice["b"] = []any{twice}
	l.Record("loop2", State{"m": twice}, nil)

	m := l.Events()[1].Before["m"].(map[string]any)
	assert.Equal(t, "<map[string]interface {}>", m["a"])
	assert.Equal(t, []any{"<map[string]interface {}>"}, m["b"])
}
