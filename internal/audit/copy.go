package audit

import (
	"reflect"
	"time"
)

// copyState returns a deep copy of s. Maps, slices and arrays are copied at
// every level so a caller holding the original cannot reach a stored event.
// Structs and pointers are kept as they are.
func copyState(s State) State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) (out any) {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time, time.Duration:
		return v
	}

	defer func() {
		if r := recover(); r != nil {
			out = v
		}
	}()

	c := copier{active: map[uintptr]bool{}}
	return c.copy(reflect.ValueOf(v), 0).Interface()
}

// copier tracks the maps and slices on the current path so a value that
// contains itself is cut instead of followed.
type copier struct {
	active map[uintptr]bool
}

func (c copier) copy(rv reflect.Value, depth int) reflect.Value {
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		if depth > maxDepth {
			return reflect.Zero(rv.Type())
		}
		id := rv.Pointer()
		c.active[id] = true
		defer delete(c.active, id)

		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(c.copy(iter.Key(), depth+1), c.copy(iter.Value(), depth+1))
		}
		return out

	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		if depth > maxDepth {
			return reflect.Zero(rv.Type())
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		if flat(rv.Type().Elem()) {
			reflect.Copy(out, rv)
			return out
		}
		id := rv.Pointer()
		c.active[id] = true
		defer delete(c.active, id)

		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(c.copy(rv.Index(i), depth+1))
		}
		return out

	case reflect.Array:
		if flat(rv.Type().Elem()) {
			return rv
		}
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(c.copy(rv.Index(i), depth+1))
		}
		return out

	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		elem := rv.Elem()
		out := reflect.New(rv.Type()).Elem()
		if c.cyclic(elem) {
			marker := reflect.ValueOf(typeName(elem.Interface()))
			if marker.Type().AssignableTo(rv.Type()) {
				out.Set(marker)
			}
			return out
		}
		out.Set(c.copy(elem, depth))
		return out
	}
	return rv
}

func (c copier) cyclic(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return !rv.IsNil() && c.active[rv.Pointer()]
	}
	return false
}

// flat reports whether values of t hold no maps, slices or interfaces that
// copy would need to follow.
func flat(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Struct, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return flat(t.Elem())
	}
	return false
}
