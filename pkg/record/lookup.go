package record

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Lookup reads values out of a record by path. Implementations must not mutate
// the record and must return nil for values that have not been entered.
type Lookup interface {
	Value(path FieldPath) any
}

// MapLookup adapts a decoded JSON/YAML document (nested map[string]any) to Lookup.
type MapLookup map[string]any

// Value resolves path against the map.
func (m MapLookup) Value(path FieldPath) any {
	v, err := Resolve(map[string]any(m), path)
	if err != nil {
		return nil
	}
	return v
}

type overlay struct {
	base  Lookup
	path  FieldPath
	value any
}

// Overlay returns a Lookup that reports value for path and defers every other
// path to base. The base record is not modified.
func Overlay(base Lookup, path FieldPath, value any) Lookup {
	return overlay{base: base, path: path, value: value}
}

// Value implements Lookup.
func (o overlay) Value(path FieldPath) any {
	if path == o.path {
		return o.value
	}
	if o.base == nil {
		return nil
	}
	return o.base.Value(path)
}

// IsEmpty reports whether v counts as "not filled in": nil, a blank string,
// or an empty slice or map.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// AsFloat returns v as a float64 when it holds a Go number or json.Number.
// Numeric strings are not numbers here; callers that accept typed text convert
// it first with ParseValue.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// AsString returns v as a trimmed string when it holds one.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// AsStrings returns v as a string slice, accepting []string and []any of strings.
func AsStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
