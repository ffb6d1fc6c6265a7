package record

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// FieldPath is a dotted address of a leaf value in the record,
// e.g. "origin.contactInfo.email".
type FieldPath string

// Segments splits the path into its keys.
func (p FieldPath) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), ".")
}

// String returns the path as a plain string.
func (p FieldPath) String() string {
	return string(p)
}

// ErrPathNotFound indicates a path names a field the record does not have.
var ErrPathNotFound = errors.New("field path not found")

// PathError describes an unresolvable path segment.
type PathError struct {
	Path       FieldPath
	Segment    string
	Suggestion string
}

// Error returns the error message.
func (e *PathError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("field path %q: unknown key %q. %s", e.Path, e.Segment, e.Suggestion)
	}
	return fmt.Sprintf("field path %q: unknown key %q", e.Path, e.Segment)
}

// Unwrap returns ErrPathNotFound so callers can use errors.Is.
func (e *PathError) Unwrap() error {
	return ErrPathNotFound
}

// Resolve walks root along path. Structs are matched by json tag (falling back
// to a case-insensitive field name), maps by string key. A nil pointer, nil
// interface or missing map key anywhere along the way resolves to nil without
// error. A struct segment that matches no field returns a *PathError.
func Resolve(root any, path FieldPath) (any, error) {
	segments := path.Segments()
	if len(segments) == 0 {
		return nil, &PathError{Path: path}
	}

	v := reflect.ValueOf(root)
	for _, seg := range segments {
		v = indirect(v)
		if !v.IsValid() {
			return nil, nil
		}

		switch v.Kind() {
		case reflect.Struct:
			f, ok := fieldByKey(v, seg)
			if !ok {
				return nil, &PathError{Path: path, Segment: seg, Suggestion: suggest(seg, structKeys(v.Type()))}
			}
			v = f

		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return nil, &PathError{Path: path, Segment: seg}
			}
			mv := v.MapIndex(reflect.ValueOf(seg).Convert(v.Type().Key()))
			if !mv.IsValid() {
				return nil, nil
			}
			v = mv

		default:
			return nil, &PathError{Path: path, Segment: seg}
		}
	}

	v = indirect(v)
	if !v.IsValid() || !v.CanInterface() {
		return nil, nil
	}
	return v.Interface(), nil
}

// KnownPaths lists every leaf path of a Shipment in declaration order.
func KnownPaths() []FieldPath {
	knownOnce.Do(func() {
		collectPaths(reflect.TypeOf(Shipment{}), "", &knownPaths)
	})
	out := make([]FieldPath, len(knownPaths))
	copy(out, knownPaths)
	return out
}

// ValidatePath checks that path names a leaf of Shipment.
func ValidatePath(path FieldPath) error {
	_, err := Resolve(&Shipment{}, path)
	if err != nil {
		return err
	}
	for _, p := range KnownPaths() {
		if p == path {
			return nil
		}
	}
	// Resolved to an interior node such as "origin.contactInfo".
	return &PathError{Path: path, Segment: string(path), Suggestion: suggest(string(path), pathStrings(KnownPaths()))}
}

// ParseValue converts raw text into the Go type of the Shipment field at path,
// so values typed into a form or passed on a command line can be validated
// like decoded records.
func ParseValue(path FieldPath, raw string) (any, error) {
	t, err := leafType(path)
	if err != nil {
		return nil, err
	}

	switch t.Kind() {
	case reflect.String:
		return raw, nil
	case reflect.Float64, reflect.Float32:
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("field %s expects a number: %w", path, err)
		}
		return f, nil
	case reflect.Slice:
		if strings.TrimSpace(raw) == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("field %s has unsupported type %s", path, t)
	}
}

var (
	knownOnce  sync.Once
	knownPaths []FieldPath
)

func leafType(path FieldPath) (reflect.Type, error) {
	t := reflect.TypeOf(Shipment{})
	for _, seg := range path.Segments() {
		if t.Kind() != reflect.Struct {
			return nil, &PathError{Path: path, Segment: seg}
		}
		sf, ok := structFieldByKey(t, seg)
		if !ok {
			return nil, &PathError{Path: path, Segment: seg, Suggestion: suggest(seg, structKeys(t))}
		}
		t = sf.Type
	}
	return t, nil
}

func collectPaths(t reflect.Type, prefix string, out *[]FieldPath) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := prefix + jsonKey(sf)
		if sf.Type.Kind() == reflect.Struct {
			collectPaths(sf.Type, name+".", out)
			continue
		}
		*out = append(*out, FieldPath(name))
	}
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func fieldByKey(v reflect.Value, key string) (reflect.Value, bool) {
	sf, ok := structFieldByKey(v.Type(), key)
	if !ok {
		return reflect.Value{}, false
	}
	return v.FieldByIndex(sf.Index), true
}

func structFieldByKey(t reflect.Type, key string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.IsExported() && jsonKey(sf) == key {
			return sf, true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.IsExported() && strings.EqualFold(sf.Name, key) {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

func jsonKey(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return name
	}
	return sf.Name
}

func structKeys(t reflect.Type) []string {
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if sf := t.Field(i); sf.IsExported() {
			keys = append(keys, jsonKey(sf))
		}
	}
	return keys
}

func pathStrings(paths []FieldPath) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = string(p)
	}
	return out
}

// suggest returns a "Did you mean" hint for the closest candidate.
func suggest(unknown string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(unknown), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}

	if bestDist <= 3 {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	return fmt.Sprintf("Valid keys: %s", strings.Join(sorted, ", "))
}
