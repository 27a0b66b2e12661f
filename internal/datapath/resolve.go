// Package datapath resolves dotted paths against plain data objects.
//
// Data is JSON-shaped (map[string]any, []any, scalars) or ordinary Go values:
// structs are addressed by their json tag name, falling back to the field name,
// and slices by decimal index.
package datapath

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var pathPattern = regexp.MustCompile(`^\.?[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// blockedSegments can never be traversed, whatever the data looks like.
var blockedSegments = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// IsValid reports whether p is a syntactically valid directive path.
func IsValid(p string) bool {
	return pathPattern.MatchString(p)
}

// IsLocal reports whether p is scoped to the current list item.
func IsLocal(p string) bool {
	return strings.HasPrefix(p, ".")
}

// Resolve walks data along path. The boolean result is false when the path is
// undefined: a missing field, an absent intermediate object or a blocked segment.
// A present field holding nil resolves to (nil, true).
func Resolve(data any, path string) (any, bool) {
	current := data
	for _, part := range strings.Split(path, ".") {
		if IsNil(current) {
			return nil, false
		}
		if _, blocked := blockedSegments[part]; blocked {
			return nil, false
		}
		next, ok := Get(current, part)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Get performs a single plain field lookup on v.
func Get(v any, name string) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		val, exists := m[name]
		return val, exists
	}

	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return nil, false
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Struct:
		idx, ok := structField(rv.Type(), name)
		if !ok {
			return nil, false
		}
		return rv.Field(idx).Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

// structField finds the exported field addressed by name, preferring json tags.
func structField(t reflect.Type, name string) (int, bool) {
	fallback := -1
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := jsonName(field)
		if tagName == "-" {
			continue
		}
		if tagName == name {
			return i, true
		}
		if tagName == "" && field.Name == name && fallback < 0 {
			fallback = i
		}
	}
	return fallback, fallback >= 0
}

// jsonName extracts the name part of a json struct tag.
func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return ""
	}
	if commaIdx := strings.Index(tag, ","); commaIdx >= 0 {
		tag = tag[:commaIdx]
	}
	return tag
}

// indirect follows pointers and interfaces. It returns false for nil.
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// IsNil reports whether v is nil or a nil pointer, map, slice or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
