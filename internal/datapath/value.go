package datapath

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// IsObject reports whether v is a non-nil mapping or struct, the only shapes a
// collection item may take.
func IsObject(v any) bool {
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return false
	}
	switch rv.Kind() {
	case reflect.Map:
		return !rv.IsNil() && rv.Type().Key().Kind() == reflect.String
	case reflect.Struct:
		return true
	}
	return false
}

// Has reports whether the object v carries a field called name, even a nil one.
func Has(v any, name string) bool {
	_, ok := Get(v, name)
	return ok
}

// Items returns the elements of an ordered sequence. Byte slices and strings
// are not sequences. A typed nil slice is an empty sequence.
func Items(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return nil, false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// Fields lists the field names of an object. Map keys are sorted so that
// repeated passes over the same item write targets in the same order; struct
// fields keep declaration order.
func Fields(v any) []string {
	if m, ok := v.(map[string]any); ok {
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}

	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return nil
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		names := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			names = append(names, k.String())
		}
		sort.Strings(names)
		return names
	case reflect.Struct:
		t := rv.Type()
		names := make([]string, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := jsonName(field)
			if name == "-" {
				continue
			}
			if name == "" {
				name = field.Name
			}
			names = append(names, name)
		}
		return names
	}
	return nil
}

// KeyString returns the string form used to compare item keys, so the number
// 1 and the string "1" name the same item.
func KeyString(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case json.Number:
		return k.String()
	case bool:
		return strconv.FormatBool(k)
	}
	if s, ok := numberString(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Stringify renders v the way it is written into text content and attributes.
func Stringify(v any) string {
	if IsNil(v) {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case fmt.Stringer:
		return s.String()
	}
	if s, ok := numberString(v); ok {
		return s
	}
	if items, ok := Items(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ",")
	}
	if IsObject(v) {
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
	}
	return fmt.Sprint(v)
}

// FormatNumber writes f in its shortest round-tripping form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		// Go pads the exponent to two digits; "1e-07" is "1e-7" elsewhere.
		s := strconv.FormatFloat(f, 'e', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy applies loose boolean coercion: nil, false, zero, NaN and "" are false.
func Truthy(v any) bool {
	if IsNil(v) {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// ToInt coerces v to an integer; anything non-numeric becomes 0.
func ToInt(v any) int {
	var f float64
	switch n := v.(type) {
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		parsed, ok := toFloat(v)
		if !ok {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// numberString formats integer kinds exactly and floats via FormatNumber.
func numberString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	}
	if f, ok := toFloat(v); ok {
		return FormatNumber(f), true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
