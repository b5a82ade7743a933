// Package validate normalizes raw extraction output into clean records.
package validate

import (
	"reflect"
	"regexp"
	"strings"
)

// space is the Unicode whitespace class; RE2's \s is ASCII only
const space = `\s\p{Z}\x{85}\x{1c}-\x{1f}`

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_` + space + `@.\-]+`)
	spaceRuns   = regexp.MustCompile(`[` + space + `]+`)
)

// Validate coerces raw into a record list, cleans string fields and drops
// records with no non-empty field. Output order follows input order and raw
// is never mutated.
func Validate(raw any) []map[string]any {
	items := Coerce(raw)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		record, ok := asRecord(item)
		if !ok {
			continue
		}
		cleaned := make(map[string]any, len(record))
		for k, v := range record {
			if s, ok := v.(string); ok {
				v = CleanString(s)
			}
			cleaned[k] = v
		}
		if !allEmpty(cleaned) {
			out = append(out, cleaned)
		}
	}
	return out
}

// Coerce turns raw into a sequence. Falsy scalars become an empty
// sequence; any other non-sequence becomes a one-element sequence.
func Coerce(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	if IsEmpty(raw) && rv.Kind() != reflect.Map {
		return []any{}
	}
	return []any{raw}
}

// CleanString strips characters outside letters, digits, underscore,
// whitespace, '@', '.' and '-', then collapses whitespace and trims
func CleanString(s string) string {
	s = unsafeChars.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsEmpty reports whether v counts as an empty field value: nil, "",
// false, numeric zero, or an empty slice or map
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return x == ""
	case bool:
		return !x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func asRecord(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

func allEmpty(record map[string]any) bool {
	for _, v := range record {
		if !IsEmpty(v) {
			return false
		}
	}
	return true
}
