// Package input provides type-safe helpers for reading values out of
// validated parameter maps.
//
// Core-logic callbacks and fallback actions receive their parameters as
// map[string]any. Depending on where the map came from (YAML config, JSON,
// literal Go code) numbers may arrive as int, int64, or float64, and
// durations as strings. These helpers coerce across those representations
// and fall back to a caller-supplied default instead of panicking.
package input

import (
	"strconv"
	"time"
)

// String returns the string at key, or def when absent or not a string.
func String(m map[string]any, key, def string) string {
	if m == nil {
		return def
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return def
}

// Int returns the integer at key, coercing from int64, float64, and
// numeric strings. Returns def when absent or not convertible.
func Int(m map[string]any, key string, def int) int {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Float returns the float64 at key, coercing from integer types and
// numeric strings. Returns def when absent or not convertible.
func Float(m map[string]any, key string, def float64) float64 {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the bool at key, or def when absent or not a bool.
func Bool(m map[string]any, key string, def bool) bool {
	if m == nil {
		return def
	}
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

// Duration returns the duration at key. Accepts time.Duration values,
// strings in time.ParseDuration syntax, and numbers interpreted as
// seconds. Returns def when absent or not convertible.
func Duration(m map[string]any, key string, def time.Duration) time.Duration {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return def
}

// StringSlice returns the []string at key. A []any is converted element by
// element, skipping non-strings; a bare string becomes a one-element slice.
// Returns nil when absent or not convertible.
func StringSlice(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// Map returns the nested map at key, or nil when absent or not a map.
func Map(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if nested, ok := m[key].(map[string]any); ok {
		return nested
	}
	return nil
}
