// Package payload contains small helpers for reading the loosely typed
// request maps the agents exchange. Values arrive either from JSON decoding
// (numbers are float64) or from in-process callers (native Go types), so
// every accessor tolerates both.
package payload

import (
	"encoding/json"
	"strconv"
)

// String returns the string value for a key, or "" when missing or not a
// string.
func String(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// StringOr returns the string value for a key, or the fallback.
func StringOr(m map[string]interface{}, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Float returns the numeric value for a key.
func Float(m map[string]interface{}, key string) (float64, bool) {
	return AsFloat(m[key])
}

// FloatOr returns the numeric value for a key, or the fallback.
func FloatOr(m map[string]interface{}, key string, fallback float64) float64 {
	if f, ok := AsFloat(m[key]); ok {
		return f
	}
	return fallback
}

// Int returns the integer value for a key.
func Int(m map[string]interface{}, key string) (int, bool) {
	f, ok := AsFloat(m[key])
	if !ok {
		return 0, false
	}
	return int(f), true
}

// IntOr returns the integer value for a key, or the fallback.
func IntOr(m map[string]interface{}, key string, fallback int) int {
	if n, ok := Int(m, key); ok {
		return n
	}
	return fallback
}

// Map returns the nested map for a key, or nil.
func Map(m map[string]interface{}, key string) map[string]interface{} {
	nested, _ := m[key].(map[string]interface{})
	return nested
}

// AsFloat coerces the numeric representations that survive JSON decoding.
func AsFloat(v interface{}) (float64, bool) {
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
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Success wraps data in the conventional success envelope.
func Success(data interface{}) map[string]interface{} {
	return map[string]interface{}{"status": "success", "data": data}
}

// Error wraps a message in the conventional error envelope. Error-shaped
// results are ordinary results: the orchestrator completes the task and the
// caller inspects the status.
func Error(message string) map[string]interface{} {
	return map[string]interface{}{"status": "error", "message": message}
}
