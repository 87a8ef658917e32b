// Package mapsafe reads typed values out of the free-form params maps of the
// model config. YAML decodes numbers as int or float64 and JSON as float64 or
// json.Number, so numeric reads accept all of them.
package mapsafe

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Get retrieves a typed value from m. A missing key, a nil map or a value
// that cannot be converted to T yields defaultValue.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}

	var out any
	switch any(defaultValue).(type) {
	case int:
		if n, ok := toInt(val); ok {
			out = n
		}
	case float64:
		if f, ok := toFloat(val); ok {
			out = f
		}
	case string:
		if s, ok := val.(string); ok {
			out = s
		}
	case bool:
		if b, ok := toBool(val); ok {
			out = b
		}
	default:
		if v, ok := val.(T); ok {
			return v
		}
	}

	if v, ok := out.(T); ok {
		return v
	}
	return defaultValue
}

// Seconds reads a number of seconds as a duration. Non-positive values yield
// defaultValue.
func Seconds(m map[string]any, key string, defaultValue time.Duration) time.Duration {
	f := Get(m, key, 0.0)
	if f <= 0 {
		return defaultValue
	}
	return time.Duration(f * float64(time.Second))
}

func toInt(val any) (int, bool) {
	switch x := val.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		if x > math.MaxInt {
			return 0, false
		}
		return int(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	case json.Number:
		n, err := x.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

func toFloat(val any) (float64, bool) {
	switch x := val.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(val any) (bool, bool) {
	switch x := val.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}
