package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToInt converts various types to int using explicit type switching.
// It handles standard integer types, floats, strings, and byte slices.
func ToInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case uint:
		return int(v)
	case uint64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(v))
		return i
	case []byte:
		i, _ := strconv.Atoi(strings.TrimSpace(string(v)))
		return i
	default:
		s := fmt.Sprintf("%v", v)
		i, _ := strconv.Atoi(s)
		return i
	}
}

// ToFloat converts various types to float64.
// Strings are trimmed and may use a comma as decimal separator ("12,5").
// Unparseable input, NaN and nil yield 0.
func ToFloat(val any) float64 {
	var f float64
	switch v := val.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case string:
		f = parseFloat(v)
	case []byte:
		f = parseFloat(string(v))
	case nil:
		return 0
	default:
		f = parseFloat(fmt.Sprintf("%v", v))
	}
	if math.IsNaN(f) {
		return 0
	}
	return f
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	// French locale spreadsheets export "12,5"
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
			return f
		}
	}
	return 0
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return FormatFloat(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatFloat renders f in its shortest decimal form without exponent (100, 12.5).
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
