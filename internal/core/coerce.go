package core

// coerce.go converts string-serialized change values into cell values.
//
// Numeric coercion is tolerant: an all-digit string becomes an integer, a
// parseable decimal becomes a float, anything else is kept verbatim as text.
// Date coercion is strict: only the fixed wire format is accepted, and a
// parse failure surfaces as a CoercionError at the call site.

import (
	"strconv"
	"time"
)

// coerceNumeric converts a value destined for a numeric column.
// Returns int64, float64, or the original string when parsing fails.
func coerceNumeric(s string) any {
	if isDigits(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// isDigits reports whether s is non-empty and consists only of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseWireDate parses a date value in the fixed wire format.
func parseWireDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}
