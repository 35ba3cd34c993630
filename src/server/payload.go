package server

import "strconv"

// -----------------------------------------------------------------------------
// Tolerant extraction helpers for the EA payload. The agent is loose about
// JSON types (numeric logins, quoted balances), so each field is pulled out
// of the generic body and coerced.
// -----------------------------------------------------------------------------

func safeString(data map[string]any, key string) string {
	val, ok := data[key]
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// -----------------------------------------------------------------------------

func safeStringPtr(data map[string]any, key string) *string {
	s := safeString(data, key)
	if s == "" {
		return nil
	}
	return &s
}

// -----------------------------------------------------------------------------

func safeFloatPtr(data map[string]any, key string) *float64 {
	val, ok := data[key]
	if !ok || val == nil {
		return nil
	}
	switch v := val.(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// safePositions returns the positions list, or an empty one when the field
// is absent or not a proper sequence.
func safePositions(data map[string]any, key string) []any {
	if val, ok := data[key]; ok {
		if list, ok := val.([]any); ok {
			return list
		}
	}
	return []any{}
}
