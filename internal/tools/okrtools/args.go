package okrtools

import (
	"fmt"

	"github.com/jaakkos/okrboard/internal/okr"
)

// requireString extracts a non-empty string from args by key.
func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// optionalString extracts a string from args by key, or "" when absent.
func optionalString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// stringOrNumber extracts a value that callers may send either as a string
// ("45,5%") or as a JSON number. Numbers are rendered in the sheet's locale.
func stringOrNumber(args map[string]any, key string) (string, error) {
	switch v := args[key].(type) {
	case nil:
		return "", fmt.Errorf("%s is required", key)
	case string:
		if v == "" {
			return "", fmt.Errorf("%s is required", key)
		}
		return v, nil
	case float64:
		return okr.SheetValue(v, okr.FormatPlain), nil
	default:
		return "", fmt.Errorf("%s must be a string or number, got %T", key, v)
	}
}

// optionalFloat64 extracts a float64 from args by key, returning the fallback if not present.
func optionalFloat64(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}
