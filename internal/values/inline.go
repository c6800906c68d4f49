package values

import (
	"fmt"
	"strings"
)

// ParseInline turns assignments of the form "a.b.c=value" into one nested
// mapping. Values are kept as strings; later assignments win.
func ParseInline(exprs []string) (map[string]any, error) {
	result := make(map[string]any)
	for _, expr := range exprs {
		assignment, err := parseAssignment(expr)
		if err != nil {
			return nil, err
		}
		result = DeepMerge(result, assignment)
	}
	return result, nil
}

func parseAssignment(expr string) (map[string]any, error) {
	deepKey, value, found := strings.Cut(expr, "=")
	if !found || deepKey == "" || value == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedInline, expr)
	}

	parts := strings.Split(deepKey, ".")
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: %q has an empty key segment", ErrMalformedInline, expr)
		}
	}

	var node any = value
	for i := len(parts) - 1; i >= 0; i-- {
		node = map[string]any{parts[i]: node}
	}
	return node.(map[string]any), nil
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
