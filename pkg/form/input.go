package form

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInput converts raw text typed by a user into a value matching the
// field type. Blank input yields nil so required checks can report it.
func ParseInput(spec FieldSpec, raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	switch spec.Type {
	case FieldTypeInteger:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("form: %s: %q is not a whole number", spec.Name, trimmed)
		}
		return int(n), nil
	case FieldTypeNumber:
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("form: %s: %q is not a number", spec.Name, trimmed)
		}
		return n, nil
	case FieldTypeBoolean:
		b, err := strconv.ParseBool(trimmed)
		if err != nil {
			switch strings.ToLower(trimmed) {
			case "y", "yes", "on":
				return true, nil
			case "n", "no", "off":
				return false, nil
			}
			return nil, fmt.Errorf("form: %s: %q is not yes or no", spec.Name, trimmed)
		}
		return b, nil
	case FieldTypeList:
		var items []any
		for _, part := range strings.Split(trimmed, ",") {
			if item := strings.TrimSpace(part); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return raw, nil
	}
}

// FormatValue renders a value the way ParseInput reads it back.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
