package pgx

import "strings"

// sanitizeText drops NUL bytes and invalid UTF-8, neither of which
// PostgreSQL accepts in text or jsonb values.
func sanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// sanitizeParams returns a copy of params with every string, including those
// nested in property maps, passed through sanitizeText.
func sanitizeParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch x := v.(type) {
	case string:
		return sanitizeText(x)
	case map[string]any:
		return sanitizeParams(x)
	case []string:
		out := make([]string, len(x))
		for i, s := range x {
			out[i] = sanitizeText(s)
		}
		return out
	default:
		return v
	}
}
