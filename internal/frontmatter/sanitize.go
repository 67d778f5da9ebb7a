package frontmatter

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Coerce converts an arbitrary value into a safe display string. Unknown
// shapes are JSON-encoded rather than dropped.
func Coerce(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			if s := Coerce(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// SanitizeFilename strips characters that are forbidden or awkward in file
// names across platforms, collapsing them to dashes. Empty results fall
// back to "Untitled".
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == 0 || unicode.IsControl(r):
			continue
		case strings.ContainsRune(`/\<>:"|?*#^[]`, r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(strings.TrimSpace(b.String()), ".")
	if out == "" {
		return "Untitled"
	}
	return out
}
