package props

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/starford/gebo/internal/frontmatter"
)

func coerceNumber(raw any) (float64, bool) {
	var n float64
	switch t := raw.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func coerceBool(raw any) bool {
	switch t := raw.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true
		}
		return false
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

// coerceDate normalises a value into an ISO datetime string. Bare dates
// get a midnight UTC time appended; anything else goes through a general
// parse attempt.
func coerceDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s, true
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s + "T00:00:00.000Z", true
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"January 2, 2006",
		"Jan 2, 2006",
		"02/01/2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("2006-01-02T15:04:05.000Z"), true
		}
	}
	return "", false
}

var urlSchemes = []string{"http://", "https://", "ftp://", "mailto:"}

// coerceURL accepts schemed values as-is, auto-prepends https:// for bare
// hostnames (a dot and no spaces), and rejects everything else.
func coerceURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(s, scheme) {
			return s, true
		}
	}
	if strings.Contains(s, ".") && !strings.Contains(s, " ") {
		return "https://" + s, true
	}
	return "", false
}

// coerceList accepts a list value or a comma-separated string, trimming
// and dropping empty items.
func coerceList(raw any) []string {
	var items []string
	switch t := raw.(type) {
	case []string:
		items = t
	case []any:
		for _, it := range t {
			items = append(items, frontmatter.Coerce(it))
		}
	case string:
		items = strings.Split(t, ",")
	default:
		if s := frontmatter.Coerce(raw); s != "" {
			items = []string{s}
		}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if trimmed := strings.TrimSpace(it); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
