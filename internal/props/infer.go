package props

import (
	"regexp"
	"strings"

	"github.com/starford/gebo/internal/models"
)

// tagKeywords mark keys whose values are treated as select options even
// without a schema entry.
var tagKeywords = []string{
	"tag", "tags", "category", "categories", "status", "priority",
	"type", "label", "labels",
}

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T.*)?$`)
	phoneRe   = regexp.MustCompile(`^[\d\s\-+()]+$`)
)

// InferFormat guesses a format for a property the remote schema does not
// know. The priority order is fixed; the first matching rule wins. A false
// return means the key must be preserved locally instead of being sent.
func InferFormat(key string, value any) (models.PropertyFormat, bool) {
	isList := false
	switch value.(type) {
	case []any, []string:
		isList = true
	}

	// Rules 1-2: tag-like key names. A literal "tags" key is always
	// multi_select, even for scalar values.
	lower := strings.ToLower(key)
	if lower == "tags" {
		return models.FormatMultiSelect, true
	}
	for _, kw := range tagKeywords {
		if strings.Contains(lower, kw) {
			if isList {
				return models.FormatMultiSelect, true
			}
			if _, ok := value.(string); ok {
				return models.FormatSelect, true
			}
			break
		}
	}

	// Rules 3-7: string shapes.
	if s, ok := value.(string); ok {
		switch {
		case isoDateRe.MatchString(s):
			return models.FormatDate, true
		case strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"):
			return models.FormatURL, true
		case strings.Contains(s, "@") && strings.Contains(s, "."):
			return models.FormatEmail, true
		case s != "" && phoneRe.MatchString(s):
			return models.FormatPhone, true
		default:
			return models.FormatText, true
		}
	}

	// Rule 8: primitive shapes.
	switch value.(type) {
	case float64, int, int64:
		return models.FormatNumber, true
	case bool:
		return models.FormatCheckbox, true
	}
	if isList {
		return models.FormatMultiSelect, true
	}

	// Rule 9: inference fails; caller preserves the key locally.
	return "", false
}
