// Package props translates between remote property records and the flat
// local metadata map.
package props

import "github.com/starford/gebo/internal/models"

// systemKeys are identity/bookkeeping keys that encode skips when
// SkipSystem is requested: they are managed by the sync layer itself.
var systemKeys = map[string]struct{}{
	"id":                 {},
	"space_id":           {},
	"type":               {},
	"type_key":           {},
	"name":               {},
	"created_date":       {},
	"last_modified_date": {},
	"created_by":         {},
	"last_modified_by":   {},
	"synced_at":          {},
}

// readOnlyKeys are computed by the remote system and always rejected on
// write, regardless of options.
var readOnlyKeys = map[string]struct{}{
	"created_date":       {},
	"last_modified_date": {},
	"created_by":         {},
	"last_modified_by":   {},
	"backlinks":          {},
	"links":              {},
	"mentions":           {},
}

// allowedFormats are the formats the encoder will emit for known schema
// entries. Values of definitions outside this set are skipped with a log.
// files and objects are writable only through a known definition: ids are
// passed through verbatim, and inference never produces either format.
var allowedFormats = map[models.PropertyFormat]struct{}{
	models.FormatText:        {},
	models.FormatNumber:      {},
	models.FormatSelect:      {},
	models.FormatMultiSelect: {},
	models.FormatDate:        {},
	models.FormatCheckbox:    {},
	models.FormatURL:         {},
	models.FormatEmail:       {},
	models.FormatPhone:       {},
	models.FormatFiles:       {},
	models.FormatObjects:     {},
}

// IsSystemKey reports whether key is a system property.
func IsSystemKey(key string) bool {
	_, ok := systemKeys[key]
	return ok
}

// IsReadOnlyKey reports whether key is remote-computed and write-rejected.
func IsReadOnlyKey(key string) bool {
	_, ok := readOnlyKeys[key]
	return ok
}
