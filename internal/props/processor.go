package props

import (
	"log/slog"
	"strings"

	"github.com/starford/gebo/internal/frontmatter"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/tags"
)

// Processor is the translation engine between wire property values and the
// flat local metadata map.
type Processor struct {
	tags   *tags.Resolver
	logger *slog.Logger
}

// NewProcessor creates a processor sharing the orchestrator's tag resolver.
func NewProcessor(tagResolver *tags.Resolver, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{tags: tagResolver, logger: logger}
}

// Decode extracts display values from wire property records into a flat
// map. Definitions, when supplied, drive branch selection by declared
// format; without them the populated branch is detected by presence. Keys
// with no populated branch are omitted, never emitted as explicit nulls.
func (p *Processor) Decode(values []models.PropertyValue, defs []models.PropertyDefinition) map[string]any {
	byKey := make(map[string]models.PropertyDefinition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}

	out := make(map[string]any, len(values))
	for _, v := range values {
		format := v.Format
		def, known := byKey[v.Key]
		if known && def.Format != "" {
			format = def.Format
		}
		if format == "" {
			f, ok := v.PresentFormat()
			if !ok {
				continue
			}
			format = f
		}

		decoded, ok := p.decodeOne(v, format, def)
		if ok {
			out[v.Key] = decoded
		}
	}
	return out
}

func (p *Processor) decodeOne(v models.PropertyValue, format models.PropertyFormat, def models.PropertyDefinition) (any, bool) {
	switch format {
	case models.FormatText:
		if v.Text != nil {
			return *v.Text, true
		}
	case models.FormatNumber:
		if v.Number != nil {
			return *v.Number, true
		}
	case models.FormatCheckbox:
		if v.Checkbox != nil {
			return *v.Checkbox, true
		}
	case models.FormatDate:
		if v.Date != nil {
			return *v.Date, true
		}
	case models.FormatURL:
		if v.URL != nil {
			return *v.URL, true
		}
	case models.FormatEmail:
		if v.Email != nil {
			return *v.Email, true
		}
	case models.FormatPhone:
		if v.Phone != nil {
			return *v.Phone, true
		}
	case models.FormatSelect:
		if v.Select != nil {
			return p.decodeTagRef(*v.Select, def.ID), true
		}
	case models.FormatMultiSelect:
		if len(v.MultiSelect) > 0 {
			out := make([]any, 0, len(v.MultiSelect))
			for _, ref := range v.MultiSelect {
				if name := p.decodeTagRef(ref, def.ID); name != "" {
					out = append(out, name)
				}
			}
			if len(out) == 0 {
				return nil, false
			}
			return out, true
		}
	case models.FormatFiles:
		if len(v.Files) > 0 {
			return toAnySlice(v.Files), true
		}
	case models.FormatObjects:
		// Object ids pass through here; resolving them to local titles
		// needs network round-trips and happens in the sync layer.
		if len(v.Objects) > 0 {
			return toAnySlice(v.Objects), true
		}
	}
	return nil, false
}

// decodeTagRef prefers the inline name, then a cached id-to-name lookup,
// then the raw id.
func (p *Processor) decodeTagRef(ref models.TagRef, propertyID string) string {
	if ref.Name != "" {
		return ref.Name
	}
	if propertyID != "" && p.tags.IsCached(propertyID) {
		if name, ok := p.tags.IDToName(propertyID, ref.ID); ok {
			return name
		}
	}
	return ref.ID
}

// EncodeOptions controls encode-side filtering.
type EncodeOptions struct {
	SkipSystem bool
}

// EncodeResult carries the formatted wire values plus the keys that were
// preserved locally because the remote schema cannot represent them. The
// preserved set is surfaced for user-visible reporting; it never fails the
// encode call.
type EncodeResult struct {
	Values    []models.PropertyValue
	Preserved []string
}

// Encode validates and formats a flat local map into wire property
// records. Read-only keys are always rejected; unknown keys go through
// format inference and fall back to local preservation when inference
// fails. Unencodable values are skipped with a log, never raised.
func (p *Processor) Encode(local map[string]any, defs []models.PropertyDefinition, opts EncodeOptions) EncodeResult {
	byKey := make(map[string]models.PropertyDefinition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}

	var res EncodeResult
	for key, raw := range local {
		if raw == nil {
			continue
		}
		if opts.SkipSystem && IsSystemKey(key) {
			continue
		}
		if IsReadOnlyKey(key) {
			continue
		}

		def, known := byKey[key]
		if known {
			if _, allowed := allowedFormats[def.Format]; !allowed {
				p.logger.Debug("props: format not writable, skipping",
					slog.String("key", key), slog.String("format", string(def.Format)))
				continue
			}
			if v, ok := p.formatValue(key, raw, def.Format, def.ID); ok {
				res.Values = append(res.Values, v)
			}
			continue
		}

		format, ok := InferFormat(key, raw)
		if !ok {
			res.Preserved = append(res.Preserved, key)
			continue
		}
		if v, ok := p.formatValue(key, raw, format, ""); ok {
			res.Values = append(res.Values, v)
		}
	}

	if len(res.Preserved) > 0 {
		p.logger.Info("props: keys preserved locally",
			slog.Int("count", len(res.Preserved)))
	}
	return res
}

// formatValue applies the per-format encode rules. A false return means
// the value was rejected (and logged); rejection is never an error.
func (p *Processor) formatValue(key string, raw any, format models.PropertyFormat, propertyID string) (models.PropertyValue, bool) {
	v := models.PropertyValue{Key: key, Format: format}

	str := frontmatter.Coerce(raw)
	isListFormat := format == models.FormatMultiSelect ||
		format == models.FormatFiles || format == models.FormatObjects
	if str == "" && !isListFormat {
		return v, false
	}

	switch format {
	case models.FormatText:
		v.Text = &str
		return v, true

	case models.FormatNumber:
		n, ok := coerceNumber(raw)
		if !ok {
			p.logger.Debug("props: not a finite number", slog.String("key", key))
			return v, false
		}
		v.Number = &n
		return v, true

	case models.FormatCheckbox:
		b := coerceBool(raw)
		v.Checkbox = &b
		return v, true

	case models.FormatDate:
		d, ok := coerceDate(str)
		if !ok {
			p.logger.Debug("props: unparseable date", slog.String("key", key))
			return v, false
		}
		v.Date = &d
		return v, true

	case models.FormatURL:
		u, ok := coerceURL(str)
		if !ok {
			p.logger.Debug("props: not a URL", slog.String("key", key))
			return v, false
		}
		v.URL = &u
		return v, true

	case models.FormatEmail:
		if !strings.Contains(str, "@") || !strings.Contains(str, ".") {
			p.logger.Debug("props: not an email", slog.String("key", key))
			return v, false
		}
		v.Email = &str
		return v, true

	case models.FormatPhone:
		trimmed := strings.TrimSpace(str)
		v.Phone = &trimmed
		return v, true

	case models.FormatSelect:
		name := strings.TrimSpace(str)
		if name == "" {
			return v, false
		}
		v.Select = p.encodeTagRef(propertyID, name)
		return v, true

	case models.FormatMultiSelect:
		items := coerceList(raw)
		if len(items) == 0 {
			return v, false
		}
		refs := make([]models.TagRef, 0, len(items))
		for _, it := range items {
			refs = append(refs, *p.encodeTagRef(propertyID, it))
		}
		v.MultiSelect = refs
		return v, true

	case models.FormatFiles:
		items := coerceList(raw)
		if len(items) == 0 {
			return v, false
		}
		v.Files = items
		return v, true

	case models.FormatObjects:
		items := coerceList(raw)
		if len(items) == 0 {
			return v, false
		}
		v.Objects = items
		return v, true
	}
	return v, false
}

// encodeTagRef resolves a tag name to its id when the property's options
// are cached; otherwise the trimmed name is sent verbatim and the remote
// side may auto-create a matching option. Best-effort by design.
func (p *Processor) encodeTagRef(propertyID, name string) *models.TagRef {
	name = strings.TrimSpace(name)
	if propertyID != "" && p.tags.IsCached(propertyID) {
		if id, ok := p.tags.NameToID(propertyID, name); ok {
			return &models.TagRef{ID: id}
		}
	}
	return &models.TagRef{Name: name}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
