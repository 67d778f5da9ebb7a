package props

import (
	"reflect"
	"testing"

	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/tags"
)

func testProcessor() (*Processor, *tags.Resolver) {
	tr := tags.NewResolver(nil)
	return NewProcessor(tr, nil), tr
}

func strp(s string) *string   { return &s }
func nump(n float64) *float64 { return &n }
func boolp(b bool) *bool      { return &b }

func valueByKey(t *testing.T, values []models.PropertyValue, key string) models.PropertyValue {
	t.Helper()
	for _, v := range values {
		if v.Key == key {
			return v
		}
	}
	t.Fatalf("no value for key %q in %v", key, values)
	return models.PropertyValue{}
}

func TestDecode_ScalarBranches(t *testing.T) {
	p, _ := testProcessor()
	values := []models.PropertyValue{
		{Key: "title", Format: models.FormatText, Text: strp("hello")},
		{Key: "count", Format: models.FormatNumber, Number: nump(3)},
		{Key: "done", Format: models.FormatCheckbox, Checkbox: boolp(true)},
		{Key: "due", Format: models.FormatDate, Date: strp("2024-01-01T00:00:00.000Z")},
		{Key: "empty", Format: models.FormatText},
	}
	got := p.Decode(values, nil)
	if got["title"] != "hello" || got["count"] != 3.0 || got["done"] != true {
		t.Errorf("decoded = %v", got)
	}
	if _, ok := got["empty"]; ok {
		t.Error("unpopulated branch must be omitted, not emitted as nil")
	}
}

func TestDecode_FormatDrivenByDefinition(t *testing.T) {
	p, _ := testProcessor()
	// Wire format says text but the schema says number: the declared
	// format wins and the empty number branch drops the key.
	values := []models.PropertyValue{
		{Key: "count", Format: models.FormatText, Text: strp("oops")},
	}
	defs := []models.PropertyDefinition{
		{ID: "p1", Key: "count", Format: models.FormatNumber},
	}
	got := p.Decode(values, defs)
	if _, ok := got["count"]; ok {
		t.Errorf("schema-driven decode should not read the text branch: %v", got)
	}
}

func TestDecode_PresenceFallbackWithoutSchema(t *testing.T) {
	p, _ := testProcessor()
	values := []models.PropertyValue{
		{Key: "mystery", Checkbox: boolp(true)},
	}
	got := p.Decode(values, nil)
	if got["mystery"] != true {
		t.Errorf("presence-scan fallback failed: %v", got)
	}
}

func TestDecode_SelectPrefersInlineName(t *testing.T) {
	p, tr := testProcessor()
	tr.SetTags("p1", []models.Tag{{ID: "t1", Name: "Cached Name"}})
	defs := []models.PropertyDefinition{{ID: "p1", Key: "status", Format: models.FormatSelect}}

	inline := []models.PropertyValue{
		{Key: "status", Select: &models.TagRef{ID: "t1", Name: "Inline"}},
	}
	if got := p.Decode(inline, defs); got["status"] != "Inline" {
		t.Errorf("inline name must win: %v", got)
	}

	cached := []models.PropertyValue{
		{Key: "status", Select: &models.TagRef{ID: "t1"}},
	}
	if got := p.Decode(cached, defs); got["status"] != "Cached Name" {
		t.Errorf("cached resolution expected: %v", got)
	}

	raw := []models.PropertyValue{
		{Key: "status", Select: &models.TagRef{ID: "t-unknown"}},
	}
	if got := p.Decode(raw, defs); got["status"] != "t-unknown" {
		t.Errorf("raw id fallback expected: %v", got)
	}
}

func TestDecode_MultiSelectFiltersEmpty(t *testing.T) {
	p, tr := testProcessor()
	tr.SetTags("p1", []models.Tag{{ID: "t1", Name: "One"}})
	defs := []models.PropertyDefinition{{ID: "p1", Key: "tags", Format: models.FormatMultiSelect}}
	values := []models.PropertyValue{
		{Key: "tags", MultiSelect: []models.TagRef{{ID: "t1"}, {ID: "t2", Name: "Two"}}},
	}
	got := p.Decode(values, defs)
	want := []any{"One", "Two"}
	if !reflect.DeepEqual(got["tags"], want) {
		t.Errorf("tags = %v, want %v", got["tags"], want)
	}
}

func TestDecode_ObjectIDsPassThrough(t *testing.T) {
	p, _ := testProcessor()
	defs := []models.PropertyDefinition{{ID: "p1", Key: "related", Format: models.FormatObjects}}
	values := []models.PropertyValue{
		{Key: "related", Objects: []string{"obj-1", "obj-2"}},
	}
	got := p.Decode(values, defs)
	want := []any{"obj-1", "obj-2"}
	if !reflect.DeepEqual(got["related"], want) {
		t.Errorf("related = %v", got["related"])
	}
}

func TestEncode_SkipsSystemAndReadOnly(t *testing.T) {
	p, _ := testProcessor()
	local := map[string]any{
		"id":           "obj-1",
		"created_date": "2024-01-01",
		"backlinks":    []any{"x"},
		"note":         "keep me",
	}
	res := p.Encode(local, nil, EncodeOptions{SkipSystem: true})
	if len(res.Values) != 1 || res.Values[0].Key != "note" {
		t.Errorf("values = %v", res.Values)
	}
	// Read-only keys are rejected even without SkipSystem.
	res = p.Encode(map[string]any{"backlinks": "x"}, nil, EncodeOptions{})
	if len(res.Values) != 0 {
		t.Errorf("read-only key encoded: %v", res.Values)
	}
}

func TestEncode_KnownDefinitionFormats(t *testing.T) {
	p, _ := testProcessor()
	defs := []models.PropertyDefinition{
		{ID: "p1", Key: "count", Format: models.FormatNumber},
		{ID: "p2", Key: "done", Format: models.FormatCheckbox},
		{ID: "p3", Key: "attachments", Format: models.FormatFiles},
	}
	local := map[string]any{
		"count":       "12.5",
		"done":        "yes",
		"attachments": "f1, f2",
	}
	res := p.Encode(local, defs, EncodeOptions{})
	if v := valueByKey(t, res.Values, "count"); v.Number == nil || *v.Number != 12.5 {
		t.Errorf("count = %v", v.Number)
	}
	if v := valueByKey(t, res.Values, "done"); v.Checkbox == nil || !*v.Checkbox {
		t.Errorf("done = %v", v.Checkbox)
	}
	if v := valueByKey(t, res.Values, "attachments"); !reflect.DeepEqual(v.Files, []string{"f1", "f2"}) {
		t.Errorf("attachments = %v", v.Files)
	}
}

func TestEncode_RejectsBadValues(t *testing.T) {
	p, _ := testProcessor()
	defs := []models.PropertyDefinition{
		{ID: "p1", Key: "count", Format: models.FormatNumber},
		{ID: "p2", Key: "due", Format: models.FormatDate},
		{ID: "p3", Key: "site", Format: models.FormatURL},
		{ID: "p4", Key: "mail", Format: models.FormatEmail},
	}
	local := map[string]any{
		"count": "not-a-number",
		"due":   "someday soon",
		"site":  "no spaces allowed here",
		"mail":  "not-an-email",
	}
	res := p.Encode(local, defs, EncodeOptions{})
	if len(res.Values) != 0 {
		t.Errorf("invalid values must be skipped, got %v", res.Values)
	}
	if len(res.Preserved) != 0 {
		t.Errorf("known keys are never preserved, got %v", res.Preserved)
	}
}

func TestEncode_URLAutoPrefix(t *testing.T) {
	p, _ := testProcessor()
	defs := []models.PropertyDefinition{{ID: "p1", Key: "site", Format: models.FormatURL}}
	res := p.Encode(map[string]any{"site": "example.com"}, defs, EncodeOptions{})
	v := valueByKey(t, res.Values, "site")
	if v.URL == nil || *v.URL != "https://example.com" {
		t.Errorf("site = %v", v.URL)
	}
}

func TestEncode_DateNormalisation(t *testing.T) {
	p, _ := testProcessor()
	defs := []models.PropertyDefinition{{ID: "p1", Key: "due", Format: models.FormatDate}}
	res := p.Encode(map[string]any{"due": "2024-01-01"}, defs, EncodeOptions{})
	v := valueByKey(t, res.Values, "due")
	if v.Date == nil || *v.Date != "2024-01-01T00:00:00.000Z" {
		t.Errorf("due = %v", v.Date)
	}
}

func TestEncode_SelectTagResolution(t *testing.T) {
	p, tr := testProcessor()
	defs := []models.PropertyDefinition{{ID: "p1", Key: "status", Format: models.FormatSelect}}

	// Cache cold: the trimmed name goes out verbatim. Whether the remote
	// side auto-creates a matching option is an external-system
	// assumption this core does not verify.
	res := p.Encode(map[string]any{"status": " Open "}, defs, EncodeOptions{})
	v := valueByKey(t, res.Values, "status")
	if v.Select == nil || v.Select.Name != "Open" || v.Select.ID != "" {
		t.Errorf("cold-cache select = %+v", v.Select)
	}

	// Cache warm: the name resolves to an id.
	tr.SetTags("p1", []models.Tag{{ID: "t1", Name: "Open"}})
	res = p.Encode(map[string]any{"status": "open"}, defs, EncodeOptions{})
	v = valueByKey(t, res.Values, "status")
	if v.Select == nil || v.Select.ID != "t1" {
		t.Errorf("warm-cache select = %+v", v.Select)
	}
}

func TestEncode_MultiSelectMixesResolvedAndUnresolved(t *testing.T) {
	p, tr := testProcessor()
	tr.SetTags("p1", []models.Tag{{ID: "t1", Name: "Known"}})
	defs := []models.PropertyDefinition{{ID: "p1", Key: "tags", Format: models.FormatMultiSelect}}

	res := p.Encode(map[string]any{"tags": []any{"Known", "Brand New"}}, defs, EncodeOptions{})
	v := valueByKey(t, res.Values, "tags")
	if len(v.MultiSelect) != 2 {
		t.Fatalf("multi_select = %v", v.MultiSelect)
	}
	if v.MultiSelect[0].ID != "t1" || v.MultiSelect[1].Name != "Brand New" {
		t.Errorf("mixed resolution wrong: %+v", v.MultiSelect)
	}
}

func TestEncode_UnknownKeyInference(t *testing.T) {
	p, _ := testProcessor()
	local := map[string]any{
		"tags":     []any{"a", "b"},
		"due":      "2024-01-01",
		"homepage": "example.com",
		"note":     42.0,
	}
	res := p.Encode(local, nil, EncodeOptions{})
	if v := valueByKey(t, res.Values, "tags"); v.Format != models.FormatMultiSelect {
		t.Errorf("tags format = %q", v.Format)
	}
	if v := valueByKey(t, res.Values, "due"); v.Format != models.FormatDate {
		t.Errorf("due format = %q", v.Format)
	}
	if v := valueByKey(t, res.Values, "homepage"); v.URL == nil || *v.URL != "https://example.com" {
		t.Errorf("homepage = %v", v.URL)
	}
	if v := valueByKey(t, res.Values, "note"); v.Format != models.FormatNumber {
		t.Errorf("note format = %q", v.Format)
	}
}

func TestEncode_PreservesUninferrableKeys(t *testing.T) {
	p, _ := testProcessor()
	local := map[string]any{
		"structured": map[string]any{"nested": true},
		"note":       "fine",
	}
	res := p.Encode(local, nil, EncodeOptions{})
	if len(res.Preserved) != 1 || res.Preserved[0] != "structured" {
		t.Errorf("preserved = %v", res.Preserved)
	}
	if len(res.Values) != 1 {
		t.Errorf("values = %v", res.Values)
	}
}

func TestEncode_NilAndEmptySkippedSilently(t *testing.T) {
	p, _ := testProcessor()
	defs := []models.PropertyDefinition{
		{ID: "p1", Key: "note", Format: models.FormatText},
		{ID: "p2", Key: "tags", Format: models.FormatMultiSelect},
	}
	local := map[string]any{
		"note": "",
		"tags": " , , ",
		"gone": nil,
	}
	res := p.Encode(local, defs, EncodeOptions{})
	if len(res.Values) != 0 || len(res.Preserved) != 0 {
		t.Errorf("empty values must be skipped: %v / %v", res.Values, res.Preserved)
	}
}

// Round-trip: decode, encode, decode yields the same display value for
// scalar formats.
func TestRoundTrip_ScalarFormats(t *testing.T) {
	p, _ := testProcessor()
	defs := []models.PropertyDefinition{
		{ID: "p1", Key: "note", Format: models.FormatText},
		{ID: "p2", Key: "count", Format: models.FormatNumber},
		{ID: "p3", Key: "done", Format: models.FormatCheckbox},
		{ID: "p4", Key: "due", Format: models.FormatDate},
		{ID: "p5", Key: "site", Format: models.FormatURL},
		{ID: "p6", Key: "mail", Format: models.FormatEmail},
		{ID: "p7", Key: "tel", Format: models.FormatPhone},
	}
	wire := []models.PropertyValue{
		{Key: "note", Text: strp("hello world")},
		{Key: "count", Number: nump(7.25)},
		{Key: "done", Checkbox: boolp(true)},
		{Key: "due", Date: strp("2024-06-01T00:00:00.000Z")},
		{Key: "site", URL: strp("https://example.com")},
		{Key: "mail", Email: strp("a@b.co")},
		{Key: "tel", Phone: strp("+1 555 0100")},
	}
	first := p.Decode(wire, defs)
	encoded := p.Encode(first, defs, EncodeOptions{})
	second := p.Decode(encoded.Values, defs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip diverged:\nfirst  %v\nsecond %v", first, second)
	}
}

func TestEncode_RelationIDsPassThrough(t *testing.T) {
	p, _ := testProcessor()
	defs := []models.PropertyDefinition{
		{ID: "p1", Key: "related", Format: models.FormatObjects},
		{ID: "p2", Key: "cover", Format: models.FormatFiles},
	}
	local := map[string]any{
		"related": []any{"obj-1", "obj-2"},
		"cover":   []any{"file-1"},
	}

	res := p.Encode(local, defs, EncodeOptions{})
	if v := valueByKey(t, res.Values, "related"); !reflect.DeepEqual(v.Objects, []string{"obj-1", "obj-2"}) {
		t.Errorf("related = %v", v.Objects)
	}
	if v := valueByKey(t, res.Values, "cover"); !reflect.DeepEqual(v.Files, []string{"file-1"}) {
		t.Errorf("cover = %v", v.Files)
	}

	// The same shape without a definition infers multi_select; ids are
	// never guessed into files or objects.
	res = p.Encode(map[string]any{"related": []any{"obj-1"}}, nil, EncodeOptions{})
	if v := valueByKey(t, res.Values, "related"); v.Format != models.FormatMultiSelect {
		t.Errorf("inferred format = %q", v.Format)
	}
}
