package models

// PropertyValue is the wire representation of one property: a tagged union
// keyed by Format. Exactly one value branch is populated. Decoding must be
// driven by Format when a schema entry is known; presence-scanning across
// branches is the fallback for schemaless values.
type PropertyValue struct {
	Key    string         `json:"key"`
	Format PropertyFormat `json:"format"`

	Text        *string  `json:"text,omitempty"`
	Number      *float64 `json:"number,omitempty"`
	Checkbox    *bool    `json:"checkbox,omitempty"`
	Date        *string  `json:"date,omitempty"`
	URL         *string  `json:"url,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Select      *TagRef  `json:"select,omitempty"`
	MultiSelect []TagRef `json:"multi_select,omitempty"`
	Files       []string `json:"files,omitempty"`
	Objects     []string `json:"objects,omitempty"`
}

// TagRef is a select value on the wire: an option id, optionally with the
// option name inlined by the server.
type TagRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// PresentFormat returns the format of the populated branch, scanning in a
// fixed order. Used only when no declared format is available.
func (v *PropertyValue) PresentFormat() (PropertyFormat, bool) {
	switch {
	case v.Text != nil:
		return FormatText, true
	case v.Number != nil:
		return FormatNumber, true
	case v.Checkbox != nil:
		return FormatCheckbox, true
	case v.Date != nil:
		return FormatDate, true
	case v.URL != nil:
		return FormatURL, true
	case v.Email != nil:
		return FormatEmail, true
	case v.Phone != nil:
		return FormatPhone, true
	case v.Select != nil:
		return FormatSelect, true
	case len(v.MultiSelect) > 0:
		return FormatMultiSelect, true
	case len(v.Files) > 0:
		return FormatFiles, true
	case len(v.Objects) > 0:
		return FormatObjects, true
	}
	return "", false
}
