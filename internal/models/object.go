// Package models defines the domain types for Gebo.
package models

import "time"

// Space is a remote workspace; every object and property lives in one space.
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Type describes a remote object type.
type Type struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Object is a remote knowledge-graph entity as received from the API.
// Properties hold decoded display values (scalar, list, or nil).
type Object struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	TypeKey    string         `json:"type_key"`
	SpaceID    string         `json:"space_id"`
	Body       string         `json:"body,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// PropertyFormat enumerates the remote property formats.
type PropertyFormat string

const (
	FormatText        PropertyFormat = "text"
	FormatNumber      PropertyFormat = "number"
	FormatSelect      PropertyFormat = "select"
	FormatMultiSelect PropertyFormat = "multi_select"
	FormatDate        PropertyFormat = "date"
	FormatCheckbox    PropertyFormat = "checkbox"
	FormatURL         PropertyFormat = "url"
	FormatEmail       PropertyFormat = "email"
	FormatPhone       PropertyFormat = "phone"
	FormatFiles       PropertyFormat = "files"
	FormatObjects     PropertyFormat = "objects"
)

// PropertyDefinition is the remote schema entry for one property.
type PropertyDefinition struct {
	ID     string         `json:"id"`
	Key    string         `json:"key"`
	Name   string         `json:"name"`
	Format PropertyFormat `json:"format"`
}

// Tag is a named option of a select/multi_select property.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Document is a vault-resident markdown file. Header holds the metadata
// block in declaration order; Body is the free text after it. A document
// is synced when both the "id" and "space_id" header keys are present.
type Document struct {
	Path      string
	Header    map[string]any
	Body      string
	UpdatedAt time.Time
}

// ObjectID returns the remote identity carried in the header, or empty
// strings for a local-only document.
func (d *Document) ObjectID() (objectID, spaceID string) {
	if d.Header == nil {
		return "", ""
	}
	objectID, _ = d.Header["id"].(string)
	spaceID, _ = d.Header["space_id"].(string)
	return objectID, spaceID
}

// Synced reports whether the document carries a full remote identity.
func (d *Document) Synced() bool {
	id, space := d.ObjectID()
	return id != "" && space != ""
}
