package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/starford/gebo/internal/models"
)

// searchPageSize bounds one page of the paginated object search.
const searchPageSize = 100

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

type objectEnvelope struct {
	Object wireObject `json:"object"`
}

// wireObject is the API shape of an object; properties arrive as the
// tagged-union records, not as decoded display values.
type wireObject struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	TypeKey    string                 `json:"type_key"`
	SpaceID    string                 `json:"space_id"`
	Markdown   string                 `json:"markdown,omitempty"`
	Properties []models.PropertyValue `json:"properties,omitempty"`
}

// ListSpaces returns all spaces visible to the token.
func (c *Client) ListSpaces(ctx context.Context) ([]models.Space, error) {
	var env listEnvelope[models.Space]
	if err := c.call(ctx, http.MethodGet, "/spaces", nil, &env); err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return env.Data, nil
}

// ListTypes returns the object types of a space.
func (c *Client) ListTypes(ctx context.Context, spaceID string) ([]models.Type, error) {
	var env listEnvelope[models.Type]
	path := "/spaces/" + url.PathEscape(spaceID) + "/types"
	if err := c.call(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	return env.Data, nil
}

// UpdateType patches a type's name.
func (c *Client) UpdateType(ctx context.Context, spaceID, typeID, name string) error {
	path := "/spaces/" + url.PathEscape(spaceID) + "/types/" + url.PathEscape(typeID)
	body := map[string]any{"name": name}
	if err := c.call(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("update type: %w", err)
	}
	return nil
}

// ListProperties returns the property definitions of a space.
func (c *Client) ListProperties(ctx context.Context, spaceID string) ([]models.PropertyDefinition, error) {
	var env listEnvelope[models.PropertyDefinition]
	path := "/spaces/" + url.PathEscape(spaceID) + "/properties"
	if err := c.call(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return env.Data, nil
}

// UpdateProperty patches a property definition's name.
func (c *Client) UpdateProperty(ctx context.Context, spaceID, propertyID, name string) error {
	path := "/spaces/" + url.PathEscape(spaceID) + "/properties/" + url.PathEscape(propertyID)
	body := map[string]any{"name": name}
	if err := c.call(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	return nil
}

// ListTags returns the option set of a select/multi_select property.
func (c *Client) ListTags(ctx context.Context, spaceID, propertyID string) ([]models.Tag, error) {
	var env listEnvelope[models.Tag]
	path := "/spaces/" + url.PathEscape(spaceID) + "/properties/" + url.PathEscape(propertyID) + "/tags"
	if err := c.call(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return env.Data, nil
}

// GetObject fetches one object with its markdown body rendering.
func (c *Client) GetObject(ctx context.Context, spaceID, objectID string) (*models.Object, []models.PropertyValue, error) {
	var env objectEnvelope
	path := "/spaces/" + url.PathEscape(spaceID) + "/objects/" + url.PathEscape(objectID) + "?format=md"
	if err := c.call(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	obj := env.Object.toModel()
	return obj, env.Object.Properties, nil
}

// CreateObject creates an object and returns the server's canonical copy.
func (c *Client) CreateObject(ctx context.Context, spaceID string, name, typeKey, body string, properties []models.PropertyValue) (*models.Object, []models.PropertyValue, error) {
	var env objectEnvelope
	path := "/spaces/" + url.PathEscape(spaceID) + "/objects"
	req := map[string]any{
		"name":       name,
		"type_key":   typeKey,
		"body":       body,
		"properties": properties,
	}
	if err := c.call(ctx, http.MethodPost, path, req, &env); err != nil {
		return nil, nil, fmt.Errorf("create object: %w", err)
	}
	obj := env.Object.toModel()
	return obj, env.Object.Properties, nil
}

// UpdateObject patches an object's name and properties. The body is never
// re-pushed on update.
func (c *Client) UpdateObject(ctx context.Context, spaceID, objectID, name string, properties []models.PropertyValue) error {
	path := "/spaces/" + url.PathEscape(spaceID) + "/objects/" + url.PathEscape(objectID)
	req := map[string]any{
		"name":       name,
		"properties": properties,
	}
	if err := c.call(ctx, http.MethodPatch, path, req, nil); err != nil {
		return fmt.Errorf("update object: %w", err)
	}
	return nil
}

// DeleteObject archives an object.
func (c *Client) DeleteObject(ctx context.Context, spaceID, objectID string) error {
	path := "/spaces/" + url.PathEscape(spaceID) + "/objects/" + url.PathEscape(objectID)
	if err := c.call(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// SearchObjects pages through all objects of the given types, invoking fn
// for each one. At most one object is in flight at a time and pages are
// fetched strictly in order, so memory stays bounded on large spaces. An
// error from fn stops the stream.
func (c *Client) SearchObjects(ctx context.Context, spaceID string, typeKeys []string, fn func(models.Object, []models.PropertyValue) error) error {
	path := "/spaces/" + url.PathEscape(spaceID) + "/search"
	offset := 0
	for {
		var env listEnvelope[wireObject]
		req := map[string]any{
			"types":  typeKeys,
			"limit":  searchPageSize,
			"offset": offset,
		}
		if err := c.call(ctx, http.MethodPost, path, req, &env); err != nil {
			return fmt.Errorf("search objects: %w", err)
		}
		for _, w := range env.Data {
			obj := w.toModel()
			if err := fn(*obj, w.Properties); err != nil {
				return err
			}
		}
		if len(env.Data) < searchPageSize {
			return nil
		}
		offset += len(env.Data)
	}
}

func (w wireObject) toModel() *models.Object {
	return &models.Object{
		ID:      w.ID,
		Name:    w.Name,
		TypeKey: w.TypeKey,
		SpaceID: w.SpaceID,
		Body:    w.Markdown,
	}
}
