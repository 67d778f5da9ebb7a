package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/models"
)

func TestRequest_SendsAuthAndVersionHeaders(t *testing.T) {
	var gotAuth, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("X-Api-Version")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "2025-05-20", nil)
	if _, err := c.Request(context.Background(), http.MethodGet, "/spaces", nil); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotVersion != "2025-05-20" {
		t.Errorf("version header = %q", gotVersion)
	}
}

func TestRequest_Non2xxIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", nil)
	resp, err := c.Request(context.Background(), http.MethodGet, "/x", nil)
	if err != nil {
		t.Fatalf("transport must not error on status: %v", err)
	}
	if resp.OK() || resp.Status != 500 || string(resp.Body) != "boom" {
		t.Errorf("resp = %d %q", resp.Status, resp.Body)
	}
}

func TestTypedCall_WrapsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad token"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", nil)
	_, err := c.ListSpaces(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 401 || apiErr.Body != "bad token" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Errorf("401 should unwrap to ErrNotAuthenticated")
	}
}

func TestSearchObjects_PagesAndStreams(t *testing.T) {
	// Two full pages then a short one; the client must request offsets in
	// order and deliver every object exactly once.
	total := 2*searchPageSize + 5
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		var page []wireObject
		for i := req.Offset; i < total && i < req.Offset+req.Limit; i++ {
			page = append(page, wireObject{ID: "obj-" + itoa(i), SpaceID: "sp-1"})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": page})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", nil)
	var seen []string
	err := c.SearchObjects(context.Background(), "sp-1", []string{"page"}, func(o models.Object, _ []models.PropertyValue) error {
		seen = append(seen, o.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("SearchObjects: %v", err)
	}
	if len(seen) != total {
		t.Fatalf("streamed %d objects, want %d", len(seen), total)
	}
	if seen[0] != "obj-0" || seen[total-1] != "obj-"+itoa(total-1) {
		t.Errorf("ordering broken: first=%s last=%s", seen[0], seen[total-1])
	}
}

func TestSearchObjects_CallbackErrorStopsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []wireObject{
			{ID: "obj-1"}, {ID: "obj-2"},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", nil)
	wantErr := errors.New("stop")
	count := 0
	err := c.SearchObjects(context.Background(), "sp-1", nil, func(models.Object, []models.PropertyValue) error {
		count++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v", err)
	}
	if count != 1 {
		t.Errorf("callback ran %d times after error", count)
	}
}

func TestGetObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "md" {
			t.Errorf("missing format=md query")
		}
		json.NewEncoder(w).Encode(map[string]any{"object": map[string]any{
			"id":       "obj-1",
			"name":     "Doc",
			"type_key": "page",
			"space_id": "sp-1",
			"markdown": "# Doc\n",
			"properties": []map[string]any{
				{"key": "note", "format": "text", "text": "hi"},
			},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", nil)
	obj, props, err := c.GetObject(context.Background(), "sp-1", "obj-1")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if obj.ID != "obj-1" || obj.Body != "# Doc\n" {
		t.Errorf("obj = %+v", obj)
	}
	if len(props) != 1 || props[0].Key != "note" || props[0].Text == nil {
		t.Errorf("props = %+v", props)
	}
}

func TestListTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/spaces/sp-1/types" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"ty-1","key":"page","name":"Page"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", nil)
	types, err := c.ListTypes(context.Background(), "sp-1")
	if err != nil {
		t.Fatalf("ListTypes: %v", err)
	}
	if len(types) != 1 || types[0].Key != "page" {
		t.Errorf("types = %+v", types)
	}
}

func TestRenameEndpointsPatchName(t *testing.T) {
	type patched struct {
		method, path string
		body         map[string]any
	}
	var got []patched
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = append(got, patched{method: r.Method, path: r.URL.Path, body: body})
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", nil)
	if err := c.UpdateType(context.Background(), "sp-1", "ty-1", "Task"); err != nil {
		t.Fatalf("UpdateType: %v", err)
	}
	if err := c.UpdateProperty(context.Background(), "sp-1", "prop-1", "Status"); err != nil {
		t.Fatalf("UpdateProperty: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("requests = %d", len(got))
	}
	if got[0].method != http.MethodPatch || got[0].path != "/spaces/sp-1/types/ty-1" || got[0].body["name"] != "Task" {
		t.Errorf("type patch = %+v", got[0])
	}
	if got[1].method != http.MethodPatch || got[1].path != "/spaces/sp-1/properties/prop-1" || got[1].body["name"] != "Status" {
		t.Errorf("property patch = %+v", got[1])
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
