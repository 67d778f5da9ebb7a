package mcpserver

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/remote"
	"github.com/starford/gebo/internal/syncer"
	"github.com/starford/gebo/internal/tags"
	"github.com/starford/gebo/internal/testutil"
	"github.com/starford/gebo/internal/vault"
	"github.com/starford/gebo/internal/wikilink"
)

func testServer(t *testing.T) (*Server, vault.Provider, *index.DB) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /spaces", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"sp-1","name":"Personal"}]}`))
	})
	mux.HandleFunc("GET /spaces/sp-1/properties", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	mux.HandleFunc("GET /spaces/sp-1/objects/obj-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":{"id":"obj-1","name":"Imported","type_key":"note","space_id":"sp-1","markdown":"Body\n"}}`))
	})
	remoteSrv := httptest.NewServer(mux)
	t.Cleanup(remoteSrv.Close)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := remote.NewClient(remoteSrv.URL, "tok", "2025-05-20", logger)
	s := syncer.New(store, client, db,
		tags.NewResolver(logger), wikilink.NewResolver(store, logger),
		logger, syncer.Options{SpaceID: "sp-1", TypeKey: "note"})

	srv := New(s, db, client, "sp-1")
	return srv, store, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_spaces":
		result, err = srv.listSpaces(ctx, req)
	case "sync_document":
		result, err = srv.syncDocument(ctx, req)
	case "sync_all":
		result, err = srv.syncAll(ctx, req)
	case "import_object":
		result, err = srv.importObject(ctx, req)
	case "vault_status":
		result, err = srv.vaultStatus(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListSpaces(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "list_spaces", map[string]any{})
	if r.IsError {
		t.Fatalf("list_spaces failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Personal") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestImportObjectTool(t *testing.T) {
	srv, store, _ := testServer(t)

	r := callTool(t, srv, "import_object", map[string]any{
		"object_id": "obj-1",
		"mode":      "full",
	})
	if r.IsError {
		t.Fatalf("import_object failed: %s", resultText(r))
	}
	if resultText(r) != "created: Imported.md" {
		t.Errorf("result = %q", resultText(r))
	}
	if !store.Exists("Imported.md") {
		t.Error("imported file missing")
	}
}

func TestImportObjectRequiresID(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "import_object", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing object_id")
	}
}

func TestSyncDocumentMissingFile(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "sync_document", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestVaultStatus(t *testing.T) {
	srv, _, db := testServer(t)
	_ = db.Upsert(index.DocumentRow{Path: "a.md", ObjectID: "obj-1", SpaceID: "sp-1", Checksum: "1"})

	r := callTool(t, srv, "vault_status", map[string]any{})
	if r.IsError {
		t.Fatalf("vault_status failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"documents": 1`) || !strings.Contains(text, `"synced": 1`) {
		t.Errorf("status = %q", text)
	}
}
