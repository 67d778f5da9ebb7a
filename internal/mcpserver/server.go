// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Gebo sync operations for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/remote"
	"github.com/starford/gebo/internal/syncer"
)

// Server wraps the MCP server with Gebo sync tools.
type Server struct {
	mcp     *server.MCPServer
	sync    *syncer.Syncer
	db      index.Store
	client  *remote.Client
	spaceID string
}

// New creates a new MCP server with all sync tools registered. spaceID is
// the default space for tools that omit one.
func New(sync *syncer.Syncer, db index.Store, client *remote.Client, spaceID string) *Server {
	s := &Server{sync: sync, db: db, client: client, spaceID: spaceID}

	s.mcp = server.NewMCPServer(
		"Gebo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_spaces",
		mcp.WithDescription("List the remote knowledge-graph spaces visible to the configured token."),
	), s.listSpaces)

	s.mcp.AddTool(mcp.NewTool("sync_document",
		mcp.WithDescription("Push one vault document to the remote space. Creates a remote object "+
			"for local-only documents and writes the assigned identity back into the header; "+
			"updates the linked object otherwise."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/note.md)")),
	), s.syncDocument)

	s.mcp.AddTool(mcp.NewTool("sync_all",
		mcp.WithDescription("Push every vault document that already carries a remote identity. "+
			"Local-only documents are skipped, not touched."),
	), s.syncAll)

	s.mcp.AddTool(mcp.NewTool("import_object",
		mcp.WithDescription("Pull one remote object into the vault. Safe mode preserves an existing "+
			"document's body and rewrites only the header; full mode replaces both and renames the "+
			"file to the remote name. Read the gebo://document-format resource for the resulting layout."),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Remote object id")),
		mcp.WithString("space_id", mcp.Description("Space id (defaults to the configured space)")),
		mcp.WithString("mode", mcp.Description("Import mode: safe (default) or full")),
	), s.importObject)

	s.mcp.AddTool(mcp.NewTool("vault_status",
		mcp.WithDescription("Report vault index statistics: total documents and how many are synced."),
	), s.vaultStatus)

	// Resource: synced document format.
	s.mcp.AddResource(
		mcp.NewResource("gebo://document-format", "Synced Document Format",
			mcp.WithResourceDescription("Layout of a Gebo-synchronized Markdown document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) space(req mcp.CallToolRequest) string {
	if v, err := req.RequireString("space_id"); err == nil && v != "" {
		return v
	}
	return s.spaceID
}

func importMode(req mcp.CallToolRequest) syncer.ImportMode {
	if v, err := req.RequireString("mode"); err == nil && v == string(syncer.ModeFull) {
		return syncer.ModeFull
	}
	return syncer.ModeSafe
}

func (s *Server) listSpaces(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaces, err := s.client.ListSpaces(ctx)
	if err != nil {
		return mcp.NewToolResultError(apperr.SafeMessage(err)), nil
	}
	out, _ := json.MarshalIndent(spaces, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sync.SyncDocument(ctx, path); err != nil {
		return mcp.NewToolResultError(apperr.SafeMessage(err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("synced: %s", path)), nil
}

func (s *Server) syncAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.sync.SyncAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(apperr.SafeMessage(err)), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) importObject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectID, err := req.RequireString("object_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spaceID := s.space(req)
	if spaceID == "" {
		return mcp.NewToolResultError("space_id is required (no default space configured)"), nil
	}
	path, created, err := s.sync.ImportObject(ctx, spaceID, objectID, importMode(req))
	if err != nil {
		return mcp.NewToolResultError(apperr.SafeMessage(err)), nil
	}
	verb := "updated"
	if created {
		verb = "created"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", verb, path)), nil
}

func (s *Server) vaultStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.db.Stats()
	if err != nil {
		return mcp.NewToolResultError(apperr.SafeMessage(err)), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "gebo://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
