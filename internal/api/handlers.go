package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/remote"
	"github.com/starford/gebo/internal/syncer"
)

// Handler holds API route handlers.
type Handler struct {
	sync    *syncer.Syncer
	db      index.Store
	client  *remote.Client
	spaceID string
}

// NewHandler creates a new Handler. spaceID is the default space for
// requests that omit one.
func NewHandler(sync *syncer.Syncer, db index.Store, client *remote.Client, spaceID string) *Handler {
	return &Handler{sync: sync, db: db, client: client, spaceID: spaceID}
}

func importMode(s string) syncer.ImportMode {
	if s == string(syncer.ModeFull) {
		return syncer.ModeFull
	}
	return syncer.ModeSafe
}

func (h *Handler) writeError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(apperr.SafeMessage(err)))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(apperr.SafeMessage(err)))
	case errors.Is(err, apperr.ErrNotAuthenticated):
		writeJSON(w, http.StatusBadGateway, errorBody(apperr.SafeMessage(err)))
	default:
		slog.Error(context, slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(apperr.SafeMessage(err)))
	}
}

// Status handles GET /api/status.
//
//	@Summary		Vault, index, and remote reachability summary
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.Stats()
	if err != nil {
		h.writeError(w, err, "status failed")
		return
	}
	resp := StatusResponse{Documents: stats.Documents, Synced: stats.Synced}
	if spaces, err := h.client.ListSpaces(r.Context()); err == nil {
		resp.Remote = RemoteStatus{Reachable: true, Spaces: len(spaces)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Spaces handles GET /api/spaces.
//
//	@Summary		List remote spaces
//	@Tags			spaces
//	@Produce		json
//	@Success		200	{array}	models.Space
//	@Security		BearerAuth
//	@Router			/spaces [get]
func (h *Handler) Spaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.client.ListSpaces(r.Context())
	if err != nil {
		h.writeError(w, err, "list spaces failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spaces": spaces})
}

// SyncAll handles POST /api/sync.
//
//	@Summary		Push every synced vault document to the remote space
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncStats
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sync.SyncAll(r.Context())
	if err != nil {
		h.writeError(w, err, "sync all failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// SyncDocument handles POST /api/sync/document.
//
//	@Summary		Sync one vault document
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			body	body	SyncDocumentRequest	true	"Document to sync"
//	@Success		204		"Synced"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync/document [post]
func (h *Handler) SyncDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SyncDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.sync.SyncDocument(r.Context(), req.Path); err != nil {
		h.writeError(w, err, "sync document failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /api/import.
//
//	@Summary		Bulk import remote objects into the vault
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Import parameters"
//	@Success		200		{object}	ImportStats
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	spaceID := req.SpaceID
	if spaceID == "" {
		spaceID = h.spaceID
	}
	if spaceID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("space_id is required"))
		return
	}
	stats, err := h.sync.ImportAll(r.Context(), spaceID, req.TypeKeys, importMode(req.Mode))
	if err != nil {
		h.writeError(w, err, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ImportObject handles POST /api/import/object.
//
//	@Summary		Import a single remote object
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportObjectRequest	true	"Object to import"
//	@Success		200		{object}	ImportObjectResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import/object [post]
func (h *Handler) ImportObject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ImportObjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	spaceID := req.SpaceID
	if spaceID == "" {
		spaceID = h.spaceID
	}
	if spaceID == "" || req.ObjectID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("space_id and object_id are required"))
		return
	}
	path, created, err := h.sync.ImportObject(r.Context(), spaceID, req.ObjectID, importMode(req.Mode))
	if err != nil {
		h.writeError(w, err, "import object failed")
		return
	}
	writeJSON(w, http.StatusOK, ImportObjectResponse{Path: path, Created: created})
}
