// Package syncer sequences the property, tag, and wikilink components into
// the document-level sync operations: create, update, import, and delete.
// All batch work runs strictly sequentially with at most one remote call in
// flight; a single item's failure is counted and logged, never fatal to the
// batch.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/checksum"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/props"
	"github.com/starford/gebo/internal/remote"
	"github.com/starford/gebo/internal/tags"
	"github.com/starford/gebo/internal/vault"
	"github.com/starford/gebo/internal/wikilink"
)

// ImportMode selects how an import treats an existing local document.
type ImportMode string

const (
	// ModeSafe replaces only the header block, leaving the body untouched.
	ModeSafe ImportMode = "safe"
	// ModeFull replaces header and body and renames the file to match the
	// remote object name.
	ModeFull ImportMode = "full"
)

// Event is one progress notification emitted during sync operations.
type Event struct {
	Kind     string `json:"kind"`
	Path     string `json:"path,omitempty"`
	ObjectID string `json:"object_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Message  string `json:"message,omitempty"`
}

// EventFunc receives progress events. May be nil.
type EventFunc func(Event)

// TypeCount accumulates per-type import statistics.
type TypeCount struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ImportStats summarises a bulk import.
type ImportStats struct {
	Created int                  `json:"created"`
	Updated int                  `json:"updated"`
	Failed  int                  `json:"failed"`
	ByType  map[string]TypeCount `json:"by_type,omitempty"`
}

// SyncStats summarises a sync-all pass.
type SyncStats struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Syncer owns the pipeline components and the caches they share. One
// instance assumes single ownership of its caches; it is not safe for
// concurrent use.
type Syncer struct {
	store  vault.Provider
	client *remote.Client
	db     index.Store
	tags   *tags.Resolver
	links  *wikilink.Resolver
	props  *props.Processor
	logger *slog.Logger

	spaceID       string
	typeKey       string
	folder        string
	progressEvery int
	notify        EventFunc
}

// Options configures a Syncer.
type Options struct {
	// SpaceID is the default space for documents without a space_id header.
	SpaceID string
	// TypeKey is the default type for newly created objects.
	TypeKey string
	// Folder is the vault subdirectory imports write into ("" = root).
	Folder string
	// ProgressEvery is the batch progress cadence in items.
	ProgressEvery int
	// Notify receives progress events; nil disables notifications.
	Notify EventFunc
}

// New builds a Syncer around the given collaborators.
func New(store vault.Provider, client *remote.Client, db index.Store, tagResolver *tags.Resolver, linkResolver *wikilink.Resolver, logger *slog.Logger, opts Options) *Syncer {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 10
	}
	return &Syncer{
		store:         store,
		client:        client,
		db:            db,
		tags:          tagResolver,
		links:         linkResolver,
		props:         props.NewProcessor(tagResolver, logger),
		logger:        logger,
		spaceID:       opts.SpaceID,
		typeKey:       opts.TypeKey,
		folder:        opts.Folder,
		progressEvery: opts.ProgressEvery,
		notify:        opts.Notify,
	}
}

// Close clears the shared caches. Call at teardown; nothing else evicts
// entries that are never read again after their TTL.
func (s *Syncer) Close() {
	s.tags.Clear()
	s.links.ClearCache()
}

func (s *Syncer) emit(ev Event) {
	if s.notify != nil {
		s.notify(ev)
	}
}

// loadDefs fetches the property schema for a space and warms the tag cache
// for every select-like definition. Tag list failures degrade to an
// uncached property, they do not fail the operation.
func (s *Syncer) loadDefs(ctx context.Context, spaceID string) ([]models.PropertyDefinition, error) {
	defs, err := s.client.ListProperties(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		if def.Format != models.FormatSelect && def.Format != models.FormatMultiSelect {
			continue
		}
		if s.tags.IsCached(def.ID) {
			continue
		}
		list, err := s.client.ListTags(ctx, spaceID, def.ID)
		if err != nil {
			s.logger.Warn("syncer: tag list failed",
				slog.String("property", def.Key), slog.String("error", err.Error()))
			continue
		}
		s.tags.SetTags(def.ID, list)
	}
	return defs, nil
}

// resolveObjectRefs replaces object-id lists in decoded properties with
// local document titles where a title is known, preferring the sync-state
// index and falling back to a remote name lookup. Unresolvable ids stay as
// raw ids.
func (s *Syncer) resolveObjectRefs(ctx context.Context, spaceID string, decoded map[string]any, defs []models.PropertyDefinition) {
	byKey := make(map[string]models.PropertyDefinition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}
	for key, raw := range decoded {
		def, ok := byKey[key]
		if !ok || def.Format != models.FormatObjects {
			continue
		}
		ids, ok := raw.([]any)
		if !ok {
			continue
		}
		out := make([]any, 0, len(ids))
		for _, idAny := range ids {
			id, _ := idAny.(string)
			if id == "" {
				continue
			}
			out = append(out, s.objectTitle(ctx, spaceID, id))
		}
		decoded[key] = out
	}
}

func (s *Syncer) objectTitle(ctx context.Context, spaceID, objectID string) string {
	if p, found, err := s.db.PathByObjectID(objectID, spaceID); err == nil && found {
		if row, ok, err := s.db.Get(p); err == nil && ok && row.Title != "" {
			return row.Title
		}
	}
	obj, _, err := s.client.GetObject(ctx, spaceID, objectID)
	if err == nil && obj.Name != "" {
		return obj.Name
	}
	return objectID
}

// buildHeader assembles the header block for a synced document: decoded
// remote properties, then locally preserved keys, then the core identity
// values, which always win.
func (s *Syncer) buildHeader(obj *models.Object, decoded map[string]any, preserved map[string]any) map[string]any {
	header := make(map[string]any, len(decoded)+len(preserved)+5)
	for k, v := range decoded {
		header[k] = v
	}
	for k, v := range preserved {
		header[k] = v
	}
	header["id"] = obj.ID
	header["space_id"] = obj.SpaceID
	header["name"] = obj.Name
	if obj.TypeKey != "" {
		header["type_key"] = obj.TypeKey
	}
	header["synced_at"] = time.Now().UTC().Format(time.RFC3339)
	return header
}

// preservedValues copies the locally preserved keys out of the original
// header so a rewrite can carry them forward.
func preservedValues(header map[string]any, keys []string) map[string]any {
	if len(keys) == 0 {
		return nil
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := header[k]; ok {
			out[k] = v
		}
	}
	return out
}

// documentName returns the display name for a document: the declared name
// header, else the file name stem.
func documentName(doc *models.Document) string {
	if name, _ := doc.Header["name"].(string); name != "" {
		return name
	}
	return strings.TrimSuffix(path.Base(doc.Path), ".md")
}

// indexSynced records a freshly written synced document in the index.
// Index failures are logged, not raised; the index is rebuildable.
func (s *Syncer) indexSynced(docPath string, obj *models.Object, content []byte) {
	err := s.db.Upsert(index.DocumentRow{
		Path:     docPath,
		ObjectID: obj.ID,
		SpaceID:  obj.SpaceID,
		Title:    obj.Name,
		Checksum: checksum.Sum(content),
		SyncedAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn("syncer: index update failed",
			slog.String("path", docPath), slog.String("error", err.Error()))
	}
}

func (s *Syncer) spaceFor(doc *models.Document) (string, error) {
	if _, spaceID := doc.ObjectID(); spaceID != "" {
		return spaceID, nil
	}
	if s.spaceID != "" {
		return s.spaceID, nil
	}
	return "", fmt.Errorf("syncer: no space id for %s: %w", doc.Path, apperr.ErrInvalidInput)
}
