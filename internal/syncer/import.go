package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/frontmatter"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/wikilink"
)

const maxSuffixAttempts = 9

// ImportObject pulls one remote object into the vault. When a local
// document already carries the object's identity, safe mode rewrites only
// its header block and full mode replaces header and body, renaming the
// file to match the remote name. Otherwise a new document is created under
// a collision-safe filename. Returns the document path and whether it was
// newly created.
func (s *Syncer) ImportObject(ctx context.Context, spaceID, objectID string, mode ImportMode) (string, bool, error) {
	obj, wireProps, err := s.client.GetObject(ctx, spaceID, objectID)
	if err != nil {
		return "", false, err
	}

	defs, err := s.loadDefs(ctx, spaceID)
	if err != nil {
		return "", false, err
	}
	decoded := s.props.Decode(wireProps, defs)
	s.resolveObjectRefs(ctx, spaceID, decoded, defs)
	header := s.buildHeader(obj, decoded, nil)
	localBody := wikilink.ToLocal(obj.Body)

	existing, found := s.findLocal(objectID, spaceID)
	if found {
		return existing, false, s.replaceExisting(existing, obj, header, localBody, mode)
	}

	docPath, collided := s.uniqueFilename(obj.Name)
	if collided {
		s.logger.Warn("syncer: import collides with a manual document",
			slog.String("name", obj.Name), slog.String("path", docPath))
	}
	content := []byte(frontmatter.Compose(header, localBody))
	if err := s.store.Create(docPath, content); err != nil {
		return "", false, err
	}
	s.indexSynced(docPath, obj, content)
	s.logger.Info("syncer: imported",
		slog.String("path", docPath), slog.String("object", objectID))
	s.emit(Event{Kind: "object.imported", Path: docPath, ObjectID: objectID, Name: obj.Name})
	return docPath, true, nil
}

// replaceExisting rewrites a document that already tracks the object.
func (s *Syncer) replaceExisting(docPath string, obj *models.Object, header map[string]any, localBody string, mode ImportMode) error {
	doc, err := s.store.ReadDocument(docPath)
	if err != nil {
		return err
	}

	body := doc.Body
	if mode == ModeFull {
		body = localBody
	}
	content := []byte(frontmatter.Compose(header, body))
	if err := s.store.Write(docPath, content); err != nil {
		return err
	}

	finalPath := docPath
	if mode == ModeFull {
		wantName := frontmatter.SanitizeFilename(obj.Name) + ".md"
		wantPath := path.Join(path.Dir(docPath), wantName)
		if wantPath != docPath && !s.store.Exists(wantPath) {
			if err := s.store.Move(docPath, wantPath); err != nil {
				s.logger.Warn("syncer: rename after import failed",
					slog.String("path", docPath), slog.String("error", err.Error()))
			} else {
				_ = s.db.Delete(docPath)
				finalPath = wantPath
			}
		}
	}
	s.indexSynced(finalPath, obj, content)
	s.emit(Event{Kind: "object.imported", Path: finalPath, ObjectID: obj.ID, Name: obj.Name})
	return nil
}

// findLocal locates the document tracking an object, via the index first
// and a vault header scan when the index misses.
func (s *Syncer) findLocal(objectID, spaceID string) (string, bool) {
	if p, found, err := s.db.PathByObjectID(objectID, spaceID); err == nil && found {
		if s.store.Exists(p) {
			return p, true
		}
	}
	infos, err := s.store.List("")
	if err != nil {
		return "", false
	}
	for _, fi := range infos {
		doc, err := s.store.ReadDocument(fi.Path)
		if err != nil {
			continue
		}
		if id, space := doc.ObjectID(); id == objectID && space == spaceID {
			return fi.Path, true
		}
	}
	return "", false
}

// uniqueFilename picks a free path for a new document named after a remote
// object. When the natural name is taken it tries numeric suffixes up to a
// bound, then a timestamp suffix. The second return reports a collision
// with an existing document that carries no remote identity; such a manual
// document is flagged but never touched, since renaming it could break an
// existing link network.
func (s *Syncer) uniqueFilename(name string) (string, bool) {
	base := frontmatter.SanitizeFilename(name)
	candidate := path.Join(s.folder, base+".md")
	if !s.store.Exists(candidate) {
		return candidate, false
	}

	collided := false
	if doc, err := s.store.ReadDocument(candidate); err == nil && !doc.Synced() {
		collided = true
	}

	for i := 1; i <= maxSuffixAttempts; i++ {
		p := path.Join(s.folder, fmt.Sprintf("%s %d.md", base, i))
		if !s.store.Exists(p) {
			return p, collided
		}
	}
	p := path.Join(s.folder, base+" "+strconv.FormatInt(time.Now().Unix(), 10)+".md")
	return p, collided
}

// ImportAll streams every object of the given types from a space and
// imports each one, at most one in flight. Per-object failures are counted
// and logged; they never abort the batch. Statistics accumulate per type
// key.
func (s *Syncer) ImportAll(ctx context.Context, spaceID string, typeKeys []string, mode ImportMode) (ImportStats, error) {
	stats := ImportStats{ByType: make(map[string]TypeCount)}

	if s.folder != "" {
		if err := s.store.MkdirAll(s.folder); err != nil {
			return stats, err
		}
	}

	processed := 0
	err := s.client.SearchObjects(ctx, spaceID, typeKeys, func(obj models.Object, _ []models.PropertyValue) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tc := stats.ByType[obj.TypeKey]
		_, created, err := s.ImportObject(ctx, spaceID, obj.ID, mode)
		switch {
		case err != nil:
			stats.Failed++
			tc.Failed++
			s.logger.Warn("syncer: import failed",
				slog.String("object", obj.ID), slog.String("error", err.Error()))
			s.emit(Event{Kind: "object.failed", ObjectID: obj.ID, Message: apperr.SafeMessage(err)})
		case created:
			stats.Created++
			tc.Created++
		default:
			stats.Updated++
			tc.Updated++
		}
		stats.ByType[obj.TypeKey] = tc

		processed++
		if processed%s.progressEvery == 0 {
			s.emit(Event{Kind: "sync.progress",
				Message: fmt.Sprintf("imported %d objects", processed)})
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	s.logger.Info("syncer: import all done",
		slog.Int("created", stats.Created),
		slog.Int("updated", stats.Updated),
		slog.Int("failed", stats.Failed))
	return stats, nil
}
