package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/frontmatter"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/props"
)

// SyncDocument pushes one vault document to the remote space. A document
// without remote identity headers takes the create path; one carrying both
// id and space_id takes the update path. Either way the local header block
// is rewritten from the canonical remote state afterwards, merging back any
// locally preserved keys.
func (s *Syncer) SyncDocument(ctx context.Context, docPath string) error {
	doc, err := s.store.ReadDocument(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("syncer: %s: %w", docPath, apperr.ErrNotFound)
		}
		return err
	}
	if doc.Synced() {
		return s.updateRemote(ctx, doc)
	}
	return s.createRemote(ctx, doc)
}

// createRemote builds a remote object from the document and adopts the
// assigned identity into the local header.
func (s *Syncer) createRemote(ctx context.Context, doc *models.Document) error {
	spaceID, err := s.spaceFor(doc)
	if err != nil {
		return err
	}
	typeKey, _ := doc.Header["type_key"].(string)
	if typeKey == "" {
		typeKey = s.typeKey
	}
	if typeKey == "" {
		return fmt.Errorf("syncer: no type key for %s: %w", doc.Path, apperr.ErrInvalidInput)
	}

	defs, err := s.loadDefs(ctx, spaceID)
	if err != nil {
		return err
	}
	enc := s.props.Encode(doc.Header, defs, props.EncodeOptions{SkipSystem: true})
	name := documentName(doc)
	remoteBody := s.links.ToRemote(doc.Body, spaceID)

	obj, wireProps, err := s.client.CreateObject(ctx, spaceID, name, typeKey, remoteBody, enc.Values)
	if err != nil {
		return err
	}

	decoded := s.props.Decode(wireProps, defs)
	s.resolveObjectRefs(ctx, spaceID, decoded, defs)
	header := s.buildHeader(obj, decoded, preservedValues(doc.Header, enc.Preserved))

	content := []byte(frontmatter.Compose(header, doc.Body))
	if err := s.store.Write(doc.Path, content); err != nil {
		return err
	}
	s.indexSynced(doc.Path, obj, content)
	s.logger.Info("syncer: created",
		slog.String("path", doc.Path), slog.String("object", obj.ID))
	s.emit(Event{Kind: "object.synced", Path: doc.Path, ObjectID: obj.ID, Name: obj.Name})
	return nil
}

// updateRemote patches name and properties of the linked object, re-fetches
// the canonical state, and rewrites the local header from it. The body is
// not re-pushed on update.
func (s *Syncer) updateRemote(ctx context.Context, doc *models.Document) error {
	objectID, spaceID := doc.ObjectID()

	defs, err := s.loadDefs(ctx, spaceID)
	if err != nil {
		return err
	}
	enc := s.props.Encode(doc.Header, defs, props.EncodeOptions{SkipSystem: true})
	name := documentName(doc)

	if err := s.client.UpdateObject(ctx, spaceID, objectID, name, enc.Values); err != nil {
		return err
	}

	obj, wireProps, err := s.client.GetObject(ctx, spaceID, objectID)
	if err != nil {
		return err
	}
	decoded := s.props.Decode(wireProps, defs)
	s.resolveObjectRefs(ctx, spaceID, decoded, defs)
	header := s.buildHeader(obj, decoded, preservedValues(doc.Header, enc.Preserved))

	content := []byte(frontmatter.Compose(header, doc.Body))
	if err := s.store.Write(doc.Path, content); err != nil {
		return err
	}
	s.indexSynced(doc.Path, obj, content)
	s.logger.Info("syncer: updated",
		slog.String("path", doc.Path), slog.String("object", objectID))
	s.emit(Event{Kind: "object.synced", Path: doc.Path, ObjectID: objectID, Name: obj.Name})
	return nil
}

// SyncAll pushes every document that already carries a full remote
// identity. Local-only documents are counted as skipped and left alone.
// Items are processed sequentially; a failure is counted and the batch
// continues.
func (s *Syncer) SyncAll(ctx context.Context) (SyncStats, error) {
	var stats SyncStats
	infos, err := s.store.List("")
	if err != nil {
		return stats, err
	}

	processed := 0
	for _, fi := range infos {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		doc, err := s.store.ReadDocument(fi.Path)
		if err != nil {
			stats.Failed++
			s.logger.Warn("syncer: read failed",
				slog.String("path", fi.Path), slog.String("error", err.Error()))
			continue
		}
		if !doc.Synced() {
			stats.Skipped++
			continue
		}
		if err := s.updateRemote(ctx, doc); err != nil {
			stats.Failed++
			s.logger.Warn("syncer: sync failed",
				slog.String("path", fi.Path), slog.String("error", err.Error()))
			s.emit(Event{Kind: "object.failed", Path: fi.Path, Message: apperr.SafeMessage(err)})
			continue
		}
		stats.Synced++
		processed++
		if processed%s.progressEvery == 0 {
			s.emit(Event{Kind: "sync.progress",
				Message: fmt.Sprintf("synced %d documents", processed)})
		}
	}

	s.logger.Info("syncer: sync all done",
		slog.Int("synced", stats.Synced),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

// DeleteDocument archives the linked remote object (when one exists) and
// removes the document from the vault and the index.
func (s *Syncer) DeleteDocument(ctx context.Context, docPath string) error {
	doc, err := s.store.ReadDocument(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("syncer: %s: %w", docPath, apperr.ErrNotFound)
		}
		return err
	}
	if objectID, spaceID := doc.ObjectID(); objectID != "" && spaceID != "" {
		if err := s.client.DeleteObject(ctx, spaceID, objectID); err != nil {
			return err
		}
	}
	if err := s.store.Delete(docPath); err != nil {
		return err
	}
	return s.db.Delete(docPath)
}
