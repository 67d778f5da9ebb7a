package index

import (
	"log/slog"
	"path"
	"strings"

	"github.com/starford/gebo/internal/checksum"
	"github.com/starford/gebo/internal/vault"
)

// Rebuild walks the vault and reconciles the index against it: stale rows
// are removed, changed or new documents re-read and upserted. Run at
// startup; the watcher keeps the index fresh afterwards.
func Rebuild(db Store, store vault.Provider, logger *slog.Logger) error {
	indexed, err := db.AllChecksums()
	if err != nil {
		return err
	}
	infos, err := store.List("")
	if err != nil {
		return err
	}

	disk := make(map[string]string, len(infos))
	for _, fi := range infos {
		disk[fi.Path] = fi.Checksum
	}

	removed := 0
	for p := range indexed {
		if _, ok := disk[p]; !ok {
			if err := db.Delete(p); err == nil {
				removed++
			}
		}
	}

	updated := 0
	for _, fi := range infos {
		if indexed[fi.Path] == fi.Checksum {
			continue
		}
		if err := IndexFile(db, store, fi.Path); err != nil {
			logger.Warn("index: rebuild entry failed",
				slog.String("path", fi.Path), slog.String("error", err.Error()))
			continue
		}
		updated++
	}

	logger.Info("index: rebuilt",
		slog.Int("documents", len(infos)),
		slog.Int("updated", updated),
		slog.Int("removed", removed))
	return nil
}

// IndexFile reads one document's header and upserts its identity row.
func IndexFile(db Store, store vault.Provider, relPath string) error {
	doc, err := store.ReadDocument(relPath)
	if err != nil {
		return err
	}
	data, err := store.Read(relPath)
	if err != nil {
		return err
	}
	objectID, spaceID := doc.ObjectID()
	title := strings.TrimSuffix(path.Base(relPath), ".md")
	if name, _ := doc.Header["name"].(string); name != "" {
		title = name
	}
	return db.Upsert(DocumentRow{
		Path:     relPath,
		ObjectID: objectID,
		SpaceID:  spaceID,
		Title:    title,
		Checksum: checksum.Sum(data),
	})
}
