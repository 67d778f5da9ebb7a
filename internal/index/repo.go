package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocumentRow represents one row of the documents table. ObjectID and
// SpaceID are empty for local-only documents.
type DocumentRow struct {
	Path     string
	ObjectID string
	SpaceID  string
	Title    string
	Checksum string
	SyncedAt time.Time
}

// StatsRow summarises the index for status reporting.
type StatsRow struct {
	Documents int `json:"documents"`
	Synced    int `json:"synced"`
}

// Upsert inserts or replaces a document row.
func (db *DB) Upsert(row DocumentRow) error {
	var syncedAt any
	if !row.SyncedAt.IsZero() {
		syncedAt = row.SyncedAt.UTC().Format(time.RFC3339)
	}
	_, err := db.conn.Exec(`
		INSERT INTO documents (path, object_id, space_id, title, checksum, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			object_id = excluded.object_id,
			space_id  = excluded.space_id,
			title     = excluded.title,
			checksum  = excluded.checksum,
			synced_at = excluded.synced_at
	`, row.Path, row.ObjectID, row.SpaceID, row.Title, row.Checksum, syncedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}
	return nil
}

// Delete removes a document row.
func (db *DB) Delete(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return nil
}

// Get returns the row for a path, with a found flag.
func (db *DB) Get(path string) (*DocumentRow, bool, error) {
	row := db.conn.QueryRow(`
		SELECT path, object_id, space_id, title, checksum, COALESCE(synced_at, '')
		FROM documents WHERE path = ?`, path)
	var d DocumentRow
	var synced string
	err := row.Scan(&d.Path, &d.ObjectID, &d.SpaceID, &d.Title, &d.Checksum, &synced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("index: get document: %w", err)
	}
	if synced != "" {
		if t, perr := time.Parse(time.RFC3339, synced); perr == nil {
			d.SyncedAt = t
		}
	}
	return &d, true, nil
}

// PathByObjectID returns the vault path of the document carrying a remote
// identity, with a found flag.
func (db *DB) PathByObjectID(objectID, spaceID string) (string, bool, error) {
	row := db.conn.QueryRow(`
		SELECT path FROM documents WHERE object_id = ? AND space_id = ? LIMIT 1`,
		objectID, spaceID)
	var path string
	err := row.Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("index: path by object id: %w", err)
	}
	return path, true, nil
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Stats returns document counts for status reporting.
func (db *DB) Stats() (StatsRow, error) {
	var s StatsRow
	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN object_id != '' AND space_id != '' THEN 1 END)
		FROM documents`).Scan(&s.Documents, &s.Synced)
	if err != nil {
		return s, fmt.Errorf("index: stats: %w", err)
	}
	return s, nil
}
