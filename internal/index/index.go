// Package index provides the SQLite-backed sync-state index: a local map
// of vault documents to the remote identities they carry. It is an
// acceleration structure only; every answer is re-checkable against the
// vault itself.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path      TEXT PRIMARY KEY,
	object_id TEXT NOT NULL DEFAULT '',
	space_id  TEXT NOT NULL DEFAULT '',
	title     TEXT NOT NULL DEFAULT '',
	checksum  TEXT NOT NULL DEFAULT '',
	synced_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_documents_object ON documents(object_id, space_id);
`

// DB wraps a sql.DB with sync-state operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Store is the interface the orchestrator depends on, so tests can swap
// implementations.
type Store interface {
	Upsert(row DocumentRow) error
	Delete(path string) error
	Get(path string) (*DocumentRow, bool, error)
	PathByObjectID(objectID, spaceID string) (string, bool, error)
	AllChecksums() (map[string]string, error)
	Stats() (StatsRow, error)
	Close() error
}

var _ Store = (*DB)(nil)
