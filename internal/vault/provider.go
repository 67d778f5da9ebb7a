// Package vault defines the document-vault file-system abstraction.
package vault

import (
	"time"

	"github.com/starford/gebo/internal/models"
)

// FileInfo is lightweight metadata returned by list operations.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// ReadDocument reads and parses a markdown document (header + body).
	ReadDocument(path string) (*models.Document, error)
	// Write atomically writes content to path, creating parent dirs.
	Write(path string, content []byte) error
	// Create writes a new file, failing when path already exists.
	Create(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Exists reports whether a file exists at path.
	Exists(path string) bool
	// MkdirAll creates a folder (and parents) inside the vault.
	MkdirAll(dir string) error
}
