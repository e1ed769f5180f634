// Package storage defines the vault file-system abstraction. Notes live at
// "<type>/<filename>.md" relative to the vault root.
package storage

import "time"

// FileInfo is lightweight metadata for one vault file.
type FileInfo struct {
	Path        string    // vault-relative, e.g. "project/roadmap.md"
	Fingerprint string    // algorithm-tagged content hash
	UpdatedAt   time.Time
}

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to vault root).
	Move(oldPath, newPath string) error
}
