// Package apperr defines the error kinds shared across the Ansuz core.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrAlreadyExists      = errors.New("already exists")
	ErrMissingFingerprint = errors.New("missing content fingerprint")
)

// ContentConflictError is returned when a write carries a fingerprint that no
// longer matches the note's current content (optimistic lock failure).
type ContentConflictError struct {
	Current  string // fingerprint of the content as stored
	Supplied string // fingerprint the caller last saw
}

func (e *ContentConflictError) Error() string {
	return fmt.Sprintf("content conflict: current fingerprint %s does not match supplied %s", e.Current, e.Supplied)
}

// Is lets errors.Is(err, ErrConflict) match a ContentConflictError.
func (e *ContentConflictError) Is(target error) bool {
	return target == ErrConflict
}

// MigrationNotFoundError is returned when an operator requests a migration
// version that is not part of the configured migration set.
type MigrationNotFoundError struct {
	Version string
}

func (e *MigrationNotFoundError) Error() string {
	return fmt.Sprintf("migration %s not found", e.Version)
}

// MigrationFailedError wraps the underlying failure of a migration run.
// Partial migrations are never reported as applied.
type MigrationFailedError struct {
	Version string
	Err     error
}

func (e *MigrationFailedError) Error() string {
	return fmt.Sprintf("migration %s failed: %v", e.Version, e.Err)
}

func (e *MigrationFailedError) Unwrap() error { return e.Err }
