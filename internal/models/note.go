// Package models defines the domain types for Ansuz.
package models

import (
	"path"
	"strings"
	"time"
)

// Note represents an indexed note record.
type Note struct {
	ID          string    `json:"id"` // "<type>/<filename>", stable
	Title       string    `json:"title"`
	Content     string    `json:"content,omitempty"`
	Type        string    `json:"type"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path"` // vault-relative storage path
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Size        int64     `json:"size"`
	ContentHash string    `json:"content_hash"`
}

// NoteID derives the stable identifier for a note from its type and filename.
// The ".md" extension is not part of the identifier.
func NoteID(noteType, filename string) string {
	return noteType + "/" + strings.TrimSuffix(filename, ".md")
}

// SplitID breaks an identifier back into its type and filename parts.
// A bare identifier without a separator yields an empty type.
func SplitID(id string) (noteType, filename string) {
	i := strings.LastIndex(id, "/")
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}

// ValueKind describes how a metadata value is serialized.
type ValueKind string

const (
	ValueString  ValueKind = "string"
	ValueNumber  ValueKind = "number"
	ValueDate    ValueKind = "date"
	ValueBoolean ValueKind = "boolean"
	ValueArray   ValueKind = "array"
)

// MetadataEntry is one key/value pair in a note's open metadata bag.
type MetadataEntry struct {
	NoteID string    `json:"note_id"`
	Key    string    `json:"key"`
	Value  string    `json:"value"`
	Kind   ValueKind `json:"kind"`
}

// LinkKind classifies an external reference.
type LinkKind string

const (
	LinkURL   LinkKind = "url"
	LinkImage LinkKind = "image"
	LinkEmbed LinkKind = "embed"
)

// NoteLink is an internal edge in the link graph. TargetID is nil when the
// reference did not resolve to an existing note (a broken link).
type NoteLink struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	TargetID    *string   `json:"target_id"`
	TargetTitle string    `json:"target_title"` // as written in the wikilink
	LinkText    string    `json:"link_text"`
	LineNumber  int       `json:"line_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Broken reports whether the link's target is unresolved.
func (l NoteLink) Broken() bool { return l.TargetID == nil }

// ExternalLink is an outbound reference to a URL, image, or embed.
type ExternalLink struct {
	ID         string    `json:"id"`
	NoteID     string    `json:"note_id"`
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	LineNumber int       `json:"line_number"`
	Kind       LinkKind  `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// SourceNote is the raw (id, content) pair a note source supplies for
// indexing and batch link extraction.
type SourceNote struct {
	ID       string
	Type     string
	Filename string
	Path     string
	Content  []byte
}

// SourceNoteFromPath builds a SourceNote from a vault-relative path of the
// form "<type>/<filename>.md". Files at the vault root get type "note".
func SourceNoteFromPath(relPath string, content []byte) SourceNote {
	dir, file := path.Split(relPath)
	noteType := strings.Trim(dir, "/")
	if noteType == "" {
		noteType = "note"
	}
	filename := strings.TrimSuffix(file, ".md")
	return SourceNote{
		ID:       NoteID(noteType, filename),
		Type:     noteType,
		Filename: filename,
		Path:     relPath,
		Content:  content,
	}
}
