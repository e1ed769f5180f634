package api

import (
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/suggest"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// UpdateNoteRequest is the request body for updating a note. Fingerprint is
// the content hash the caller last saw; updates without it are rejected.
type UpdateNoteRequest struct {
	Content     string `json:"content"`
	Fingerprint string `json:"fingerprint"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []models.Note `json:"results"`
}

// LinksResponse wraps a note's outbound edges.
type LinksResponse struct {
	Links         []models.NoteLink     `json:"links"`
	ExternalLinks []models.ExternalLink `json:"external_links"`
}

// BacklinksResponse wraps a note's inbound edges.
type BacklinksResponse struct {
	Backlinks []models.NoteLink `json:"backlinks"`
}

// BrokenLinksResponse wraps the global broken-link listing.
type BrokenLinksResponse struct {
	Broken []models.NoteLink `json:"broken"`
}

// ValidateRequest is the request body for validate-wikilinks.
type ValidateRequest struct {
	Content string `json:"content"`
}

// ValidateResponse lists each reference with its resolution outcome.
type ValidateResponse struct {
	Links []noteservice.LinkValidation `json:"links"`
}

// SuggestResponse wraps ranked link suggestions.
type SuggestResponse struct {
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// AutoLinkRequest is the request body for auto-linking a document.
type AutoLinkRequest struct {
	Content        string `json:"content"`
	Type           string `json:"type,omitempty"`
	Aggressiveness string `json:"aggressiveness,omitempty"`
	Context        string `json:"context,omitempty"`
	SourceID       string `json:"source_id,omitempty"`
}

// MigrateRequest is the request body for operator-triggered migrations.
type MigrateRequest struct {
	Version string `json:"version,omitempty"` // empty: run pending migrations
}
