// Package noteservice coordinates vault storage, the index store, and the
// link extraction and suggestion engines behind one service surface.
package noteservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/fingerprint"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/suggest"
	"github.com/starford/ansuz/internal/wikilink"
)

// NoteDetail is the full representation of a note with its metadata bag and
// link-graph neighborhood.
type NoteDetail struct {
	models.Note
	Fingerprint   string                 `json:"fingerprint"`
	Metadata      []models.MetadataEntry `json:"metadata,omitempty"`
	Links         []models.NoteLink      `json:"links"`
	ExternalLinks []models.ExternalLink  `json:"external_links"`
	Backlinks     []models.NoteLink      `json:"backlinks"`
}

// LinkValidation is the per-reference result of validate-wikilinks.
type LinkValidation struct {
	Target   string `json:"target"`
	Line     int    `json:"line"`
	Resolved bool   `json:"resolved"`
	NoteID   string `json:"note_id,omitempty"`
}

// Service coordinates storage, index, and engine operations. Note content
// changes flow one way: content write, then index write, then link graph
// re-derivation for that note.
type Service struct {
	store     storage.Provider
	db        *index.DB
	extractor *wikilink.Extractor
	engine    *suggest.Engine
	logger    *slog.Logger
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB, extractor *wikilink.Extractor, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		db:        db,
		extractor: extractor,
		engine:    suggest.NewEngine(db),
		logger:    logger,
	}
}

// DB exposes the underlying index store for read-side collaborators.
func (s *Service) DB() *index.DB { return s.db }

// CreateNote writes a new note to the vault and indexes it. A trailing ".md"
// on the filename is accepted and trimmed; the extension belongs to the
// storage path, not the identifier.
func (s *Service) CreateNote(_ context.Context, noteType, filename string, content []byte) (*NoteDetail, error) {
	filename = strings.TrimSuffix(filename, ".md")
	src := models.SourceNote{
		ID:       models.NoteID(noteType, filename),
		Type:     noteType,
		Filename: filename,
		Path:     noteType + "/" + filename + ".md",
		Content:  content,
	}
	if _, err := s.db.GetNote(src.ID); err == nil {
		return nil, apperr.ErrAlreadyExists
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if err := s.store.Write(src.Path, content); err != nil {
		return nil, err
	}
	if err := s.IndexNote(src); err != nil {
		return nil, err
	}
	return s.GetNote(context.Background(), src.ID)
}

// UpdateNote writes updated content under optimistic concurrency: the caller
// must supply the fingerprint of the content it last saw.
func (s *Service) UpdateNote(_ context.Context, id string, content []byte, suppliedFingerprint string) (*NoteDetail, error) {
	if err := fingerprint.Require(suppliedFingerprint); err != nil {
		return nil, err
	}
	note, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Read(note.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if err := fingerprint.Validate(existing, suppliedFingerprint); err != nil {
		return nil, err
	}
	if err := s.store.Write(note.Path, content); err != nil {
		return nil, err
	}
	src := models.SourceNote{
		ID:       id,
		Type:     note.Type,
		Filename: note.Filename,
		Path:     note.Path,
		Content:  content,
	}
	if err := s.IndexNote(src); err != nil {
		return nil, err
	}
	return s.GetNote(context.Background(), id)
}

// DeleteNote removes a note from vault and index. Inbound edges survive as
// broken links; outbound edges and metadata cascade away.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	note, err := s.db.GetNote(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(note.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return s.db.DeleteNote(id)
}

// GetNote returns a note enriched with metadata, outbound links, and
// backlinks.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	note, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	meta, err := s.db.MetadataFor(id)
	if err != nil {
		return nil, err
	}
	links, external, err := s.db.LinksFor(id)
	if err != nil {
		return nil, err
	}
	backlinks, err := s.db.BacklinksFor(id)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Note:          *note,
		Fingerprint:   note.ContentHash,
		Metadata:      meta,
		Links:         nonNilSlice(links),
		ExternalLinks: nonNilSlice(external),
		Backlinks:     nonNilSlice(backlinks),
	}, nil
}

// ListNotes returns paginated note records with optional type filter.
func (s *Service) ListNotes(_ context.Context, noteType string, limit, offset int) ([]models.Note, int, error) {
	return s.db.ListNotes(noteType, limit, offset)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query, noteType string, limit int) ([]models.Note, error) {
	return s.db.SearchNotes(query, noteType, limit)
}

// GetLinks returns a note's outbound edges.
func (s *Service) GetLinks(_ context.Context, id string) ([]models.NoteLink, []models.ExternalLink, error) {
	return s.db.LinksFor(id)
}

// GetBacklinks returns all resolved edges pointing at the note.
func (s *Service) GetBacklinks(_ context.Context, id string) ([]models.NoteLink, error) {
	return s.db.BacklinksFor(id)
}

// FindBrokenLinks returns every unresolved internal edge in the graph.
func (s *Service) FindBrokenLinks(_ context.Context) ([]models.NoteLink, error) {
	return s.db.BrokenLinks()
}

// SearchLinks runs a single-criterion link search.
func (s *Service) SearchLinks(_ context.Context, c index.LinkCriteria) (*index.LinkSearchResult, error) {
	return s.db.SearchByLinkCriteria(c)
}

// GenerateLinkReport aggregates graph-wide link statistics.
func (s *Service) GenerateLinkReport(_ context.Context) (*index.LinkReport, error) {
	return s.db.GenerateLinkReport()
}

// ValidateWikilinks parses content and resolves each internal reference
// without persisting anything.
func (s *Service) ValidateWikilinks(_ context.Context, content string) ([]LinkValidation, error) {
	refs, _ := wikilink.Parse(content)
	out := make([]LinkValidation, 0, len(refs))
	for _, ref := range refs {
		v := LinkValidation{Target: ref.Target, Line: ref.Line}
		id, ok, err := s.db.ResolveTarget(ref.Target)
		if err != nil {
			return nil, err
		}
		if ok {
			v.Resolved = true
			v.NoteID = id
		}
		out = append(out, v)
	}
	return out, nil
}

// Suggest proposes ranked replacement targets for a broken reference.
func (s *Service) Suggest(_ context.Context, target, display, noteType, contextStr string, limit int) ([]suggest.Suggestion, error) {
	return s.engine.Suggest(target, display, noteType, contextStr, limit)
}

// AutoLink rewrites content with links to matching notes.
func (s *Service) AutoLink(_ context.Context, content string, opts suggest.AutoLinkOptions) (*suggest.AutoLinkResult, error) {
	return s.engine.AutoLink(content, opts)
}

// IndexNote parses raw note content and writes the note record, its metadata
// bag, and its refreshed link graph. Exported so sync and the watcher reuse it.
func (s *Service) IndexNote(src models.SourceNote) error {
	parsed := parser.Parse(src.Content)
	title := parsed.Title
	if title == "" {
		title = src.Filename
	}
	meta, err := index.MetadataFromMap(src.ID, parsed.Frontmatter)
	if err != nil {
		return err
	}
	now := time.Now()
	note := models.Note{
		ID:          src.ID,
		Title:       title,
		Content:     parsed.Body,
		Type:        src.Type,
		Filename:    src.Filename,
		Path:        src.Path,
		CreatedAt:   now,
		UpdatedAt:   now,
		Size:        int64(len(src.Content)),
		ContentHash: fingerprint.Sum(src.Content),
	}
	if err := s.db.SaveNote(note, meta); err != nil {
		return err
	}
	return s.extractor.Refresh(src.ID, parsed.Body)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
