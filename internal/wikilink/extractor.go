package wikilink

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// migrateBatchSize bounds the per-transaction work during batch re-extraction.
const migrateBatchSize = 100

// maxSampleErrors caps how many per-note error messages a Summary carries.
const maxSampleErrors = 5

// NoteSource supplies (id, content) pairs for batch re-extraction.
type NoteSource interface {
	AllNotes() ([]models.SourceNote, error)
}

// Extractor derives the link graph from note content and persists it.
type Extractor struct {
	db     *index.DB
	logger *slog.Logger
}

// New creates an Extractor writing through the given store.
func New(db *index.DB, logger *slog.Logger) *Extractor {
	return &Extractor{db: db, logger: logger}
}

// Refresh re-derives the link graph for a single note: parses the content,
// resolves internal targets against the store, and atomically replaces the
// note's entire edge set. Unresolved targets persist as broken links.
func (e *Extractor) Refresh(noteID, content string) error {
	internal, external, err := e.extract(noteID, content)
	if err != nil {
		return err
	}
	if err := e.db.ReplaceNoteLinks(noteID, internal, external); err != nil {
		return fmt.Errorf("wikilink: refresh %s: %w", noteID, err)
	}
	return nil
}

// Summary aggregates the outcome of a batch re-extraction run.
type Summary struct {
	Processed    int      `json:"processed"`
	LinksCreated int      `json:"links_created"`
	ErrorCount   int      `json:"error_count"`
	SampleErrors []string `json:"sample_errors,omitempty"`
}

func (s *Summary) recordError(noteID string, err error) {
	s.ErrorCount++
	if len(s.SampleErrors) < maxSampleErrors {
		s.SampleErrors = append(s.SampleErrors, fmt.Sprintf("%s: %v", noteID, err))
	}
}

// MigrateAll re-extracts the link graph for every note the source supplies,
// in fixed-size batches with one transaction per batch. A failure in one
// note's extraction is logged and counted but does not abort the batch;
// transaction-level failures roll the whole batch back and abort the run.
// The progress callback, if non-nil, is invoked synchronously between batches.
func (e *Extractor) MigrateAll(source NoteSource, progress func(done, total int)) (*Summary, error) {
	notes, err := source.AllNotes()
	if err != nil {
		return nil, fmt.Errorf("wikilink: load notes: %w", err)
	}

	summary := &Summary{}
	total := len(notes)

	for start := 0; start < total; start += migrateBatchSize {
		end := start + migrateBatchSize
		if end > total {
			end = total
		}
		if err := e.migrateBatch(notes[start:end], summary); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(end, total)
		}
	}
	return summary, nil
}

func (e *Extractor) migrateBatch(batch []models.SourceNote, summary *Summary) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("wikilink: batch begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, note := range batch {
		// Sources supply raw file content. The write path extracts from the
		// parsed body, so the batch path must too: same line numbers, and no
		// edges from frontmatter values.
		parsed := parser.Parse(note.Content)
		internal, external, err := e.extract(note.ID, parsed.Body)
		if err != nil {
			e.logger.Warn("link extraction failed",
				slog.String("note", note.ID),
				slog.String("error", err.Error()))
			summary.recordError(note.ID, err)
			continue
		}
		if err := e.db.ReplaceNoteLinksIn(tx, note.ID, internal, external); err != nil {
			e.logger.Warn("link replace failed",
				slog.String("note", note.ID),
				slog.String("error", err.Error()))
			summary.recordError(note.ID, err)
			continue
		}
		summary.Processed++
		summary.LinksCreated += len(internal) + len(external)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("wikilink: batch commit: %w", err)
	}
	return nil
}

// extract parses content and resolves internal targets to note identifiers.
func (e *Extractor) extract(noteID, content string) ([]models.NoteLink, []models.ExternalLink, error) {
	internalRefs, externalRefs := Parse(content)
	now := time.Now()

	links := make([]models.NoteLink, 0, len(internalRefs))
	for _, ref := range internalRefs {
		link := models.NoteLink{
			ID:          uuid.NewString(),
			SourceID:    noteID,
			TargetTitle: ref.Target,
			LinkText:    ref.Display,
			LineNumber:  ref.Line,
			CreatedAt:   now,
		}
		targetID, ok, err := e.db.ResolveTarget(ref.Target)
		if err != nil {
			return nil, nil, fmt.Errorf("wikilink: resolve %q: %w", ref.Target, err)
		}
		if ok {
			link.TargetID = &targetID
		}
		links = append(links, link)
	}

	external := make([]models.ExternalLink, 0, len(externalRefs))
	for _, ref := range externalRefs {
		external = append(external, models.ExternalLink{
			ID:         uuid.NewString(),
			NoteID:     noteID,
			URL:        ref.URL,
			Title:      ref.Title,
			LineNumber: ref.Line,
			Kind:       ref.Kind,
			CreatedAt:  now,
		})
	}
	return links, external, nil
}
