package suggest

import (
	"fmt"
	"sort"

	"github.com/starford/ansuz/internal/models"
)

// NoteSource is the read side the engine consumes: full-text search and
// type-scoped candidate listing.
type NoteSource interface {
	SearchNotes(query, noteType string, limit int) ([]models.Note, error)
	NotesOfType(noteType string) ([]models.Note, error)
}

// Engine generates ranked link suggestions and performs whole-document
// auto-linking.
type Engine struct {
	source NoteSource
}

// NewEngine creates an Engine over the given note source.
func NewEngine(source NoteSource) *Engine {
	return &Engine{source: source}
}

// Suggestion is one ranked candidate for a broken or prospective link.
type Suggestion struct {
	NoteID   string  `json:"note_id"`
	Title    string  `json:"title"`
	Filename string  `json:"filename"`
	Type     string  `json:"type"`
	Score    float64 `json:"score"`
}

// Suggest proposes replacement targets for a broken reference. The query is
// the reference's display text when present, otherwise the stated target's
// filename part. Ties are broken by descending score, stable on insertion
// order otherwise.
func (e *Engine) Suggest(target, display, noteType, context string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = 5
	}
	query := display
	if query == "" {
		_, query = models.SplitID(target)
	}

	// Cast a wider net than the limit; scoring reorders the hits.
	candidates, err := e.source.SearchNotes(query, noteType, limit*4)
	if err != nil {
		return nil, fmt.Errorf("suggest: search: %w", err)
	}

	var out []Suggestion
	for _, c := range candidates {
		score := Score(c.Title, c.Filename, query)
		if score <= 0 {
			continue
		}
		score += ContextBoost(c.Title, c.Filename, context)
		out = append(out, Suggestion{
			NoteID:   c.ID,
			Title:    c.Title,
			Filename: c.Filename,
			Type:     c.Type,
			Score:    score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
