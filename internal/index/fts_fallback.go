//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/ansuz/internal/models"
)

// FTS5 not compiled in: the notes table itself is the searchable projection
// (title/content/type live there), so the mirror-sync invariant holds
// trivially and search falls back to LIKE.
func initFTS(_ *sql.DB) error { return nil }

// SearchNotes performs a LIKE-based search (fallback when FTS5 is absent).
func (db *DB) SearchNotes(query, noteType string, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, title, coalesce(content, ''), type, filename, path,
		       created_at, updated_at, size, content_hash
		FROM notes
		WHERE (title LIKE ? OR content LIKE ? OR filename LIKE ?)
		  AND (? = '' OR type = ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`, like, like, like, noteType, noteType, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scanNoteRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}
