//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// The full-text mirror is maintained entirely by triggers: every committed
// insert/update/delete on notes is reflected in notes_fts within the same
// transaction. Application code never writes the mirror.
func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			id UNINDEXED,
			title,
			content,
			type,
			tokenize = 'unicode61 remove_diacritics 2'
		);

		CREATE TRIGGER IF NOT EXISTS notes_fts_ai AFTER INSERT ON notes BEGIN
			INSERT INTO notes_fts (id, title, content, type)
			VALUES (new.id, new.title, coalesce(new.content, ''), new.type);
		END;

		CREATE TRIGGER IF NOT EXISTS notes_fts_ad AFTER DELETE ON notes BEGIN
			DELETE FROM notes_fts WHERE id = old.id;
		END;

		CREATE TRIGGER IF NOT EXISTS notes_fts_au AFTER UPDATE ON notes BEGIN
			DELETE FROM notes_fts WHERE id = old.id;
			INSERT INTO notes_fts (id, title, content, type)
			VALUES (new.id, new.title, coalesce(new.content, ''), new.type);
		END;
	`)
	return err
}

// SearchNotes performs an FTS5 full-text search, optionally scoped to a type.
func (db *DB) SearchNotes(query, noteType string, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT n.id, n.title, coalesce(n.content, ''), n.type, n.filename, n.path,
		       n.created_at, n.updated_at, n.size, n.content_hash
		FROM notes_fts f
		JOIN notes n ON n.id = f.id
		WHERE notes_fts MATCH ? AND (? = '' OR n.type = ?)
		ORDER BY rank
		LIMIT ?
	`, ftsQuote(query), noteType, noteType, limit)
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

// ftsQuote wraps each term in double quotes so user input is treated as plain
// terms rather than FTS5 query syntax.
func ftsQuote(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
