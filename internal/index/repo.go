package index

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// SaveNote inserts or replaces a note record together with its metadata bag
// inside one transaction. The full-text mirror follows automatically via the
// storage-layer triggers; callers never write it directly.
func (db *DB) SaveNote(n models.Note, meta []models.MetadataEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (id, title, content, type, filename, path, created_at, updated_at, size, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title        = excluded.title,
			content      = excluded.content,
			path         = excluded.path,
			updated_at   = excluded.updated_at,
			size         = excluded.size,
			content_hash = excluded.content_hash
	`, n.ID, n.Title, nullableContent(n.Content), n.Type, n.Filename, n.Path,
		n.CreatedAt, n.UpdatedAt, n.Size, n.ContentHash)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// Replace metadata: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM note_metadata WHERE note_id = ?`, n.ID); err != nil {
		return fmt.Errorf("index: clear metadata: %w", err)
	}
	if len(meta) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO note_metadata (note_id, key, value, value_type) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare metadata insert: %w", err)
		}
		defer stmt.Close()
		for _, m := range meta {
			if _, err := stmt.Exec(n.ID, m.Key, m.Value, string(m.Kind)); err != nil {
				return fmt.Errorf("index: insert metadata %s: %w", m.Key, err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note. Metadata and outbound edges cascade away; inbound
// edges keep their rows but lose their target, becoming broken links.
func (db *DB) DeleteNote(id string) error {
	res, err := db.conn.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// GetNote returns a note record by identifier.
func (db *DB) GetNote(id string) (*models.Note, error) {
	return db.scanNote(db.conn.QueryRow(`
		SELECT id, title, coalesce(content, ''), type, filename, path, created_at, updated_at, size, content_hash
		FROM notes WHERE id = ?
	`, id))
}

// GetNoteByFilename looks a note up by bare filename. The first match in
// identifier order wins; ambiguity beyond that is not resolved here.
func (db *DB) GetNoteByFilename(filename string) (*models.Note, error) {
	return db.scanNote(db.conn.QueryRow(`
		SELECT id, title, coalesce(content, ''), type, filename, path, created_at, updated_at, size, content_hash
		FROM notes WHERE filename = ? ORDER BY id LIMIT 1
	`, filename))
}

// ResolveTarget resolves a wikilink target ("type/filename" or bare filename)
// to an existing note identifier. The second return is false when the target
// does not resolve.
func (db *DB) ResolveTarget(target string) (string, bool, error) {
	var note *models.Note
	var err error
	if strings.Contains(target, "/") {
		note, err = db.GetNote(target)
	} else {
		note, err = db.GetNoteByFilename(target)
	}
	if err != nil {
		if err == apperr.ErrNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return note.ID, true, nil
}

// ListNotes returns paginated note records, optionally filtered by type.
func (db *DB) ListNotes(noteType string, limit, offset int) ([]models.Note, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes WHERE (? = '' OR type = ?)`, noteType, noteType).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, title, coalesce(content, ''), type, filename, path, created_at, updated_at, size, content_hash
		FROM notes WHERE (? = '' OR type = ?)
		ORDER BY updated_at DESC LIMIT ? OFFSET ?
	`, noteType, noteType, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scanNoteRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

// NotesOfType returns every note of the given type, or all notes when the
// type is empty. Used by the suggestion engine as its candidate set.
func (db *DB) NotesOfType(noteType string) ([]models.Note, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, coalesce(content, ''), type, filename, path, created_at, updated_at, size, content_hash
		FROM notes WHERE (? = '' OR type = ?) ORDER BY id
	`, noteType, noteType)
	if err != nil {
		return nil, fmt.Errorf("index: notes of type: %w", err)
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

// GetContentHash returns the stored content hash for a note, or empty string
// when the note is not indexed.
func (db *DB) GetContentHash(id string) (string, error) {
	var h string
	err := db.conn.QueryRow(`SELECT content_hash FROM notes WHERE id = ?`, id).Scan(&h)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get content hash: %w", err)
	}
	return h, nil
}

// AllContentHashes returns the content hash of every indexed note keyed by id.
func (db *DB) AllContentHashes() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, content_hash FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all content hashes: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, h string
		if err := rows.Scan(&id, &h); err != nil {
			return nil, err
		}
		out[id] = h
	}
	return out, rows.Err()
}

// NoteCount returns the number of indexed notes.
func (db *DB) NoteCount() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: note count: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanNote(row *sql.Row) (*models.Note, error) {
	n, err := scanNoteRow(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	return n, err
}

func scanNoteRow(row rowScanner) (*models.Note, error) {
	var n models.Note
	var created, updated time.Time
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Type, &n.Filename, &n.Path,
		&created, &updated, &n.Size, &n.ContentHash)
	if err != nil {
		return nil, err
	}
	n.CreatedAt, n.UpdatedAt = created, updated
	return &n, nil
}

func nullableContent(content string) any {
	if content == "" {
		return nil
	}
	return content
}
