package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/ansuz/internal/models"
)

// ReplaceNoteLinks swaps a note's entire edge set, internal and external, in
// one transaction. Re-extraction is always clear-then-insert, so the graph
// never accumulates stale edges from earlier versions of the note.
func (db *DB) ReplaceNoteLinks(noteID string, internal []models.NoteLink, external []models.ExternalLink) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := db.ReplaceNoteLinksIn(tx, noteID, internal, external); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceNoteLinksIn is ReplaceNoteLinks running inside a caller-owned
// transaction, used by batch link migration for per-batch boundaries.
func (db *DB) ReplaceNoteLinksIn(tx *sql.Tx, noteID string, internal []models.NoteLink, external []models.ExternalLink) error {
	if _, err := tx.Exec(`DELETE FROM note_links WHERE source_id = ?`, noteID); err != nil {
		return fmt.Errorf("index: clear note links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM external_links WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("index: clear external links: %w", err)
	}

	for _, l := range internal {
		_, err := tx.Exec(`
			INSERT INTO note_links (id, source_id, target_id, target_title, link_text, line_number, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, l.ID, noteID, l.TargetID, l.TargetTitle, l.LinkText, l.LineNumber, l.CreatedAt)
		if err != nil {
			return fmt.Errorf("index: insert note link: %w", err)
		}
	}
	for _, l := range external {
		_, err := tx.Exec(`
			INSERT INTO external_links (id, note_id, url, title, line_number, link_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, l.ID, noteID, l.URL, l.Title, l.LineNumber, string(l.Kind), l.CreatedAt)
		if err != nil {
			return fmt.Errorf("index: insert external link: %w", err)
		}
	}
	return nil
}

// LinksFor returns all outbound edges for a note.
func (db *DB) LinksFor(noteID string) ([]models.NoteLink, []models.ExternalLink, error) {
	if _, err := db.GetNote(noteID); err != nil {
		return nil, nil, err
	}
	internal, err := db.queryNoteLinks(`WHERE source_id = ? ORDER BY line_number, id`, noteID)
	if err != nil {
		return nil, nil, err
	}
	external, err := db.queryExternalLinks(`WHERE note_id = ? ORDER BY line_number, id`, noteID)
	if err != nil {
		return nil, nil, err
	}
	return internal, external, nil
}

// BacklinksFor returns all internal edges whose resolved target is the note.
// Broken edges never count as backlinks.
func (db *DB) BacklinksFor(noteID string) ([]models.NoteLink, error) {
	if _, err := db.GetNote(noteID); err != nil {
		return nil, err
	}
	return db.queryNoteLinks(`WHERE target_id = ? ORDER BY source_id, line_number`, noteID)
}

// BrokenLinks returns every internal edge with an unresolved target.
func (db *DB) BrokenLinks() ([]models.NoteLink, error) {
	return db.queryNoteLinks(`WHERE target_id IS NULL ORDER BY source_id, line_number`)
}

// LinkCriteria selects edges by a single criterion. Criteria are mutually
// exclusive per call: the first non-empty one wins and the rest are ignored.
type LinkCriteria struct {
	LinksTo        string // notes whose edges resolve to this note id
	LinkedFrom     string // edges owned by this note id
	ExternalDomain string // substring match against external URLs
	BrokenOnly     bool
}

// LinkSearchResult holds the edges matched by SearchByLinkCriteria. Only the
// slice relevant to the winning criterion is populated.
type LinkSearchResult struct {
	Internal []models.NoteLink     `json:"internal"`
	External []models.ExternalLink `json:"external"`
}

// SearchByLinkCriteria runs a set-based query over the edge tables.
func (db *DB) SearchByLinkCriteria(c LinkCriteria) (*LinkSearchResult, error) {
	switch {
	case c.LinksTo != "":
		links, err := db.BacklinksFor(c.LinksTo)
		if err != nil {
			return nil, err
		}
		return &LinkSearchResult{Internal: links}, nil
	case c.LinkedFrom != "":
		internal, external, err := db.LinksFor(c.LinkedFrom)
		if err != nil {
			return nil, err
		}
		return &LinkSearchResult{Internal: internal, External: external}, nil
	case c.ExternalDomain != "":
		external, err := db.queryExternalLinks(`WHERE url LIKE ? ORDER BY note_id, line_number`, "%"+c.ExternalDomain+"%")
		if err != nil {
			return nil, err
		}
		return &LinkSearchResult{External: external}, nil
	case c.BrokenOnly:
		broken, err := db.BrokenLinks()
		if err != nil {
			return nil, err
		}
		return &LinkSearchResult{Internal: broken}, nil
	default:
		return nil, fmt.Errorf("index: search links: no criterion supplied")
	}
}

// LinkReport aggregates graph-wide link statistics.
type LinkReport struct {
	TotalInternal  int                     `json:"total_internal"`
	TotalExternal  int                     `json:"total_external"`
	Broken         int                     `json:"broken"`
	ExternalByKind map[models.LinkKind]int `json:"external_by_kind"`
	MostLinked     []LinkCount             `json:"most_linked"`
}

// LinkCount pairs a note with its inbound link count.
type LinkCount struct {
	NoteID string `json:"note_id"`
	Count  int    `json:"count"`
}

// GenerateLinkReport computes the link report over the whole graph.
func (db *DB) GenerateLinkReport() (*LinkReport, error) {
	report := &LinkReport{ExternalByKind: make(map[models.LinkKind]int)}

	row := db.conn.QueryRow(`
		SELECT count(*), count(*) FILTER (WHERE target_id IS NULL) FROM note_links
	`)
	if err := row.Scan(&report.TotalInternal, &report.Broken); err != nil {
		return nil, fmt.Errorf("index: link report counts: %w", err)
	}

	rows, err := db.conn.Query(`SELECT link_type, count(*) FROM external_links GROUP BY link_type`)
	if err != nil {
		return nil, fmt.Errorf("index: link report external: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		report.ExternalByKind[models.LinkKind(kind)] = n
		report.TotalExternal += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	top, err := db.conn.Query(`
		SELECT target_id, count(*) AS n FROM note_links
		WHERE target_id IS NOT NULL
		GROUP BY target_id ORDER BY n DESC, target_id LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("index: link report top: %w", err)
	}
	defer top.Close()
	for top.Next() {
		var lc LinkCount
		if err := top.Scan(&lc.NoteID, &lc.Count); err != nil {
			return nil, err
		}
		report.MostLinked = append(report.MostLinked, lc)
	}
	return report, top.Err()
}

func (db *DB) queryNoteLinks(where string, args ...any) ([]models.NoteLink, error) {
	rows, err := db.conn.Query(`
		SELECT id, source_id, target_id, target_title, link_text, line_number, created_at
		FROM note_links `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query note links: %w", err)
	}
	defer rows.Close()

	var out []models.NoteLink
	for rows.Next() {
		var l models.NoteLink
		var target sql.NullString
		if err := rows.Scan(&l.ID, &l.SourceID, &target, &l.TargetTitle, &l.LinkText, &l.LineNumber, &l.CreatedAt); err != nil {
			return nil, err
		}
		if target.Valid {
			l.TargetID = &target.String
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (db *DB) queryExternalLinks(where string, args ...any) ([]models.ExternalLink, error) {
	rows, err := db.conn.Query(`
		SELECT id, note_id, url, title, line_number, link_type, created_at
		FROM external_links `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query external links: %w", err)
	}
	defer rows.Close()

	var out []models.ExternalLink
	for rows.Next() {
		var l models.ExternalLink
		var kind string
		if err := rows.Scan(&l.ID, &l.NoteID, &l.URL, &l.Title, &l.LineNumber, &kind, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Kind = models.LinkKind(kind)
		out = append(out, l)
	}
	return out, rows.Err()
}
