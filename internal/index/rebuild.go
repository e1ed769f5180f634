package index

import "fmt"

// Rebuild empties every derived table (links, metadata, notes, and via the
// mirror triggers the full-text projection) in a single transaction, then
// reclaims space and refreshes query-planner statistics. The schema-version
// marker is never touched. On any failure mid-transaction the store is left
// exactly as it was before the call.
func (db *DB) Rebuild() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: rebuild begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, table := range []string{"note_links", "external_links", "note_metadata", "notes"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("index: rebuild clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: rebuild commit: %w", err)
	}

	// VACUUM cannot run inside a transaction; the atomicity contract covers
	// the emptying above, not the space reclaim.
	if _, err := db.conn.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("index: rebuild vacuum: %w", err)
	}
	if _, err := db.conn.Exec(`ANALYZE`); err != nil {
		return fmt.Errorf("index: rebuild analyze: %w", err)
	}
	return nil
}
