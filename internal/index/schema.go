// Package index provides the SQLite-backed note index: note records,
// metadata, the link graph, and a full-text mirror kept in sync with note
// content at the storage layer.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	content      TEXT,
	type         TEXT NOT NULL,
	filename     TEXT NOT NULL,
	path         TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	size         INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_notes_type_filename ON notes(type, filename);
CREATE INDEX IF NOT EXISTS idx_notes_filename ON notes(filename);

CREATE TABLE IF NOT EXISTS note_metadata (
	note_id    TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL DEFAULT '',
	value_type TEXT NOT NULL DEFAULT 'string',
	PRIMARY KEY (note_id, key)
);

CREATE TABLE IF NOT EXISTS note_links (
	id           TEXT PRIMARY KEY,
	source_id    TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	target_id    TEXT REFERENCES notes(id) ON DELETE SET NULL,
	target_title TEXT NOT NULL,
	link_text    TEXT NOT NULL DEFAULT '',
	line_number  INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_note_links_source ON note_links(source_id);
CREATE INDEX IF NOT EXISTS idx_note_links_target ON note_links(target_id);

CREATE TABLE IF NOT EXISTS external_links (
	id          TEXT PRIMARY KEY,
	note_id     TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	url         TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	line_number INTEGER NOT NULL DEFAULT 0,
	link_type   TEXT NOT NULL DEFAULT 'url',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_external_links_note ON external_links(note_id);

CREATE TABLE IF NOT EXISTS schema_info (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const schemaVersionKey = "schema_version"

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn     *sql.DB
	readOnly bool
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// OpenReadOnly opens an existing database for queries only. Read-only
// handles observe committed snapshots, never mid-transaction state.
func OpenReadOnly(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", "file:"+dsn+"?mode=ro&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open read-only db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping read-only: %w", err)
	}
	return &DB{conn: conn, readOnly: true}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Run executes a parameterized statement that returns no rows.
func (db *DB) Run(query string, args ...any) error {
	if _, err := db.conn.Exec(query, args...); err != nil {
		return fmt.Errorf("index: run: %w", err)
	}
	return nil
}

// Get runs a parameterized query expected to return at most one row.
func (db *DB) Get(query string, args ...any) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// All runs a parameterized query returning any number of rows.
func (db *DB) All(query string, args ...any) (*sql.Rows, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query: %w", err)
	}
	return rows, nil
}

// Begin starts an explicit transaction. Callers use this for batch work
// that needs its own transaction boundary.
func (db *DB) Begin() (*sql.Tx, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("index: begin tx: %w", err)
	}
	return tx, nil
}

// SchemaVersion returns the persisted schema-version marker, or empty string
// when the marker has never been written.
func (db *DB) SchemaVersion() (string, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM schema_info WHERE key = ?`, schemaVersionKey).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: read schema version: %w", err)
	}
	return v, nil
}

// SetSchemaVersion writes the schema-version marker. The marker only moves
// forward; regressions are the migration manager's responsibility to prevent.
func (db *DB) SetSchemaVersion(version string) error {
	_, err := db.conn.Exec(`
		INSERT INTO schema_info (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, schemaVersionKey, version)
	if err != nil {
		return fmt.Errorf("index: set schema version: %w", err)
	}
	return nil
}

// TableExists reports whether a table (or virtual table) is present.
func (db *DB) TableExists(name string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("index: table exists: %w", err)
	}
	return n > 0, nil
}
