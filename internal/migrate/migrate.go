// Package migrate tracks the index schema version and executes pending
// migrations, including full index rebuilds and link re-extraction.
package migrate

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/fingerprint"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/wikilink"
)

// NoteSource supplies every note's raw content for re-indexing and batch
// link extraction during a migration run.
type NoteSource interface {
	AllNotes() ([]models.SourceNote, error)
}

// Migration describes one schema step. Run, if non-nil, is a custom step
// executed after any full rebuild and before link re-extraction.
type Migration struct {
	Version               string
	Description           string
	RequiresFullRebuild   bool
	RequiresLinkMigration bool
	Run                   func(db *index.DB) error
}

// DefaultMigrations is the migration set shipped with this build. Tests may
// construct a Manager with an alternate set.
func DefaultMigrations() []Migration {
	return []Migration{
		{
			Version:     "1.0.0",
			Description: "baseline note index with metadata and full-text mirror",
		},
		{
			Version:               "1.1.0",
			Description:           "link graph tables; full rebuild and link re-extraction",
			RequiresFullRebuild:   true,
			RequiresLinkMigration: true,
		},
	}
}

// Result reports what a migration run actually did.
type Result struct {
	Migrated           bool              `json:"migrated"`
	RebuiltDatabase    bool              `json:"rebuilt_database"`
	MigratedLinks      bool              `json:"migrated_links"`
	FromVersion        string            `json:"from_version"`
	ToVersion          string            `json:"to_version"`
	ExecutedMigrations []string          `json:"executed_migrations"`
	LinkSummary        *wikilink.Summary `json:"link_summary,omitempty"`
}

// MigrationInfo is the read-only view of one configured migration.
type MigrationInfo struct {
	Version               string `json:"version"`
	Description           string `json:"description"`
	RequiresFullRebuild   bool   `json:"requires_full_rebuild"`
	RequiresLinkMigration bool   `json:"requires_link_migration"`
}

// Info describes the manager's configuration and current state.
type Info struct {
	CurrentVersion string          `json:"current_version"`
	TargetVersion  string          `json:"target_version"`
	Migrations     []MigrationInfo `json:"migrations"`
}

// Manager executes migrations against one index store. The migration set is
// fixed at construction; there is no global migration registry.
type Manager struct {
	db         *index.DB
	extractor  *wikilink.Extractor
	migrations []Migration
	logger     *slog.Logger
}

// NewManager builds a Manager over the given store and migration set. The
// set is copied and sorted by version.
func NewManager(db *index.DB, extractor *wikilink.Extractor, migrations []Migration, logger *slog.Logger) *Manager {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareVersions(sorted[i].Version, sorted[j].Version) < 0
	})
	return &Manager{db: db, extractor: extractor, migrations: sorted, logger: logger}
}

// TargetVersion is the newest version in the configured migration set.
func (m *Manager) TargetVersion() string {
	if len(m.migrations) == 0 {
		return ""
	}
	return m.migrations[len(m.migrations)-1].Version
}

// OldestVersion is the oldest known version; an absent declared version is
// treated as this.
func (m *Manager) OldestVersion() string {
	if len(m.migrations) == 0 {
		return ""
	}
	return m.migrations[0].Version
}

// CurrentVersion reads the persisted schema-version marker, falling back to
// the oldest known version when the marker has never been written.
func (m *Manager) CurrentVersion() (string, error) {
	v, err := m.db.SchemaVersion()
	if err != nil {
		return "", err
	}
	if v == "" {
		return m.OldestVersion(), nil
	}
	return v, nil
}

// Info returns the configured migration list and current/target versions.
func (m *Manager) Info() (*Info, error) {
	current, err := m.CurrentVersion()
	if err != nil {
		return nil, err
	}
	info := &Info{CurrentVersion: current, TargetVersion: m.TargetVersion()}
	for _, mig := range m.migrations {
		info.Migrations = append(info.Migrations, MigrationInfo{
			Version:               mig.Version,
			Description:           mig.Description,
			RequiresFullRebuild:   mig.RequiresFullRebuild,
			RequiresLinkMigration: mig.RequiresLinkMigration,
		})
	}
	return info, nil
}

// CheckAndMigrate brings the store from declaredVersion to the target
// version. It is a no-op when the declared version already equals the target.
// Any failure aborts the whole call; partial migrations are never reported
// as applied.
func (m *Manager) CheckAndMigrate(declaredVersion string, source NoteSource) (*Result, error) {
	if declaredVersion == "" {
		declaredVersion = m.OldestVersion()
	}
	target := m.TargetVersion()
	res := &Result{FromVersion: declaredVersion, ToVersion: target}

	if declaredVersion == target {
		return res, nil
	}

	var pending []Migration
	for _, mig := range m.migrations {
		if IsVersionNewer(mig.Version, declaredVersion) {
			pending = append(pending, mig)
		}
	}
	if len(pending) == 0 {
		res.ToVersion = declaredVersion
		return res, nil
	}

	for _, mig := range pending {
		m.logger.Info("running migration",
			slog.String("version", mig.Version),
			slog.String("description", mig.Description))
		if err := m.execute(mig, source, res); err != nil {
			return nil, &apperr.MigrationFailedError{Version: mig.Version, Err: err}
		}
		res.ExecutedMigrations = append(res.ExecutedMigrations, mig.Version)
		if err := m.advanceMarker(mig.Version); err != nil {
			return nil, &apperr.MigrationFailedError{Version: mig.Version, Err: err}
		}
	}

	res.Migrated = true
	return res, nil
}

// RunSpecificMigration executes one migration by exact version, bypassing the
// already-at-version short-circuit. Intended for operator-forced runs.
func (m *Manager) RunSpecificMigration(version string, source NoteSource) (*Result, error) {
	var found *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			found = &m.migrations[i]
			break
		}
	}
	if found == nil {
		return nil, &apperr.MigrationNotFoundError{Version: version}
	}

	current, err := m.CurrentVersion()
	if err != nil {
		return nil, err
	}
	res := &Result{FromVersion: current, ToVersion: version}

	m.logger.Info("running specific migration", slog.String("version", version))
	if err := m.execute(*found, source, res); err != nil {
		return nil, &apperr.MigrationFailedError{Version: version, Err: err}
	}
	res.ExecutedMigrations = []string{version}
	res.Migrated = true
	if err := m.advanceMarker(version); err != nil {
		return nil, &apperr.MigrationFailedError{Version: version, Err: err}
	}
	return res, nil
}

// ValidateSchema checks that the tables a given version requires actually
// exist. It is a post-migration sanity check, not a migration trigger.
func (m *Manager) ValidateSchema(version string) (bool, error) {
	tables := []string{"notes", "note_metadata", "schema_info"}
	if !IsVersionNewer("1.1.0", version) { // version >= 1.1.0
		tables = append(tables, "note_links", "external_links")
	}
	for _, t := range tables {
		ok, err := m.db.TableExists(t)
		if err != nil {
			return false, fmt.Errorf("migrate: validate schema: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *Manager) execute(mig Migration, source NoteSource, res *Result) error {
	if mig.RequiresFullRebuild {
		if err := m.db.Rebuild(); err != nil {
			return err
		}
		res.RebuiltDatabase = true
		if err := m.reindexAll(source); err != nil {
			return err
		}
	}

	if mig.Run != nil {
		if err := mig.Run(m.db); err != nil {
			return err
		}
	}

	if mig.RequiresLinkMigration {
		summary, err := m.extractor.MigrateAll(source, func(done, total int) {
			m.logger.Info("link migration progress",
				slog.Int("done", done),
				slog.Int("total", total))
		})
		if err != nil {
			return err
		}
		res.LinkSummary = summary
		if summary.LinksCreated > 0 {
			res.MigratedLinks = true
		}
	}
	return nil
}

// reindexAll repopulates the notes table (and, through it, metadata and the
// full-text mirror) from the note source after a full rebuild.
func (m *Manager) reindexAll(source NoteSource) error {
	notes, err := source.AllNotes()
	if err != nil {
		return fmt.Errorf("migrate: load notes: %w", err)
	}
	now := time.Now()
	for _, src := range notes {
		parsed := parser.Parse(src.Content)
		title := parsed.Title
		if title == "" {
			title = src.Filename
		}
		meta, err := index.MetadataFromMap(src.ID, parsed.Frontmatter)
		if err != nil {
			return fmt.Errorf("migrate: metadata for %s: %w", src.ID, err)
		}
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
		if err := m.db.SaveNote(note, meta); err != nil {
			return fmt.Errorf("migrate: reindex %s: %w", src.ID, err)
		}
	}
	return nil
}

// advanceMarker moves the schema-version marker forward. The marker never
// regresses, even on operator-forced runs of older migrations.
func (m *Manager) advanceMarker(version string) error {
	current, err := m.db.SchemaVersion()
	if err != nil {
		return err
	}
	if current != "" && !IsVersionNewer(version, current) {
		return nil
	}
	return m.db.SetSchemaVersion(version)
}
