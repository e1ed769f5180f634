package internal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = t.TempDir()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "ansuz.db")
	return cfg
}

func TestBootstrapRestartPreservesIndex(t *testing.T) {
	cfg := testConfig(t)
	logger := testutil.Silent()
	ctx := context.Background()

	svc, _, _, db, err := bootstrap(cfg, logger)
	if err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	note, err := svc.CreateNote(ctx, "meeting", "standup", []byte("see [[alice]]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(note.Links) != 1 {
		t.Fatalf("links = %+v", note.Links)
	}
	edgeID := note.Links[0].ID
	created := note.CreatedAt
	db.Close()

	// Second start with the default (unpinned) config must pick up the
	// persisted marker instead of rebuilding from the oldest version.
	svc2, mgr2, _, db2, err := bootstrap(cfg, logger)
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	defer db2.Close()

	v, err := mgr2.CurrentVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != mgr2.TargetVersion() {
		t.Errorf("version after restart = %q, want %q", v, mgr2.TargetVersion())
	}

	again, err := svc2.GetNote(ctx, "meeting/standup")
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Links) != 1 || again.Links[0].ID != edgeID {
		t.Errorf("link edge regenerated across restart: %+v", again.Links)
	}
	if !again.CreatedAt.Equal(created) {
		t.Errorf("created_at changed across restart: %v != %v", again.CreatedAt, created)
	}
}
