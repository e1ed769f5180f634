package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
)

func TestSyncIndexesNewFiles(t *testing.T) {
	svc, store := testService(t)

	if err := store.Write("meeting/standup.md", []byte("---\ntitle: Standup\n---\nsee [[alice]]\n")); err != nil {
		t.Fatal(err)
	}
	if err := store.Write("person/alice.md", []byte("# Alice\n")); err != nil {
		t.Fatal(err)
	}

	if err := svc.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	note, err := svc.GetNote(context.Background(), "meeting/standup")
	if err != nil {
		t.Fatal(err)
	}
	if note.Title != "Standup" {
		t.Errorf("title = %q", note.Title)
	}
	if len(note.Links) != 1 || note.Links[0].Broken() {
		t.Errorf("links = %+v", note.Links)
	}
}

func TestSyncSkipsUnchangedAndReindexesChanged(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	if err := store.Write("note/a.md", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sync(); err != nil {
		t.Fatal(err)
	}
	before, err := svc.GetNote(ctx, "note/a")
	if err != nil {
		t.Fatal(err)
	}

	// Unchanged file keeps its record.
	if err := svc.Sync(); err != nil {
		t.Fatal(err)
	}
	same, err := svc.GetNote(ctx, "note/a")
	if err != nil {
		t.Fatal(err)
	}
	if !same.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("unchanged file was reindexed")
	}

	// Changed file is picked up.
	if err := store.Write("note/a.md", []byte("second")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sync(); err != nil {
		t.Fatal(err)
	}
	after, err := svc.GetNote(ctx, "note/a")
	if err != nil {
		t.Fatal(err)
	}
	if after.Content != "second" {
		t.Errorf("content = %q", after.Content)
	}
}

func TestSyncRemovesStaleEntries(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	if err := store.Write("note/gone.md", []byte("temp")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sync(); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetNote(ctx, "note/gone"); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete("note/gone.md"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sync(); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetNote(ctx, "note/gone"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("stale entry survived: %v", err)
	}
}

func TestSyncRootFilesGetDefaultType(t *testing.T) {
	svc, store := testService(t)

	if err := store.Write("inbox.md", []byte("# Inbox\n")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sync(); err != nil {
		t.Fatal(err)
	}
	note, err := svc.GetNote(context.Background(), "note/inbox")
	if err != nil {
		t.Fatal(err)
	}
	if note.Type != "note" {
		t.Errorf("type = %q", note.Type)
	}
}
