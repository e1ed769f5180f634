package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
	"github.com/starford/ansuz/internal/wikilink"
)

func testService(t *testing.T) (*Service, storage.Provider) {
	t.Helper()
	db := testutil.TestDB(t)
	_, store := testutil.TestVault(t)
	logger := testutil.Silent()
	svc := NewService(store, db, wikilink.New(db, logger), logger)
	return svc, store
}

func TestCreateAndGetNote(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	content := []byte("---\ntitle: Standup\nstatus: active\n---\nsee [[alice]]\n")
	note, err := svc.CreateNote(ctx, "meeting", "standup", content)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if note.ID != "meeting/standup" || note.Title != "Standup" {
		t.Errorf("note = %+v", note.Note)
	}
	if note.Fingerprint == "" {
		t.Error("missing fingerprint")
	}
	if len(note.Metadata) != 2 {
		t.Errorf("metadata = %+v", note.Metadata)
	}
	if len(note.Links) != 1 || !note.Links[0].Broken() {
		t.Errorf("links = %+v", note.Links)
	}

	// Content landed in the vault.
	data, err := store.Read("meeting/standup.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(content) {
		t.Errorf("vault content = %q", data)
	}
}

func TestCreateNoteTrimsExtension(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "note", "foo.md", []byte("x"))
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if note.ID != "note/foo" || note.Filename != "foo" {
		t.Errorf("note = %+v", note.Note)
	}
	if note.Path != "note/foo.md" {
		t.Errorf("path = %q", note.Path)
	}
	// The file lands at the single-extension path.
	if _, err := store.Read("note/foo.md"); err != nil {
		t.Errorf("read vault file: %v", err)
	}
	// Creating again without the extension is the same note.
	if _, err := svc.CreateNote(ctx, "note", "foo", []byte("y")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateNoteAlreadyExists(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "note", "a", []byte("one")); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateNote(ctx, "note", "a", []byte("two"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateNoteFingerprintFlow(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	created, err := svc.CreateNote(ctx, "note", "a", []byte("first"))
	if err != nil {
		t.Fatal(err)
	}

	// No fingerprint.
	if _, err := svc.UpdateNote(ctx, "note/a", []byte("x"), ""); !errors.Is(err, apperr.ErrMissingFingerprint) {
		t.Fatalf("expected ErrMissingFingerprint, got %v", err)
	}

	// Correct fingerprint.
	updated, err := svc.UpdateNote(ctx, "note/a", []byte("second"), created.Fingerprint)
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if updated.Content != "second" {
		t.Errorf("content = %q", updated.Content)
	}

	// Reusing the old fingerprint is a conflict carrying both sums.
	_, err = svc.UpdateNote(ctx, "note/a", []byte("third"), created.Fingerprint)
	var conflict *apperr.ContentConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ContentConflictError, got %v", err)
	}
	if conflict.Current != updated.Fingerprint || conflict.Supplied != created.Fingerprint {
		t.Errorf("conflict = %+v", conflict)
	}
}

func TestUpdateNoteNotFound(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.UpdateNote(context.Background(), "missing/x", []byte("y"), "sha256:abc")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteNoteRemovesVaultFileAndBreaksBacklinks(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "note", "target", []byte("# Target\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateNote(ctx, "note", "source", []byte("see [[note/target]]\n")); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteNote(ctx, "note/target"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := store.Read("note/target.md"); err == nil {
		t.Error("vault file survived delete")
	}

	broken, err := svc.FindBrokenLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(broken) != 1 || broken[0].SourceID != "note/source" {
		t.Errorf("broken = %+v", broken)
	}
}

func TestGetNoteIncludesBacklinks(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "person", "alice", []byte("# Alice\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateNote(ctx, "meeting", "standup", []byte("with [[alice]]\n")); err != nil {
		t.Fatal(err)
	}

	note, err := svc.GetNote(ctx, "person/alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(note.Backlinks) != 1 || note.Backlinks[0].SourceID != "meeting/standup" {
		t.Errorf("backlinks = %+v", note.Backlinks)
	}
	// Empty collections serialize as [] not null.
	if note.Links == nil || note.ExternalLinks == nil {
		t.Error("nil link slices")
	}
}

func TestValidateWikilinks(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "person", "alice", []byte("# Alice\n")); err != nil {
		t.Fatal(err)
	}

	results, err := svc.ValidateWikilinks(ctx, "ping [[alice]] and [[ghost]]\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if !results[0].Resolved || results[0].NoteID != "person/alice" {
		t.Errorf("alice = %+v", results[0])
	}
	if results[1].Resolved || results[1].NoteID != "" {
		t.Errorf("ghost = %+v", results[1])
	}
}

func TestSearchFindsIndexedBody(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "doc", "infra", []byte("---\ntitle: Infra\n---\nkubernetes cluster notes\n")); err != nil {
		t.Fatal(err)
	}

	hits, err := svc.Search(ctx, "kubernetes", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "doc/infra" {
		t.Errorf("hits = %+v", hits)
	}
}
