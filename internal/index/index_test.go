package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testNote(id, title, content string) models.Note {
	noteType, filename := models.SplitID(id)
	now := time.Now().UTC().Truncate(time.Second)
	return models.Note{
		ID:          id,
		Title:       title,
		Content:     content,
		Type:        noteType,
		Filename:    filename,
		Path:        id + ".md",
		CreatedAt:   now,
		UpdatedAt:   now,
		Size:        int64(len(content)),
		ContentHash: "sha256:" + id,
	}
}

func mustSave(t *testing.T, db *DB, n models.Note) {
	t.Helper()
	if err := db.SaveNote(n, nil); err != nil {
		t.Fatalf("SaveNote %s: %v", n.ID, err)
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"notes", "note_metadata", "note_links", "external_links", "schema_info"} {
		ok, err := db.TableExists(table)
		if err != nil {
			t.Fatalf("TableExists(%s): %v", table, err)
		}
		if !ok {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestSaveAndGetNote(t *testing.T) {
	db := testDB(t)
	n := testNote("meeting/standup", "Weekly Standup", "notes body")
	mustSave(t, db, n)

	got, err := db.GetNote("meeting/standup")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Weekly Standup" || got.Content != "notes body" {
		t.Errorf("got %+v", got)
	}
	if got.Type != "meeting" || got.Filename != "standup" {
		t.Errorf("type/filename = %s/%s", got.Type, got.Filename)
	}
}

func TestGetNoteNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetNote("missing/note"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveNoteUpsertPreservesCreatedAt(t *testing.T) {
	db := testDB(t)
	n := testNote("note/a", "A", "v1")
	mustSave(t, db, n)

	updated := n
	updated.Content = "v2"
	updated.UpdatedAt = n.UpdatedAt.Add(time.Hour)
	updated.CreatedAt = n.CreatedAt.Add(time.Hour) // must be ignored on conflict
	mustSave(t, db, updated)

	got, err := db.GetNote("note/a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "v2" {
		t.Errorf("content = %q", got.Content)
	}
	if !got.CreatedAt.Equal(n.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", n.CreatedAt, got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("updated_at = %v", got.UpdatedAt)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	mustSave(t, db, testNote("note/a", "A", "x"))

	if err := db.DeleteNote("note/a"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := db.GetNote("note/a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.DeleteNote("note/a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteNoteCascadesMetadata(t *testing.T) {
	db := testDB(t)
	n := testNote("note/a", "A", "x")
	meta := []models.MetadataEntry{{NoteID: n.ID, Key: "status", Value: "active", Kind: models.ValueString}}
	if err := db.SaveNote(n, meta); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteNote("note/a"); err != nil {
		t.Fatal(err)
	}
	got, err := db.MetadataFor("note/a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("metadata survived delete: %+v", got)
	}
}

func TestResolveTarget(t *testing.T) {
	db := testDB(t)
	mustSave(t, db, testNote("meeting/standup", "Standup", ""))

	// Full identifier.
	id, ok, err := db.ResolveTarget("meeting/standup")
	if err != nil || !ok || id != "meeting/standup" {
		t.Fatalf("full id: %q %v %v", id, ok, err)
	}

	// Bare filename.
	id, ok, err = db.ResolveTarget("standup")
	if err != nil || !ok || id != "meeting/standup" {
		t.Fatalf("bare filename: %q %v %v", id, ok, err)
	}

	// Unresolvable target is not an error.
	_, ok, err = db.ResolveTarget("nothing")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if ok {
		t.Fatal("resolved a missing target")
	}
}

func TestResolveTargetAmbiguousFilenameIsDeterministic(t *testing.T) {
	db := testDB(t)
	mustSave(t, db, testNote("person/standup", "P", ""))
	mustSave(t, db, testNote("meeting/standup", "M", ""))

	id, ok, err := db.ResolveTarget("standup")
	if err != nil || !ok {
		t.Fatalf("%v %v", ok, err)
	}
	// First match in identifier order.
	if id != "meeting/standup" {
		t.Errorf("id = %q", id)
	}
}

func TestListNotesFilterAndPagination(t *testing.T) {
	db := testDB(t)
	mustSave(t, db, testNote("meeting/a", "A", ""))
	mustSave(t, db, testNote("meeting/b", "B", ""))
	mustSave(t, db, testNote("person/c", "C", ""))

	notes, total, err := db.ListNotes("meeting", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(notes) != 2 {
		t.Errorf("total = %d, len = %d", total, len(notes))
	}

	notes, total, err = db.ListNotes("", 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("total = %d", total)
	}
	if len(notes) != 2 {
		t.Errorf("page len = %d", len(notes))
	}
}

func TestAllContentHashes(t *testing.T) {
	db := testDB(t)
	mustSave(t, db, testNote("note/a", "A", ""))
	mustSave(t, db, testNote("note/b", "B", ""))

	hashes, err := db.AllContentHashes()
	if err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 2 || hashes["note/a"] != "sha256:note/a" {
		t.Errorf("hashes = %v", hashes)
	}
}

func TestSchemaVersionMarker(t *testing.T) {
	db := testDB(t)
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Errorf("fresh db version = %q", v)
	}
	if err := db.SetSchemaVersion("1.1.0"); err != nil {
		t.Fatal(err)
	}
	v, err = db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != "1.1.0" {
		t.Errorf("version = %q", v)
	}
}
