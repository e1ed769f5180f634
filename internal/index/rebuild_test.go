package index

import (
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestRebuildEmptiesDerivedTables(t *testing.T) {
	db := testDB(t)
	mustSave(t, db, testNote("note/a", "A", "body"))
	mustSave(t, db, testNote("note/b", "B", ""))
	if err := db.ReplaceNoteLinks("note/a", []models.NoteLink{
		link("l1", "note/a", strptr("note/b"), "b", 1),
	}, nil); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSchemaVersion("1.1.0"); err != nil {
		t.Fatal(err)
	}

	if err := db.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	count, err := db.NoteCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("notes remain: %d", count)
	}
	broken, err := db.BrokenLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(broken) != 0 {
		t.Errorf("links remain: %+v", broken)
	}

	// The version marker is not derived data and must survive.
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != "1.1.0" {
		t.Errorf("schema version = %q", v)
	}
}

func TestRebuildFailureLeavesStoreUntouched(t *testing.T) {
	db := testDB(t)
	mustSave(t, db, testNote("note/a", "A", "body"))
	if err := db.ReplaceNoteLinks("note/a", []models.NoteLink{
		link("l1", "note/a", nil, "ghost", 1),
	}, nil); err != nil {
		t.Fatal(err)
	}

	// Losing a derived table mid-flight must abort the whole transaction.
	if _, err := db.conn.Exec(`ALTER TABLE note_metadata RENAME TO note_metadata_hidden`); err != nil {
		t.Fatal(err)
	}
	err := db.Rebuild()
	if _, rerr := db.conn.Exec(`ALTER TABLE note_metadata_hidden RENAME TO note_metadata`); rerr != nil {
		t.Fatal(rerr)
	}
	if err == nil {
		t.Fatal("expected rebuild failure")
	}

	count, cerr := db.NoteCount()
	if cerr != nil {
		t.Fatal(cerr)
	}
	if count != 1 {
		t.Errorf("note count after failed rebuild = %d", count)
	}
	broken, berr := db.BrokenLinks()
	if berr != nil {
		t.Fatal(berr)
	}
	if len(broken) != 1 {
		t.Errorf("links after failed rebuild = %+v", broken)
	}
}
