//go:build sqlite_fts5

package index

import "testing"

func ftsCount(t *testing.T, db *DB, match string) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts WHERE notes_fts MATCH ?`, ftsQuote(match)).Scan(&n); err != nil {
		t.Fatalf("fts count: %v", err)
	}
	return n
}

func TestFTSMirrorFollowsInsertUpdateDelete(t *testing.T) {
	db := testDB(t)
	n := testNote("note/a", "Alpha", "the quick brown fox")
	mustSave(t, db, n)
	if got := ftsCount(t, db, "quick"); got != 1 {
		t.Fatalf("after insert: %d", got)
	}

	n.Content = "slow green turtle"
	mustSave(t, db, n)
	if got := ftsCount(t, db, "quick"); got != 0 {
		t.Errorf("stale row after update: %d", got)
	}
	if got := ftsCount(t, db, "turtle"); got != 1 {
		t.Errorf("after update: %d", got)
	}

	if err := db.DeleteNote("note/a"); err != nil {
		t.Fatal(err)
	}
	if got := ftsCount(t, db, "turtle"); got != 0 {
		t.Errorf("row after delete: %d", got)
	}
}

func TestFTSQuoteNeutralizesQuerySyntax(t *testing.T) {
	db := testDB(t)
	mustSave(t, db, testNote("note/a", "A", "alpha beta"))

	// Raw FTS operators in user input must not be interpreted.
	if _, err := db.SearchNotes(`alpha AND "unbalanced`, "", 10); err != nil {
		t.Fatalf("SearchNotes with operator input: %v", err)
	}
}
