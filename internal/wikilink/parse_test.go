package wikilink

import (
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestParseWikilinks(t *testing.T) {
	content := "See [[meeting/standup]] and [[alice|Alice W]].\n\nAlso [[roadmap]].\n"
	internal, external := Parse(content)
	if len(external) != 0 {
		t.Errorf("external = %+v", external)
	}
	if len(internal) != 3 {
		t.Fatalf("internal = %+v", internal)
	}

	if internal[0].Target != "meeting/standup" || internal[0].Display != "" || internal[0].Line != 1 {
		t.Errorf("first = %+v", internal[0])
	}
	if internal[1].Target != "alice" || internal[1].Display != "Alice W" {
		t.Errorf("second = %+v", internal[1])
	}
	if internal[2].Target != "roadmap" || internal[2].Line != 3 {
		t.Errorf("third = %+v", internal[2])
	}
}

func TestParseEmptyTargetSkipped(t *testing.T) {
	internal, _ := Parse("broken [[ ]] link")
	if len(internal) != 0 {
		t.Errorf("internal = %+v", internal)
	}
}

func TestParseExternalKinds(t *testing.T) {
	content := "[docs](https://example.com/docs)\n" +
		"![diagram](https://example.com/arch.png)\n" +
		"![clip](https://example.com/demo.mp4)\n" +
		"plain https://example.org/page.\n" +
		"[relative](./local.md)\n"
	_, external := Parse(content)
	if len(external) != 4 {
		t.Fatalf("external = %+v", external)
	}

	if external[0].Kind != models.LinkURL || external[0].Title != "docs" {
		t.Errorf("url = %+v", external[0])
	}
	if external[1].Kind != models.LinkImage {
		t.Errorf("image = %+v", external[1])
	}
	if external[2].Kind != models.LinkEmbed {
		t.Errorf("embed = %+v", external[2])
	}
	// Bare URL with trailing punctuation stripped.
	if external[3].URL != "https://example.org/page" || external[3].Line != 4 {
		t.Errorf("bare = %+v", external[3])
	}
}

func TestParseMarkdownLinkNotDoubleCountedAsBareURL(t *testing.T) {
	_, external := Parse("[x](https://example.com/one)")
	if len(external) != 1 {
		t.Fatalf("external = %+v", external)
	}
}

func TestParseWikilinkInsideMarkdownContext(t *testing.T) {
	// A wikilink target wins over an overlapping bare URL scan.
	internal, external := Parse("see [[notes/https-setup|https://example.com]] here")
	if len(internal) != 1 {
		t.Fatalf("internal = %+v", internal)
	}
	if len(external) != 0 {
		t.Errorf("external = %+v", external)
	}
}

func TestReservedSpans(t *testing.T) {
	content := "a [[x]] b [y](https://e.com) c"
	spans := ReservedSpans(content)
	if len(spans) != 2 {
		t.Fatalf("spans = %v", spans)
	}
	if !Overlaps(spans, 3, 5) {
		t.Error("wikilink span not reserved")
	}
	if Overlaps(spans, 0, 1) {
		t.Error("plain text reported as reserved")
	}
}
