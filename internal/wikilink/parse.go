// Package wikilink parses note bodies for internal cross-references and
// external references, and maintains the persisted link graph.
package wikilink

import (
	"path"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)
	mdLinkRe   = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^()\s]+)\)`)
	bareURLRe  = regexp.MustCompile(`https?://[^\s<>()"\]]+`)
)

var imageExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".svg": {},
}

// InternalRef is a parsed wikilink: [[type/filename]] or [[filename]], with
// an optional |display part.
type InternalRef struct {
	Target  string // as written, before any |
	Display string
	Raw     string // the full [[...]] text
	Line    int    // 1-based
}

// ExternalRef is a parsed external reference.
type ExternalRef struct {
	URL   string
	Title string
	Kind  models.LinkKind
	Line  int // 1-based
}

// Parse scans content line by line and returns all internal and external
// references with their line numbers. Overlapping matches are resolved in
// favor of the more specific syntax: wikilinks over markdown links over
// bare URLs.
func Parse(content string) ([]InternalRef, []ExternalRef) {
	var internal []InternalRef
	var external []ExternalRef

	for i, line := range strings.Split(content, "\n") {
		lineNo := i + 1
		var spans [][2]int

		for _, m := range wikilinkRe.FindAllStringSubmatchIndex(line, -1) {
			raw := line[m[0]:m[1]]
			target := strings.TrimSpace(line[m[2]:m[3]])
			if target == "" {
				continue
			}
			display := ""
			if m[4] >= 0 {
				display = strings.TrimSpace(line[m[4]:m[5]])
			}
			internal = append(internal, InternalRef{
				Target:  target,
				Display: display,
				Raw:     raw,
				Line:    lineNo,
			})
			spans = append(spans, [2]int{m[0], m[1]})
		}

		for _, m := range mdLinkRe.FindAllStringSubmatchIndex(line, -1) {
			if overlaps(spans, m[0], m[1]) {
				continue
			}
			embed := m[3] > m[2] // leading "!"
			title := line[m[4]:m[5]]
			url := line[m[6]:m[7]]

			kind := models.LinkURL
			switch {
			case embed:
				if _, ok := imageExts[strings.ToLower(path.Ext(url))]; ok {
					kind = models.LinkImage
				} else {
					kind = models.LinkEmbed
				}
			case !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://"):
				// Plain relative markdown links are not external references.
				continue
			}
			external = append(external, ExternalRef{URL: url, Title: title, Kind: kind, Line: lineNo})
			spans = append(spans, [2]int{m[0], m[1]})
		}

		for _, m := range bareURLRe.FindAllStringIndex(line, -1) {
			if overlaps(spans, m[0], m[1]) {
				continue
			}
			external = append(external, ExternalRef{
				URL:  strings.TrimRight(line[m[0]:m[1]], ".,;:"),
				Kind: models.LinkURL,
				Line: lineNo,
			})
		}
	}

	return internal, external
}

// ReservedSpans returns the byte ranges of existing link markup in content.
// Auto-linking uses this to avoid rewriting text that is already a link.
func ReservedSpans(content string) [][2]int {
	var spans [][2]int
	for _, m := range wikilinkRe.FindAllStringIndex(content, -1) {
		spans = append(spans, [2]int{m[0], m[1]})
	}
	for _, m := range mdLinkRe.FindAllStringIndex(content, -1) {
		spans = append(spans, [2]int{m[0], m[1]})
	}
	return spans
}

// Overlaps reports whether [start, end) intersects any of the given spans.
func Overlaps(spans [][2]int, start, end int) bool {
	return overlaps(spans, start, end)
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
