package suggest

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/wikilink"
)

// Aggressiveness selects the minimum score a span must reach before it is
// rewritten into a link.
type Aggressiveness string

const (
	Conservative Aggressiveness = "conservative"
	Moderate     Aggressiveness = "moderate"
	Aggressive   Aggressiveness = "aggressive"
)

// MinScore maps the tier to its score threshold. Unknown tiers fall back to
// moderate.
func (a Aggressiveness) MinScore() float64 {
	switch a {
	case Conservative:
		return 0.8
	case Aggressive:
		return 0.4
	default:
		return 0.6
	}
}

// AutoLinkOptions configures a whole-document auto-link pass.
type AutoLinkOptions struct {
	NoteType       string         // scope candidates to one type; empty for all
	Aggressiveness Aggressiveness
	Context        string // optional context string for score boosting
	SourceID       string // the note being rewritten; never linked to itself
}

// Substitution records one applied rewrite.
type Substitution struct {
	Offset   int     `json:"offset"`
	SpanText string  `json:"span_text"`
	NoteID   string  `json:"note_id"`
	Score    float64 `json:"score"`
}

// AutoLinkResult is the rewritten document plus what changed.
type AutoLinkResult struct {
	Content       string         `json:"content"`
	Substitutions []Substitution `json:"substitutions"`
}

type spanMatch struct {
	start, end int
	noteID     string
	filename   string
	score      float64
}

// AutoLink scans content for spans matching candidate note titles or
// filenames and rewrites each accepted span into wikilink markup for its
// highest-scoring candidate. Substitutions are applied back-to-front by
// position so earlier edits never invalidate later offsets.
func (e *Engine) AutoLink(content string, opts AutoLinkOptions) (*AutoLinkResult, error) {
	candidates, err := e.source.NotesOfType(opts.NoteType)
	if err != nil {
		return nil, fmt.Errorf("suggest: load candidates: %w", err)
	}

	reserved := wikilink.ReservedSpans(content)
	lower := strings.ToLower(content)
	minScore := opts.Aggressiveness.MinScore()

	var matches []spanMatch
	for _, c := range candidates {
		if c.ID == opts.SourceID {
			continue
		}
		for _, needle := range candidateNeedles(c) {
			for _, start := range findWordOccurrences(lower, needle) {
				end := start + len(needle)
				if wikilink.Overlaps(reserved, start, end) {
					continue
				}
				span := content[start:end]
				score := Score(c.Title, c.Filename, span) + ContextBoost(c.Title, c.Filename, opts.Context)
				if score < minScore {
					continue
				}
				matches = append(matches, spanMatch{
					start:    start,
					end:      end,
					noteID:   c.ID,
					filename: c.Filename,
					score:    score,
				})
			}
		}
	}

	// Highest score wins each span; later (lower-scored) overlapping matches
	// are dropped.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	var accepted []spanMatch
	for _, m := range matches {
		conflict := false
		for _, a := range accepted {
			if m.start < a.end && m.end > a.start {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, m)
		}
	}

	// Apply back-to-front by position.
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start > accepted[j].start })

	result := &AutoLinkResult{Content: content}
	for _, m := range accepted {
		span := result.Content[m.start:m.end]
		markup := "[[" + m.noteID + "]]"
		if !strings.EqualFold(span, m.filename) {
			markup = "[[" + m.noteID + "|" + span + "]]"
		}
		result.Content = result.Content[:m.start] + markup + result.Content[m.end:]
		result.Substitutions = append(result.Substitutions, Substitution{
			Offset:   m.start,
			SpanText: span,
			NoteID:   m.noteID,
			Score:    m.score,
		})
	}
	return result, nil
}

// candidateNeedles returns the lowercase searchable spans for a candidate:
// the full title, the filename, and the title's individual words. Full
// needles score 1.0 and survive any tier; single words land lower on the
// scoring ladder and only survive the looser tiers. Very short needles
// produce too much noise and are skipped.
func candidateNeedles(c models.Note) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		n := strings.ToLower(strings.TrimSpace(s))
		if len(n) < 3 {
			return
		}
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	add(c.Title)
	add(c.Filename)
	for _, w := range strings.Fields(c.Title) {
		add(strings.Trim(w, ".,;:!?()[]\"'"))
	}
	return out
}

// findWordOccurrences returns the offsets of needle in haystack where the
// match sits on word boundaries.
func findWordOccurrences(haystack, needle string) []int {
	var out []int
	for from := 0; ; {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return out
		}
		start := from + i
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			out = append(out, start)
		}
		from = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := rune(s[i-1])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := rune(s[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
