// Package suggest scores candidate notes against queries and rewrites note
// content with automatically discovered links.
package suggest

import "strings"

// Scoring ladder for a candidate against a query, matched case-insensitively
// against both title and filename:
//
//	exact match            -> 1.0
//	candidate starts with  -> 0.8
//	candidate contains     -> 0.6
//	otherwise              -> fraction of query words found in title, x 0.4
func Score(title, filename, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	t := strings.ToLower(title)
	f := strings.ToLower(filename)

	if q == t || q == f {
		return 1.0
	}
	if strings.HasPrefix(t, q) || strings.HasPrefix(f, q) {
		return 0.8
	}
	if strings.Contains(t, q) || strings.Contains(f, q) {
		return 0.6
	}

	words := strings.Fields(q)
	if len(words) == 0 {
		return 0
	}
	titleWords := strings.Fields(t)
	matched := 0
	for _, w := range words {
		for _, tw := range titleWords {
			if strings.Contains(tw, w) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(words)) * 0.4
}

// maxContextBoost caps the additive context bonus regardless of how much
// vocabulary overlaps.
const maxContextBoost = 0.3

// ContextBoost rewards shared vocabulary between a supplied context string
// and the candidate's title/filename: +0.1 per shared word, capped.
func ContextBoost(title, filename, context string) float64 {
	if context == "" {
		return 0
	}
	candWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(title + " " + filename)) {
		candWords[w] = struct{}{}
	}

	boost := 0.0
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(context)) {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := candWords[w]; ok {
			boost += 0.1
			if boost >= maxContextBoost {
				return maxContextBoost
			}
		}
	}
	return boost
}
