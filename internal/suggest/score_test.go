package suggest

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScoreLadder(t *testing.T) {
	cases := []struct {
		title, filename, query string
		want                   float64
	}{
		{"Weekly Standup", "weekly-standup", "weekly standup", 1.0}, // exact title
		{"Weekly Standup", "weekly-standup", "weekly-standup", 1.0}, // exact filename
		{"Weekly Standup", "weekly-standup", "weekly", 0.8},         // prefix
		{"Weekly Standup", "weekly-standup", "standup", 0.6},        // contains
		{"Weekly Standup", "weekly-standup", "zzz", 0.0},            // no match
		{"Weekly Standup", "weekly-standup", "", 0.0},               // empty query
	}
	for _, c := range cases {
		if got := Score(c.title, c.filename, c.query); !almost(got, c.want) {
			t.Errorf("Score(%q, %q, %q) = %v, want %v", c.title, c.filename, c.query, got, c.want)
		}
	}
}

func TestScoreCaseInsensitive(t *testing.T) {
	if got := Score("Weekly Standup", "weekly-standup", "WEEKLY STANDUP"); !almost(got, 1.0) {
		t.Errorf("got %v", got)
	}
}

func TestScoreWordFraction(t *testing.T) {
	// One of two query words appears in the title: 1/2 * 0.4.
	if got := Score("Roadmap Planning Session", "roadmap-planning", "roadmap zebra"); !almost(got, 0.2) {
		t.Errorf("got %v", got)
	}
}

func TestContextBoostCapped(t *testing.T) {
	if got := ContextBoost("Alpha Beta", "alpha-beta", ""); !almost(got, 0) {
		t.Errorf("empty context: %v", got)
	}
	if got := ContextBoost("Alpha Beta", "ab", "alpha gamma"); !almost(got, 0.1) {
		t.Errorf("one shared word: %v", got)
	}
	// Five shared words still cap at 0.3.
	got := ContextBoost("one two three four five", "f", "one two three four five")
	if !almost(got, maxContextBoost) {
		t.Errorf("cap: %v", got)
	}
	// Repeated context words count once.
	if got := ContextBoost("alpha x", "f", "alpha alpha alpha"); !almost(got, 0.1) {
		t.Errorf("dedup: %v", got)
	}
}
