package tracker

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// History retains the raw in-window observations for consumers that need the
// whole subsequence rather than an aggregate.
type History struct {
	w       window.Window
	entries []Entry
}

// NewHistory creates a History over the given window.
func NewHistory(w window.Window) *History {
	return &History{w: w}
}

// Push implements Tracker.
func (t *History) Push(ts time.Time, value float64) {
	t.entries = append(t.entries, Entry{Time: ts, Value: value})

	if t.w.IsCount() {
		for len(t.entries) > t.w.Bars() {
			t.entries = t.entries[1:]
		}
	}
}

// Prune implements Tracker.
func (t *History) Prune(now time.Time) {
	if t.w.IsCount() {
		return
	}

	for len(t.entries) > 0 && !t.w.Contains(now, t.entries[0].Time) {
		t.entries = t.entries[1:]
	}
}

// Get implements Tracker. The aggregate is the most recent observation.
func (t *History) Get() optional.Option[float64] {
	if len(t.entries) == 0 {
		return optional.None[float64]()
	}

	return optional.Some(t.entries[len(t.entries)-1].Value)
}

// Entries returns the in-window observations, oldest first. The returned
// slice is only valid until the next Push or Prune.
func (t *History) Entries() []Entry {
	return t.entries
}

// Count returns the number of in-window observations.
func (t *History) Count() int {
	return len(t.entries)
}

// Clear implements Tracker.
func (t *History) Clear() {
	t.entries = nil
}
