package tracker

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// Sum tracks the running sum of a sliding window. Eviction subtracts the
// departing observation instead of re-adding the survivors.
type Sum struct {
	w       window.Window
	entries []Entry
	sum     float64
}

// NewSum creates a Sum over the given window.
func NewSum(w window.Window) *Sum {
	return &Sum{w: w}
}

// Push implements Tracker.
func (t *Sum) Push(ts time.Time, value float64) {
	t.entries = append(t.entries, Entry{Time: ts, Value: value})
	t.sum += value

	if t.w.IsCount() {
		for len(t.entries) > t.w.Bars() {
			t.evictFront()
		}
	}
}

// Prune implements Tracker.
func (t *Sum) Prune(now time.Time) {
	if t.w.IsCount() {
		return
	}

	for len(t.entries) > 0 && !t.w.Contains(now, t.entries[0].Time) {
		t.evictFront()
	}
}

// Get implements Tracker. The aggregate is the window sum.
func (t *Sum) Get() optional.Option[float64] {
	if len(t.entries) == 0 {
		return optional.None[float64]()
	}

	return optional.Some(t.sum)
}

// Mean returns the window average, or None when the window is empty.
func (t *Sum) Mean() optional.Option[float64] {
	if len(t.entries) == 0 {
		return optional.None[float64]()
	}

	return optional.Some(t.sum / float64(len(t.entries)))
}

// Count returns the number of in-window observations.
func (t *Sum) Count() int {
	return len(t.entries)
}

// Clear implements Tracker.
func (t *Sum) Clear() {
	t.entries = nil
	t.sum = 0
}

func (t *Sum) evictFront() {
	t.sum -= t.entries[0].Value
	t.entries = t.entries[1:]

	if len(t.entries) == 0 {
		t.sum = 0
	}
}
