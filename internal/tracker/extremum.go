package tracker

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

type extremumEntry struct {
	seq   uint64
	ts    time.Time
	value float64
}

// Extremum tracks the running maximum or minimum of a sliding window using a
// monotonic deque: Push discards retained entries dominated by the new value,
// so the front is always the current extremum and the deque only grows along
// monotonic runs of the input.
type Extremum struct {
	w     window.Window
	deque []extremumEntry
	seq   uint64
	max   bool
}

// NewMax creates an Extremum tracking the window maximum.
func NewMax(w window.Window) *Extremum {
	return &Extremum{w: w, max: true}
}

// NewMin creates an Extremum tracking the window minimum.
func NewMin(w window.Window) *Extremum {
	return &Extremum{w: w, max: false}
}

// Push implements Tracker.
func (t *Extremum) Push(ts time.Time, value float64) {
	t.seq++

	for len(t.deque) > 0 && t.dominates(value, t.deque[len(t.deque)-1].value) {
		t.deque = t.deque[:len(t.deque)-1]
	}

	t.deque = append(t.deque, extremumEntry{seq: t.seq, ts: ts, value: value})

	if t.w.IsCount() {
		// Entries whose position fell out of the last-n range can no longer
		// be the extremum even if nothing dominated them.
		cutoff := t.seq - uint64(t.w.Bars())
		for len(t.deque) > 0 && t.seq > uint64(t.w.Bars()) && t.deque[0].seq <= cutoff {
			t.deque = t.deque[1:]
		}
	}
}

// Prune implements Tracker.
func (t *Extremum) Prune(now time.Time) {
	if t.w.IsCount() {
		return
	}

	for len(t.deque) > 0 && !t.w.Contains(now, t.deque[0].ts) {
		t.deque = t.deque[1:]
	}
}

// Get implements Tracker.
func (t *Extremum) Get() optional.Option[float64] {
	if len(t.deque) == 0 {
		return optional.None[float64]()
	}

	return optional.Some(t.deque[0].value)
}

// Clear implements Tracker.
func (t *Extremum) Clear() {
	t.deque = nil
	t.seq = 0
}

// Depth returns the number of retained entries. The deque holds at most one
// entry per observation of the current monotonic run, never the full window.
func (t *Extremum) Depth() int {
	return len(t.deque)
}

// dominates reports whether a newer value makes an older retained value
// irrelevant. Ties are dominated, keeping the most recent occurrence.
func (t *Extremum) dominates(newer, older float64) bool {
	if t.max {
		return newer >= older
	}

	return newer <= older
}
