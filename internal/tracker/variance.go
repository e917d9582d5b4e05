package tracker

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// Variance tracks the population variance of a sliding window from a running
// sum and sum of squares. Floating-point cancellation can push the computed
// variance slightly negative, so Get clamps at zero.
type Variance struct {
	w       window.Window
	entries []Entry
	sum     float64
	sumSq   float64
}

// NewVariance creates a Variance over the given window.
func NewVariance(w window.Window) *Variance {
	return &Variance{w: w}
}

// Push implements Tracker.
func (t *Variance) Push(ts time.Time, value float64) {
	t.entries = append(t.entries, Entry{Time: ts, Value: value})
	t.sum += value
	t.sumSq += value * value

	if t.w.IsCount() {
		for len(t.entries) > t.w.Bars() {
			t.evictFront()
		}
	}
}

// Prune implements Tracker.
func (t *Variance) Prune(now time.Time) {
	if t.w.IsCount() {
		return
	}

	for len(t.entries) > 0 && !t.w.Contains(now, t.entries[0].Time) {
		t.evictFront()
	}
}

// Get implements Tracker. Requires at least two in-window observations.
func (t *Variance) Get() optional.Option[float64] {
	n := float64(len(t.entries))
	if n < 2 {
		return optional.None[float64]()
	}

	mean := t.sum / n

	variance := t.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	return optional.Some(variance)
}

// StdDev returns the square root of the window variance.
func (t *Variance) StdDev() optional.Option[float64] {
	v := t.Get()
	if v.IsNone() {
		return v
	}

	return optional.Some(math.Sqrt(v.Unwrap()))
}

// Mean returns the window average, or None when the window is empty.
func (t *Variance) Mean() optional.Option[float64] {
	if len(t.entries) == 0 {
		return optional.None[float64]()
	}

	return optional.Some(t.sum / float64(len(t.entries)))
}

// Count returns the number of in-window observations.
func (t *Variance) Count() int {
	return len(t.entries)
}

// Clear implements Tracker.
func (t *Variance) Clear() {
	t.entries = nil
	t.sum = 0
	t.sumSq = 0
}

func (t *Variance) evictFront() {
	t.sum -= t.entries[0].Value
	t.sumSq -= t.entries[0].Value * t.entries[0].Value
	t.entries = t.entries[1:]

	if len(t.entries) == 0 {
		t.sum = 0
		t.sumSq = 0
	}
}
