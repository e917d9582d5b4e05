package tracker

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// RelStrength tracks the relative strength index of a sliding window. The
// window holds consecutive deltas between pushed values; gains and losses
// are summed incrementally as deltas enter and leave.
type RelStrength struct {
	w       window.Window
	deltas  []Entry
	prev    optional.Option[float64]
	sumGain float64
	sumLoss float64
}

// NewRelStrength creates a RelStrength over the given window.
func NewRelStrength(w window.Window) *RelStrength {
	return &RelStrength{w: w, prev: optional.None[float64]()}
}

// Push implements Tracker. The first observation only seeds the delta chain.
func (t *RelStrength) Push(ts time.Time, value float64) {
	if t.prev.IsSome() {
		delta := value - t.prev.Unwrap()
		t.deltas = append(t.deltas, Entry{Time: ts, Value: delta})
		t.accumulate(delta)

		if t.w.IsCount() {
			for len(t.deltas) > t.w.Bars() {
				t.evictFront()
			}
		}
	}

	t.prev = optional.Some(value)
}

// Prune implements Tracker.
func (t *RelStrength) Prune(now time.Time) {
	if t.w.IsCount() {
		return
	}

	for len(t.deltas) > 0 && !t.w.Contains(now, t.deltas[0].Time) {
		t.evictFront()
	}
}

// Get implements Tracker.
//
// RSI = 100 - 100/(1 + avgGain/avgLoss). A window with gains and no losses
// saturates at 100; a window with no movement at all has no defined relative
// strength and reports None, as does a window with no deltas yet.
func (t *RelStrength) Get() optional.Option[float64] {
	n := float64(len(t.deltas))
	if n == 0 {
		return optional.None[float64]()
	}

	avgGain := t.sumGain / n
	avgLoss := t.sumLoss / n

	if avgLoss == 0 {
		if avgGain == 0 {
			return optional.None[float64]()
		}

		return optional.Some(100.0)
	}

	rs := avgGain / avgLoss

	return optional.Some(100 - 100/(1+rs))
}

// Count returns the number of in-window deltas.
func (t *RelStrength) Count() int {
	return len(t.deltas)
}

// Clear implements Tracker.
func (t *RelStrength) Clear() {
	t.deltas = nil
	t.prev = optional.None[float64]()
	t.sumGain = 0
	t.sumLoss = 0
}

func (t *RelStrength) accumulate(delta float64) {
	if delta > 0 {
		t.sumGain += delta
	} else {
		t.sumLoss += -delta
	}
}

func (t *RelStrength) evictFront() {
	delta := t.deltas[0].Value
	if delta > 0 {
		t.sumGain -= delta
	} else {
		t.sumLoss -= -delta
	}

	t.deltas = t.deltas[1:]

	if len(t.deltas) == 0 {
		t.sumGain = 0
		t.sumLoss = 0
	}
}
