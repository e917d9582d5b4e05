package tracker

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

type volumeEntry struct {
	ts          time.Time
	priceVolume float64
	volume      float64
}

// VolumeWeighted tracks the volume-weighted average price of a sliding
// window from running Σ(price×volume) and Σvolume. Push takes a price and a
// volume rather than a single value, so it does not satisfy Tracker.
type VolumeWeighted struct {
	w         window.Window
	entries   []volumeEntry
	sumPV     float64
	sumVolume float64
}

// NewVolumeWeighted creates a VolumeWeighted over the given window.
func NewVolumeWeighted(w window.Window) *VolumeWeighted {
	return &VolumeWeighted{w: w}
}

// Push appends one (price, volume) observation.
func (t *VolumeWeighted) Push(ts time.Time, price, volume float64) {
	t.entries = append(t.entries, volumeEntry{ts: ts, priceVolume: price * volume, volume: volume})
	t.sumPV += price * volume
	t.sumVolume += volume

	if t.w.IsCount() {
		for len(t.entries) > t.w.Bars() {
			t.evictFront()
		}
	}
}

// Prune evicts observations outside a duration window.
func (t *VolumeWeighted) Prune(now time.Time) {
	if t.w.IsCount() {
		return
	}

	for len(t.entries) > 0 && !t.w.Contains(now, t.entries[0].ts) {
		t.evictFront()
	}
}

// Get returns the in-window VWAP. A window whose volume sums to zero has no
// meaningful average and reports None.
func (t *VolumeWeighted) Get() optional.Option[float64] {
	if len(t.entries) == 0 || t.sumVolume == 0 {
		return optional.None[float64]()
	}

	return optional.Some(t.sumPV / t.sumVolume)
}

// Count returns the number of in-window observations.
func (t *VolumeWeighted) Count() int {
	return len(t.entries)
}

// Clear drops all state.
func (t *VolumeWeighted) Clear() {
	t.entries = nil
	t.sumPV = 0
	t.sumVolume = 0
}

func (t *VolumeWeighted) evictFront() {
	t.sumPV -= t.entries[0].priceVolume
	t.sumVolume -= t.entries[0].volume
	t.entries = t.entries[1:]

	if len(t.entries) == 0 {
		t.sumPV = 0
		t.sumVolume = 0
	}
}
