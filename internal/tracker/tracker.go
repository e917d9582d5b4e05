// Package tracker implements incremental sliding-window aggregates over
// timestamped observations. Each tracker retains only what it needs to
// answer its aggregate in amortized constant time per update, while staying
// equal to a brute-force re-scan of the in-window subsequence.
package tracker

import (
	"time"

	"github.com/moznion/go-optional"
)

// Entry is one timestamped observation held by a tracker.
type Entry struct {
	Time  time.Time
	Value float64
}

// Tracker is the shared contract of the sliding-window aggregates.
//
// Push appends one observation; observations must arrive in non-decreasing
// time order. Prune evicts observations that fell out of a duration window
// relative to now; count windows evict at Push time and treat Prune as a
// no-op. Get returns the current aggregate, or None when the tracker does
// not have enough in-window observations. Clear drops all state.
type Tracker interface {
	Push(ts time.Time, value float64)
	Prune(now time.Time)
	Get() optional.Option[float64]
	Clear()
}
