// Package window models the lookback horizon of a sliding-window computation,
// either a fixed number of observations or a trailing span of time.
package window

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/strategy-tester/pkg/errors"
)

// Window is a lookback horizon. Exactly one of the two dimensions is set.
type Window struct {
	bars int
	span time.Duration
}

// Count returns a window covering the most recent n observations.
func Count(n int) Window {
	return Window{bars: n}
}

// Span returns a window covering observations newer than now - d.
func Span(d time.Duration) Window {
	return Window{span: d}
}

// IsCount reports whether the window is observation-count based.
func (w Window) IsCount() bool {
	return w.span == 0
}

// Bars returns the observation count for count-based windows.
func (w Window) Bars() int {
	return w.bars
}

// Duration returns the trailing span for duration-based windows.
func (w Window) Duration() time.Duration {
	return w.span
}

// Contains reports whether an observation at ts is still inside a
// duration-based window anchored at now. Membership is strict: an
// observation exactly d old has already expired. Count-based windows
// always return true; their eviction happens at insertion time.
func (w Window) Contains(now, ts time.Time) bool {
	if w.IsCount() {
		return true
	}

	return ts.After(now.Add(-w.span))
}

// Validate checks that the window has a positive size.
func (w Window) Validate() error {
	if w.span < 0 || (w.span == 0 && w.bars <= 0) {
		return errors.Newf(errors.ErrCodeInvalidWindow, "window size must be positive, got %s", w)
	}

	return nil
}

// String implements fmt.Stringer.
func (w Window) String() string {
	if w.IsCount() {
		return fmt.Sprintf("count(%d)", w.bars)
	}

	return fmt.Sprintf("span(%s)", w.span)
}
