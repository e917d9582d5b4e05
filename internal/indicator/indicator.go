// Package indicator binds sliding-window trackers to bar fields. An
// indicator consumes one bar per Update and exposes the tracker's aggregate
// as cached at the last Update, so conditions evaluated later in the same
// row all see the same value.
package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

// Indicator is a per-ticker streaming computation over bars.
type Indicator interface {
	// Update feeds one bar: extract the bound field, push it into the
	// tracker, prune expired observations, and cache the aggregate.
	Update(bar types.Bar)
	// Value returns the aggregate cached by the last Update. None until the
	// tracker has enough observations.
	Value() optional.Option[float64]
	// Reset drops all state, returning the indicator to its initial form.
	Reset()
	// Name returns a short diagnostic name such as "ma(close)".
	Name() string
	// Validate checks the indicator's configuration.
	Validate() error
}

// Factory builds a fresh Indicator instance. Strategies register factories
// so that every ticker gets indicators with independent state.
type Factory func() Indicator
