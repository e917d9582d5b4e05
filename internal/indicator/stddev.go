package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/tracker"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// StdDev is the population standard deviation of a bar field over a window.
// Unavailable until the window holds at least two observations.
type StdDev struct {
	w       window.Window
	field   types.BarField
	tracker *tracker.Variance
	value   optional.Option[float64]
}

// NewStdDev creates a StdDev over the given window. The field defaults to
// the bar close when empty.
func NewStdDev(w window.Window, field types.BarField) *StdDev {
	if field == "" {
		field = types.BarFieldClose
	}

	return &StdDev{
		w:       w,
		field:   field,
		tracker: tracker.NewVariance(w),
		value:   optional.None[float64](),
	}
}

// Update implements Indicator.
func (i *StdDev) Update(bar types.Bar) {
	i.tracker.Push(bar.Timestamp, i.field.Extract(bar))
	i.tracker.Prune(bar.Timestamp)
	i.value = i.tracker.StdDev()
}

// Value implements Indicator.
func (i *StdDev) Value() optional.Option[float64] {
	return i.value
}

// Reset implements Indicator.
func (i *StdDev) Reset() {
	i.tracker.Clear()
	i.value = optional.None[float64]()
}

// Name implements Indicator.
func (i *StdDev) Name() string {
	return fmt.Sprintf("stddev(%s)", i.field)
}

// Validate implements Indicator.
func (i *StdDev) Validate() error {
	if err := i.w.Validate(); err != nil {
		return err
	}

	return i.field.Validate()
}
