package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/tracker"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// MovingAverage is the simple moving average of a bar field over a window.
type MovingAverage struct {
	w       window.Window
	field   types.BarField
	tracker *tracker.Sum
	value   optional.Option[float64]
}

// NewMovingAverage creates a MovingAverage over the given window. The field
// defaults to the bar close when empty.
func NewMovingAverage(w window.Window, field types.BarField) *MovingAverage {
	if field == "" {
		field = types.BarFieldClose
	}

	return &MovingAverage{
		w:       w,
		field:   field,
		tracker: tracker.NewSum(w),
		value:   optional.None[float64](),
	}
}

// Update implements Indicator.
func (i *MovingAverage) Update(bar types.Bar) {
	i.tracker.Push(bar.Timestamp, i.field.Extract(bar))
	i.tracker.Prune(bar.Timestamp)
	i.value = i.tracker.Mean()
}

// Value implements Indicator.
func (i *MovingAverage) Value() optional.Option[float64] {
	return i.value
}

// Reset implements Indicator.
func (i *MovingAverage) Reset() {
	i.tracker.Clear()
	i.value = optional.None[float64]()
}

// Name implements Indicator.
func (i *MovingAverage) Name() string {
	return fmt.Sprintf("ma(%s)", i.field)
}

// Validate implements Indicator.
func (i *MovingAverage) Validate() error {
	if err := i.w.Validate(); err != nil {
		return err
	}

	return i.field.Validate()
}
