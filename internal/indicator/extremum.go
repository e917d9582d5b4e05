package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/tracker"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// HighOfPeriod tracks the highest value of a bar field over a window.
type HighOfPeriod struct {
	w       window.Window
	field   types.BarField
	tracker *tracker.Extremum
	value   optional.Option[float64]
}

// NewHighOfPeriod creates a HighOfPeriod over the given window. The field
// defaults to the bar high when empty.
func NewHighOfPeriod(w window.Window, field types.BarField) *HighOfPeriod {
	if field == "" {
		field = types.BarFieldHigh
	}

	return &HighOfPeriod{
		w:       w,
		field:   field,
		tracker: tracker.NewMax(w),
		value:   optional.None[float64](),
	}
}

// Update implements Indicator.
func (i *HighOfPeriod) Update(bar types.Bar) {
	i.tracker.Push(bar.Timestamp, i.field.Extract(bar))
	i.tracker.Prune(bar.Timestamp)
	i.value = i.tracker.Get()
}

// Value implements Indicator.
func (i *HighOfPeriod) Value() optional.Option[float64] {
	return i.value
}

// Reset implements Indicator.
func (i *HighOfPeriod) Reset() {
	i.tracker.Clear()
	i.value = optional.None[float64]()
}

// Name implements Indicator.
func (i *HighOfPeriod) Name() string {
	return fmt.Sprintf("high(%s)", i.field)
}

// Validate implements Indicator.
func (i *HighOfPeriod) Validate() error {
	if err := i.w.Validate(); err != nil {
		return err
	}

	return i.field.Validate()
}

// LowOfPeriod tracks the lowest value of a bar field over a window.
type LowOfPeriod struct {
	w       window.Window
	field   types.BarField
	tracker *tracker.Extremum
	value   optional.Option[float64]
}

// NewLowOfPeriod creates a LowOfPeriod over the given window. The field
// defaults to the bar low when empty.
func NewLowOfPeriod(w window.Window, field types.BarField) *LowOfPeriod {
	if field == "" {
		field = types.BarFieldLow
	}

	return &LowOfPeriod{
		w:       w,
		field:   field,
		tracker: tracker.NewMin(w),
		value:   optional.None[float64](),
	}
}

// Update implements Indicator.
func (i *LowOfPeriod) Update(bar types.Bar) {
	i.tracker.Push(bar.Timestamp, i.field.Extract(bar))
	i.tracker.Prune(bar.Timestamp)
	i.value = i.tracker.Get()
}

// Value implements Indicator.
func (i *LowOfPeriod) Value() optional.Option[float64] {
	return i.value
}

// Reset implements Indicator.
func (i *LowOfPeriod) Reset() {
	i.tracker.Clear()
	i.value = optional.None[float64]()
}

// Name implements Indicator.
func (i *LowOfPeriod) Name() string {
	return fmt.Sprintf("low(%s)", i.field)
}

// Validate implements Indicator.
func (i *LowOfPeriod) Validate() error {
	if err := i.w.Validate(); err != nil {
		return err
	}

	return i.field.Validate()
}
