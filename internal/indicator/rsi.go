package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/tracker"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// RSI is the relative strength index of a bar field over a window of deltas.
type RSI struct {
	w       window.Window
	field   types.BarField
	tracker *tracker.RelStrength
	value   optional.Option[float64]
}

// NewRSI creates an RSI over the given window. The field defaults to the bar
// close when empty.
func NewRSI(w window.Window, field types.BarField) *RSI {
	if field == "" {
		field = types.BarFieldClose
	}

	return &RSI{
		w:       w,
		field:   field,
		tracker: tracker.NewRelStrength(w),
		value:   optional.None[float64](),
	}
}

// Update implements Indicator.
func (i *RSI) Update(bar types.Bar) {
	i.tracker.Push(bar.Timestamp, i.field.Extract(bar))
	i.tracker.Prune(bar.Timestamp)
	i.value = i.tracker.Get()
}

// Value implements Indicator.
func (i *RSI) Value() optional.Option[float64] {
	return i.value
}

// Reset implements Indicator.
func (i *RSI) Reset() {
	i.tracker.Clear()
	i.value = optional.None[float64]()
}

// Name implements Indicator.
func (i *RSI) Name() string {
	return fmt.Sprintf("rsi(%s)", i.field)
}

// Validate implements Indicator.
func (i *RSI) Validate() error {
	if err := i.w.Validate(); err != nil {
		return err
	}

	return i.field.Validate()
}
