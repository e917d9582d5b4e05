package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/tracker"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// VWAP is the volume-weighted average price over a window. Unavailable while
// the in-window volume sums to zero.
type VWAP struct {
	w       window.Window
	field   types.BarField
	tracker *tracker.VolumeWeighted
	value   optional.Option[float64]
}

// NewVWAP creates a VWAP over the given window. The price field defaults to
// the typical price when empty.
func NewVWAP(w window.Window, field types.BarField) *VWAP {
	if field == "" {
		field = types.BarFieldTypical
	}

	return &VWAP{
		w:       w,
		field:   field,
		tracker: tracker.NewVolumeWeighted(w),
		value:   optional.None[float64](),
	}
}

// Update implements Indicator.
func (i *VWAP) Update(bar types.Bar) {
	i.tracker.Push(bar.Timestamp, i.field.Extract(bar), bar.Volume)
	i.tracker.Prune(bar.Timestamp)
	i.value = i.tracker.Get()
}

// Value implements Indicator.
func (i *VWAP) Value() optional.Option[float64] {
	return i.value
}

// Reset implements Indicator.
func (i *VWAP) Reset() {
	i.tracker.Clear()
	i.value = optional.None[float64]()
}

// Name implements Indicator.
func (i *VWAP) Name() string {
	return fmt.Sprintf("vwap(%s)", i.field)
}

// Validate implements Indicator.
func (i *VWAP) Validate() error {
	if err := i.w.Validate(); err != nil {
		return err
	}

	return i.field.Validate()
}
