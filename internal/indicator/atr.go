package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/tracker"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// ATR is the average true range over a window. The first bar's true range is
// its high-low span; later bars also consider the gap from the previous
// close.
type ATR struct {
	w         window.Window
	tracker   *tracker.Sum
	prevClose float64
	value     optional.Option[float64]
}

// NewATR creates an ATR over the given window.
func NewATR(w window.Window) *ATR {
	return &ATR{
		w:         w,
		tracker:   tracker.NewSum(w),
		prevClose: math.NaN(),
		value:     optional.None[float64](),
	}
}

// Update implements Indicator.
func (i *ATR) Update(bar types.Bar) {
	i.tracker.Push(bar.Timestamp, bar.TrueRange(i.prevClose))
	i.tracker.Prune(bar.Timestamp)
	i.prevClose = bar.Close
	i.value = i.tracker.Mean()
}

// Value implements Indicator.
func (i *ATR) Value() optional.Option[float64] {
	return i.value
}

// Reset implements Indicator.
func (i *ATR) Reset() {
	i.tracker.Clear()
	i.prevClose = math.NaN()
	i.value = optional.None[float64]()
}

// Name implements Indicator.
func (i *ATR) Name() string {
	return "atr"
}

// Validate implements Indicator.
func (i *ATR) Validate() error {
	return i.w.Validate()
}
