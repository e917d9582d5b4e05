package condition

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

// Direction is the side a crossing must happen towards.
type Direction string

const (
	CrossAbove Direction = "above"
	CrossBelow Direction = "below"
)

// Cross fires on the row where the monitored value moves across the
// threshold, and only on that row. It compares the relative order of value
// and threshold on the previous row against the current one; holding on one
// side of the threshold never fires.
type Cross struct {
	value         Value
	threshold     Value
	direction     Direction
	prevValue     optional.Option[float64]
	prevThreshold optional.Option[float64]
}

// NewCross creates a Cross condition.
func NewCross(value Value, direction Direction, threshold Value) *Cross {
	return &Cross{
		value:         value,
		threshold:     threshold,
		direction:     direction,
		prevValue:     optional.None[float64](),
		prevThreshold: optional.None[float64](),
	}
}

// Update implements Condition.
func (c *Cross) Update(indicators []indicator.Indicator, bar types.Bar) bool {
	value := c.value.Evaluate(indicators, bar)
	threshold := c.threshold.Evaluate(indicators, bar)

	fired := c.crossed(value, threshold)

	// A row where either side is unavailable breaks the comparison chain;
	// the next resolvable row seeds fresh previous values.
	c.prevValue = value
	c.prevThreshold = threshold

	return fired
}

// Check implements Condition.
func (c *Cross) Check(indicators []indicator.Indicator, bar types.Bar) bool {
	return c.crossed(c.value.Evaluate(indicators, bar), c.threshold.Evaluate(indicators, bar))
}

// Reset implements Condition.
func (c *Cross) Reset() {
	c.prevValue = optional.None[float64]()
	c.prevThreshold = optional.None[float64]()
}

// Name implements Condition.
func (c *Cross) Name() string {
	return fmt.Sprintf("%s crosses %s %s", c.value, c.direction, c.threshold)
}

func (c *Cross) crossed(value, threshold optional.Option[float64]) bool {
	if value.IsNone() || threshold.IsNone() || c.prevValue.IsNone() || c.prevThreshold.IsNone() {
		return false
	}

	v, t := value.Unwrap(), threshold.Unwrap()
	pv, pt := c.prevValue.Unwrap(), c.prevThreshold.Unwrap()

	if c.direction == CrossAbove {
		return pv <= pt && v > t
	}

	return pv >= pt && v < t
}
