package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/condition"
	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

// NewMovingAverageCrossStrategy builds a long moving-average crossover
// strategy: enter when the fast average crosses above the slow one, exit when
// it crosses back below. Entries spend 20% of the account and carry a 5%
// protective stop.
func NewMovingAverageCrossStrategy(fast, slow int) *EntryStrategy {
	return &EntryStrategy{
		Name:   fmt.Sprintf("ma-cross-%d-%d", fast, slow),
		Side:   types.SideLong,
		Sizing: PercentOfAccount{Percent: 20},
		Indicators: []indicator.Factory{
			func() indicator.Indicator { return indicator.NewMovingAverage(window.Count(fast), types.BarFieldClose) },
			func() indicator.Indicator { return indicator.NewMovingAverage(window.Count(slow), types.BarFieldClose) },
		},
		EntryConditions: []condition.Factory{
			func() condition.Condition {
				return condition.NewCross(condition.Indicator(0), condition.CrossAbove, condition.Indicator(1))
			},
		},
		ExitConditions: []condition.Factory{
			func() condition.Condition {
				return condition.NewCross(condition.Indicator(0), condition.CrossBelow, condition.Indicator(1))
			},
		},
		StopLoss: optional.Some(PriceOffset{Mode: OffsetPercent, Value: 5}),
	}
}
