package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/strategy"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

// TickerContext holds the per-ticker indicator instances, grouped by the
// strategy that declared them, plus the last bar seen for that ticker. The
// engine creates one the first time a ticker shows up.
type TickerContext struct {
	Ticker string

	groups   [][]indicator.Indicator
	lastBar  optional.Option[types.Bar]
	lastSeen time.Time
}

// newTickerContext materializes fresh indicator instances for every
// registered strategy.
func newTickerContext(ticker string, strategies []*strategy.EntryStrategy) *TickerContext {
	groups := make([][]indicator.Indicator, 0, len(strategies))
	for _, s := range strategies {
		groups = append(groups, s.BuildIndicators())
	}

	return &TickerContext{
		Ticker:  ticker,
		groups:  groups,
		lastBar: optional.None[types.Bar](),
	}
}

// update feeds the bar to every indicator and records it as the latest.
func (c *TickerContext) update(bar types.Bar) {
	for _, group := range c.groups {
		for _, ind := range group {
			ind.Update(bar)
		}
	}

	c.lastBar = optional.Some(bar)
	c.lastSeen = bar.Timestamp
}

// StrategyIndicators implements portfolio.IndicatorView.
func (c *TickerContext) StrategyIndicators(strategyIndex int) []indicator.Indicator {
	if strategyIndex < 0 || strategyIndex >= len(c.groups) {
		return nil
	}

	return c.groups[strategyIndex]
}

// LastBar returns the most recent bar seen for this ticker.
func (c *TickerContext) LastBar() optional.Option[types.Bar] {
	return c.lastBar
}

// IndicatorValues snapshots every resolvable indicator value for
// diagnostics, keyed by indicator name.
func (c *TickerContext) IndicatorValues() map[string]float64 {
	values := make(map[string]float64)

	for _, group := range c.groups {
		for _, ind := range group {
			if v := ind.Value(); v.IsSome() {
				values[ind.Name()] = v.Unwrap()
			}
		}
	}

	return values
}
