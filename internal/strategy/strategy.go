// Package strategy defines entry strategies: how a signal is detected, how
// it is sized, and where its exits sit. A strategy is a prototype; the
// engine materializes per-ticker instances from its factories so condition
// and indicator state never leaks across tickers.
package strategy

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/condition"
	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
)

var validate = validator.New()

// EntryStrategy describes one way of entering the market.
type EntryStrategy struct {
	// Name identifies the strategy in logs and the action log.
	Name string
	// Side is the direction of the positions this strategy opens.
	Side types.Side
	// Sizing converts entry signals into share counts.
	Sizing SizingRule
	// Indicators are the per-ticker indicator factories. Conditions address
	// these instances by index.
	Indicators []indicator.Factory
	// EntryConditions must all be satisfied on the same row to enter.
	EntryConditions []condition.Factory
	// ExitConditions are attached to each opened position, with fresh state.
	ExitConditions []condition.Factory
	// StopLoss, when set, resolves a protective price at entry.
	StopLoss optional.Option[PriceOffset]
	// TakeProfit, when set, resolves a target price at entry.
	TakeProfit optional.Option[PriceOffset]
	// ATRIndex points at the indicator whose value feeds atr_multiple
	// offsets, usually an ATR.
	ATRIndex optional.Option[int]
	// MaxHold overrides the engine-wide maximum position duration.
	MaxHold optional.Option[time.Duration]
}

// Validate checks the strategy definition. It instantiates the indicator
// factories once to validate their configuration, so broken windows surface
// at registration instead of at the first row.
func (s *EntryStrategy) Validate() error {
	if err := validate.Var(s.Name, "required"); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "strategy name is required", err)
	}

	if err := s.Side.Validate(); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %s", s.Name)
	}

	if s.Sizing == nil {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s has no sizing rule", s.Name)
	}

	// An empty entry-condition list never fires, so registering it is a
	// configuration mistake, not a quiet no-op.
	if len(s.EntryConditions) == 0 {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s has no entry conditions", s.Name)
	}

	if s.Sizing.RequiresStop() && s.StopLoss.IsNone() {
		return errors.Newf(errors.ErrCodeStopLossRequired, "strategy %s sizes by risk but has no stop-loss", s.Name)
	}

	for idx, ind := range s.BuildIndicators() {
		if ind == nil {
			return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s indicator factory %d returned nil", s.Name, idx)
		}

		if err := ind.Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %s indicator %s", s.Name, ind.Name())
		}
	}

	if s.StopLoss.IsSome() {
		stop := s.StopLoss.Unwrap()
		if err := stop.Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %s stop-loss", s.Name)
		}

		if stop.Mode == OffsetRiskReward {
			return errors.Newf(errors.ErrCodeInvalidOffset, "strategy %s: risk_reward is only valid for take-profits", s.Name)
		}

		if stop.Mode == OffsetATRMultiple && s.ATRIndex.IsNone() {
			return errors.Newf(errors.ErrCodeATRRequired, "strategy %s stop-loss uses atr_multiple but no ATR indicator is set", s.Name)
		}
	}

	if s.TakeProfit.IsSome() {
		target := s.TakeProfit.Unwrap()
		if err := target.Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %s take-profit", s.Name)
		}

		if target.Mode == OffsetRiskReward && s.StopLoss.IsNone() {
			return errors.Newf(errors.ErrCodeStopLossRequired, "strategy %s take-profit needs a stop-loss for risk_reward", s.Name)
		}

		if target.Mode == OffsetATRMultiple && s.ATRIndex.IsNone() {
			return errors.Newf(errors.ErrCodeATRRequired, "strategy %s take-profit uses atr_multiple but no ATR indicator is set", s.Name)
		}
	}

	if s.ATRIndex.IsSome() {
		idx := s.ATRIndex.Unwrap()
		if idx < 0 || idx >= len(s.Indicators) {
			return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s: ATR index %d out of range", s.Name, idx)
		}
	}

	if s.MaxHold.IsSome() && s.MaxHold.Unwrap() <= 0 {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s: max hold must be positive", s.Name)
	}

	return nil
}

// BuildIndicators instantiates the strategy's indicator factories.
func (s *EntryStrategy) BuildIndicators() []indicator.Indicator {
	indicators := make([]indicator.Indicator, 0, len(s.Indicators))
	for _, f := range s.Indicators {
		indicators = append(indicators, f())
	}

	return indicators
}

// ResolveExitPrices computes the stop-loss and take-profit prices for an
// entry at entryPrice. The stop sits against the position side, the target
// with it; risk_reward targets measure off the resolved stop distance. atr
// is the current value of the strategy's ATR indicator, when one is set.
func (s *EntryStrategy) ResolveExitPrices(entryPrice float64, atr optional.Option[float64]) (stop, target optional.Option[float64], err error) {
	stop = optional.None[float64]()
	target = optional.None[float64]()

	stopDistance := optional.None[float64]()

	if s.StopLoss.IsSome() {
		price, resolveErr := s.StopLoss.Unwrap().Resolve(entryPrice, -s.Side.Sign(), atr, optional.None[float64]())
		if resolveErr != nil {
			return stop, target, resolveErr
		}

		stop = optional.Some(price)
		stopDistance = optional.Some(math.Abs(entryPrice - price))
	}

	if s.TakeProfit.IsSome() {
		price, resolveErr := s.TakeProfit.Unwrap().Resolve(entryPrice, s.Side.Sign(), atr, stopDistance)
		if resolveErr != nil {
			return stop, target, resolveErr
		}

		target = optional.Some(price)
	}

	return stop, target, nil
}

// StopDistance returns the absolute distance between entry and stop price.
func StopDistance(entryPrice float64, stop optional.Option[float64]) optional.Option[float64] {
	if stop.IsNone() {
		return optional.None[float64]()
	}

	return optional.Some(math.Abs(entryPrice - stop.Unwrap()))
}
