package strategy

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
)

// SizingRule converts an entry signal into a share count. Share counts are
// floored to whole shares; a rule may legitimately return zero, which the
// manager treats as a skipped entry.
type SizingRule interface {
	// Quantity computes the share count for an entry at the bar's close.
	// stopDistance is the absolute distance between entry and stop price,
	// when a stop-loss was resolved for this entry.
	Quantity(bar types.Bar, accountValue float64, stopDistance optional.Option[float64]) (float64, error)
	// RequiresStop reports whether the rule cannot size without a stop-loss.
	RequiresStop() bool
	// Name returns a short diagnostic name.
	Name() string
}

// FixedShares always buys the same number of shares.
type FixedShares struct {
	Shares float64
}

// Quantity implements SizingRule.
func (s FixedShares) Quantity(bar types.Bar, accountValue float64, stopDistance optional.Option[float64]) (float64, error) {
	if s.Shares < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidSizing, "fixed share count must not be negative, got %g", s.Shares)
	}

	return math.Floor(s.Shares), nil
}

// RequiresStop implements SizingRule.
func (s FixedShares) RequiresStop() bool { return false }

// Name implements SizingRule.
func (s FixedShares) Name() string { return "fixed_shares" }

// FixedNotional spends the same dollar amount on every entry.
type FixedNotional struct {
	Amount float64
}

// Quantity implements SizingRule.
func (s FixedNotional) Quantity(bar types.Bar, accountValue float64, stopDistance optional.Option[float64]) (float64, error) {
	if s.Amount < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidSizing, "notional amount must not be negative, got %g", s.Amount)
	}

	if bar.Close <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidSizing, "cannot size against non-positive price %g", bar.Close)
	}

	return math.Floor(s.Amount / bar.Close), nil
}

// RequiresStop implements SizingRule.
func (s FixedNotional) RequiresStop() bool { return false }

// Name implements SizingRule.
func (s FixedNotional) Name() string { return "fixed_notional" }

// PercentOfAccount spends a percentage of the current account value on every
// entry. Percent is expressed in whole percents, e.g. 10 for 10%.
type PercentOfAccount struct {
	Percent float64
}

// Quantity implements SizingRule.
func (s PercentOfAccount) Quantity(bar types.Bar, accountValue float64, stopDistance optional.Option[float64]) (float64, error) {
	if s.Percent < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidSizing, "account percent must not be negative, got %g", s.Percent)
	}

	if bar.Close <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidSizing, "cannot size against non-positive price %g", bar.Close)
	}

	return math.Floor(accountValue * s.Percent / 100 / bar.Close), nil
}

// RequiresStop implements SizingRule.
func (s PercentOfAccount) RequiresStop() bool { return false }

// Name implements SizingRule.
func (s PercentOfAccount) Name() string { return "percent_of_account" }

// RiskPercent risks a percentage of the current account value against the
// stop-loss distance: quantity = account × percent / 100 ÷ stopDistance.
// Entries without a resolved stop-loss cannot be sized this way.
type RiskPercent struct {
	Percent float64
}

// Quantity implements SizingRule.
func (s RiskPercent) Quantity(bar types.Bar, accountValue float64, stopDistance optional.Option[float64]) (float64, error) {
	if s.Percent < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidSizing, "risk percent must not be negative, got %g", s.Percent)
	}

	if stopDistance.IsNone() {
		return 0, errors.New(errors.ErrCodeStopLossRequired, "risk-based sizing requires a stop-loss")
	}

	distance := stopDistance.Unwrap()
	if distance <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidSizing, "stop distance must be positive, got %g", distance)
	}

	return math.Floor(accountValue * s.Percent / 100 / distance), nil
}

// RequiresStop implements SizingRule.
func (s RiskPercent) RequiresStop() bool { return true }

// Name implements SizingRule.
func (s RiskPercent) Name() string { return "risk_percent" }
