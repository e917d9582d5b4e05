package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
)

// OffsetMode selects how a stop-loss or take-profit price is derived from
// the entry price.
type OffsetMode string

const (
	// OffsetFixed uses Value as the absolute exit price.
	OffsetFixed OffsetMode = "fixed"
	// OffsetPercent places the exit Value percent away from the entry price.
	OffsetPercent OffsetMode = "percent"
	// OffsetPoints places the exit Value price points away from the entry.
	OffsetPoints OffsetMode = "points"
	// OffsetATRMultiple places the exit Value × ATR away from the entry.
	OffsetATRMultiple OffsetMode = "atr_multiple"
	// OffsetRiskReward places a take-profit Value × the stop distance away
	// from the entry. Only meaningful for targets.
	OffsetRiskReward OffsetMode = "risk_reward"
)

// PriceOffset describes a stop-loss or take-profit level relative to the
// entry fill.
type PriceOffset struct {
	Mode  OffsetMode `yaml:"mode" json:"mode" validate:"required,oneof=fixed percent points atr_multiple risk_reward"`
	Value float64    `yaml:"value" json:"value" validate:"gt=0"`
}

// Resolve computes the exit price for an entry at entryPrice. direction is
// +1 when the level sits above the entry and -1 when below; the caller
// derives it from the position side and whether the level is protective.
// atr feeds atr_multiple offsets; stopDistance feeds risk_reward offsets.
func (o PriceOffset) Resolve(entryPrice, direction float64, atr, stopDistance optional.Option[float64]) (float64, error) {
	switch o.Mode {
	case OffsetFixed:
		return o.Value, nil
	case OffsetPercent:
		return entryPrice * (1 + direction*o.Value/100), nil
	case OffsetPoints:
		return entryPrice + direction*o.Value, nil
	case OffsetATRMultiple:
		if atr.IsNone() {
			return 0, errors.New(errors.ErrCodeATRRequired, "atr_multiple offset needs an ATR value")
		}

		return entryPrice + direction*o.Value*atr.Unwrap(), nil
	case OffsetRiskReward:
		if stopDistance.IsNone() {
			return 0, errors.New(errors.ErrCodeStopLossRequired, "risk_reward offset needs a resolved stop-loss")
		}

		return entryPrice + direction*o.Value*stopDistance.Unwrap(), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidOffset, "unknown offset mode %q", string(o.Mode))
	}
}

// Validate checks the offset's configuration.
func (o PriceOffset) Validate() error {
	switch o.Mode {
	case OffsetFixed, OffsetPercent, OffsetPoints, OffsetATRMultiple, OffsetRiskReward:
	default:
		return errors.Newf(errors.ErrCodeInvalidOffset, "unknown offset mode %q", string(o.Mode))
	}

	if o.Value <= 0 {
		return errors.Newf(errors.ErrCodeInvalidOffset, "offset value must be positive, got %g", o.Value)
	}

	return nil
}
