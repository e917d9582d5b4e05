package types

import "github.com/rxtech-lab/strategy-tester/pkg/errors"

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Sign returns +1 for long positions and -1 for short positions.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}

	return 1
}

// Validate checks that the side is LONG or SHORT.
func (s Side) Validate() error {
	switch s {
	case SideLong, SideShort:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidSide, "unknown side %q", string(s))
	}
}

// ExitReason identifies which trigger closed a position.
type ExitReason string

const (
	ExitReasonStopLoss    ExitReason = "stop_loss"
	ExitReasonTakeProfit  ExitReason = "take_profit"
	ExitReasonMaxDuration ExitReason = "max_duration"
	ExitReasonCondition   ExitReason = "condition"
)
