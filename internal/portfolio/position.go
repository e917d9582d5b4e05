// Package portfolio owns positions and the manager that opens and closes
// them. Money math on fills goes through shopspring/decimal so realized
// P&L does not accumulate binary floating-point noise.
package portfolio

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/condition"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
	"github.com/shopspring/decimal"
)

// State is the lifecycle state of a position.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Position is one opened trade. IDs are assigned monotonically by the
// manager; a position moves from Open to Closed exactly once.
type Position struct {
	ID           int64
	Ticker       string
	StrategyName string
	Side         types.Side
	Quantity     float64
	EntryPrice   float64
	EntryTime    time.Time
	StopPrice    optional.Option[float64]
	TargetPrice  optional.Option[float64]
	MaxHold      optional.Option[time.Duration]
	State        State

	// Set when the position closes.
	ExitPrice   float64
	ExitTime    time.Time
	ExitReason  types.ExitReason
	ExitDetail  string
	RealizedPnL float64

	strategyIndex  int
	openedOnRow    int64
	exitConditions []condition.Condition
}

// IsOpen reports whether the position is still open.
func (p *Position) IsOpen() bool {
	return p.State == StateOpen
}

// UnrealizedPnL marks the open position to the given price. Slippage is a
// property of fills and is not applied to marks.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity * p.Side.Sign()
}

// Close fills the position at price and computes realized P&L with the
// slippage fraction charged on both the entry and the exit notional. Closing
// a closed position is an error and leaves it untouched.
func (p *Position) Close(price float64, ts time.Time, reason types.ExitReason, detail string, slippage float64) error {
	if p.State == StateClosed {
		return errors.Newf(errors.ErrCodePositionAlreadyClosed, "position %d is already closed", p.ID)
	}

	entry := decimal.NewFromFloat(p.EntryPrice)
	exit := decimal.NewFromFloat(price)
	quantity := decimal.NewFromFloat(p.Quantity)
	slip := decimal.NewFromFloat(slippage)
	one := decimal.NewFromInt(1)

	var pnl decimal.Decimal
	if p.Side == types.SideLong {
		// Buy at entry×(1+s), sell at exit×(1-s).
		pnl = exit.Mul(one.Sub(slip)).Sub(entry.Mul(one.Add(slip))).Mul(quantity)
	} else {
		// Sell at entry×(1-s), buy back at exit×(1+s).
		pnl = entry.Mul(one.Sub(slip)).Sub(exit.Mul(one.Add(slip))).Mul(quantity)
	}

	p.State = StateClosed
	p.ExitPrice = price
	p.ExitTime = ts
	p.ExitReason = reason
	p.ExitDetail = detail
	p.RealizedPnL, _ = pnl.Float64()

	return nil
}
