package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/condition"
	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/logger"
	"github.com/rxtech-lab/strategy-tester/internal/strategy"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
	"go.uber.org/zap"
)

// IndicatorView gives the manager access to the per-ticker indicator
// instances the engine updates, addressed by strategy index.
type IndicatorView interface {
	StrategyIndicators(strategyIndex int) []indicator.Indicator
}

// entryInstance is one strategy's entry-condition state for one ticker.
type entryInstance struct {
	strategyIndex int
	conditions    []condition.Condition
}

// Manager registers entry strategies, materializes their per-ticker state,
// and runs the entry/exit evaluation for every row. It owns all positions
// and the account value.
type Manager struct {
	logger         *logger.Logger
	slippage       float64
	accountValue   float64
	defaultMaxHold optional.Option[time.Duration]

	strategies   []*strategy.EntryStrategy
	instances    map[string][]*entryInstance
	positions    map[int64]*Position
	order        []int64
	openByTicker map[string][]int64
	// reserved is the summed entry notional of open positions; it reduces
	// the funds available to later entries until the positions close.
	reserved float64
	nextID   int64
	row      int64
}

// NewManager creates a Manager with the given starting account value,
// slippage fraction, and engine-wide maximum hold duration.
func NewManager(log *logger.Logger, startingAccountValue, slippage float64, maxHold optional.Option[time.Duration]) *Manager {
	return &Manager{
		logger:         log,
		slippage:       slippage,
		accountValue:   startingAccountValue,
		defaultMaxHold: maxHold,
		instances:      make(map[string][]*entryInstance),
		positions:      make(map[int64]*Position),
		openByTicker:   make(map[string][]int64),
	}
}

// AddEntryStrategy registers a strategy prototype. Registering the same
// definition twice yields two independent strategies. Strategies cannot be
// added once rows started flowing; per-ticker state would miss history.
func (m *Manager) AddEntryStrategy(s *strategy.EntryStrategy) error {
	if m.row > 0 {
		return errors.New(errors.ErrCodeStrategyConfigError, "cannot register strategies after processing started")
	}

	if err := s.Validate(); err != nil {
		return err
	}

	m.strategies = append(m.strategies, s)

	return nil
}

// Strategies returns the registered strategy prototypes in registration
// order.
func (m *Manager) Strategies() []*strategy.EntryStrategy {
	return m.strategies
}

// ProcessRow evaluates entries, then exits, for one bar. Entries are checked
// in strategy registration order and exits in position id order, so a run is
// fully deterministic. Returned actions are in execution order.
func (m *Manager) ProcessRow(bar types.Bar, view IndicatorView) []types.Action {
	m.row++

	var actions []types.Action

	for _, inst := range m.instancesFor(bar.Ticker) {
		indicators := view.StrategyIndicators(inst.strategyIndex)
		if !condition.UpdateAll(inst.conditions, indicators, bar) {
			continue
		}

		action, err := m.openPosition(inst.strategyIndex, bar, indicators)
		if err != nil {
			m.logger.Warn("entry skipped",
				zap.String("ticker", bar.Ticker),
				zap.String("strategy", m.strategies[inst.strategyIndex].Name),
				zap.Time("timestamp", bar.Timestamp),
				zap.Error(err))

			continue
		}

		if action.IsSome() {
			actions = append(actions, action.Unwrap())
		}
	}

	// Exits run against a snapshot so a close does not disturb iteration.
	openIDs := append([]int64(nil), m.openByTicker[bar.Ticker]...)
	for _, id := range openIDs {
		position := m.positions[id]
		if position.openedOnRow == m.row {
			// Entry and exit never happen on the same row.
			continue
		}

		if action := m.evaluateExits(position, bar, view); action.IsSome() {
			actions = append(actions, action.Unwrap())
		}
	}

	return actions
}

// GetPosition returns a copy of the position with the given id.
func (m *Manager) GetPosition(id int64) optional.Option[Position] {
	position, ok := m.positions[id]
	if !ok {
		return optional.None[Position]()
	}

	return optional.Some(*position)
}

// OpenPositions returns copies of all open positions in id order.
func (m *Manager) OpenPositions() []Position {
	var open []Position

	for _, id := range m.order {
		if p := m.positions[id]; p.IsOpen() {
			open = append(open, *p)
		}
	}

	return open
}

// ClosedPositions returns copies of all closed positions in id order.
func (m *Manager) ClosedPositions() []Position {
	var closed []Position

	for _, id := range m.order {
		if p := m.positions[id]; !p.IsOpen() {
			closed = append(closed, *p)
		}
	}

	return closed
}

// TotalRealizedPnL sums realized P&L over all closed positions.
func (m *Manager) TotalRealizedPnL() float64 {
	var total float64

	for _, id := range m.order {
		if p := m.positions[id]; !p.IsOpen() {
			total += p.RealizedPnL
		}
	}

	return total
}

// TotalUnrealizedPnL marks all open positions against the given price map
// and returns the aggregate plus the tickers of open positions the map has
// no price for. Positions without a price contribute nothing.
func (m *Manager) TotalUnrealizedPnL(prices map[string]float64) (float64, []string) {
	var total float64

	var missing []string

	seen := make(map[string]bool)

	for _, id := range m.order {
		position := m.positions[id]
		if !position.IsOpen() {
			continue
		}

		price, ok := prices[position.Ticker]
		if !ok {
			if !seen[position.Ticker] {
				seen[position.Ticker] = true
				missing = append(missing, position.Ticker)
			}

			continue
		}

		total += position.UnrealizedPnL(price)
	}

	return total, missing
}

// AccountValue returns the current account value.
func (m *Manager) AccountValue() float64 {
	return m.accountValue
}

// UpdateAccountValue overwrites the account value used by sizing rules and
// the buying-power check.
func (m *Manager) UpdateAccountValue(value float64) {
	m.accountValue = value
}

// instancesFor lazily materializes per-ticker entry state the first time a
// ticker shows up.
func (m *Manager) instancesFor(ticker string) []*entryInstance {
	if instances, ok := m.instances[ticker]; ok {
		return instances
	}

	instances := make([]*entryInstance, 0, len(m.strategies))
	for i, s := range m.strategies {
		instances = append(instances, &entryInstance{
			strategyIndex: i,
			conditions:    condition.Build(s.EntryConditions),
		})
	}

	m.instances[ticker] = instances

	return instances
}

func (m *Manager) openPosition(strategyIndex int, bar types.Bar, indicators []indicator.Indicator) (optional.Option[types.Action], error) {
	none := optional.None[types.Action]()
	def := m.strategies[strategyIndex]

	price := bar.Close
	if price <= 0 {
		return none, errors.Newf(errors.ErrCodeInvalidParameter, "cannot enter at non-positive price %g", price)
	}

	atr := optional.None[float64]()
	if def.ATRIndex.IsSome() {
		atr = indicators[def.ATRIndex.Unwrap()].Value()
	}

	stop, target, err := def.ResolveExitPrices(price, atr)
	if err != nil {
		return none, err
	}

	quantity, err := def.Sizing.Quantity(bar, m.accountValue, strategy.StopDistance(price, stop))
	if err != nil {
		return none, err
	}

	if quantity <= 0 {
		m.logger.Debug("sizing floored to zero shares",
			zap.String("ticker", bar.Ticker),
			zap.String("strategy", def.Name))

		return none, nil
	}

	if quantity*price > m.accountValue-m.reserved {
		return none, errors.Newf(errors.ErrCodeInsufficientFunds,
			"entry needs %.2f but only %.2f is unreserved", quantity*price, m.accountValue-m.reserved)
	}

	maxHold := def.MaxHold
	if maxHold.IsNone() {
		maxHold = m.defaultMaxHold
	}

	m.nextID++
	position := &Position{
		ID:             m.nextID,
		Ticker:         bar.Ticker,
		StrategyName:   def.Name,
		Side:           def.Side,
		Quantity:       quantity,
		EntryPrice:     price,
		EntryTime:      bar.Timestamp,
		StopPrice:      stop,
		TargetPrice:    target,
		MaxHold:        maxHold,
		State:          StateOpen,
		strategyIndex:  strategyIndex,
		openedOnRow:    m.row,
		exitConditions: condition.Build(def.ExitConditions),
	}

	m.positions[position.ID] = position
	m.order = append(m.order, position.ID)
	m.openByTicker[bar.Ticker] = append(m.openByTicker[bar.Ticker], position.ID)
	m.reserved += quantity * price

	return optional.Some(types.Action{
		ID:           uuid.New().String(),
		Type:         types.ActionTypeEntry,
		PositionID:   position.ID,
		Ticker:       position.Ticker,
		Side:         position.Side,
		Price:        position.EntryPrice,
		Quantity:     position.Quantity,
		StrategyName: position.StrategyName,
		Timestamp:    bar.Timestamp,
	}), nil
}

// evaluateExits checks the triggers for one open position against one bar,
// in fixed priority order: stop-loss, take-profit, max duration, then the
// custom exit conditions in registration order. The first trigger wins and
// the rest are not consulted on that row.
func (m *Manager) evaluateExits(position *Position, bar types.Bar, view IndicatorView) optional.Option[types.Action] {
	if position.StopPrice.IsSome() {
		stop := position.StopPrice.Unwrap()
		breached := (position.Side == types.SideLong && bar.Low <= stop) ||
			(position.Side == types.SideShort && bar.High >= stop)

		if breached {
			return optional.Some(m.closePosition(position, stop, bar.Timestamp, types.ExitReasonStopLoss, ""))
		}
	}

	if position.TargetPrice.IsSome() {
		target := position.TargetPrice.Unwrap()
		reached := (position.Side == types.SideLong && bar.High >= target) ||
			(position.Side == types.SideShort && bar.Low <= target)

		if reached {
			return optional.Some(m.closePosition(position, target, bar.Timestamp, types.ExitReasonTakeProfit, ""))
		}
	}

	if position.MaxHold.IsSome() && bar.Timestamp.Sub(position.EntryTime) >= position.MaxHold.Unwrap() {
		return optional.Some(m.closePosition(position, bar.Close, bar.Timestamp, types.ExitReasonMaxDuration, ""))
	}

	indicators := view.StrategyIndicators(position.strategyIndex)
	for _, c := range position.exitConditions {
		if c.Update(indicators, bar) {
			return optional.Some(m.closePosition(position, bar.Close, bar.Timestamp, types.ExitReasonCondition, c.Name()))
		}
	}

	return optional.None[types.Action]()
}

func (m *Manager) closePosition(position *Position, price float64, ts time.Time, reason types.ExitReason, detail string) types.Action {
	if err := position.Close(price, ts, reason, detail, m.slippage); err != nil {
		// Unreachable through ProcessRow; open bookkeeping guards it.
		m.logger.Error("close failed", zap.Int64("position", position.ID), zap.Error(err))
	}

	// Realized P&L folds into buying power for later entries, and the
	// entry notional is no longer reserved.
	m.accountValue += position.RealizedPnL
	m.reserved -= position.Quantity * position.EntryPrice

	open := m.openByTicker[position.Ticker]
	for i, id := range open {
		if id == position.ID {
			m.openByTicker[position.Ticker] = append(open[:i:i], open[i+1:]...)
			break
		}
	}

	m.logger.Info("position closed",
		zap.Int64("position", position.ID),
		zap.String("ticker", position.Ticker),
		zap.String("reason", string(reason)),
		zap.Float64("pnl", position.RealizedPnL))

	return types.Action{
		ID:           uuid.New().String(),
		Type:         types.ActionTypeExit,
		PositionID:   position.ID,
		Ticker:       position.Ticker,
		Side:         position.Side,
		Price:        price,
		Quantity:     position.Quantity,
		PnL:          position.RealizedPnL,
		Reason:       reason,
		Detail:       detail,
		StrategyName: position.StrategyName,
		Timestamp:    ts,
	}
}
