// Package engine drives a backtest: rows stream in exactly once, in time
// order, and everything downstream (indicators, entries, exits) reacts to
// the row being processed. No component ever sees data ahead of the current
// row, so a run is reproducible bit for bit.
package engine

import (
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/logger"
	"github.com/rxtech-lab/strategy-tester/internal/portfolio"
	"github.com/rxtech-lab/strategy-tester/internal/strategy"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
	"go.uber.org/zap"
)

// Engine is the single-threaded backtest loop.
type Engine struct {
	logger   *logger.Logger
	config   Config
	manager  *portfolio.Manager
	contexts map[string]*TickerContext
	actions  []types.Action
	location *time.Location
	rows     int
}

// NewEngine creates an Engine from a validated config.
func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	location, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to load market timezone", err)
	}

	return &Engine{
		logger:   log,
		config:   config,
		manager:  portfolio.NewManager(log, config.StartingAccountValue, config.SlippageFraction, config.MaxPositionDuration),
		contexts: make(map[string]*TickerContext),
		location: location,
	}, nil
}

// AddEntryStrategy registers a strategy prototype with the manager.
func (e *Engine) AddEntryStrategy(s *strategy.EntryStrategy) error {
	return e.manager.AddEntryStrategy(s)
}

// Manager exposes the position manager for inspection after a run.
func (e *Engine) Manager() *portfolio.Manager {
	return e.manager
}

// ProcessBar feeds one row through the engine: filter, context update, then
// entry/exit evaluation. Rows outside the configured time range or market
// hours are dropped silently; a per-ticker timestamp regression is a data
// error and the row is not processed.
func (e *Engine) ProcessBar(bar types.Bar) ([]types.Action, error) {
	if bar.Ticker == "" || bar.Timestamp.IsZero() {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "bar needs a ticker and a timestamp")
	}

	if e.config.StartTime.IsSome() && bar.Timestamp.Before(e.config.StartTime.Unwrap()) {
		return nil, nil
	}

	if e.config.EndTime.IsSome() && bar.Timestamp.After(e.config.EndTime.Unwrap()) {
		return nil, nil
	}

	if !e.config.MarketHours.Includes(bar.Timestamp, e.location) {
		return nil, nil
	}

	context, ok := e.contexts[bar.Ticker]
	if !ok {
		context = newTickerContext(bar.Ticker, e.manager.Strategies())
		e.contexts[bar.Ticker] = context
	} else if bar.Timestamp.Before(context.lastSeen) {
		return nil, errors.Newf(errors.ErrCodeOutOfOrderData,
			"ticker %s went back in time: %s after %s",
			bar.Ticker, bar.Timestamp.Format(time.RFC3339), context.lastSeen.Format(time.RFC3339))
	}

	context.update(bar)

	actions := e.manager.ProcessRow(bar, context)
	e.actions = append(e.actions, actions...)

	return actions, nil
}

// Run consumes the row stream. Out-of-order rows are logged and skipped;
// stream errors abort the run. onProgress, when set, is called with the
// number of rows consumed so far.
func (e *Engine) Run(rows iter.Seq2[types.Bar, error], onProgress optional.Option[func(int)]) error {
	if len(e.manager.Strategies()) == 0 {
		return errors.New(errors.ErrCodeEngineNoStrategies, "no entry strategies registered")
	}

	for bar, err := range rows {
		if err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "row stream failed", err)
		}

		if _, err := e.ProcessBar(bar); err != nil {
			if errors.HasCode(err, errors.ErrCodeOutOfOrderData) {
				e.logger.Warn("dropping out-of-order bar",
					zap.String("ticker", bar.Ticker),
					zap.Time("timestamp", bar.Timestamp))

				continue
			}

			return err
		}

		e.rows++

		if onProgress.IsSome() {
			onProgress.Unwrap()(e.rows)
		}
	}

	return nil
}

// Actions returns every action of the run in execution order.
func (e *Engine) Actions() []types.Action {
	return e.actions
}

// Context returns the ticker's context, when the ticker has been seen.
func (e *Engine) Context(ticker string) optional.Option[*TickerContext] {
	context, ok := e.contexts[ticker]
	if !ok {
		return optional.None[*TickerContext]()
	}

	return optional.Some(context)
}

// LastCloses returns each seen ticker's most recent close, used to mark
// open positions at the end of a run.
func (e *Engine) LastCloses() map[string]float64 {
	closes := make(map[string]float64, len(e.contexts))

	for ticker, context := range e.contexts {
		if bar := context.LastBar(); bar.IsSome() {
			closes[ticker] = bar.Unwrap().Close
		}
	}

	return closes
}

// Stats summarizes the run.
func (e *Engine) Stats() types.RunStats {
	closed := e.manager.ClosedPositions()

	var result types.TradeResult

	var pnl types.TradePnl

	result.NumberOfTrades = len(closed)

	for _, position := range closed {
		pnl.RealizedPnL += position.RealizedPnL

		if position.RealizedPnL > 0 {
			result.NumberOfWinningTrades++
		} else if position.RealizedPnL < 0 {
			result.NumberOfLosingTrades++
		}

		if position.RealizedPnL < pnl.MaximumLoss {
			pnl.MaximumLoss = position.RealizedPnL
		}

		if position.RealizedPnL > pnl.MaximumProfit {
			pnl.MaximumProfit = position.RealizedPnL
		}
	}

	if result.NumberOfTrades > 0 {
		result.WinRate = float64(result.NumberOfWinningTrades) / float64(result.NumberOfTrades)
	}

	unrealized, missing := e.manager.TotalUnrealizedPnL(e.LastCloses())
	if len(missing) > 0 {
		e.logger.Warn("open positions without a final price", zap.Strings("tickers", missing))
	}

	pnl.UnrealizedPnL = unrealized
	pnl.TotalPnL = pnl.RealizedPnL + pnl.UnrealizedPnL

	return types.RunStats{
		ID:                 uuid.New().String(),
		Timestamp:          time.Now().UTC(),
		TradeResult:        result,
		TradePnl:           pnl,
		OpenPositions:      len(e.manager.OpenPositions()),
		EndingAccountValue: e.manager.AccountValue(),
	}
}
