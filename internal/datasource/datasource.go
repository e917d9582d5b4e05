// Package datasource loads OHLCV rows from disk and streams them to the
// engine in timestamp order.
package datasource

import (
	"iter"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

// DataSource is a queryable store of bar data.
type DataSource interface {
	// Initialize loads the bar data at the given path. The path may point
	// at a parquet file, a csv file, or a glob of either.
	Initialize(path string) error
	// ReadAll streams every bar between the optional bounds (inclusive),
	// ordered by timestamp then ticker.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.Bar, error]
	// GetTickerDate returns one ticker's bars for the UTC day containing date.
	GetTickerDate(ticker string, date time.Time) ([]types.Bar, error)
	// GetAllTickersDate returns every ticker's bars for the UTC day containing date.
	GetAllTickersDate(date time.Time) ([]types.Bar, error)
	// Count returns the number of bars between the optional bounds (inclusive).
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Tickers returns the distinct tickers in the store, sorted.
	Tickers() ([]string, error)
	// Close releases the store's resources.
	Close() error
}

// dayRange returns the half-open [start, end) UTC day containing t.
func dayRange(t time.Time) (time.Time, time.Time) {
	utc := t.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)

	return start, start.AddDate(0, 0, 1)
}
