package datasource

import (
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

// CacheStats counts cache outcomes for the day-query cache.
type CacheStats struct {
	Hits   int
	Misses int
}

// HitRate is the fraction of lookups served from cache.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CachedDataSource wraps a DataSource and caches the per-day queries, which
// strategies tend to repeat for the same ticker and day. Streaming reads pass
// through untouched.
type CachedDataSource struct {
	underlying DataSource

	mu          sync.RWMutex
	dayCache    map[string][]types.Bar
	dayErrCache map[string]error
	hits        atomic.Int64
	misses      atomic.Int64
}

var _ DataSource = (*CachedDataSource)(nil)

// NewCachedDataSource creates a CachedDataSource wrapping the given DataSource.
func NewCachedDataSource(underlying DataSource) *CachedDataSource {
	return &CachedDataSource{
		underlying:  underlying,
		dayCache:    make(map[string][]types.Bar),
		dayErrCache: make(map[string]error),
	}
}

// ClearCache drops all cached query results. Stats are kept.
func (c *CachedDataSource) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dayCache = make(map[string][]types.Bar)
	c.dayErrCache = make(map[string]error)
}

// Stats returns a snapshot of the cache counters.
func (c *CachedDataSource) Stats() CacheStats {
	return CacheStats{
		Hits:   int(c.hits.Load()),
		Misses: int(c.misses.Load()),
	}
}

// Initialize implements DataSource. Loading new data invalidates the cache.
func (c *CachedDataSource) Initialize(path string) error {
	c.ClearCache()

	return c.underlying.Initialize(path)
}

// ReadAll implements DataSource.
func (c *CachedDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.Bar, error] {
	return c.underlying.ReadAll(start, end)
}

// GetTickerDate implements DataSource with caching.
func (c *CachedDataSource) GetTickerDate(ticker string, date time.Time) ([]types.Bar, error) {
	return c.cachedDay(dayKey(ticker, date), func() ([]types.Bar, error) {
		return c.underlying.GetTickerDate(ticker, date)
	})
}

// GetAllTickersDate implements DataSource with caching.
func (c *CachedDataSource) GetAllTickersDate(date time.Time) ([]types.Bar, error) {
	return c.cachedDay(dayKey("*", date), func() ([]types.Bar, error) {
		return c.underlying.GetAllTickersDate(date)
	})
}

// Count implements DataSource.
func (c *CachedDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	return c.underlying.Count(start, end)
}

// Tickers implements DataSource.
func (c *CachedDataSource) Tickers() ([]string, error) {
	return c.underlying.Tickers()
}

// Close implements DataSource.
func (c *CachedDataSource) Close() error {
	return c.underlying.Close()
}

// cachedDay serves fetch through the day cache. Errors are cached too, so a
// failing query is not retried on every bar.
func (c *CachedDataSource) cachedDay(key string, fetch func() ([]types.Bar, error)) ([]types.Bar, error) {
	c.mu.RLock()
	if bars, ok := c.dayCache[key]; ok {
		err := c.dayErrCache[key]
		c.mu.RUnlock()
		c.hits.Add(1)

		return bars, err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock.
	if bars, ok := c.dayCache[key]; ok {
		c.hits.Add(1)

		return bars, c.dayErrCache[key]
	}

	c.misses.Add(1)

	bars, err := fetch()
	c.dayCache[key] = bars
	c.dayErrCache[key] = err

	return bars, err
}

// dayKey normalizes the date to its UTC day so equivalent lookups share an
// entry regardless of the time-of-day or zone they were asked with.
func dayKey(ticker string, date time.Time) string {
	dayStart, _ := dayRange(date)

	return fmt.Sprintf("%s:%d", ticker, dayStart.Unix())
}
