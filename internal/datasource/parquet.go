package datasource

import (
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/parquet-go/parquet-go"
	"github.com/rxtech-lab/strategy-tester/internal/logger"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
	"go.uber.org/zap"
)

// barRecord is the on-disk parquet schema for a bar.
type barRecord struct {
	Ticker    string  `parquet:"ticker"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetDataSource reads parquet files directly, without a database. The
// whole data set is loaded into memory at Initialize and kept sorted by
// timestamp then ticker, so reads are simple slice scans.
type ParquetDataSource struct {
	logger *logger.Logger
	bars   []types.Bar
}

var _ DataSource = (*ParquetDataSource)(nil)

// NewParquetDataSource creates an empty parquet data source.
func NewParquetDataSource(log *logger.Logger) *ParquetDataSource {
	return &ParquetDataSource{logger: log}
}

// Initialize implements DataSource. The path may be a single parquet file, a
// directory walked recursively for *.parquet files, or a glob pattern.
func (p *ParquetDataSource) Initialize(path string) error {
	files, err := resolveParquetFiles(path)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "no parquet files at %s", path)
	}

	p.bars = p.bars[:0]

	for _, file := range files {
		records, err := parquet.ReadFile[barRecord](file)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to read %s", file)
		}

		for _, r := range records {
			p.bars = append(p.bars, types.Bar{
				Ticker:    r.Ticker,
				Timestamp: time.UnixMilli(r.Timestamp).UTC(),
				Open:      r.Open,
				High:      r.High,
				Low:       r.Low,
				Close:     r.Close,
				Volume:    r.Volume,
			})
		}
	}

	sort.SliceStable(p.bars, func(i, j int) bool {
		if !p.bars[i].Timestamp.Equal(p.bars[j].Timestamp) {
			return p.bars[i].Timestamp.Before(p.bars[j].Timestamp)
		}

		return p.bars[i].Ticker < p.bars[j].Ticker
	})

	p.logger.Debug("loaded parquet data",
		zap.String("path", path),
		zap.Int("files", len(files)),
		zap.Int("bars", len(p.bars)))

	return nil
}

// ReadAll implements DataSource.
func (p *ParquetDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range p.bars {
			if !inBounds(bar.Timestamp, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// GetTickerDate implements DataSource.
func (p *ParquetDataSource) GetTickerDate(ticker string, date time.Time) ([]types.Bar, error) {
	dayStart, dayEnd := dayRange(date)

	var bars []types.Bar

	for _, bar := range p.bars {
		if bar.Ticker != ticker {
			continue
		}

		if bar.Timestamp.Before(dayStart) || !bar.Timestamp.Before(dayEnd) {
			continue
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// GetAllTickersDate implements DataSource.
func (p *ParquetDataSource) GetAllTickersDate(date time.Time) ([]types.Bar, error) {
	dayStart, dayEnd := dayRange(date)

	var bars []types.Bar

	for _, bar := range p.bars {
		if bar.Timestamp.Before(dayStart) || !bar.Timestamp.Before(dayEnd) {
			continue
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// Count implements DataSource.
func (p *ParquetDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range p.bars {
		if inBounds(bar.Timestamp, start, end) {
			count++
		}
	}

	return count, nil
}

// Tickers implements DataSource.
func (p *ParquetDataSource) Tickers() ([]string, error) {
	seen := make(map[string]bool)

	var tickers []string

	for _, bar := range p.bars {
		if !seen[bar.Ticker] {
			seen[bar.Ticker] = true

			tickers = append(tickers, bar.Ticker)
		}
	}

	sort.Strings(tickers)

	return tickers, nil
}

// Close implements DataSource.
func (p *ParquetDataSource) Close() error {
	p.bars = nil

	return nil
}

// WriteBarFile writes bars to a parquet file, creating parent directories as
// needed. Rows are written in the order given.
func WriteBarFile(path string, bars []types.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create data directory", err)
	}

	records := make([]barRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, barRecord{
			Ticker:    b.Ticker,
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	if err := parquet.WriteFile(path, records); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to write %s", path)
	}

	return nil
}

func inBounds(ts time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && ts.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && ts.After(end.Unwrap()) {
		return false
	}

	return true
}

func resolveParquetFiles(path string) ([]string, error) {
	if strings.ContainsAny(path, "*?[") {
		files, err := filepath.Glob(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "bad glob pattern %s", path)
		}

		sort.Strings(files)

		return files, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "cannot access %s", path)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string

	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && strings.HasSuffix(p, ".parquet") {
			files = append(files, p)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to walk %s", path)
	}

	sort.Strings(files)

	return files, nil
}
