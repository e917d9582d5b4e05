package datasource

import (
	"database/sql"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/logger"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource serves bar data through an in-memory DuckDB instance. The
// data file on disk is exposed as a view, so queries run against the file
// without loading it up front.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

var _ DataSource = (*DuckDBDataSource)(nil)

// NewDuckDBDataSource opens an in-memory DuckDB instance.
func NewDuckDBDataSource(log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`
		SET memory_limit='4GB';
		SET threads=4;
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to configure duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. The path may be a parquet or csv file,
// or a glob matching several of them.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("initializing duckdb data source", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS bars;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	reader := "read_parquet"
	if strings.HasSuffix(path, ".csv") || strings.HasSuffix(path, ".csv.gz") {
		reader = "read_csv_auto"
	}

	// CREATE VIEW has no placeholder support, so the path is inlined.
	query := fmt.Sprintf(`
		CREATE VIEW bars AS
		SELECT ticker, timestamp, open, high, low, close, volume
		FROM %s('%s');
	`, reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to load bar data from %s", path)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("bars")
	builder = applyBounds(builder, start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "count query failed", err)
	}

	return count, nil
}

// ReadAll implements DataSource. Rows are yielded in batches so one slow
// consumer does not hold a row lock on the whole result set.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.Bar, error] {
	const batchSize = 1000

	return func(yield func(types.Bar, error) bool) {
		builder := d.sq.
			Select("ticker", "timestamp", "open", "high", "low", "close", "volume").
			From("bars")
		builder = applyBounds(builder, start, end)
		builder = builder.OrderBy("timestamp ASC", "ticker ASC")

		query, args, err := builder.ToSql()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err))

			return
		}

		stmt, err := d.db.Prepare(query)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare query", err))

			return
		}
		defer stmt.Close()

		rows, err := stmt.Query(args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "query failed", err))

			return
		}
		defer rows.Close()

		batch := make([]types.Bar, 0, batchSize)

		for rows.Next() {
			bar, err := scanBar(rows)
			if err != nil {
				yield(types.Bar{}, err)

				return
			}

			batch = append(batch, bar)

			if len(batch) >= batchSize {
				for _, b := range batch {
					if !yield(b, nil) {
						return
					}
				}

				batch = batch[:0]
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "row iteration failed", err))

			return
		}

		for _, b := range batch {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// GetTickerDate implements DataSource.
func (d *DuckDBDataSource) GetTickerDate(ticker string, date time.Time) ([]types.Bar, error) {
	dayStart, dayEnd := dayRange(date)

	query, args, err := d.sq.
		Select("ticker", "timestamp", "open", "high", "low", "close", "volume").
		From("bars").
		Where(squirrel.And{
			squirrel.Eq{"ticker": ticker},
			squirrel.GtOrEq{"timestamp": dayStart},
			squirrel.Lt{"timestamp": dayEnd},
		}).
		OrderBy("timestamp ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	return d.queryBars(query, args...)
}

// GetAllTickersDate implements DataSource.
func (d *DuckDBDataSource) GetAllTickersDate(date time.Time) ([]types.Bar, error) {
	dayStart, dayEnd := dayRange(date)

	query, args, err := d.sq.
		Select("ticker", "timestamp", "open", "high", "low", "close", "volume").
		From("bars").
		Where(squirrel.And{
			squirrel.GtOrEq{"timestamp": dayStart},
			squirrel.Lt{"timestamp": dayEnd},
		}).
		OrderBy("timestamp ASC", "ticker ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	return d.queryBars(query, args...)
}

// Tickers implements DataSource.
func (d *DuckDBDataSource) Tickers() ([]string, error) {
	rows, err := d.db.Query("SELECT DISTINCT ticker FROM bars ORDER BY ticker")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list tickers", err)
	}
	defer rows.Close()

	var tickers []string

	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to scan ticker", err)
		}

		tickers = append(tickers, ticker)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "ticker iteration failed", err)
	}

	return tickers, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func (d *DuckDBDataSource) queryBars(query string, args ...interface{}) ([]types.Bar, error) {
	stmt, err := d.db.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare query", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "query failed", err)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "row iteration failed", err)
	}

	return bars, nil
}

func scanBar(rows *sql.Rows) (types.Bar, error) {
	var (
		ticker                         string
		timestamp                      time.Time
		open, high, low, close, volume float64
	)

	if err := rows.Scan(&ticker, &timestamp, &open, &high, &low, &close, &volume); err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to scan bar", err)
	}

	return types.Bar{
		Ticker:    ticker,
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}, nil
}

func applyBounds(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"timestamp": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"timestamp": end.Unwrap()})
	}

	return builder
}
