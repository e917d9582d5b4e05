package datasource

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/strategy-tester/internal/logger"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
)

type ParquetDataSourceTestSuite struct {
	suite.Suite
	log    *logger.Logger
	source *ParquetDataSource
	base   time.Time
}

func TestParquetDataSourceSuite(t *testing.T) {
	suite.Run(t, new(ParquetDataSourceTestSuite))
}

func (suite *ParquetDataSourceTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.log = log
}

func (suite *ParquetDataSourceTestSuite) SetupTest() {
	suite.source = NewParquetDataSource(suite.log)
	suite.base = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
}

func (suite *ParquetDataSourceTestSuite) fixture() []types.Bar {
	return []types.Bar{
		{Ticker: "MSFT", Timestamp: suite.base, Open: 200, High: 201, Low: 199, Close: 200.5, Volume: 500},
		{Ticker: "AAPL", Timestamp: suite.base, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
		{Ticker: "AAPL", Timestamp: suite.base.Add(time.Minute), Open: 100.5, High: 102, Low: 100, Close: 101.5, Volume: 900},
		{Ticker: "AAPL", Timestamp: suite.base.AddDate(0, 0, 1), Open: 101, High: 103, Low: 101, Close: 102, Volume: 800},
	}
}

func (suite *ParquetDataSourceTestSuite) write(bars []types.Bar) string {
	path := filepath.Join(suite.T().TempDir(), "bars.parquet")
	suite.Require().NoError(WriteBarFile(path, bars))

	return path
}

func (suite *ParquetDataSourceTestSuite) collect(start, end optional.Option[time.Time]) []types.Bar {
	var bars []types.Bar

	for bar, err := range suite.source.ReadAll(start, end) {
		suite.Require().NoError(err)

		bars = append(bars, bar)
	}

	return bars
}

func (suite *ParquetDataSourceTestSuite) TestReadAllSortedByTimeThenTicker() {
	suite.Require().NoError(suite.source.Initialize(suite.write(suite.fixture())))

	bars := suite.collect(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Len(bars, 4)

	// The fixture is written MSFT first; reading sorts AAPL ahead of MSFT
	// for the shared timestamp.
	suite.Equal("AAPL", bars[0].Ticker)
	suite.Equal("MSFT", bars[1].Ticker)
	suite.True(bars[1].Timestamp.Equal(bars[0].Timestamp))
	suite.True(bars[2].Timestamp.After(bars[1].Timestamp))
}

func (suite *ParquetDataSourceTestSuite) TestReadAllBoundsInclusive() {
	suite.Require().NoError(suite.source.Initialize(suite.write(suite.fixture())))

	bars := suite.collect(optional.Some(suite.base.Add(time.Minute)), optional.None[time.Time]())
	suite.Len(bars, 2)

	bars = suite.collect(optional.None[time.Time](), optional.Some(suite.base))
	suite.Len(bars, 2)

	bars = suite.collect(optional.Some(suite.base), optional.Some(suite.base))
	suite.Len(bars, 2)
}

func (suite *ParquetDataSourceTestSuite) TestGetTickerDate() {
	suite.Require().NoError(suite.source.Initialize(suite.write(suite.fixture())))

	bars, err := suite.source.GetTickerDate("AAPL", suite.base)
	suite.Require().NoError(err)
	suite.Len(bars, 2)

	for _, bar := range bars {
		suite.Equal("AAPL", bar.Ticker)
	}

	// The next day holds the remaining AAPL bar.
	bars, err = suite.source.GetTickerDate("AAPL", suite.base.AddDate(0, 0, 1))
	suite.Require().NoError(err)
	suite.Len(bars, 1)
}

func (suite *ParquetDataSourceTestSuite) TestGetAllTickersDate() {
	suite.Require().NoError(suite.source.Initialize(suite.write(suite.fixture())))

	bars, err := suite.source.GetAllTickersDate(suite.base)
	suite.Require().NoError(err)
	suite.Len(bars, 3)
}

func (suite *ParquetDataSourceTestSuite) TestCount() {
	suite.Require().NoError(suite.source.Initialize(suite.write(suite.fixture())))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(4, count)

	count, err = suite.source.Count(optional.Some(suite.base.AddDate(0, 0, 1)), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(1, count)
}

func (suite *ParquetDataSourceTestSuite) TestTickers() {
	suite.Require().NoError(suite.source.Initialize(suite.write(suite.fixture())))

	tickers, err := suite.source.Tickers()
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT"}, tickers)
}

func (suite *ParquetDataSourceTestSuite) TestInitializeDirectory() {
	dir := suite.T().TempDir()
	fixture := suite.fixture()
	suite.Require().NoError(WriteBarFile(filepath.Join(dir, "a", "2024.parquet"), fixture[:2]))
	suite.Require().NoError(WriteBarFile(filepath.Join(dir, "b", "2024.parquet"), fixture[2:]))

	suite.Require().NoError(suite.source.Initialize(dir))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(4, count)
}

func (suite *ParquetDataSourceTestSuite) TestInitializeGlob() {
	dir := suite.T().TempDir()
	fixture := suite.fixture()
	suite.Require().NoError(WriteBarFile(filepath.Join(dir, "one.parquet"), fixture[:2]))
	suite.Require().NoError(WriteBarFile(filepath.Join(dir, "two.parquet"), fixture[2:]))

	suite.Require().NoError(suite.source.Initialize(filepath.Join(dir, "*.parquet")))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(4, count)
}

func (suite *ParquetDataSourceTestSuite) TestInitializeMissingPath() {
	err := suite.source.Initialize(filepath.Join(suite.T().TempDir(), "missing.parquet"))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *ParquetDataSourceTestSuite) TestTimestampsRoundTripAsUTC() {
	eastern, err := time.LoadLocation("America/New_York")
	suite.Require().NoError(err)

	local := []types.Bar{{Ticker: "AAPL", Timestamp: suite.base.In(eastern), Close: 100}}
	suite.Require().NoError(suite.source.Initialize(suite.write(local)))

	bars := suite.collect(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Len(bars, 1)
	suite.True(bars[0].Timestamp.Equal(suite.base))
	suite.Equal(time.UTC, bars[0].Timestamp.Location())
}
