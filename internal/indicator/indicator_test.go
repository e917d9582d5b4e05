package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
)

type IndicatorTestSuite struct {
	suite.Suite
	base time.Time
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) SetupTest() {
	suite.base = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
}

func (suite *IndicatorTestSuite) bar(i int, close float64) types.Bar {
	return types.Bar{
		Ticker:    "AAPL",
		Timestamp: suite.base.Add(time.Duration(i) * time.Minute),
		Open:      close - 1,
		High:      close + 2,
		Low:       close - 2,
		Close:     close,
		Volume:    1000,
	}
}

func (suite *IndicatorTestSuite) TestMovingAverage() {
	ma := NewMovingAverage(window.Count(3), types.BarFieldClose)
	suite.True(ma.Value().IsNone())

	closes := []float64{10, 20, 30, 40}
	want := []float64{10, 15, 20, 30}

	for i, c := range closes {
		ma.Update(suite.bar(i, c))
		suite.InDelta(want[i], ma.Value().Unwrap(), 1e-9, "step %d", i)
	}
}

func (suite *IndicatorTestSuite) TestValueIsCachedBetweenUpdates() {
	ma := NewMovingAverage(window.Count(2), types.BarFieldClose)
	ma.Update(suite.bar(0, 10))

	// Repeated reads between updates return the same cached value.
	first := ma.Value()
	second := ma.Value()
	suite.Equal(first.Unwrap(), second.Unwrap())
}

func (suite *IndicatorTestSuite) TestHighLowOfPeriod() {
	high := NewHighOfPeriod(window.Count(2), types.BarFieldHigh)
	low := NewLowOfPeriod(window.Count(2), types.BarFieldLow)

	for i, c := range []float64{10, 30, 20} {
		high.Update(suite.bar(i, c))
		low.Update(suite.bar(i, c))
	}

	// Last two bars: highs {32, 22}, lows {28, 18}.
	suite.InDelta(32, high.Value().Unwrap(), 1e-9)
	suite.InDelta(28, low.Value().Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestStdDevNeedsTwoBars() {
	sd := NewStdDev(window.Count(5), types.BarFieldClose)
	sd.Update(suite.bar(0, 10))
	suite.True(sd.Value().IsNone())

	sd.Update(suite.bar(1, 14))
	// Population stddev of {10, 14} is 2.
	suite.InDelta(2.0, sd.Value().Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestVWAPDefaultsToTypicalPrice() {
	vwap := NewVWAP(window.Count(10), "")

	b1 := suite.bar(0, 100)
	b2 := suite.bar(1, 104)
	b2.Volume = 3000

	vwap.Update(b1)
	vwap.Update(b2)

	want := (b1.TypicalPrice()*b1.Volume + b2.TypicalPrice()*b2.Volume) / (b1.Volume + b2.Volume)
	suite.InDelta(want, vwap.Value().Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIRange() {
	rsi := NewRSI(window.Count(14), types.BarFieldClose)
	closes := []float64{100, 102, 101, 103, 105, 104, 106}

	for i, c := range closes {
		rsi.Update(suite.bar(i, c))
	}

	v := rsi.Value()
	suite.Require().True(v.IsSome())
	suite.Greater(v.Unwrap(), 50.0)
	suite.LessOrEqual(v.Unwrap(), 100.0)
}

func (suite *IndicatorTestSuite) TestATR() {
	atr := NewATR(window.Count(3))

	first := suite.bar(0, 100)
	atr.Update(first)
	// First bar: high - low = 4.
	suite.InDelta(4.0, atr.Value().Unwrap(), 1e-9)

	// Gap up: true range measured from the previous close.
	gap := suite.bar(1, 120)
	atr.Update(gap)
	want := (4.0 + (gap.High - first.Close)) / 2
	suite.InDelta(want, atr.Value().Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestReset() {
	indicators := []Indicator{
		NewHighOfPeriod(window.Count(3), types.BarFieldHigh),
		NewLowOfPeriod(window.Count(3), types.BarFieldLow),
		NewMovingAverage(window.Count(3), types.BarFieldClose),
		NewStdDev(window.Count(3), types.BarFieldClose),
		NewVWAP(window.Count(3), types.BarFieldTypical),
		NewRSI(window.Count(3), types.BarFieldClose),
		NewATR(window.Count(3)),
	}

	for _, ind := range indicators {
		for i := 0; i < 5; i++ {
			ind.Update(suite.bar(i, float64(100+i)))
		}

		suite.True(ind.Value().IsSome(), ind.Name())
		ind.Reset()
		suite.True(ind.Value().IsNone(), ind.Name())
	}
}

func (suite *IndicatorTestSuite) TestValidate() {
	suite.NoError(NewMovingAverage(window.Count(5), types.BarFieldClose).Validate())
	suite.Error(NewMovingAverage(window.Count(0), types.BarFieldClose).Validate())
	suite.Error(NewRSI(window.Count(5), types.BarField("hlc3")).Validate())
	suite.NoError(NewATR(window.Span(time.Hour)).Validate())
}

func (suite *IndicatorTestSuite) TestNames() {
	suite.Equal("ma(close)", NewMovingAverage(window.Count(5), types.BarFieldClose).Name())
	suite.Equal("high(high)", NewHighOfPeriod(window.Count(5), "").Name())
	suite.Equal("low(low)", NewLowOfPeriod(window.Count(5), "").Name())
	suite.Equal("vwap(typical)", NewVWAP(window.Count(5), "").Name())
	suite.Equal("rsi(close)", NewRSI(window.Count(5), "").Name())
	suite.Equal("atr", NewATR(window.Count(5)).Name())
}

func (suite *IndicatorTestSuite) TestDurationWindowIndicator() {
	ma := NewMovingAverage(window.Span(2*time.Minute), types.BarFieldClose)

	ma.Update(suite.bar(0, 10))
	ma.Update(suite.bar(1, 20))
	ma.Update(suite.bar(2, 30))

	// The bar at minute 0 is exactly two minutes old and has expired.
	suite.InDelta(25.0, ma.Value().Unwrap(), 1e-9)
}
