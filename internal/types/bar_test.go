package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BarTestSuite struct {
	suite.Suite
}

func TestBarSuite(t *testing.T) {
	suite.Run(t, new(BarTestSuite))
}

func (suite *BarTestSuite) bar() Bar {
	return Bar{
		Ticker:    "AAPL",
		Timestamp: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
		Open:      100,
		High:      110,
		Low:       90,
		Close:     104,
		Volume:    5000,
	}
}

func (suite *BarTestSuite) TestDerivedPrices() {
	b := suite.bar()
	suite.InDelta(100.0, b.MedianPrice(), 1e-9)
	suite.InDelta((110.0+90.0+104.0)/3, b.TypicalPrice(), 1e-9)
	suite.InDelta((110.0+90.0+2*104.0)/4, b.WeightedClose(), 1e-9)
}

func (suite *BarTestSuite) TestExtract() {
	b := suite.bar()

	cases := map[BarField]float64{
		BarFieldOpen:          100,
		BarFieldHigh:          110,
		BarFieldLow:           90,
		BarFieldClose:         104,
		BarFieldVolume:        5000,
		BarFieldMedian:        b.MedianPrice(),
		BarFieldTypical:       b.TypicalPrice(),
		BarFieldWeightedClose: b.WeightedClose(),
	}

	for field, want := range cases {
		suite.InDelta(want, field.Extract(b), 1e-9, "field %s", field)
	}
}

func (suite *BarTestSuite) TestFieldValidate() {
	suite.NoError(BarFieldTypical.Validate())
	suite.Error(BarField("hlc3").Validate())
}

func (suite *BarTestSuite) TestTrueRangeFirstBar() {
	b := suite.bar()
	suite.InDelta(20.0, b.TrueRange(math.NaN()), 1e-9)
}

func (suite *BarTestSuite) TestTrueRangeGapUp() {
	b := suite.bar()
	// Previous close far below the bar: the high-to-previous-close leg dominates.
	suite.InDelta(110.0-50.0, b.TrueRange(50), 1e-9)
}

func (suite *BarTestSuite) TestTrueRangeGapDown() {
	b := suite.bar()
	suite.InDelta(150.0-90.0, b.TrueRange(150), 1e-9)
}
