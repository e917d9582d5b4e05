package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/strategy-tester/internal/condition"
	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/types"
	"github.com/rxtech-lab/strategy-tester/internal/window"
	"github.com/rxtech-lab/strategy-tester/pkg/errors"
)

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) valid() *EntryStrategy {
	return &EntryStrategy{
		Name:   "momentum",
		Side:   types.SideLong,
		Sizing: FixedShares{Shares: 10},
		Indicators: []indicator.Factory{
			func() indicator.Indicator { return indicator.NewMovingAverage(window.Count(20), types.BarFieldClose) },
			func() indicator.Indicator { return indicator.NewATR(window.Count(14)) },
		},
		EntryConditions: []condition.Factory{
			func() condition.Condition {
				return condition.NewCross(condition.Field(types.BarFieldClose), condition.CrossAbove, condition.Indicator(0))
			},
		},
		StopLoss:   optional.Some(PriceOffset{Mode: OffsetPercent, Value: 2}),
		TakeProfit: optional.Some(PriceOffset{Mode: OffsetRiskReward, Value: 3}),
		ATRIndex:   optional.Some(1),
	}
}

func (suite *StrategyTestSuite) TestValidateOK() {
	suite.NoError(suite.valid().Validate())
}

func (suite *StrategyTestSuite) TestValidateRequiresName() {
	s := suite.valid()
	s.Name = ""
	suite.Error(s.Validate())
}

func (suite *StrategyTestSuite) TestValidateRequiresKnownSide() {
	s := suite.valid()
	s.Side = "BOTH"
	suite.Error(s.Validate())
}

func (suite *StrategyTestSuite) TestValidateRequiresSizing() {
	s := suite.valid()
	s.Sizing = nil
	suite.Error(s.Validate())
}

func (suite *StrategyTestSuite) TestValidateRequiresEntryConditions() {
	s := suite.valid()
	s.EntryConditions = nil

	err := s.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *StrategyTestSuite) TestValidateRiskSizingNeedsStop() {
	s := suite.valid()
	s.Sizing = RiskPercent{Percent: 2}
	s.StopLoss = optional.None[PriceOffset]()
	s.TakeProfit = optional.None[PriceOffset]()

	err := s.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStopLossRequired))
}

func (suite *StrategyTestSuite) TestValidateCatchesBrokenWindow() {
	s := suite.valid()
	s.Indicators = append(s.Indicators, func() indicator.Indicator {
		return indicator.NewRSI(window.Count(0), types.BarFieldClose)
	})

	err := s.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *StrategyTestSuite) TestValidateRejectsRiskRewardStop() {
	s := suite.valid()
	s.StopLoss = optional.Some(PriceOffset{Mode: OffsetRiskReward, Value: 2})

	err := s.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOffset))
}

func (suite *StrategyTestSuite) TestValidateRiskRewardTargetNeedsStop() {
	s := suite.valid()
	s.StopLoss = optional.None[PriceOffset]()

	err := s.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStopLossRequired))
}

func (suite *StrategyTestSuite) TestValidateATROffsetNeedsATRIndex() {
	s := suite.valid()
	s.StopLoss = optional.Some(PriceOffset{Mode: OffsetATRMultiple, Value: 2})
	s.TakeProfit = optional.None[PriceOffset]()
	s.ATRIndex = optional.None[int]()

	err := s.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeATRRequired))
}

func (suite *StrategyTestSuite) TestValidateATRIndexRange() {
	s := suite.valid()
	s.ATRIndex = optional.Some(9)
	suite.Error(s.Validate())
}

func (suite *StrategyTestSuite) TestValidateMaxHold() {
	s := suite.valid()
	s.MaxHold = optional.Some(-time.Hour)
	suite.Error(s.Validate())

	s.MaxHold = optional.Some(4 * time.Hour)
	suite.NoError(s.Validate())
}

func (suite *StrategyTestSuite) TestBuildIndicatorsIndependence() {
	s := suite.valid()

	first := s.BuildIndicators()
	second := s.BuildIndicators()
	suite.Require().Len(first, 2)

	first[0].Update(types.Bar{Ticker: "AAPL", Timestamp: time.Now(), Close: 100, High: 101, Low: 99})
	suite.True(first[0].Value().IsSome())
	suite.True(second[0].Value().IsNone())
}

func (suite *StrategyTestSuite) TestResolveExitPricesLong() {
	s := suite.valid()
	s.TakeProfit = optional.Some(PriceOffset{Mode: OffsetPercent, Value: 4})

	stop, target, err := s.ResolveExitPrices(100, optional.None[float64]())
	suite.NoError(err)
	suite.InDelta(98.0, stop.Unwrap(), 1e-9)
	suite.InDelta(104.0, target.Unwrap(), 1e-9)
}

func (suite *StrategyTestSuite) TestResolveExitPricesShort() {
	s := suite.valid()
	s.Side = types.SideShort
	s.TakeProfit = optional.Some(PriceOffset{Mode: OffsetPercent, Value: 4})

	stop, target, err := s.ResolveExitPrices(100, optional.None[float64]())
	suite.NoError(err)
	// Short positions are protected above the entry and profit below it.
	suite.InDelta(102.0, stop.Unwrap(), 1e-9)
	suite.InDelta(96.0, target.Unwrap(), 1e-9)
}

func (suite *StrategyTestSuite) TestResolveExitPricesRiskReward() {
	s := suite.valid()

	// 2% stop at entry 100 → stop 98, distance 2. Target 3 × 2 above entry.
	stop, target, err := s.ResolveExitPrices(100, optional.None[float64]())
	suite.NoError(err)
	suite.InDelta(98.0, stop.Unwrap(), 1e-9)
	suite.InDelta(106.0, target.Unwrap(), 1e-9)
}

func (suite *StrategyTestSuite) TestResolveExitPricesNoneConfigured() {
	s := suite.valid()
	s.StopLoss = optional.None[PriceOffset]()
	s.TakeProfit = optional.None[PriceOffset]()

	stop, target, err := s.ResolveExitPrices(100, optional.None[float64]())
	suite.NoError(err)
	suite.True(stop.IsNone())
	suite.True(target.IsNone())
}

func (suite *StrategyTestSuite) TestStopDistance() {
	suite.True(StopDistance(100, optional.None[float64]()).IsNone())
	suite.InDelta(2.0, StopDistance(100, optional.Some(98.0)).Unwrap(), 1e-9)
	suite.InDelta(2.0, StopDistance(100, optional.Some(102.0)).Unwrap(), 1e-9)
}
