package strategy

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/strategy-tester/pkg/errors"
)

type OffsetTestSuite struct {
	suite.Suite
}

func TestOffsetSuite(t *testing.T) {
	suite.Run(t, new(OffsetTestSuite))
}

func (suite *OffsetTestSuite) none() optional.Option[float64] {
	return optional.None[float64]()
}

func (suite *OffsetTestSuite) TestFixed() {
	price, err := PriceOffset{Mode: OffsetFixed, Value: 95}.Resolve(100, -1, suite.none(), suite.none())
	suite.NoError(err)
	suite.Equal(95.0, price)
}

func (suite *OffsetTestSuite) TestPercent() {
	below, err := PriceOffset{Mode: OffsetPercent, Value: 5}.Resolve(100, -1, suite.none(), suite.none())
	suite.NoError(err)
	suite.InDelta(95.0, below, 1e-9)

	above, err := PriceOffset{Mode: OffsetPercent, Value: 5}.Resolve(100, 1, suite.none(), suite.none())
	suite.NoError(err)
	suite.InDelta(105.0, above, 1e-9)
}

func (suite *OffsetTestSuite) TestPoints() {
	price, err := PriceOffset{Mode: OffsetPoints, Value: 2.5}.Resolve(100, 1, suite.none(), suite.none())
	suite.NoError(err)
	suite.InDelta(102.5, price, 1e-9)
}

func (suite *OffsetTestSuite) TestATRMultiple() {
	price, err := PriceOffset{Mode: OffsetATRMultiple, Value: 2}.Resolve(100, -1, optional.Some(1.5), suite.none())
	suite.NoError(err)
	suite.InDelta(97.0, price, 1e-9)
}

func (suite *OffsetTestSuite) TestATRMultipleWithoutATR() {
	_, err := PriceOffset{Mode: OffsetATRMultiple, Value: 2}.Resolve(100, -1, suite.none(), suite.none())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeATRRequired))
}

func (suite *OffsetTestSuite) TestRiskReward() {
	// Stop distance 4, ratio 3: target 12 points with the trade.
	price, err := PriceOffset{Mode: OffsetRiskReward, Value: 3}.Resolve(100, 1, suite.none(), optional.Some(4.0))
	suite.NoError(err)
	suite.InDelta(112.0, price, 1e-9)
}

func (suite *OffsetTestSuite) TestRiskRewardWithoutStop() {
	_, err := PriceOffset{Mode: OffsetRiskReward, Value: 3}.Resolve(100, 1, suite.none(), suite.none())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStopLossRequired))
}

func (suite *OffsetTestSuite) TestValidate() {
	suite.NoError(PriceOffset{Mode: OffsetPercent, Value: 1}.Validate())
	suite.Error(PriceOffset{Mode: OffsetPercent, Value: 0}.Validate())
	suite.Error(PriceOffset{Mode: "near", Value: 1}.Validate())
}
