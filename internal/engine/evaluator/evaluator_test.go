package evaluator

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/replay-lab/replay-trading/internal/indicator"
	"github.com/replay-lab/replay-trading/internal/logger"
	"github.com/replay-lab/replay-trading/internal/types"
)

type EvaluatorTestSuite struct {
	suite.Suite
	registry indicator.Registry
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorTestSuite))
}

func (suite *EvaluatorTestSuite) SetupTest() {
	suite.registry = indicator.NewRegistry()
}

func barsFromCloses(closes ...float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price.Add(decimal.NewFromInt(1)),
			Low:       price.Sub(decimal.NewFromInt(1)),
			Close:     price,
			Volume:    decimal.NewFromInt(1000),
		}
	}

	return bars
}

func floatPtr(v float64) *float64 {
	return &v
}

func smaStrategy(comparator types.Comparator, threshold float64) types.StrategyDefinition {
	return types.StrategyDefinition{
		Name:    "sma-cross",
		Side:    types.PositionSideLong,
		Symbols: []string{"BTCUSDT"},
		Entry: []types.ConditionExpr{{
			LHS:        &types.IndicatorRef{Indicator: types.IndicatorTypeSMA, Period: 2},
			Comparator: comparator,
			Threshold:  floatPtr(threshold),
		}},
		Exit: []types.ConditionExpr{{
			LHS:        &types.IndicatorRef{Indicator: types.IndicatorTypeSMA, Period: 2},
			Comparator: types.ComparatorLT,
			Threshold:  floatPtr(threshold),
		}},
		SizeFraction:  0.5,
		StopLossPct:   optional.None[float64](),
		TakeProfitPct: optional.None[float64](),
	}
}

func (suite *EvaluatorTestSuite) newEvaluator(s types.StrategyDefinition) *Evaluator {
	e, err := NewEvaluator(logger.NewNopLogger(), suite.registry, s)
	suite.Require().NoError(err)

	return e
}

func (suite *EvaluatorTestSuite) TestEntrySignal() {
	e := suite.newEvaluator(smaStrategy(types.ComparatorGT, 100))

	// SMA(2) of the last two closes is 105.
	window := barsFromCloses(90, 104, 106)

	signal, err := e.Evaluate(window, "BTCUSDT", optional.None[types.Position](), decimal.NewFromInt(106))
	suite.Require().NoError(err)
	suite.Equal(ActionEnter, signal.Action)
	suite.Equal(types.PositionSideLong, signal.Side)
}

func (suite *EvaluatorTestSuite) TestNoSignalDuringWarmup() {
	e := suite.newEvaluator(smaStrategy(types.ComparatorGT, 100))

	// A single bar cannot feed SMA(2); the condition is false, not an error.
	window := barsFromCloses(200)

	signal, err := e.Evaluate(window, "BTCUSDT", optional.None[types.Position](), decimal.NewFromInt(200))
	suite.Require().NoError(err)
	suite.Equal(ActionNone, signal.Action)
}

func (suite *EvaluatorTestSuite) TestIneligibleSymbol() {
	e := suite.newEvaluator(smaStrategy(types.ComparatorGT, 100))

	window := barsFromCloses(104, 106)

	signal, err := e.Evaluate(window, "ETHUSDT", optional.None[types.Position](), decimal.NewFromInt(106))
	suite.Require().NoError(err)
	suite.Equal(ActionNone, signal.Action)
}

func (suite *EvaluatorTestSuite) TestStrategyExit() {
	e := suite.newEvaluator(smaStrategy(types.ComparatorGT, 100))

	pos := types.Position{
		Symbol:     "BTCUSDT",
		Side:       types.PositionSideLong,
		EntryPrice: decimal.NewFromInt(105),
		Volume:     decimal.NewFromInt(1),
		Status:     types.PositionStatusOpen,
	}

	// SMA(2) of the last two closes is 95, below the 100 exit threshold.
	window := barsFromCloses(105, 96, 94)

	signal, err := e.Evaluate(window, "BTCUSDT", optional.Some(pos), decimal.NewFromInt(94))
	suite.Require().NoError(err)
	suite.Equal(ActionExit, signal.Action)
	suite.Equal(types.CloseReasonStrategyExit, signal.Reason)
}

func (suite *EvaluatorTestSuite) TestStopLossBeatsStrategyExit() {
	s := smaStrategy(types.ComparatorGT, 100)
	s.StopLossPct = optional.Some(0.05)
	e := suite.newEvaluator(s)

	pos := types.Position{
		Symbol:     "BTCUSDT",
		Side:       types.PositionSideLong,
		EntryPrice: decimal.NewFromInt(100),
		Volume:     decimal.NewFromInt(1),
		Status:     types.PositionStatusOpen,
	}

	// The mark is down 6%: both the stop and the strategy exit would
	// fire, the stop wins.
	window := barsFromCloses(100, 95, 94)

	signal, err := e.Evaluate(window, "BTCUSDT", optional.Some(pos), decimal.NewFromInt(94))
	suite.Require().NoError(err)
	suite.Equal(ActionExit, signal.Action)
	suite.Equal(types.CloseReasonStopLoss, signal.Reason)
}

func (suite *EvaluatorTestSuite) TestTakeProfitLong() {
	s := smaStrategy(types.ComparatorGT, 100)
	s.TakeProfitPct = optional.Some(0.10)
	e := suite.newEvaluator(s)

	pos := types.Position{
		Symbol:     "BTCUSDT",
		Side:       types.PositionSideLong,
		EntryPrice: decimal.NewFromInt(100),
		Volume:     decimal.NewFromInt(1),
		Status:     types.PositionStatusOpen,
	}

	window := barsFromCloses(100, 108, 111)

	signal, err := e.Evaluate(window, "BTCUSDT", optional.Some(pos), decimal.NewFromInt(111))
	suite.Require().NoError(err)
	suite.Equal(ActionExit, signal.Action)
	suite.Equal(types.CloseReasonTakeProfit, signal.Reason)
}

func (suite *EvaluatorTestSuite) TestStopLossShort() {
	s := smaStrategy(types.ComparatorGT, 100)
	s.Side = types.PositionSideShort
	s.StopLossPct = optional.Some(0.05)
	e := suite.newEvaluator(s)

	pos := types.Position{
		Symbol:     "BTCUSDT",
		Side:       types.PositionSideShort,
		EntryPrice: decimal.NewFromInt(100),
		Volume:     decimal.NewFromInt(1),
		Status:     types.PositionStatusOpen,
	}

	// Price up 6% is a losing move for a short.
	window := barsFromCloses(100, 103, 106)

	signal, err := e.Evaluate(window, "BTCUSDT", optional.Some(pos), decimal.NewFromInt(106))
	suite.Require().NoError(err)
	suite.Equal(ActionExit, signal.Action)
	suite.Equal(types.CloseReasonStopLoss, signal.Reason)
}

func (suite *EvaluatorTestSuite) TestCompositeAnyCondition() {
	s := smaStrategy(types.ComparatorGT, 100)
	s.Entry = []types.ConditionExpr{{
		Any: []types.ConditionExpr{
			{
				LHS:        &types.IndicatorRef{Indicator: types.IndicatorTypeSMA, Period: 2},
				Comparator: types.ComparatorGT,
				Threshold:  floatPtr(1000),
			},
			{
				LHS:        &types.IndicatorRef{Indicator: types.IndicatorTypeSMA, Period: 2},
				Comparator: types.ComparatorGT,
				Threshold:  floatPtr(100),
			},
		},
	}}
	e := suite.newEvaluator(s)

	window := barsFromCloses(104, 106)

	signal, err := e.Evaluate(window, "BTCUSDT", optional.None[types.Position](), decimal.NewFromInt(106))
	suite.Require().NoError(err)
	suite.Equal(ActionEnter, signal.Action)
}

func (suite *EvaluatorTestSuite) TestIndicatorVersusIndicator() {
	s := smaStrategy(types.ComparatorGT, 100)
	s.Entry = []types.ConditionExpr{{
		LHS:        &types.IndicatorRef{Indicator: types.IndicatorTypeSMA, Period: 2},
		Comparator: types.ComparatorGT,
		RHS:        &types.IndicatorRef{Indicator: types.IndicatorTypeSMA, Period: 4},
	}}
	e := suite.newEvaluator(s)

	// Rising closes: the shorter average sits above the longer one.
	window := barsFromCloses(100, 102, 104, 106)

	signal, err := e.Evaluate(window, "BTCUSDT", optional.None[types.Position](), decimal.NewFromInt(106))
	suite.Require().NoError(err)
	suite.Equal(ActionEnter, signal.Action)
}

func (suite *EvaluatorTestSuite) TestCompileRejectsUnknownField() {
	s := smaStrategy(types.ComparatorGT, 100)
	s.Entry[0].LHS.Field = "upper"

	_, err := NewEvaluator(logger.NewNopLogger(), suite.registry, s)
	suite.Error(err)
}

func (suite *EvaluatorTestSuite) TestCompileRejectsBadPeriod() {
	s := smaStrategy(types.ComparatorGT, 100)
	s.Entry[0].LHS.Period = 0

	_, err := NewEvaluator(logger.NewNopLogger(), suite.registry, s)
	suite.Error(err)
}

func (suite *EvaluatorTestSuite) TestMACDFieldSelection() {
	s := smaStrategy(types.ComparatorGT, 100)
	s.Entry = []types.ConditionExpr{{
		LHS:        &types.IndicatorRef{Indicator: types.IndicatorTypeMACD, Period: 9, Field: "histogram"},
		Comparator: types.ComparatorGT,
		Threshold:  floatPtr(0),
	}}

	_, err := NewEvaluator(logger.NewNopLogger(), suite.registry, s)
	suite.NoError(err)
}

func (suite *EvaluatorTestSuite) TestVolumeSizing() {
	e := suite.newEvaluator(smaStrategy(types.ComparatorGT, 100))

	// Half of 10000 equity at price 100 buys 50 units.
	volume := e.Volume(decimal.NewFromInt(10000), decimal.NewFromInt(100), 8)
	suite.True(volume.Equal(decimal.NewFromInt(50)), "got %s", volume)

	// Truncation, never rounding up.
	volume = e.Volume(decimal.NewFromInt(100), decimal.NewFromInt(3), 4)
	suite.True(volume.Equal(decimal.RequireFromString("16.6666")), "got %s", volume)

	// Degenerate inputs size to zero.
	suite.True(e.Volume(decimal.Zero, decimal.NewFromInt(100), 8).IsZero())
	suite.True(e.Volume(decimal.NewFromInt(100), decimal.Zero, 8).IsZero())
}
