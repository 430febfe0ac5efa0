package types

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/replay-lab/replay-trading/pkg/errors"
)

func floatPtr(v float64) *float64 {
	return &v
}

func validStrategy() StrategyDefinition {
	return StrategyDefinition{
		Name:    "rsi-reversion",
		Side:    PositionSideLong,
		Symbols: []string{"BTCUSDT"},
		Entry: []ConditionExpr{
			{
				LHS:        &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 14},
				Comparator: ComparatorLT,
				Threshold:  floatPtr(30),
			},
		},
		Exit: []ConditionExpr{
			{
				LHS:        &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 14},
				Comparator: ComparatorGT,
				Threshold:  floatPtr(70),
			},
		},
		SizeFraction:  0.5,
		StopLossPct:   optional.None[float64](),
		TakeProfitPct: optional.None[float64](),
	}
}

func TestStrategyDefinitionValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := validStrategy()
		assert.NoError(t, s.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		s := validStrategy()
		s.Name = ""
		assert.Error(t, s.Validate())
	})

	t.Run("no symbols", func(t *testing.T) {
		s := validStrategy()
		s.Symbols = nil
		assert.Error(t, s.Validate())
	})

	t.Run("no entry conditions", func(t *testing.T) {
		s := validStrategy()
		s.Entry = nil
		assert.Error(t, s.Validate())
	})

	t.Run("size fraction above one", func(t *testing.T) {
		s := validStrategy()
		s.SizeFraction = 1.5
		assert.Error(t, s.Validate())
	})

	t.Run("size fraction zero", func(t *testing.T) {
		s := validStrategy()
		s.SizeFraction = 0
		assert.Error(t, s.Validate())
	})

	t.Run("stop loss out of range", func(t *testing.T) {
		s := validStrategy()
		s.StopLossPct = optional.Some(1.2)
		assert.Error(t, s.Validate())
	})

	t.Run("negative take profit", func(t *testing.T) {
		s := validStrategy()
		s.TakeProfitPct = optional.Some(-0.1)
		assert.Error(t, s.Validate())
	})
}

func TestConditionExprValidate(t *testing.T) {
	tests := []struct {
		name     string
		cond     ConditionExpr
		wantErr  bool
		wantCode errors.ErrorCode
	}{
		{
			name: "valid threshold leaf",
			cond: ConditionExpr{
				LHS:        &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 14},
				Comparator: ComparatorLT,
				Threshold:  floatPtr(30),
			},
		},
		{
			name: "valid indicator-vs-indicator leaf",
			cond: ConditionExpr{
				LHS:        &IndicatorRef{Indicator: IndicatorTypeEMA, Period: 9},
				Comparator: ComparatorGT,
				RHS:        &IndicatorRef{Indicator: IndicatorTypeEMA, Period: 21},
			},
		},
		{
			name: "valid composite",
			cond: ConditionExpr{
				All: []ConditionExpr{
					{
						LHS:        &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 14},
						Comparator: ComparatorLT,
						Threshold:  floatPtr(30),
					},
					{
						LHS:        &IndicatorRef{Indicator: IndicatorTypeSMA, Period: 20},
						Comparator: ComparatorGT,
						Threshold:  floatPtr(0),
					},
				},
			},
		},
		{
			name: "missing lhs",
			cond: ConditionExpr{
				Comparator: ComparatorLT,
				Threshold:  floatPtr(30),
			},
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidCondition,
		},
		{
			name: "unknown comparator",
			cond: ConditionExpr{
				LHS:        &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 14},
				Comparator: Comparator("between"),
				Threshold:  floatPtr(30),
			},
			wantErr:  true,
			wantCode: errors.ErrCodeUnknownComparator,
		},
		{
			name: "threshold and rhs both set",
			cond: ConditionExpr{
				LHS:        &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 14},
				Comparator: ComparatorLT,
				Threshold:  floatPtr(30),
				RHS:        &IndicatorRef{Indicator: IndicatorTypeSMA, Period: 20},
			},
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidCondition,
		},
		{
			name: "both all and any",
			cond: ConditionExpr{
				All: []ConditionExpr{{LHS: &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 14}, Comparator: ComparatorLT, Threshold: floatPtr(30)}},
				Any: []ConditionExpr{{LHS: &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 14}, Comparator: ComparatorGT, Threshold: floatPtr(70)}},
			},
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidCondition,
		},
		{
			name: "zero period",
			cond: ConditionExpr{
				LHS:        &IndicatorRef{Indicator: IndicatorTypeRSI, Period: 0},
				Comparator: ComparatorLT,
				Threshold:  floatPtr(30),
			},
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStrategyDefinitionUnmarshalYAML(t *testing.T) {
	content := `
name: rsi-reversion
symbols: [BTCUSDT, ETHUSDT]
entry:
  - lhs: {indicator: rsi, period: 14}
    comparator: lt
    threshold: 30
exit:
  - lhs: {indicator: rsi, period: 14}
    comparator: gt
    threshold: 70
size_fraction: 0.25
stop_loss_pct: 0.05
`

	var s StrategyDefinition
	require.NoError(t, yaml.Unmarshal([]byte(content), &s))

	assert.Equal(t, "rsi-reversion", s.Name)
	// side defaults to LONG when omitted
	assert.Equal(t, PositionSideLong, s.Side)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, s.Symbols)
	require.Len(t, s.Entry, 1)
	assert.Equal(t, IndicatorTypeRSI, s.Entry[0].LHS.Indicator)
	assert.Equal(t, 14, s.Entry[0].LHS.Period)
	assert.Equal(t, 0.25, s.SizeFraction)
	require.True(t, s.StopLossPct.IsSome())
	assert.Equal(t, 0.05, s.StopLossPct.Unwrap())
	assert.True(t, s.TakeProfitPct.IsNone())

	assert.NoError(t, s.Validate())
}

func TestStrategyEligibleFor(t *testing.T) {
	s := validStrategy()
	assert.True(t, s.EligibleFor("BTCUSDT"))
	assert.False(t, s.EligibleFor("DOGEUSDT"))
}
