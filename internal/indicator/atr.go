package indicator

import (
	"math"

	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// ATR represents the Average True Range indicator, a volatility measure
// built from Wilder-smoothed true ranges.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	a.period = period

	return nil
}

// Compute implements the Indicator interface.
func (a *ATR) Compute(window []types.Bar) (Value, error) {
	if len(window) < a.period+1 {
		return Value{}, errors.NewInsufficientDataErrorf(a.period+1, len(window), "",
			"atr(%d) needs %d bars, window has %d", a.period, a.period+1, len(window))
	}

	trueRanges := make([]float64, 0, len(window)-1)

	for i := 1; i < len(window); i++ {
		high := window[i].High.InexactFloat64()
		low := window[i].Low.InexactFloat64()
		prevClose := window[i-1].Close.InexactFloat64()

		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trueRanges = append(trueRanges, tr)
	}

	// Seed with the simple average of the first period true ranges.
	atr := 0.0
	for i := 0; i < a.period; i++ {
		atr += trueRanges[i]
	}

	atr /= float64(a.period)

	// Wilder's smoothing for the remainder.
	for i := a.period; i < len(trueRanges); i++ {
		atr = (atr*float64(a.period-1) + trueRanges[i]) / float64(a.period)
	}

	return Value{Primary: atr}, nil
}
