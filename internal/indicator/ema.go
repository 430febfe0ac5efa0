package indicator

import (
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// EMA implements the Exponential Moving Average over close prices.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
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

	e.period = period

	return nil
}

// Compute implements the Indicator interface.
func (e *EMA) Compute(window []types.Bar) (Value, error) {
	if len(window) < e.period {
		return Value{}, errors.NewInsufficientDataErrorf(e.period, len(window), "",
			"ema(%d) needs %d bars, window has %d", e.period, e.period, len(window))
	}

	series := emaSeries(closes(window), e.period)

	return Value{Primary: series[len(series)-1]}, nil
}

// emaSeries returns the EMA at every index from period-1 onward. The
// first value is seeded with the SMA of the first period prices; later
// values use alpha = 2/(period+1) to match pandas ewm with
// adjust=False.
func emaSeries(prices []float64, period int) []float64 {
	sma := 0.0
	for i := 0; i < period; i++ {
		sma += prices[i]
	}

	sma /= float64(period)

	alpha := 2.0 / float64(period+1)
	out := make([]float64, 0, len(prices)-period+1)
	out = append(out, sma)

	ema := sma
	for i := period; i < len(prices); i++ {
		ema = (prices[i] * alpha) + (ema * (1 - alpha))
		out = append(out, ema)
	}

	return out
}
