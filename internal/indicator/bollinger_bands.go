package indicator

import (
	"math"

	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// BollingerBands computes a volatility band: a simple moving average
// plus/minus k standard deviations. Fields: "upper", "middle", "lower",
// "width". The primary value is the middle band.
type BollingerBands struct {
	period     int
	multiplier float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with
// default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period:     20,  // Default period
		multiplier: 2.0, // Default number of standard deviations
	}
}

// Name returns the name of the indicator.
func (b *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator. Expected parameters:
// period (int) [, multiplier (float64)].
func (b *BollingerBands) Config(params ...any) error {
	if len(params) < 1 || len(params) > 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 or 2 parameters: period (int) [, multiplier (float64)]")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	b.period = period

	if len(params) == 2 {
		multiplier, ok := params[1].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for multiplier parameter, expected float64")
		}

		if multiplier <= 0 {
			return errors.Newf(errors.ErrCodeInvalidMultiplier, "multiplier must be positive, got %v", multiplier)
		}

		b.multiplier = multiplier
	}

	return nil
}

// Compute implements the Indicator interface.
func (b *BollingerBands) Compute(window []types.Bar) (Value, error) {
	if len(window) < b.period {
		return Value{}, errors.NewInsufficientDataErrorf(b.period, len(window), "",
			"bollinger_bands(%d) needs %d bars, window has %d", b.period, b.period, len(window))
	}

	prices := closes(window)
	prices = prices[len(prices)-b.period:]

	mean := 0.0
	for _, p := range prices {
		mean += p
	}

	mean /= float64(b.period)

	variance := 0.0
	for _, p := range prices {
		diff := p - mean
		variance += diff * diff
	}

	variance /= float64(b.period)
	stdDev := math.Sqrt(variance)

	upper := mean + b.multiplier*stdDev
	lower := mean - b.multiplier*stdDev

	return Value{
		Primary: mean,
		Fields: map[string]float64{
			"upper":  upper,
			"middle": mean,
			"lower":  lower,
			"width":  upper - lower,
		},
	}, nil
}
