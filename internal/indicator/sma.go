package indicator

import (
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// SMA implements the Simple Moving Average over close prices.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator with default configuration.
func NewSMA() Indicator {
	return &SMA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (s *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Config configures the SMA indicator. Expected parameters: period (int).
func (s *SMA) Config(params ...any) error {
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

	s.period = period

	return nil
}

// Compute implements the Indicator interface.
func (s *SMA) Compute(window []types.Bar) (Value, error) {
	if len(window) < s.period {
		return Value{}, errors.NewInsufficientDataErrorf(s.period, len(window), "",
			"sma(%d) needs %d bars, window has %d", s.period, s.period, len(window))
	}

	prices := closes(window)

	sum := 0.0
	for _, p := range prices[len(prices)-s.period:] {
		sum += p
	}

	return Value{Primary: sum / float64(s.period)}, nil
}
