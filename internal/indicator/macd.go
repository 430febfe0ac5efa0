package indicator

import (
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// MACD computes the convergence/divergence of two exponential moving
// averages plus a signal line. Fields: "macd", "signal", "histogram".
// The primary value is the macd line.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with the conventional 12/26/9
// configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator. Expected parameters:
// signalPeriod (int), or signalPeriod, fastPeriod, slowPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 1 && len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 or 3 parameters: signalPeriod (int) [, fastPeriod (int), slowPeriod (int)]")
	}

	periods := make([]int, 0, len(params))

	for _, p := range params {
		period, ok := p.(int)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
		}

		if period <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
		}

		periods = append(periods, period)
	}

	m.signalPeriod = periods[0]

	if len(periods) == 3 {
		m.fastPeriod = periods[1]
		m.slowPeriod = periods[2]
	}

	if m.fastPeriod >= m.slowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fast period (%d) must be below slow period (%d)", m.fastPeriod, m.slowPeriod)
	}

	return nil
}

// Compute implements the Indicator interface.
func (m *MACD) Compute(window []types.Bar) (Value, error) {
	required := m.slowPeriod + m.signalPeriod - 1
	if len(window) < required {
		return Value{}, errors.NewInsufficientDataErrorf(required, len(window), "",
			"macd(%d,%d,%d) needs %d bars, window has %d", m.fastPeriod, m.slowPeriod, m.signalPeriod, required, len(window))
	}

	prices := closes(window)

	fast := emaSeries(prices, m.fastPeriod)
	slow := emaSeries(prices, m.slowPeriod)

	// The macd line exists from index slowPeriod-1 of the price series
	// onward. Align the fast series to the slow one.
	offset := m.slowPeriod - m.fastPeriod
	macdLine := make([]float64, len(slow))

	for i := range slow {
		macdLine[i] = fast[i+offset] - slow[i]
	}

	signal := emaSeries(macdLine, m.signalPeriod)

	macd := macdLine[len(macdLine)-1]
	sig := signal[len(signal)-1]

	return Value{
		Primary: macd,
		Fields: map[string]float64{
			"macd":      macd,
			"signal":    sig,
			"histogram": macd - sig,
		},
	}, nil
}
