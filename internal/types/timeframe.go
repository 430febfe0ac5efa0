package types

import (
	"time"

	"github.com/replay-lab/replay-trading/pkg/errors"
)

// Timeframe is the fixed interval covered by one bar.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// AllTimeframes lists every supported timeframe.
var AllTimeframes = []Timeframe{
	Timeframe1m,
	Timeframe5m,
	Timeframe15m,
	Timeframe1h,
	Timeframe4h,
	Timeframe1d,
}

// Duration returns the wall-clock length of one bar.
func (t Timeframe) Duration() (time.Duration, error) {
	switch t {
	case Timeframe1m:
		return time.Minute, nil
	case Timeframe5m:
		return 5 * time.Minute, nil
	case Timeframe15m:
		return 15 * time.Minute, nil
	case Timeframe1h:
		return time.Hour, nil
	case Timeframe4h:
		return 4 * time.Hour, nil
	case Timeframe1d:
		return 24 * time.Hour, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "unknown timeframe: %s", t)
	}
}

// PeriodsPerYear returns the number of bars in a 365-day year, used to
// annualize per-bar return statistics (hourly bars -> 24*365).
func (t Timeframe) PeriodsPerYear() (float64, error) {
	d, err := t.Duration()
	if err != nil {
		return 0, err
	}

	year := 365 * 24 * time.Hour

	return float64(year) / float64(d), nil
}
