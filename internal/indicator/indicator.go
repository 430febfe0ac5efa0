package indicator

import (
	"github.com/replay-lab/replay-trading/internal/types"
)

// Value is the output of one indicator computation. Primary carries the
// indicator's headline value; Fields carries named components for
// multi-valued indicators (macd line/signal/histogram, band
// upper/middle/lower).
type Value struct {
	Primary float64
	Fields  map[string]float64
}

// Field returns the named component, or the primary value when name is
// empty. The second return reports whether the component exists.
func (v Value) Field(name string) (float64, bool) {
	if name == "" {
		return v.Primary, true
	}

	f, ok := v.Fields[name]

	return f, ok
}

// Indicator is a pure function of a bar window. The window is always
// the subsequence of bars up to and including the bar being evaluated;
// implementations never see future bars. Identical windows must produce
// identical values.
type Indicator interface {
	// Name returns the name of the indicator.
	Name() types.IndicatorType
	// Config configures indicator parameters. Each implementation
	// documents its expected parameters.
	Config(params ...any) error
	// Compute calculates the indicator over the window. A window shorter
	// than the indicator's period yields an InsufficientDataError, never
	// a partial value.
	Compute(window []types.Bar) (Value, error)
}

// closes extracts close prices as floats for statistical computation.
// Money math stays decimal; indicator values are analytics, not money.
func closes(window []types.Bar) []float64 {
	out := make([]float64, len(window))
	for i := range window {
		out[i] = window[i].Close.InexactFloat64()
	}

	return out
}
