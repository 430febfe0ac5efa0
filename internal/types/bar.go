package types

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// QualityTier tags the provenance quality of a bar.
type QualityTier string

const (
	// QualityTierVerified marks bars cross-checked against a second source.
	QualityTierVerified QualityTier = "verified"
	// QualityTierAdjusted marks bars repaired by the upstream loader.
	QualityTierAdjusted QualityTier = "adjusted"
	// QualityTierRaw marks bars taken as-is from the feed.
	QualityTierRaw QualityTier = "raw"
)

// Bar is one OHLCV sample for a fixed time interval. Prices and volume
// are exact decimals; the engine never converts them to floats for
// money math.
type Bar struct {
	Timestamp   time.Time       `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Open        decimal.Decimal `yaml:"open" json:"open" csv:"open"`
	High        decimal.Decimal `yaml:"high" json:"high" csv:"high"`
	Low         decimal.Decimal `yaml:"low" json:"low" csv:"low"`
	Close       decimal.Decimal `yaml:"close" json:"close" csv:"close"`
	Volume      decimal.Decimal `yaml:"volume" json:"volume" csv:"volume"`
	QualityTier QualityTier     `yaml:"quality_tier" json:"quality_tier" csv:"quality_tier"`
}

// Validate checks the intra-bar price invariant: low <= open,close <= high.
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return errors.New(errors.ErrCodeInvalidBar, "bar has zero timestamp")
	}

	if b.High.LessThan(b.Low) {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has high (%s) below low (%s)",
			b.Timestamp.Format(time.RFC3339), b.High, b.Low)
	}

	if b.Open.LessThan(b.Low) || b.Open.GreaterThan(b.High) {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has open (%s) outside [%s, %s]",
			b.Timestamp.Format(time.RFC3339), b.Open, b.Low, b.High)
	}

	if b.Close.LessThan(b.Low) || b.Close.GreaterThan(b.High) {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has close (%s) outside [%s, %s]",
			b.Timestamp.Format(time.RFC3339), b.Close, b.Low, b.High)
	}

	if b.Volume.IsNegative() {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has negative volume (%s)",
			b.Timestamp.Format(time.RFC3339), b.Volume)
	}

	return nil
}

// ValidateSeries checks the whole-sequence invariants: the series is
// non-empty and timestamps are strictly increasing. Intra-bar price
// sanity is checked per bar during replay, not here.
func ValidateSeries(bars []Bar) error {
	if len(bars) == 0 {
		return errors.New(errors.ErrCodeEmptyBarSequence, "bar sequence is empty")
	}

	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return errors.Newf(errors.ErrCodeNonMonotonicBars,
				"bar %d timestamp (%s) is not after bar %d timestamp (%s)",
				i, bars[i].Timestamp.Format(time.RFC3339),
				i-1, bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}

	return nil
}
