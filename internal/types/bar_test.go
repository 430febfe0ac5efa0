package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replay-lab/replay-trading/pkg/errors"
)

func newTestBar(ts time.Time, open, high, low, close float64) Bar {
	return Bar{
		Timestamp:   ts,
		Open:        decimal.NewFromFloat(open),
		High:        decimal.NewFromFloat(high),
		Low:         decimal.NewFromFloat(low),
		Close:       decimal.NewFromFloat(close),
		Volume:      decimal.NewFromInt(100),
		QualityTier: QualityTierRaw,
	}
}

func TestBarValidate(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		bar      Bar
		wantErr  bool
		wantCode errors.ErrorCode
	}{
		{
			name:    "valid bar",
			bar:     newTestBar(base, 100, 110, 95, 105),
			wantErr: false,
		},
		{
			name:     "zero timestamp",
			bar:      newTestBar(time.Time{}, 100, 110, 95, 105),
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidBar,
		},
		{
			name:     "high below low",
			bar:      newTestBar(base, 100, 90, 95, 92),
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidBar,
		},
		{
			name:     "open above high",
			bar:      newTestBar(base, 120, 110, 95, 105),
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidBar,
		},
		{
			name:     "close below low",
			bar:      newTestBar(base, 100, 110, 95, 90),
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidBar,
		},
		{
			name: "negative volume",
			bar: func() Bar {
				b := newTestBar(base, 100, 110, 95, 105)
				b.Volume = decimal.NewFromInt(-1)

				return b
			}(),
			wantErr:  true,
			wantCode: errors.ErrCodeInvalidBar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.wantCode))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSeries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty sequence", func(t *testing.T) {
		err := ValidateSeries(nil)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeEmptyBarSequence))
	})

	t.Run("strictly increasing", func(t *testing.T) {
		bars := []Bar{
			newTestBar(base, 100, 110, 95, 105),
			newTestBar(base.Add(time.Hour), 105, 112, 100, 108),
		}
		assert.NoError(t, ValidateSeries(bars))
	})

	t.Run("duplicate timestamp fails", func(t *testing.T) {
		bars := []Bar{
			newTestBar(base, 100, 110, 95, 105),
			newTestBar(base, 105, 112, 100, 108),
		}
		err := ValidateSeries(bars)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeNonMonotonicBars))
	})

	t.Run("decreasing timestamp fails", func(t *testing.T) {
		bars := []Bar{
			newTestBar(base.Add(time.Hour), 100, 110, 95, 105),
			newTestBar(base, 105, 112, 100, 108),
		}
		err := ValidateSeries(bars)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeNonMonotonicBars))
	})
}

func TestTimeframePeriodsPerYear(t *testing.T) {
	tests := []struct {
		tf   Timeframe
		want float64
	}{
		{Timeframe1m, 60 * 24 * 365},
		{Timeframe1h, 24 * 365},
		{Timeframe4h, 6 * 365},
		{Timeframe1d, 365},
	}

	for _, tt := range tests {
		t.Run(string(tt.tf), func(t *testing.T) {
			got, err := tt.tf.PeriodsPerYear()
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := Timeframe("3w").PeriodsPerYear()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}
