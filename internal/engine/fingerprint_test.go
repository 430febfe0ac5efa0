package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/replay-lab/replay-trading/internal/types"
)

func TestFingerprintStability(t *testing.T) {
	bars := barsFromCloses(100, 101, 102)

	assert.Equal(t, Fingerprint(bars), Fingerprint(bars))
	assert.Len(t, Fingerprint(bars), 64)
}

func TestFingerprintSensitivity(t *testing.T) {
	bars := barsFromCloses(100, 101, 102)
	original := Fingerprint(bars)

	mutated := barsFromCloses(100, 101, 102)
	mutated[1].Close = mutated[1].Close.Add(decimal.RequireFromString("0.00000001"))

	assert.NotEqual(t, original, Fingerprint(mutated), "any bar change must change the fingerprint")

	shorter := barsFromCloses(100, 101)
	assert.NotEqual(t, original, Fingerprint(shorter))
}

func TestFingerprintEmptySequence(t *testing.T) {
	assert.Len(t, Fingerprint(nil), 64)
	assert.Equal(t, Fingerprint(nil), Fingerprint([]types.Bar{}))
}
