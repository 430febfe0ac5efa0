package engine

import (
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/internal/version"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// CheckComparable reports whether two finalized runs may be diffed
// byte-for-byte. Runs are comparable when they replayed the same input
// sequence and were produced by compatible engine builds; comparing
// anything else turns real behavior changes into phantom data changes.
func CheckComparable(a, b types.BacktestRun) error {
	if a.Provenance.InputFingerprint != b.Provenance.InputFingerprint {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"input fingerprint mismatch: %s vs %s",
			a.Provenance.InputFingerprint, b.Provenance.InputFingerprint)
	}

	if err := version.CheckVersionCompatibility(a.Provenance.EngineVersion, b.Provenance.EngineVersion); err != nil {
		return err
	}

	return version.CheckVersionCompatibility(a.Provenance.CompilerVersion, b.Provenance.CompilerVersion)
}
