package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// CheckVersionCompatibility checks if two component versions recorded in a
// run's provenance are compatible for result comparison. Returns nil if
// compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
func CheckVersionCompatibility(engineVersion, otherVersion string) error {
	// Strip 'v' prefix if present for consistency
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	otherVersion = strings.TrimPrefix(otherVersion, "v")

	// Skip version check for "main" (development builds)
	if engineVersion == "main" || otherVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	otherSemver, err := semver.NewVersion(otherVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid version '%s'", otherVersion)
	}

	if engineSemver.Major() != otherSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"major version mismatch: engine is %d.x.x but run was produced by %d.x.x",
			engineSemver.Major(), otherSemver.Major())
	}

	if engineSemver.Minor() != otherSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"minor version mismatch: engine is %d.%d.x but run was produced by %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			otherSemver.Major(), otherSemver.Minor())
	}

	// Patch versions can differ, so we're compatible
	return nil
}
