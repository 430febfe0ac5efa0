package featureflag

import (
	"os"
	"strconv"
	"strings"
)

// Flag names a runtime feature toggle.
type Flag string

const (
	// VerboseEventLog emits one bar_processed event per bar instead of
	// logging trades and lifecycle events only.
	VerboseEventLog Flag = "verbose_event_log"
	// StrictValidation treats every bar anomaly as fatal regardless of
	// the configured threshold.
	StrictValidation Flag = "strict_validation"
)

const envPrefix = "REPLAY_FLAG_"

// Enabled reports whether the flag is switched on via its environment
// variable. "verbose_event_log" maps to REPLAY_FLAG_VERBOSE_EVENT_LOG.
// Accepted truthy values follow strconv.ParseBool.
func Enabled(flag Flag) bool {
	value, ok := os.LookupEnv(envName(flag))
	if !ok {
		return false
	}

	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}

	return enabled
}

func envName(flag Flag) string {
	return envPrefix + strings.ToUpper(string(flag))
}
