package diagnostics

import (
	"runtime"
)

// Snapshot captures the build environment a run was produced under.
// The map is embedded in every run's provenance so results can be
// traced back to the toolchain and platform that computed them.
func Snapshot() map[string]string {
	return map[string]string{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"compiler":   runtime.Compiler,
	}
}
