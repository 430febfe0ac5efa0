package version

// Version is the current version of the replay-trading engine.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/replay-lab/replay-trading/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "v1.3.0"

// CompilerVersion is the version of the strategy condition compiler.
// It changes only when the semantics of compiled condition trees change,
// so provenance records can tell apart runs whose strategy parsing differs.
var CompilerVersion = "v1.1.0"

// GetVersion returns the current version of the engine.
func GetVersion() string {
	return Version
}

// GetCompilerVersion returns the current version of the strategy compiler.
func GetCompilerVersion() string {
	return CompilerVersion
}
