// Package version resolves release versions: build information stamped
// into the binary, semantic version parsing, and best-effort guesses
// from project metadata documents.
package version

var (
	// Build information - set via ldflags during release builds
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)
