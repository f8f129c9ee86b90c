// Package version holds build metadata reported by /version.
package version

// Set at build time via -ldflags "-X".
var (
	Version   = "0.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)
