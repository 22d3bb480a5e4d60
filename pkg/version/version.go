// Package version holds build and version information.
// Values are set at build time via -ldflags.
package version

import "runtime"

var (
	// BuildVersion is the semantic version of the build
	BuildVersion = "0.1.0"

	// BuildCommit is the git commit hash of the build
	BuildCommit = "unknown"

	// BuildDate is the date the binary was built
	BuildDate = "unknown"
)

// Info returns version information as a map
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"go_version": runtime.Version(),
		"commit":     BuildCommit,
		"build_date": BuildDate,
	}
}
