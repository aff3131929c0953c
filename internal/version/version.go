// Package version holds build metadata for the sheet scanner.
package version

import "fmt"

// Set with -ldflags "-X omr-grader/internal/version.Version=..."
var (
	Version   = "0.1.0"
	BuildTime = "unknown" // UTC
	GitCommit = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("sheetscan %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
