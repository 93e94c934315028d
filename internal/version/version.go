// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build metadata on one line, e.g. "v0.3.1 (abc1234, 2026-05-01)".
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
