// Package buildinfo holds the version triple reported by the version
// subcommand, set at link time via -ldflags.
package buildinfo

import "runtime"

// Version, Commit, and Date are overridden at build time with
// -ldflags "-X .../internal/buildinfo.Version=... ". They default to
// "dev"/"none"/"unknown" for `go run`/test builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the one-line identification string printed by `version`.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ", " + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
