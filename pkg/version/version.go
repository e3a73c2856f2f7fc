// Package version holds build information injected at link time.
package version

// These are overridden with -ldflags "-X github.com/sharky-compress/sharky/pkg/version.Version=..."
var (
	// Version is the released version of sharky.
	Version = "devel"
	// GitCommit is the commit sharky was built from.
	GitCommit = "unknown"
)
