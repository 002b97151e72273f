package buildinfo

import "fmt"

// These are intended to be set via -ldflags at build time.
// Example:
// go build -ldflags "-X github.com/gilsentrycs/monitor-flights/pkg/buildinfo.Version=v0.3.0 -X github.com/gilsentrycs/monitor-flights/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func Info() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}

// String formats the build info for the version subcommand
func String() string {
	return fmt.Sprintf("monitor-flights %s (commit %s, built %s)", Version, Commit, Date)
}
