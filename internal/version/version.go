// Package version carries the build metadata injected with -ldflags, e.g.
// -X github.com/MeKo-Tech/codescan/internal/version.Version=v1.2.0.
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version, commit and build date.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String renders the block printed by "codescan --version".
func String() string {
	return fmt.Sprintf("codescan version %s\nCommit: %s\nDate: %s\n", Version, GitCommit, BuildDate)
}
