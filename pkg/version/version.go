// Package version reports build metadata for tonegen. The variables are set
// with -ldflags "-X" at release time.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// GetVersionInfo returns a one line description of the running binary. When
// no version was stamped in, the module version recorded by `go install` is
// used if there is one.
func GetVersionInfo() string {
	return format(resolve(Version, debug.ReadBuildInfo))
}

func resolve(v string, buildInfo func() (*debug.BuildInfo, bool)) string {
	if v != "dev" {
		return v
	}
	if info, ok := buildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return v
}

func format(v string) string {
	return fmt.Sprintf("tonegen version %s (commit: %s, built: %s, go: %s)",
		v, GitCommit, BuildTime, runtime.Version())
}
