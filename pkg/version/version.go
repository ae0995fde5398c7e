// Package version reports which promptpack build is running.
package version

import (
	"fmt"
	"runtime"
)

// Set by the release build, e.g.
//
//	-ldflags "-X promptpack/pkg/version.Version=0.3.0 -X promptpack/pkg/version.Commit=$(git rev-parse --short HEAD)"
//
// Local builds report "dev".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Info identifies a promptpack binary. It is stamped into every log entry
// via Version and printed by "promptpack version".
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	Platform  string // GOOS/GOARCH
}

// Get collects the build stamps and the runtime the binary was built with.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String is the long form printed by "promptpack version"; --short prints
// Version alone.
func (i Info) String() string {
	return fmt.Sprintf(
		"promptpack version %s (commit: %s) built at %s with %s on %s",
		i.Version,
		i.GitCommit,
		i.BuildTime,
		i.GoVersion,
		i.Platform,
	)
}
