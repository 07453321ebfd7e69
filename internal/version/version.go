// Package version exposes build metadata injected with -ldflags "-X".
package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	// Version is the release of the binary.
	Version = "0.1.0"

	// BuildTime is the RFC3339 build timestamp, "unknown" in development builds.
	BuildTime = "unknown"

	GitCommit = "unknown"

	GitBranch = "unknown"
)

// Info contains version and build information.
type Info struct {
	Version   string    `json:"version"`
	BuildTime string    `json:"build_time"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	BuildDate time.Time `json:"build_date"`
}

// Get returns version and build information.
func Get() Info {
	var buildDate time.Time

	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		buildDate = t
	}

	return Info{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		BuildDate: buildDate,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("weather-outfit %s (%s, %s) %s", i.Version, i.GitCommit, i.GoVersion, i.Platform)
}
