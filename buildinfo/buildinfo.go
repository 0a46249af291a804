// Package buildinfo identifies the signup binaries. The web host reports it on
// /health, and both binaries print it for --version and log it at start.
// Values are stamped at link time:
//
//	go build -ldflags "-X github.com/nomis52/signup/buildinfo.version=1.2.0 \
//	  -X github.com/nomis52/signup/buildinfo.gitCommit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

// Properties identifies one build.
type Properties struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Overridden with -X at link time.
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Get returns the current build properties.
func Get() Properties {
	return Properties{
		Version:   version,
		BuildTime: buildTime,
		GitCommit: gitCommit,
	}
}

// String formats the properties for --version output.
func (p Properties) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", p.Version, p.GitCommit, p.BuildTime)
}
