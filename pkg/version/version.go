// Package version carries build metadata injected at link time.
package version

import (
	"fmt"
	"strings"
)

const unknown = "unknown"

var (
	// Version is overridden at build time:
	// go build -ldflags="-X github.com/eventual-app/eventual/pkg/version.Version=v1.2.3"
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = unknown

	// BuildTime is the build timestamp, RFC3339 recommended.
	BuildTime = unknown
)

// Info bundles the build metadata for logs and the version endpoint.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Current returns the build metadata of the running binary.
func Current(service string) Info {
	return Info{
		Service:   orDefault(service, unknown),
		Version:   orDefault(Version, "dev"),
		Commit:    orDefault(Commit, unknown),
		BuildTime: orDefault(BuildTime, unknown),
	}
}

// String returns a log-friendly representation.
func (i Info) String() string {
	return fmt.Sprintf("%s@%s (commit=%s, build_time=%s)", i.Service, i.Version, i.Commit, i.BuildTime)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
