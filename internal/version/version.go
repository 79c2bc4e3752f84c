// Package version holds build version information for codegraph.
package version

import "runtime"

// Overridden at build time:
// go build -ldflags "-X codegraph/internal/version.Version=1.0.0 -X codegraph/internal/version.Commit=abc123"
var (
	// Version is the semantic version of codegraph
	Version = "0.3.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns "VERSION" or "VERSION (short commit)"
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// BuildInfo is the structured form printed by `codegraph version --format`
type BuildInfo struct {
	Version   string `json:"version" yaml:"version" toml:"version"`
	Commit    string `json:"commit" yaml:"commit" toml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate" toml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion" toml:"goVersion"`
}

// Current returns the build information of the running binary
func Current() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// Full returns complete version information
func Full() string {
	return "codegraph version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
