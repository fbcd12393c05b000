// Package version reports the navd build: the release version plus
// the VCS revision embedded by the Go toolchain.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release version, overridable by ldflags.
	Version = "dev"
	// CommitHash is the git revision, overridable by ldflags; when
	// empty it is read from the embedded build info.
	CommitHash = ""
	// BuildTime is the VCS commit time of the build.
	BuildTime = ""
)

// GetInfo formats the version with the short commit hash, as printed
// by the version command.
func GetInfo() string {
	if CommitHash == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					CommitHash = setting.Value
				}
				if setting.Key == "vcs.time" {
					BuildTime = setting.Value
				}
			}
		}
	}

	res := Version
	if CommitHash != "" {
		shortHash := CommitHash
		if len(shortHash) > 7 {
			shortHash = shortHash[:7]
		}
		res += fmt.Sprintf(" (%s)", shortHash)
	}
	return res
}
