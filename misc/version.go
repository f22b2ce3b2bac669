package misc

import (
	"runtime/debug"
)

const appName = "weft"

// GetAppName returns the short program name used for logging and CLI surfaces.
func GetAppName() string {
	return appName
}

// GetVersion returns module version from build info when available.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "devel"
}

// GetGitHash returns vcs revision from build info when available.
func GetGitHash() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
