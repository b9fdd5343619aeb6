// Package misc provides build identity helpers used in logs and banners.
package misc

import "runtime/debug"

const appName = "dxp"

// set by the build via ldflags
var (
	version = "development"
	gitHash = ""
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

// GetGitHash returns the VCS revision compiled into the binary, preferring
// the value injected by the build over module build info.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
