// Package misc keeps program identification values, most of them are set at
// link time.
package misc

import (
	"runtime/debug"
)

const appName = "exsyn"

var (
	version = "dev"
	githash = ""
)

// GetAppName returns short program name, used for logger and temporary
// file names.
func GetAppName() string {
	return appName
}

// GetVersion returns program version set with -ldflags or "dev".
func GetVersion() string {
	return version
}

// GetGitHash returns git revision the program was built from. When it was not
// provided at link time VCS information embedded by the toolchain is used.
func GetGitHash() string {
	if len(githash) > 0 {
		return githash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
