// Package version reports what build of polysynth is running. Releases set
// Version at build time:
//
//	go build -ldflags "-X github.com/AlloSphere-Research-Group/polysynth/version.Version=$(git describe --dirty)"
//
// Untagged builds fall back to the VCS revision recorded in the build info.
package version

import "runtime/debug"

// Version is the release tag injected at build time. Empty for untagged
// builds.
var Version string

// String returns Version when set, otherwise the short VCS revision with a
// -dirty suffix for modified trees, otherwise "unknown".
func String() string {
	if Version != "" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	rev := ""
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "unknown"
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
