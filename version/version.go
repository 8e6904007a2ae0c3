package version

import (
	"runtime/debug"
	"strings"
)

const modulePath = "github.com/kbukum/aggkit"

// Set at build time with -ldflags.
var (
	Version = ""
	Commit  = ""
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get returns the build information, preferring link-time values over
// those recorded by the toolchain.
func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

func resolve(bi *debug.BuildInfo) Info {
	info := Info{Version: Version, Commit: Commit}
	if bi == nil {
		if info.Version == "" {
			info.Version = "dev"
		}
		return info
	}

	info.GoVersion = bi.GoVersion
	if info.Version == "" {
		info.Version = moduleVersion(bi)
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// moduleVersion finds this module's version whether it is the main module
// or a dependency.
func moduleVersion(bi *debug.BuildInfo) string {
	if bi.Main.Path == modulePath && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path == modulePath {
			return dep.Version
		}
	}
	return "dev"
}

// Short returns the version, with the commit appended for development
// builds, e.g. "dev-1a2b3c4-dirty".
func Short() string {
	return Get().String()
}

func (i Info) String() string {
	if i.Commit == "" || !strings.HasPrefix(i.Version, "dev") {
		return i.Version
	}
	s := i.Version + "-" + i.Commit
	if i.Dirty {
		s += "-dirty"
	}
	return s
}
