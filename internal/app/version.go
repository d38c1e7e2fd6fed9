package app

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/siraymusic/siray/internal/app.Version=v1.2.0 ...".
// Empty values fall back to the module build info.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildTime string
	// Dirty is set when the build info reports uncommitted changes
	Dirty bool
}

// GetVersionInfo merges the ldflags values with the module build info.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{Version: Version, Commit: Commit, BuildTime: BuildTime}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fill(bi)
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

func (v *VersionInfo) fill(bi *debug.BuildInfo) {
	if v.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "" {
				v.Commit = s.Value
			}
		case "vcs.time":
			if v.BuildTime == "" {
				v.BuildTime = s.Value
			}
		case "vcs.modified":
			v.Dirty = s.Value == "true"
		}
	}
}

// String renders the version for --version and the startup log line,
// e.g. "v1.2.0 (3f2a9c1, 2026-03-01T10:00:00Z)".
func (v VersionInfo) String() string {
	commit := v.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if v.Dirty && commit != "" {
		commit += "-dirty"
	}
	switch {
	case commit == "" && v.BuildTime == "":
		return v.Version
	case v.BuildTime == "":
		return fmt.Sprintf("%s (%s)", v.Version, commit)
	case commit == "":
		return fmt.Sprintf("%s (%s)", v.Version, v.BuildTime)
	default:
		return fmt.Sprintf("%s (%s, %s)", v.Version, commit, v.BuildTime)
	}
}
