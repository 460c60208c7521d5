package buildconfig

import "fmt"

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/timely/internal/buildconfig.version=v1.2.0
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo returns the build metadata reported by /version.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"build_date": date,
	}
}

// String is the one-line form printed by the CLI.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
