// Package version carries build metadata stamped in with -ldflags.
package version

import "runtime/debug"

const unknown = "unknown"

// Build metadata. Set with
// -ldflags "-X github.com/Sumatoshi-tech/covreport/pkg/version.Version=v1.2.3".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills unset fields from the module build info embedded
// by "go install".
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String is the one-line version banner.
func String() string {
	return "covreport " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
