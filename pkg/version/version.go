// Package version records build metadata for the symtab binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, overridden at build time via -ldflags. Fields left at
// their defaults are filled from the embedded module build info.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// InitBinaryVersion fills unset metadata fields from the binary's embedded
// build info. Values injected through -ldflags win.
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
			if Commit == "unknown" && setting.Value != "" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}

// String returns the one-line version description printed by the version
// command.
func String() string {
	return fmt.Sprintf("symtab %s (commit: %s, built: %s)", Version, Commit, Date)
}
