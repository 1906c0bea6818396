package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Version and Commit are stamped by release builds:
//
//	go build -ldflags="-X github.com/kelder/breeze/internal/version.Version=v0.3.0 \
//	                   -X github.com/kelder/breeze/internal/version.Commit=1a2b3c4"
//
// Unstamped binaries recover both from the VCS metadata Go embeds at
// build time, then fall back to a dated dev string.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		v, c := fromBuildInfo()
		if Version == "" {
			Version = v
		}
		if Commit == "" {
			Commit = c
		}
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo derives a dev version and short commit hash from the
// binary's embedded VCS settings. Either result may be empty.
func fromBuildInfo() (version, commit string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if rev := settings["vcs.revision"]; rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		commit = rev
	}
	if ts := settings["vcs.time"]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			version = "dev-" + t.Format("20060102")
		}
	}
	return version, commit
}

// Full is the one-line version string the CLI prints.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
