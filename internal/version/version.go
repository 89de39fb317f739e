package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/eleropi/eleropi-go/internal/version.Version=v0.3.0 \
//	                   -X github.com/eleropi/eleropi-go/internal/version.Commit=abc1234"
//
// Otherwise they come from the module and VCS build info, or fall back to
// "dev".
var (
	Version = ""
	Commit  = ""
)

// Info is the version report printed by `eleropi version`
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			Version, Commit = fromBuildInfo(info, Version, Commit)
		}
	}

	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills whichever of version and commit is empty
func fromBuildInfo(info *debug.BuildInfo, version, commit string) (string, string) {
	var revision, modified, vcsTime string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if commit == "" && revision != "" {
		commit = revision
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if modified == "true" {
			commit += "-dirty"
		}
	}

	if version == "" {
		switch {
		case info.Main.Version != "" && info.Main.Version != "(devel)":
			// go install github.com/eleropi/eleropi-go/cmd/eleropi@vX.Y.Z
			version = info.Main.Version
		case vcsTime != "":
			if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
				version = "dev-" + t.Format("20060102")
			}
		}
	}

	return version, commit
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Get returns the current version report
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
