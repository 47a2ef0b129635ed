// Package version reports the build identity of the sitterdiff binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version, set with -ldflags "-X .../pkg/version.Version=v1.2.3".
var Version = "dev"

// BinaryGitHash is the Git hash of the sitterdiff binary file which is executing.
var BinaryGitHash = "<unknown>"

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	if BinaryGitHash != "<unknown>" {
		return
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			BinaryGitHash = setting.Value
		}
	}
}

// String returns the version line printed by the version command.
func String() string {
	return fmt.Sprintf("sitterdiff %s (%s)", Version, BinaryGitHash)
}
