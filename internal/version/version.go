// Package version provides the semantic version of the current build.
package version

import "fmt"

// Version is the service version, overridable at build time with
// -ldflags "-X github.com/saborlabs/saborai/internal/version.Version=...".
var Version = "0.1.0"

// DevVersion is the suffix appended outside prod mode.
var DevVersion = "dev"

func GetCurrentVersion(mode string) string {
	if mode == "prod" {
		return Version
	}
	return fmt.Sprintf("%s-%s", Version, DevVersion)
}
