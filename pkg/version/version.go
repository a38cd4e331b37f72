package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Summary returns the build version for CLI output, normalized to canonical
// semver form for release builds. Dev builds and unparseable values pass
// through untouched.
func Summary() string {
	trimmed := strings.TrimSpace(Version)
	if trimmed == "" {
		return "dev"
	}
	v, err := semver.NewVersion(strings.TrimPrefix(trimmed, "v"))
	if err != nil {
		return trimmed
	}
	return "v" + v.String()
}
