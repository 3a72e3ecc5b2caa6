package versions

import (
	goversion "github.com/hashicorp/go-version"
)

// ShouldInstall is the idempotency gate: equal installed and target
// versions short-circuit the whole install. An absent tool always
// installs. Versions that fail semver parsing fall back to raw string
// comparison.
func ShouldInstall(installed, target string) bool {
	if installed == "" {
		return true
	}

	iv, ierr := goversion.NewVersion(installed)
	tv, terr := goversion.NewVersion(target)
	if ierr != nil || terr != nil {
		return installed != target
	}
	return !iv.Equal(tv)
}
