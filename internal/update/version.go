package update

import (
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/theorangealliance/streamline-control/internal/events"
)

// CompareVersions decides whether latest is an update over current. Equal or
// older releases are UpToDate: the pipeline never downgrades.
func CompareVersions(current, latest string) (events.CheckOutcome, error) {
	cur := ensureVPrefix(current)
	if !semver.IsValid(cur) {
		return events.OutcomeUpToDate, fmt.Errorf("%w: running build %q", ErrInvalidVersion, current)
	}
	lat := ensureVPrefix(latest)
	if !semver.IsValid(lat) {
		return events.OutcomeUpToDate, fmt.Errorf("%w: release %q", ErrInvalidVersion, latest)
	}

	if semver.Compare(cur, lat) < 0 {
		return events.OutcomeAvailable, nil
	}
	return events.OutcomeUpToDate, nil
}

// IsRelease reports whether version is a semantic version, i.e. not a
// development build.
func IsRelease(version string) bool {
	return semver.IsValid(ensureVPrefix(version))
}

// ensureVPrefix ensures the version string has a "v" prefix for semver comparison.
func ensureVPrefix(version string) string {
	if len(version) > 0 && version[0] != 'v' {
		return "v" + version
	}
	return version
}
