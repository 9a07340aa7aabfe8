package entities

import (
	"strings"

	"golang.org/x/mod/semver"
)

// NormalizeVersion ensures a version string carries the 'v' prefix that
// semver comparison expects. Registry versions are published bare
// ("0.2.93"), so normalization happens at every comparison site.
func NormalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// CompareVersions returns -1, 0 or +1 as version a is lower than, equal
// to or higher than version b under semver precedence. Invalid versions
// fall back to string comparison so the result stays total.
func CompareVersions(a, b string) int {
	na, nb := NormalizeVersion(a), NormalizeVersion(b)
	if semver.IsValid(na) && semver.IsValid(nb) {
		return semver.Compare(na, nb)
	}
	return strings.Compare(a, b)
}
