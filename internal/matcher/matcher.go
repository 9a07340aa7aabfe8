// Package matcher resolves a published version string to the upstream
// commit that released it, using tag-name heuristics. Ambiguity is a
// value, not an error: a repository with tags this package cannot tell
// apart yields Ambiguous, and a repository with no candidate yields
// NotFound.
package matcher

import (
	"fmt"
	"regexp"

	"github.com/diem/whackadep/internal/gitrepo"
)

// State is the outcome of a resolution attempt.
type State string

const (
	StateResolved  State = "resolved"
	StateAmbiguous State = "ambiguous"
	StateNotFound  State = "not_found"
)

// Resolution is the result of matching a version against a repository's
// tags. Commit is set only when State is StateResolved.
type Resolution struct {
	State  State
	Commit string
}

// Found reports whether a unique commit was identified.
func (r Resolution) Found() bool { return r.State == StateResolved }

// Filter is one pure predicate of the disambiguation ladder; tags that
// fail it leave the candidate set.
type Filter func(tag string) bool

// TagGlob returns the glob that selects candidate tags for a version.
func TagGlob(version string) string { return "*" + version }

// Filters returns the ladder of tag predicates, cheapest and broadest
// first. Each is strictly narrower than the one before:
//
//  1. the version must end the tag and not follow a digit 1-9, so
//     "0.1.8" does not match inside "10.1.8";
//  2. additionally, the package name must appear before the version;
//  3. additionally, only non-alphanumeric characters may separate name
//     and version, telling sibling packages with a shared name prefix
//     apart.
func Filters(name, version string) []Filter {
	quotedName := regexp.QuoteMeta(name)
	quotedVersion := regexp.QuoteMeta(version)

	patterns := []*regexp.Regexp{
		regexp.MustCompile(fmt.Sprintf(`^(?:.*[^1-9])?%s$`, quotedVersion)),
		regexp.MustCompile(fmt.Sprintf(`^.*%s(?:.*[^1-9])?%s$`, quotedName, quotedVersion)),
		regexp.MustCompile(fmt.Sprintf(`^.*%s\W*%s$`, quotedName, quotedVersion)),
	}

	filters := make([]Filter, 0, len(patterns))
	for _, pattern := range patterns {
		pattern := pattern
		filters = append(filters, pattern.MatchString)
	}
	return filters
}

// Resolve runs the ladder over candidate tags (already narrowed by
// TagGlob) and returns as soon as the surviving tags collapse to a
// single distinct commit. Multiple tags aliasing one commit still count
// as unique.
func Resolve(tags []gitrepo.TagRef, name, version string) Resolution {
	candidates := make(map[string]string, len(tags))
	for _, tag := range tags {
		candidates[tag.Name] = tag.Commit
	}
	if len(candidates) == 0 {
		return Resolution{State: StateNotFound}
	}

	for _, filter := range Filters(name, version) {
		for tag := range candidates {
			if !filter(tag) {
				delete(candidates, tag)
			}
		}

		distinct := make(map[string]struct{}, len(candidates))
		for _, commit := range candidates {
			distinct[commit] = struct{}{}
		}
		if len(distinct) == 1 {
			for commit := range distinct {
				return Resolution{State: StateResolved, Commit: commit}
			}
		}
	}

	if len(candidates) == 0 {
		return Resolution{State: StateNotFound}
	}
	return Resolution{State: StateAmbiguous}
}
