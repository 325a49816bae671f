package domain

import (
	"github.com/danwakefield/fnmatch"
)

// MatchFQAN reports whether at least one of the attribute tags matches the
// glob pattern. Matching is case-sensitive and backslashes in the pattern
// are literal characters, not escapes. The scan short-circuits on the first
// match. An empty tag list yields false; duplicates are legal and are not
// deduplicated.
func MatchFQAN(fqans []string, pattern string) bool {
	for _, fqan := range fqans {
		if fnmatch.Match(pattern, fqan, fnmatch.FNM_NOESCAPE) {
			return true
		}
	}
	return false
}

// FirstMatchingFQAN returns the first tag matching pattern, with ok=false
// when none matches. Same matching rules as MatchFQAN.
func FirstMatchingFQAN(fqans []string, pattern string) (string, bool) {
	for _, fqan := range fqans {
		if fnmatch.Match(pattern, fqan, fnmatch.FNM_NOESCAPE) {
			return fqan, true
		}
	}
	return "", false
}
