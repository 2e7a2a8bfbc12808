// SPDX-License-Identifier: MPL-2.0

package versionindex

import (
	"github.com/specpub/specpub/internal/release"

	"golang.org/x/exp/slices"
	"golang.org/x/mod/semver"
)

// Merge returns a copy of ix with v added and the Stable alias repointed to
// it. The input is not modified.
//
// The result lists v first, then Stable, then every other prior key in its
// original order with its entry unchanged, including fields Record does not
// know about. Stable always moves to v, even when v is older than the
// release it previously pointed at; OlderThanStable lets callers detect
// that case.
func Merge(ix *Index, v release.Version) *Index {
	rec := RecordFor(v)

	merged := New()
	merged.Set(v, rec)
	merged.Set(Stable, rec)
	if ix == nil {
		return merged
	}
	for _, k := range ix.keys {
		if k == v || k == Stable {
			continue
		}
		merged.copyEntry(ix, k)
	}
	return merged
}

// OlderThanStable reports whether v sorts before the release the Stable
// alias currently points at. Both labels must be valid semantic versions
// for the comparison to apply.
func OlderThanStable(ix *Index, v release.Version) (release.Version, bool) {
	if ix == nil {
		return "", false
	}
	cur, ok := ix.Get(Stable)
	if !ok {
		return "", false
	}
	if !semver.IsValid(string(v)) || !semver.IsValid(string(cur.Spec)) {
		return cur.Spec, false
	}
	return cur.Spec, semver.Compare(string(v), string(cur.Spec)) < 0
}

// DisplayOrder returns the keys with Stable first, then valid semantic
// versions in descending order, then the remaining labels in index order.
func DisplayOrder(ix *Index) []release.Version {
	var sv, other []release.Version
	hasStable := false
	for _, k := range ix.keys {
		switch {
		case k == Stable:
			hasStable = true
		case semver.IsValid(string(k)):
			sv = append(sv, k)
		default:
			other = append(other, k)
		}
	}

	slices.SortStableFunc(sv, func(a, b release.Version) int {
		return semver.Compare(string(b), string(a))
	})

	out := make([]release.Version, 0, ix.Len())
	if hasStable {
		out = append(out, Stable)
	}
	out = append(out, sv...)
	return append(out, other...)
}
