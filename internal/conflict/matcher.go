package conflict

import (
	"github.com/matsen/citenum/internal/identity"
)

// MatchArticles pairs the two sides of a region. Articles match when they
// share a dedupe key, then by ID for whatever is left (a record whose
// identifiers were filled in on one branch changes key but keeps its ID).
func MatchArticles(region Region, opts identity.Options) MatchResult {
	result := MatchResult{}

	oursByKey := make(map[string]int)
	oursByID := make(map[string]int)
	for i, ref := range region.Ours {
		if key := ref.Key(opts); !identity.IsAnonymous(key) {
			if _, dup := oursByKey[key]; !dup {
				oursByKey[key] = i
			}
		}
		if ref.ID != "" {
			oursByID[ref.ID] = i
		}
	}

	oursMatched := make(map[int]bool)
	theirsMatched := make(map[int]bool)

	// First pass: dedupe key
	for j, theirs := range region.Theirs {
		key := theirs.Key(opts)
		if identity.IsAnonymous(key) {
			continue
		}
		if i, ok := oursByKey[key]; ok && !oursMatched[i] {
			result.Matches = append(result.Matches, Match{Ours: region.Ours[i], Theirs: theirs, Key: key})
			oursMatched[i] = true
			theirsMatched[j] = true
		}
	}

	// Second pass: ID
	for j, theirs := range region.Theirs {
		if theirsMatched[j] || theirs.ID == "" {
			continue
		}
		if i, ok := oursByID[theirs.ID]; ok && !oursMatched[i] {
			result.Matches = append(result.Matches, Match{Ours: region.Ours[i], Theirs: theirs, Key: "id:" + theirs.ID})
			oursMatched[i] = true
			theirsMatched[j] = true
		}
	}

	for i, ref := range region.Ours {
		if !oursMatched[i] {
			result.OursOnly = append(result.OursOnly, ref)
		}
	}
	for j, ref := range region.Theirs {
		if !theirsMatched[j] {
			result.TheirsOnly = append(result.TheirsOnly, ref)
		}
	}

	return result
}
