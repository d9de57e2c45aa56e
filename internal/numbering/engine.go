package numbering

import (
	"math"
	"sort"
)

// FindMinFreeNumber returns the smallest positive integer missing from
// existing. Duplicates and non-positive values are ignored, so [1 2 4 5]
// yields 3, [] yields 1 and [1 2 3] yields 4.
func FindMinFreeNumber(existing []int) int {
	seen := make(map[int]bool, len(existing))
	var sorted []int
	for _, n := range existing {
		if n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)

	for i, n := range sorted {
		if n != i+1 {
			return i + 1
		}
	}
	return len(sorted) + 1
}

// group collects the positions of all citations sharing a source key.
type group struct {
	key     string
	anchor  int   // Smallest assigned inline number in the group
	members []int // Positions, in list order
}

// groupByKey returns groups in order of first appearance.
func groupByKey(cs []Citation) []*group {
	byKey := make(map[string]*group)
	var groups []*group
	for i, c := range cs {
		k := c.sourceKey()
		g, ok := byKey[k]
		if !ok {
			g = &group{key: k, anchor: math.MaxInt}
			byKey[k] = g
			groups = append(groups, g)
		}
		if c.InlineNumber > 0 && c.InlineNumber < g.anchor {
			g.anchor = c.InlineNumber
		}
		g.members = append(g.members, i)
	}
	return groups
}

// renumberSubs assigns sub-numbers 1..M to a group's members, keeping the
// relative order of their current sub-numbers. Unassigned (non-positive)
// sub-numbers sort last; ties keep list order.
func renumberSubs(out []Citation, g *group) {
	members := append([]int(nil), g.members...)
	sort.SliceStable(members, func(a, b int) bool {
		return subOrder(out[members[a]].SubNumber) < subOrder(out[members[b]].SubNumber)
	})
	for i, pos := range members {
		out[pos].SubNumber = i + 1
	}
}

func subOrder(n int) int {
	if n <= 0 {
		return math.MaxInt
	}
	return n
}

// Compactify repairs the numbering of a scope. Sources are ordered by their
// anchor, the smallest inline number any of their citations holds; equal
// anchors keep the order in which the sources first appear in the list.
// Sources are then numbered 1..K and each source's citations are sub-numbered
// 1..M by their current sub-number. Positions and all other fields are kept.
//
// Compactify is idempotent and accepts any input, including empty lists and
// arbitrarily corrupted numbers.
func Compactify(cs []Citation) []Citation {
	out := clone(cs)
	groups := groupByKey(out)

	// groups arrive in first-appearance order; the stable sort keeps that
	// order for equal anchors.
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].anchor < groups[b].anchor
	})

	for n, g := range groups {
		for _, pos := range g.members {
			out[pos].InlineNumber = n + 1
		}
		renumberSubs(out, g)
	}
	return out
}

// Resequence numbers sources 1..K in order of first appearance and
// compacts each source's sub-numbers the same way Compactify does.
func Resequence(cs []Citation) []Citation {
	out := clone(cs)
	for n, g := range groupByKey(out) {
		for _, pos := range g.members {
			out[pos].InlineNumber = n + 1
		}
		renumberSubs(out, g)
	}
	return out
}

// NextNumbersForNewCitation returns the numbers a new citation of the source
// identified by key should take. A source already in scope keeps its inline
// number and gets the smallest free sub-number; a new source gets the
// smallest free inline number and sub-number 1.
//
// key must already be the resolved dedupe key of the new citation's article.
func NextNumbersForNewCitation(cs []Citation, key string) Numbers {
	var inline []int
	var subs []int
	groupInline := 0
	found := false

	for _, c := range cs {
		inline = append(inline, c.InlineNumber)
		if c.sourceKey() == key {
			if !found {
				groupInline = c.InlineNumber
				found = true
			}
			subs = append(subs, c.SubNumber)
		}
	}

	if found {
		return Numbers{InlineNumber: groupInline, SubNumber: FindMinFreeNumber(subs)}
	}
	return Numbers{InlineNumber: FindMinFreeNumber(inline), SubNumber: 1}
}

// Diff returns the inline-number changes between two versions of a scope,
// keyed by citation id. Citations present in only one version are ignored.
func Diff(before, after []Citation) map[string]Change {
	old := make(map[string]int, len(before))
	for _, c := range before {
		old[c.ID] = c.InlineNumber
	}

	changes := make(map[string]Change)
	for _, c := range after {
		prev, ok := old[c.ID]
		if !ok || prev == c.InlineNumber {
			continue
		}
		changes[c.ID] = Change{Old: prev, New: c.InlineNumber}
	}
	return changes
}
