package identity

import "sort"

// Result partitions the input of Resolve.
type Result struct {
	Unique     []ArticleIdentity `json:"unique"`
	Duplicates []ArticleIdentity `json:"duplicates"`

	// MergeMap maps the input index of every duplicate to the input index of
	// its canonical record.
	MergeMap map[int]int `json:"merge_map"`

	// Keys holds the dedupe key of every input record, by input index.
	Keys []string `json:"keys"`

	// UniqueIndex and DuplicateIndex hold the input index of each entry of
	// Unique and Duplicates respectively.
	UniqueIndex    []int `json:"unique_index"`
	DuplicateIndex []int `json:"duplicate_index"`
}

// Canonical returns the input index of the canonical record for input
// index i. Canonical records map to themselves.
func (r Result) Canonical(i int) int {
	if c, ok := r.MergeMap[i]; ok {
		return c
	}
	return i
}

// Resolve scans items once, in order. The first record with a given key
// becomes canonical; later records with the same key are duplicates of it.
// Callers that care about provenance should pass the most trusted records
// first.
func Resolve(items []ArticleIdentity, opts Options) Result {
	result := Result{
		Unique:         make([]ArticleIdentity, 0, len(items)),
		Duplicates:     []ArticleIdentity{},
		MergeMap:       make(map[int]int),
		Keys:           make([]string, len(items)),
		UniqueIndex:    make([]int, 0, len(items)),
		DuplicateIndex: []int{},
	}

	canonical := make(map[string]int) // key -> input index of first occurrence

	for i, item := range items {
		key := DedupeKey(item, opts)
		result.Keys[i] = key

		if !IsAnonymous(key) {
			if first, ok := canonical[key]; ok {
				result.Duplicates = append(result.Duplicates, item)
				result.DuplicateIndex = append(result.DuplicateIndex, i)
				result.MergeMap[i] = first
				continue
			}
			canonical[key] = i
		}

		result.Unique = append(result.Unique, item)
		result.UniqueIndex = append(result.UniqueIndex, i)
	}

	return result
}

// Group is a canonical record together with the records merged into it.
type Group struct {
	Key        string `json:"key"`
	Canonical  int    `json:"canonical"`
	Duplicates []int  `json:"duplicates"`
}

// Groups returns one Group per canonical record that absorbed at least one
// duplicate, ordered by canonical input index.
func (r Result) Groups() []Group {
	byCanonical := make(map[int]*Group)
	var order []int
	for _, dup := range r.DuplicateIndex {
		c := r.MergeMap[dup]
		g, ok := byCanonical[c]
		if !ok {
			g = &Group{Key: r.Keys[c], Canonical: c}
			byCanonical[c] = g
			order = append(order, c)
		}
		g.Duplicates = append(g.Duplicates, dup)
	}

	sort.Ints(order)
	groups := make([]Group, 0, len(order))
	for _, c := range order {
		groups = append(groups, *byCanonical[c])
	}
	return groups
}
