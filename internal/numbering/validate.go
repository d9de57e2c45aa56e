package numbering

import (
	"fmt"
	"sort"
	"strings"
)

// Report is the outcome of Validate.
type Report struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks the numbering of a scope and returns every violation it
// finds, in a deterministic order. It never fails; an empty scope is valid.
func Validate(cs []Citation) Report {
	var errs []string

	// Non-positive numbers
	for _, c := range cs {
		if c.InlineNumber <= 0 {
			errs = append(errs, fmt.Sprintf("citation %s has invalid inline number %d", c.ID, c.InlineNumber))
		}
		if c.SubNumber <= 0 {
			errs = append(errs, fmt.Sprintf("citation %s has invalid sub-number %d", c.ID, c.SubNumber))
		}
	}

	errs = append(errs, checkInlineSequence(cs)...)

	groups := groupByKey(cs)
	errs = append(errs, checkGroupConsistency(cs, groups)...)
	errs = append(errs, checkSharedNumbers(cs, groups)...)
	for _, g := range groups {
		errs = append(errs, checkSubNumbers(cs, g)...)
	}

	if errs == nil {
		errs = []string{}
	}
	return Report{Valid: len(errs) == 0, Errors: errs}
}

// checkInlineSequence verifies the distinct inline numbers are exactly 1..K.
func checkInlineSequence(cs []Citation) []string {
	distinct := distinctPositive(inlineNumbers(cs))
	if len(distinct) == 0 {
		return nil
	}

	var errs []string
	if distinct[0] != 1 {
		errs = append(errs, fmt.Sprintf("inline numbers start at %d, want 1", distinct[0]))
	}

	prev := 0
	for _, n := range distinct {
		for missing := prev + 1; missing < n; missing++ {
			if prev == 0 {
				continue // Reported as a bad start above
			}
			errs = append(errs, fmt.Sprintf("inline number %d is missing (gap between %d and %d)", missing, prev, n))
		}
		prev = n
	}
	return errs
}

// checkGroupConsistency verifies each source uses a single inline number.
func checkGroupConsistency(cs []Citation, groups []*group) []string {
	var errs []string
	for _, g := range groups {
		var nums []int
		for _, pos := range g.members {
			nums = append(nums, cs[pos].InlineNumber)
		}
		if d := distinctPositive(nums); len(d) > 1 {
			errs = append(errs, fmt.Sprintf("source %s has inconsistent inline numbers %v", g.key, d))
		}
	}
	return errs
}

// checkSharedNumbers verifies no inline number is used by two sources.
func checkSharedNumbers(cs []Citation, groups []*group) []string {
	owners := make(map[int][]string)
	for _, g := range groups {
		seen := make(map[int]bool)
		for _, pos := range g.members {
			n := cs[pos].InlineNumber
			if n <= 0 || seen[n] {
				continue
			}
			seen[n] = true
			owners[n] = append(owners[n], g.key)
		}
	}

	var nums []int
	for n, keys := range owners {
		if len(keys) > 1 {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)

	var errs []string
	for _, n := range nums {
		errs = append(errs, fmt.Sprintf("inline number %d is shared by different sources: %s", n, strings.Join(owners[n], ", ")))
	}
	return errs
}

// checkSubNumbers verifies a source's sub-numbers are exactly 1..M.
func checkSubNumbers(cs []Citation, g *group) []string {
	counts := make(map[int]int)
	for _, pos := range g.members {
		if n := cs[pos].SubNumber; n > 0 {
			counts[n]++
		}
	}

	var errs []string
	var dups []int
	for n, count := range counts {
		if count > 1 {
			dups = append(dups, n)
		}
	}
	sort.Ints(dups)
	for _, n := range dups {
		errs = append(errs, fmt.Sprintf("source %s has duplicate sub-number %d", g.key, n))
	}

	for n := 1; n <= len(g.members); n++ {
		if counts[n] == 0 {
			errs = append(errs, fmt.Sprintf("source %s is missing sub-number %d", g.key, n))
		}
	}
	return errs
}

func inlineNumbers(cs []Citation) []int {
	nums := make([]int, len(cs))
	for i, c := range cs {
		nums[i] = c.InlineNumber
	}
	return nums
}

// distinctPositive returns the sorted distinct positive values of nums.
func distinctPositive(nums []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, n := range nums {
		if n > 0 && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
