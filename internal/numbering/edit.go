package numbering

import (
	"errors"
	"fmt"
)

// Edit errors.
var (
	ErrCitationNotFound = errors.New("citation not found")
	ErrOrderMismatch    = errors.New("order must list every citation in scope exactly once")
)

// Insert places c at position at (clamped to the list bounds), gives it the
// numbers NextNumbersForNewCitation picks for its source and resequences the
// scope so sources stay in first-appearance order.
func Insert(cs []Citation, at int, c Citation) []Citation {
	nums := NextNumbersForNewCitation(cs, c.sourceKey())
	c.InlineNumber = nums.InlineNumber
	c.SubNumber = nums.SubNumber

	if at < 0 {
		at = 0
	}
	if at > len(cs) {
		at = len(cs)
	}

	out := make([]Citation, 0, len(cs)+1)
	out = append(out, cs[:at]...)
	out = append(out, c)
	out = append(out, cs[at:]...)
	return Resequence(out)
}

// Delete removes the citation with the given id and compactifies the rest.
// The second result is false when no such citation exists, in which case
// the scope is returned compactified but otherwise unchanged.
func Delete(cs []Citation, id string) ([]Citation, bool) {
	out := make([]Citation, 0, len(cs))
	found := false
	for _, c := range cs {
		if c.ID == id {
			found = true
			continue
		}
		out = append(out, c)
	}
	return Compactify(out), found
}

// Reorder permutes the scope into the given citation id order and
// resequences it. ids must name every citation exactly once.
func Reorder(cs []Citation, ids []string) ([]Citation, error) {
	if len(ids) != len(cs) {
		return nil, fmt.Errorf("%w: got %d ids for %d citations", ErrOrderMismatch, len(ids), len(cs))
	}

	byID := make(map[string]Citation, len(cs))
	for _, c := range cs {
		byID[c.ID] = c
	}

	used := make(map[string]bool, len(ids))
	out := make([]Citation, 0, len(cs))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCitationNotFound, id)
		}
		if used[id] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrOrderMismatch, id)
		}
		used[id] = true
		out = append(out, c)
	}
	return Resequence(out), nil
}

// Move moves one citation to position to (clamped) and resequences.
func Move(cs []Citation, id string, to int) ([]Citation, error) {
	from := -1
	for i, c := range cs {
		if c.ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		return nil, fmt.Errorf("%w: %s", ErrCitationNotFound, id)
	}

	moved := cs[from]
	rest := make([]Citation, 0, len(cs))
	rest = append(rest, cs[:from]...)
	rest = append(rest, cs[from+1:]...)

	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}

	out := make([]Citation, 0, len(cs))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	return Resequence(out), nil
}
