// Package author parses author filters such as "Bloom JD" or "Yu, Timothy"
// and matches them against article author lists.
package author

import (
	"strings"
	"unicode"

	"github.com/matsen/citenum/internal/reference"
)

// Query represents a parsed author filter.
type Query struct {
	First    string // Given name or prefix (may be empty)
	Last     string // Family name (required)
	Initials string // Uppercase initials, set for PubMed-style "Last JD" queries
}

// ParseQuery parses an author filter.
//
// Supported formats:
//   - "Yu"          → last="Yu"
//   - "Timothy Yu"  → first="Timothy", last="Yu"
//   - "Yu, Timothy" → first="Timothy", last="Yu"
//   - "Bloom JD"    → last="Bloom", initials="JD" (PubMed style)
//
// Case is preserved; matching is case-insensitive.
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if input == "" {
		return Query{}
	}

	if idx := strings.Index(input, ","); idx > 0 {
		return Query{
			Last:  strings.TrimSpace(input[:idx]),
			First: strings.TrimSpace(input[idx+1:]),
		}
	}

	parts := strings.Fields(input)
	if len(parts) == 1 {
		return Query{Last: parts[0]}
	}

	if tail := parts[len(parts)-1]; len(parts) == 2 && isInitials(tail) {
		return Query{Last: parts[0], Initials: tail}
	}

	// "Timothy C Yu" → first="Timothy C", last="Yu"
	return Query{
		First: strings.Join(parts[:len(parts)-1], " "),
		Last:  parts[len(parts)-1],
	}
}

// isInitials reports whether s is one to three uppercase letters.
func isInitials(s string) bool {
	if len(s) == 0 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// initialsOf returns the uppercase first letters of each given name.
func initialsOf(first string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(first, func(r rune) bool { return r == ' ' || r == '-' || r == '.' }) {
		for _, r := range part {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

// Matches reports whether the query matches an author. The family name must
// match exactly; a given name matches by prefix, initials by prefix of the
// author's initials. "Yu" does not match "Yujia".
func (q Query) Matches(a reference.Author) bool {
	if !strings.EqualFold(q.Last, a.Last) {
		return false
	}

	switch {
	case q.Initials != "":
		// Stored first names are sometimes already initials ("JD")
		have := initialsOf(a.First)
		if isInitials(a.First) {
			have = a.First
		}
		return strings.HasPrefix(have, q.Initials)
	case q.First != "":
		return strings.HasPrefix(strings.ToLower(a.First), strings.ToLower(q.First))
	default:
		return true
	}
}

// MatchesAny reports whether the query matches any author in the list.
func (q Query) MatchesAny(authors []reference.Author) bool {
	for _, a := range authors {
		if q.Matches(a) {
			return true
		}
	}
	return false
}

// AllMatch reports whether every query matches at least one author.
func AllMatch(queries []Query, authors []reference.Author) bool {
	for _, q := range queries {
		if !q.MatchesAny(authors) {
			return false
		}
	}
	return true
}

// Filter keeps the articles that every query matches, up to limit (0 for all).
func Filter(refs []reference.Reference, queries []Query, limit int) []reference.Reference {
	var out []reference.Reference
	for _, r := range refs {
		if !AllMatch(queries, r.Authors) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
