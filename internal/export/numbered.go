package export

import (
	"fmt"
	"strings"

	"github.com/matsen/citenum/internal/reference"
)

// Numbered pairs a reference with its inline number in a bibliography.
type Numbered struct {
	Number int
	Ref    reference.Reference
}

// maxListedAuthors is how many authors a list entry names before "et al."
const maxListedAuthors = 3

// ToNumberedList renders a plain-text bibliography, one line per source:
//
//	[1] Smith J, Doe J. Title. Venue (2020). doi:10.1/x
func ToNumberedList(entries []Numbered) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(NumberedLine(e))
		b.WriteString("\n")
	}
	return b.String()
}

// NumberedLine renders a single bibliography line.
func NumberedLine(e Numbered) string {
	ref := e.Ref
	parts := []string{fmt.Sprintf("[%d]", e.Number)}

	if authors := listAuthors(ref.Authors); authors != "" {
		parts = append(parts, authors+".")
	}

	title := strings.TrimSuffix(strings.TrimSpace(ref.Title), ".")
	if title == "" {
		title = ref.ID
	}
	parts = append(parts, title+".")

	var venue string
	switch {
	case ref.Venue != "" && ref.Published.Year > 0:
		venue = fmt.Sprintf("%s (%d).", ref.Venue, ref.Published.Year)
	case ref.Venue != "":
		venue = ref.Venue + "."
	case ref.Published.Year > 0:
		venue = fmt.Sprintf("(%d).", ref.Published.Year)
	}
	if venue != "" {
		parts = append(parts, venue)
	}

	switch {
	case ref.DOI != "":
		parts = append(parts, "doi:"+ref.DOI)
	case ref.PMID != "":
		parts = append(parts, "PMID:"+ref.PMID)
	}

	return strings.Join(parts, " ")
}

// listAuthors formats authors as "Last F, Last F" with initials, truncated
// with "et al.".
func listAuthors(authors []reference.Author) string {
	var names []string
	for i, a := range authors {
		if i == maxListedAuthors {
			names = append(names, "et al")
			break
		}
		name := a.Last
		if initials := initialsOf(a.First); initials != "" {
			name += " " + initials
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func initialsOf(first string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(first, func(r rune) bool { return r == ' ' || r == '-' || r == '.' }) {
		for _, r := range part {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}
