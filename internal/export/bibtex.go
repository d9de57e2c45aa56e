// Package export renders articles as BibTeX and numbered bibliographies.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/citenum/internal/reference"
)

// bibField is one "name = {value}" line of a BibTeX entry.
type bibField struct {
	name  string
	value string
}

// proceedingsVenues mark a venue as a conference rather than a journal.
var proceedingsVenues = []string{"proceedings", "conference", "workshop", "symposium"}

// ToBibTeX renders one article as a BibTeX entry keyed by its ID.
// Unknown fields are left out, including the year of sparse records.
// IDs the article absorbed through merges are listed under ids so older
// \cite keys keep resolving with biblatex.
func ToBibTeX(ref reference.Reference) string {
	kind := entryType(ref.Venue)

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", kind, ref.ID)
	for _, f := range bibFields(ref, kind) {
		fmt.Fprintf(&b, "  %s = {%s},\n", f.name, f.value)
	}
	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList renders articles as consecutive entries separated by a blank line.
func ToBibTeXList(refs []reference.Reference) string {
	entries := make([]string, len(refs))
	for i, ref := range refs {
		entries[i] = ToBibTeX(ref)
	}
	return strings.Join(entries, "\n")
}

func bibFields(ref reference.Reference, kind string) []bibField {
	var fields []bibField
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, bibField{name, value})
		}
	}

	add("author", bibAuthors(ref.Authors))
	fields = append(fields, bibField{"title", escapeLatex(ref.Title)})
	if kind == "inproceedings" {
		add("booktitle", escapeLatex(ref.Venue))
	} else {
		add("journal", escapeLatex(ref.Venue))
	}
	if ref.Published.Year > 0 {
		add("year", strconv.Itoa(ref.Published.Year))
	}
	if ref.Published.Month > 0 {
		add("month", strconv.Itoa(ref.Published.Month))
	}
	add("doi", ref.DOI)
	add("pmid", ref.PMID)
	add("ids", strings.Join(ref.MergedFrom, ", "))
	add("abstract", escapeLatex(ref.Abstract))
	return fields
}

func entryType(venue string) string {
	v := strings.ToLower(venue)
	for _, word := range proceedingsVenues {
		if strings.Contains(v, word) {
			return "inproceedings"
		}
	}
	return "article"
}

// bibAuthors joins authors as "Last, First and Last, First".
func bibAuthors(authors []reference.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		name := a.Last
		if a.First != "" {
			name += ", " + a.First
		}
		names = append(names, escapeLatex(name))
	}
	return strings.Join(names, " and ")
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

func escapeLatex(s string) string {
	return latexEscaper.Replace(s)
}
