// Package reference defines the article records kept in a citenum library.
package reference

import (
	"strconv"
	"strings"

	"github.com/matsen/citenum/internal/identity"
)

// Reference is a canonical article in the library. Citations point at it by ID.
type Reference struct {
	// Identity
	ID   string `json:"id"`             // Internal stable identifier
	PMID string `json:"pmid,omitempty"` // PubMed ID (first dedupe key)
	DOI  string `json:"doi,omitempty"`  // Digital Object Identifier (second dedupe key)

	// Metadata
	Title    string   `json:"title"`
	Authors  []Author `json:"authors"`
	Abstract string   `json:"abstract,omitempty"`
	Venue    string   `json:"venue,omitempty"` // Journal, conference, or preprint server

	// Publication Date
	Published PublicationDate `json:"published"`

	// Local PDF (relative to configured PDF root)
	PDFPath string `json:"pdf_path,omitempty"`

	// Import Tracking
	Source ImportSource `json:"source"`

	// IDs of records that were merged into this one by dedupe
	MergedFrom []string `json:"merged_from,omitempty"`
}

// PublicationDate represents a publication date with optional month and day.
type PublicationDate struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"` // 1-12, 0 if unknown
	Day   int `json:"day,omitempty"`   // 1-31, 0 if unknown
}

// ImportSource tracks where a reference was imported from.
type ImportSource struct {
	Type string `json:"type"` // paperpile, pubmed, search, pdf, manual
	ID   string `json:"id"`   // Original ID from source system
}

// Identity returns the record as a resolution candidate. Authors are
// rendered "Last First" so the first-author key is the family name first.
func (r Reference) Identity() identity.ArticleIdentity {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		names = append(names, a.SortName())
	}
	var authors identity.AuthorList
	if len(names) > 0 {
		authors = identity.Authors(names...)
	}
	return identity.ArticleIdentity{
		PMID:     r.PMID,
		DOI:      r.DOI,
		Title:    r.Title,
		Year:     identity.Year(r.Published.Year),
		Authors:  authors,
		Source:   r.Source.Type,
		RecordID: r.ID,
	}
}

// Key returns the dedupe key of the record.
func (r Reference) Key(opts identity.Options) string {
	return identity.DedupeKey(r.Identity(), opts)
}

// FromIdentity builds a reference from a harvested identity. String-form
// author lists are split on commas; each name becomes an Author with the
// first word as the family name.
func FromIdentity(item identity.ArticleIdentity) Reference {
	var names []string
	if len(item.Authors.Names) > 0 {
		names = item.Authors.Names
	} else if item.Authors.Text != "" {
		names = strings.Split(item.Authors.Text, ",")
	}

	var authors []Author
	for _, n := range names {
		if a, ok := ParseSortName(n); ok {
			authors = append(authors, a)
		}
	}

	return Reference{
		ID:        item.RecordID,
		PMID:      strings.TrimSpace(item.PMID),
		DOI:       identity.NormalizeDOI(item.DOI),
		Title:     strings.TrimSpace(item.Title),
		Authors:   authors,
		Published: PublicationDate{Year: int(item.Year)},
		Source:    ImportSource{Type: item.Source, ID: item.RecordID},
	}
}

// BaseID derives a citekey-style ID such as "Smith2021" from a reference.
func (r Reference) BaseID() string {
	last := "anon"
	if len(r.Authors) > 0 && r.Authors[0].Last != "" {
		last = r.Authors[0].Last
	}
	var b strings.Builder
	for _, c := range last {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	id := b.String()
	if id == "" {
		id = "anon"
	}
	if r.Published.Year > 0 {
		id += strconv.Itoa(r.Published.Year)
	}
	return id
}
