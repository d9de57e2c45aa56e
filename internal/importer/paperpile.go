// Package importer converts external exports into article records.
package importer

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/matsen/citenum/internal/identity"
	"github.com/matsen/citenum/internal/reference"
)

// FlexibleString can unmarshal from either string or number JSON values.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// PaperpileEntry represents a single entry from a Paperpile JSON export.
type PaperpileEntry struct {
	ID        string         `json:"_id"`
	Citekey   string         `json:"citekey"`
	DOI       string         `json:"doi"`
	PMID      FlexibleString `json:"pmid"`
	Title     string         `json:"title"`
	Abstract  string         `json:"abstract"`
	Journal   string         `json:"journal"`
	Published struct {
		Year  FlexibleString `json:"year"`
		Month FlexibleString `json:"month"`
		Day   FlexibleString `json:"day"`
	} `json:"published"`
	Author []struct {
		First string `json:"first"`
		Last  string `json:"last"`
		ORCID string `json:"orcid"`
	} `json:"author"`
	Attachments []struct {
		ID         string `json:"_id"`
		ArticlePDF int    `json:"article_pdf"` // 1 = main PDF, 0 = supplement
		Filename   string `json:"filename"`
	} `json:"attachments"`
}

// ParsePaperpile parses a Paperpile JSON export and returns references.
// Entries that cannot be converted are reported and skipped.
func ParsePaperpile(data []byte) ([]reference.Reference, []error) {
	var entries []PaperpileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, []error{fmt.Errorf("parsing Paperpile JSON: %w", err)}
	}

	var refs []reference.Reference
	var errs []error

	for i, entry := range entries {
		ref, err := paperpileEntryToReference(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, entry.Citekey, err))
			continue
		}
		refs = append(refs, ref)
	}

	return refs, errs
}

// paperpileEntryToReference converts a Paperpile entry to a Reference.
func paperpileEntryToReference(entry PaperpileEntry) (reference.Reference, error) {
	if entry.Title == "" {
		return reference.Reference{}, fmt.Errorf("missing required field 'title'")
	}

	authors := make([]reference.Author, 0, len(entry.Author))
	for _, a := range entry.Author {
		authors = append(authors, reference.Author{First: a.First, Last: a.Last, ORCID: a.ORCID})
	}

	var pubDate reference.PublicationDate
	if y := entry.Published.Year.String(); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return reference.Reference{}, fmt.Errorf("invalid year: %s", y)
		}
		pubDate.Year = year
	}
	if month, err := strconv.Atoi(entry.Published.Month.String()); err == nil && month >= 1 && month <= 12 {
		pubDate.Month = month
	}
	if day, err := strconv.Atoi(entry.Published.Day.String()); err == nil && day >= 1 && day <= 31 {
		pubDate.Day = day
	}

	var pdfPath string
	for _, att := range entry.Attachments {
		if att.ArticlePDF == 1 {
			pdfPath = att.Filename
			break
		}
	}

	// Use citekey as ID, falling back to Paperpile ID if no citekey
	id := entry.Citekey
	if id == "" {
		id = entry.ID
	}

	return reference.Reference{
		ID:        id,
		PMID:      entry.PMID.String(),
		DOI:       identity.NormalizeDOI(entry.DOI),
		Title:     entry.Title,
		Authors:   authors,
		Abstract:  entry.Abstract,
		Venue:     entry.Journal,
		Published: pubDate,
		PDFPath:   pdfPath,
		Source:    reference.ImportSource{Type: "paperpile", ID: entry.ID},
	}, nil
}
