package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/matsen/citenum/internal/identity"
	"github.com/matsen/citenum/internal/reference"
)

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParsePubMed reads a PubMed efetch XML document (PubmedArticleSet) and
// returns one reference per PubmedArticle.
func ParsePubMed(r io.Reader) ([]reference.Reference, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing PubMed XML: %w", err)
	}

	articles, err := xmlquery.QueryAll(doc, "//PubmedArticle")
	if err != nil {
		return nil, fmt.Errorf("querying PubMed XML: %w", err)
	}

	refs := make([]reference.Reference, 0, len(articles))
	for _, a := range articles {
		refs = append(refs, pubmedArticle(a))
	}
	return refs, nil
}

func pubmedArticle(n *xmlquery.Node) reference.Reference {
	pmid := text(n, "MedlineCitation/PMID")

	doi := text(n, "PubmedData/ArticleIdList/ArticleId[@IdType='doi']")
	if doi == "" {
		doi = text(n, "MedlineCitation/Article/ELocationID[@EIdType='doi']")
	}

	var abstract []string
	for _, p := range all(n, "MedlineCitation/Article/Abstract/AbstractText") {
		if t := strings.TrimSpace(p.InnerText()); t != "" {
			abstract = append(abstract, t)
		}
	}

	var authors []reference.Author
	for _, a := range all(n, "MedlineCitation/Article/AuthorList/Author") {
		if last := text(a, "LastName"); last != "" {
			first := text(a, "ForeName")
			if first == "" {
				first = text(a, "Initials")
			}
			authors = append(authors, reference.Author{First: first, Last: last})
		} else if group := text(a, "CollectiveName"); group != "" {
			authors = append(authors, reference.Author{Last: group})
		}
	}

	return reference.Reference{
		PMID:      pmid,
		DOI:       identity.NormalizeDOI(doi),
		Title:     strings.TrimSuffix(text(n, "MedlineCitation/Article/ArticleTitle"), "."),
		Authors:   authors,
		Abstract:  strings.Join(abstract, "\n\n"),
		Venue:     text(n, "MedlineCitation/Article/Journal/Title"),
		Published: pubmedDate(n),
		Source:    reference.ImportSource{Type: "pubmed", ID: pmid},
	}
}

// pubmedDate reads Journal PubDate, falling back to the leading year of
// MedlineDate ("2019 Nov-Dec").
func pubmedDate(n *xmlquery.Node) reference.PublicationDate {
	const base = "MedlineCitation/Article/Journal/JournalIssue/PubDate/"

	var d reference.PublicationDate
	year := text(n, base+"Year")
	if year == "" {
		if fields := strings.Fields(text(n, base+"MedlineDate")); len(fields) > 0 {
			year = fields[0]
		}
	}
	d.Year, _ = strconv.Atoi(year)

	if m := text(n, base+"Month"); m != "" {
		if v, err := strconv.Atoi(m); err == nil && v >= 1 && v <= 12 {
			d.Month = v
		} else if len(m) >= 3 {
			d.Month = monthNames[strings.ToLower(m[:3])]
		}
	}
	if v, err := strconv.Atoi(text(n, base+"Day")); err == nil && v >= 1 && v <= 31 {
		d.Day = v
	}
	return d
}

// text returns the trimmed inner text of the first node matching expr.
func text(n *xmlquery.Node, expr string) string {
	found, err := xmlquery.Query(n, expr)
	if err != nil || found == nil {
		return ""
	}
	return strings.TrimSpace(found.InnerText())
}

// all returns every node matching expr, or nil on a bad expression.
func all(n *xmlquery.Node, expr string) []*xmlquery.Node {
	found, err := xmlquery.QueryAll(n, expr)
	if err != nil {
		return nil
	}
	return found
}
