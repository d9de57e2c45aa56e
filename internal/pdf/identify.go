// Package pdf reads article identifiers out of local PDF files.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/matsen/citenum/internal/identity"
)

// Identifiers are printed on the first pages, if anywhere.
const scanPages = 3

var (
	doiInText  = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)
	pmidInText = regexp.MustCompile(`\bPMID:?\s*(\d{1,9})\b`)
)

// Lines on a first page that are never the title.
var boilerplate = []string{"journal", "copyright", "©", "licen", "received", "accepted", "downloaded"}

// ResolvePath joins a library-relative PDF path onto the PDF root and
// checks that the file exists.
func ResolvePath(pdfRoot, relativePath string) (string, error) {
	if pdfRoot == "" {
		return "", fmt.Errorf("pdf_root not configured")
	}
	if relativePath == "" {
		return "", fmt.Errorf("no PDF path specified")
	}

	fullPath := relativePath
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(pdfRoot, relativePath)
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("PDF not found: %s", fullPath)
		}
		return "", fmt.Errorf("checking PDF: %w", err)
	}

	return fullPath, nil
}

// Identify builds a resolution candidate from the text of a PDF's first
// pages. The DOI comes back normalized, so it keys the same way as the
// library's records.
func Identify(pdfRoot, relativePath string) (identity.ArticleIdentity, error) {
	fullPath, err := ResolvePath(pdfRoot, relativePath)
	if err != nil {
		return identity.ArticleIdentity{}, err
	}

	pages, err := readPages(fullPath, scanPages)
	if err != nil {
		return identity.ArticleIdentity{}, fmt.Errorf("reading %s: %w", relativePath, err)
	}
	return identifyText(pages), nil
}

// readPages returns the plain text of up to n leading pages. Pages that
// cannot be decoded come back empty.
func readPages(path string, n int) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n = min(n, r.NumPage())
	pages := make([]string, n)
	for i := range pages {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		if text, err := page.GetPlainText(nil); err == nil {
			pages[i] = text
		}
	}
	return pages, nil
}

// identifyText picks identifiers out of page text. The first DOI and PMID
// found win. A title is taken from the first page only when neither is
// present, so soft matching has something to work with.
func identifyText(pages []string) identity.ArticleIdentity {
	item := identity.ArticleIdentity{Source: "pdf"}
	for _, text := range pages {
		if item.DOI == "" {
			item.DOI = scanDOI(text)
		}
		if item.PMID == "" {
			item.PMID = scanPMID(text)
		}
	}
	if item.DOI == "" && item.PMID == "" && len(pages) > 0 {
		item.Title = titleLine(pages[0])
	}
	return item
}

// scanDOI returns the first well-formed DOI in text, normalized.
func scanDOI(text string) string {
	for _, match := range doiInText.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if _, suffix, _ := strings.Cut(match, "/"); len(match) >= 10 && suffix != "" {
			return identity.NormalizeDOI(match)
		}
	}
	return ""
}

func scanPMID(text string) string {
	if m := pmidInText.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// titleLine returns the first substantial line that is not masthead or
// licence text.
func titleLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isBoilerplate(line) {
			return line
		}
	}
	return ""
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range boilerplate {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return (strings.Contains(lower, "volume") && strings.Contains(lower, "issue")) ||
		(strings.Contains(lower, "article") && strings.Contains(lower, "published"))
}
