package library

import (
	"fmt"
	"os"

	"github.com/matsen/citenum/internal/document"
	"github.com/matsen/citenum/internal/markers"
	"github.com/matsen/citenum/internal/numbering"
)

// CheckResult is the health of one project scope.
type CheckResult struct {
	ProjectID string           `json:"project_id"`
	Revision  string           `json:"revision"`
	Numbering numbering.Report `json:"numbering"`
	Markers   []string         `json:"markers"`  // Disagreements between content and stored numbering
	Dangling  []string         `json:"dangling"` // Citations of articles missing from the library
}

// OK reports whether nothing was found.
func (r *CheckResult) OK() bool {
	return r.Numbering.Valid && len(r.Markers) == 0 && len(r.Dangling) == 0
}

// Check validates a project's numbering, compares content markers with the
// stored citations and lists citations whose article is gone.
func (l *Library) Check(projectID string) (*CheckResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(projectID)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		ProjectID: projectID,
		Revision:  s.Revision,
		Numbering: numbering.Validate(s.Citations),
		Markers:   []string{},
		Dangling:  []string{},
	}

	for _, c := range s.Citations {
		if _, ok := s.articles[c.ArticleID]; !ok {
			result.Dangling = append(result.Dangling, fmt.Sprintf("citation %s cites unknown article %s", c.ID, c.ArticleID))
		}
	}

	for _, d := range s.Documents {
		problems, err := l.checkMarkers(d)
		if err != nil {
			return nil, err
		}
		result.Markers = append(result.Markers, problems...)
	}

	return result, nil
}

// checkMarkers compares the markers in a content file with the document's
// stored citations.
func (l *Library) checkMarkers(d document.Document) ([]string, error) {
	if d.ContentPath == "" {
		return nil, nil
	}
	docID, path, cs := d.ID, l.contentFile(d), d.Citations

	f, err := markers.ParseFormat(d.Format)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", docID, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{fmt.Sprintf("document %s: content file %s is missing", docID, path)}, nil
		}
		return nil, fmt.Errorf("reading content of %s: %w", docID, err)
	}

	found, err := markers.Extract(string(data), f)
	if err != nil {
		return nil, fmt.Errorf("reading markers of %s: %w", docID, err)
	}

	var problems []string
	stored := make(map[string]numbering.Citation, len(cs))
	for _, c := range cs {
		stored[c.ID] = c
	}
	seen := make(map[string]bool, len(found))
	for _, m := range found {
		seen[m.CitationID] = true
		c, ok := stored[m.CitationID]
		if !ok {
			problems = append(problems, fmt.Sprintf("document %s: marker for unknown citation %s", docID, m.CitationID))
			continue
		}
		switch {
		case m.Number != c.InlineNumber:
			problems = append(problems, fmt.Sprintf("document %s: marker %s shows [%d], citation is [%d]", docID, m.CitationID, m.Number, c.InlineNumber))
		case !m.Shows(c.InlineNumber):
			problems = append(problems, fmt.Sprintf("document %s: marker %s displays [%d], citation is [%d]", docID, m.CitationID, m.Visible, c.InlineNumber))
		}
	}
	for _, c := range cs {
		if !seen[c.ID] {
			problems = append(problems, fmt.Sprintf("document %s: citation %s has no marker", docID, c.ID))
		}
	}
	return problems, nil
}

// SyncMarkers rewrites every marker of a project so its visible number
// matches the stored citation. Returns the documents whose content changed.
func (l *Library) SyncMarkers(projectID string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(projectID)
	if err != nil {
		return nil, err
	}

	var rewritten []string
	for _, d := range s.Documents {
		if d.ContentPath == "" {
			continue
		}
		f, err := markers.ParseFormat(d.Format)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", d.ID, err)
		}
		data, err := os.ReadFile(l.contentFile(d))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading content of %s: %w", d.ID, err)
		}
		found, err := markers.Extract(string(data), f)
		if err != nil {
			return nil, fmt.Errorf("reading markers of %s: %w", d.ID, err)
		}

		want := make(map[string]int, len(d.Citations))
		for _, c := range d.Citations {
			want[c.ID] = c.InlineNumber
		}
		changes := make(map[string]numbering.Change)
		for _, m := range found {
			if n, ok := want[m.CitationID]; ok && !m.Shows(n) {
				changes[m.CitationID] = numbering.Change{Old: m.Displayed(), New: n}
			}
		}

		did, err := l.rewriteMarkers(d, changes)
		if err != nil {
			return nil, err
		}
		if did {
			rewritten = append(rewritten, d.ID)
		}
	}
	return rewritten, nil
}
