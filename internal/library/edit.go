package library

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/matsen/citenum/internal/document"
	"github.com/matsen/citenum/internal/numbering"
)

// InsertRequest adds a citation of an article to a document.
type InsertRequest struct {
	ProjectID  string
	DocumentID string
	ArticleID  string
	Position   int // Index within the document; negative or past the end appends
	Note       string
	PageRange  string
	Revision   string // Optional; rejects the write if the scope moved on
}

// InsertCitation adds a new citation and renumbers the project scope.
func (l *Library) InsertCitation(req InsertRequest) (*EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(req.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkRevision(s, req.Revision); err != nil {
		return nil, err
	}
	if _, ok := s.articles[req.ArticleID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, req.ArticleID)
	}

	offset, n, err := flatOffset(s, req.DocumentID)
	if err != nil {
		return nil, err
	}
	pos := req.Position
	if pos < 0 || pos > n {
		pos = n
	}

	c := numbering.Citation{
		ID:         uuid.NewString(),
		DocumentID: req.DocumentID,
		ArticleID:  req.ArticleID,
		Note:       req.Note,
		PageRange:  req.PageRange,
		Key:        l.keyFor(req.ArticleID, s.articles),
	}
	next := numbering.Insert(s.Citations, offset+pos, c)

	res, err := l.commit(s, next, false)
	if err != nil {
		return nil, err
	}
	for _, nc := range next {
		if nc.ID == c.ID {
			res.Citation = &nc
			break
		}
	}
	return res, nil
}

// DeleteCitation removes a citation and compactifies the project scope.
func (l *Library) DeleteCitation(projectID, citationID, revision string) (*EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(projectID)
	if err != nil {
		return nil, err
	}
	if err := checkRevision(s, revision); err != nil {
		return nil, err
	}

	next, found := numbering.Delete(s.Citations, citationID)
	if !found {
		return nil, fmt.Errorf("%w: %s", numbering.ErrCitationNotFound, citationID)
	}
	return l.commit(s, next, false)
}

// MoveRequest moves a citation within or between documents of one project.
type MoveRequest struct {
	ProjectID  string
	CitationID string
	DocumentID string // Target document; empty keeps the current one
	Position   int    // Index within the target document after removal
	Revision   string
}

// MoveCitation relocates a citation and resequences the scope so sources
// keep first-appearance order.
func (l *Library) MoveCitation(req MoveRequest) (*EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(req.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkRevision(s, req.Revision); err != nil {
		return nil, err
	}

	from := -1
	for i, c := range s.Citations {
		if c.ID == req.CitationID {
			from = i
			break
		}
	}
	if from == -1 {
		return nil, fmt.Errorf("%w: %s", numbering.ErrCitationNotFound, req.CitationID)
	}

	moved := s.Citations[from]
	target := req.DocumentID
	if target == "" {
		target = moved.DocumentID
	}
	if s.Project.IndexOf(target) == -1 {
		return nil, fmt.Errorf("%w: %s in project %s", document.ErrDocumentNotFound, target, s.Project.ID)
	}

	var next []numbering.Citation
	if target == moved.DocumentID {
		offset, n, _ := flatOffset(s, target)
		next, err = numbering.Move(s.Citations, moved.ID, offset+clamp(req.Position, n-1))
		if err != nil {
			return nil, err
		}
	} else {
		next = moveAcross(s, from, target, req.Position)
	}

	return l.commit(s, next, false)
}

// moveAcross removes the citation at index from and inserts it into the
// target document at pos.
func moveAcross(s *Snapshot, from int, target string, pos int) []numbering.Citation {
	moved := s.Citations[from]
	moved.DocumentID = target

	rest := make([]numbering.Citation, 0, len(s.Citations))
	rest = append(rest, s.Citations[:from]...)
	rest = append(rest, s.Citations[from+1:]...)

	offset, n := 0, 0
	for _, d := range s.Documents {
		if d.ID == target {
			n = len(d.Citations)
			break
		}
		count := len(d.Citations)
		if d.ID == s.Citations[from].DocumentID {
			count--
		}
		offset += count
	}
	at := offset + clamp(pos, n)

	out := make([]numbering.Citation, 0, len(s.Citations))
	out = append(out, rest[:at]...)
	out = append(out, moved)
	out = append(out, rest[at:]...)
	return numbering.Resequence(out)
}

// clamp maps out-of-range positions to limit (append).
func clamp(pos, limit int) int {
	if pos < 0 || pos > limit {
		return limit
	}
	return pos
}

// ReorderCitations sets the order of one document's citations. ids must
// list every citation of the document exactly once.
func (l *Library) ReorderCitations(projectID, documentID string, ids []string, revision string) (*EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(projectID)
	if err != nil {
		return nil, err
	}
	if err := checkRevision(s, revision); err != nil {
		return nil, err
	}

	offset, n, err := flatOffset(s, documentID)
	if err != nil {
		return nil, err
	}
	if len(ids) != n {
		return nil, fmt.Errorf("%w: got %d ids for %d citations in %s", numbering.ErrOrderMismatch, len(ids), n, documentID)
	}

	order := make([]string, 0, len(s.Citations))
	for _, c := range s.Citations[:offset] {
		order = append(order, c.ID)
	}
	order = append(order, ids...)
	for _, c := range s.Citations[offset+n:] {
		order = append(order, c.ID)
	}

	// Reorder only checks ids against the whole scope; keep them inside the document.
	inDoc := make(map[string]bool, n)
	for _, c := range s.Citations[offset : offset+n] {
		inDoc[c.ID] = true
	}
	for _, id := range ids {
		if !inDoc[id] {
			return nil, fmt.Errorf("%w: %s in %s", numbering.ErrCitationNotFound, id, documentID)
		}
	}

	next, err := numbering.Reorder(s.Citations, order)
	if err != nil {
		return nil, err
	}
	return l.commit(s, next, false)
}

// MoveDocument changes a document's place in the project's reading order
// and resequences the scope.
func (l *Library) MoveDocument(projectID, documentID string, to int, revision string) (*EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(projectID)
	if err != nil {
		return nil, err
	}
	if err := checkRevision(s, revision); err != nil {
		return nil, err
	}

	if err := s.Project.MoveDocument(documentID, to); err != nil {
		return nil, fmt.Errorf("%w: %s", err, documentID)
	}

	byID := make(map[string][]numbering.Citation, len(s.Documents))
	for _, c := range s.Citations {
		byID[c.DocumentID] = append(byID[c.DocumentID], c)
	}
	scope := make([]numbering.DocumentCitations, 0, len(s.Project.Documents))
	for _, id := range s.Project.Documents {
		scope = append(scope, numbering.DocumentCitations{DocumentID: id, Citations: byID[id]})
	}

	next := numbering.Resequence(numbering.Flatten(scope))
	return l.commit(s, next, true)
}

// RenumberMode selects how Renumber assigns inline numbers.
type RenumberMode int

const (
	// Compact closes gaps while keeping the relative order of existing numbers.
	Compact RenumberMode = iota
	// ByAppearance numbers sources in order of first appearance.
	ByAppearance
)

// Renumber repairs the numbering of a project scope.
func (l *Library) Renumber(projectID string, mode RenumberMode, revision string) (*EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(projectID)
	if err != nil {
		return nil, err
	}
	if err := checkRevision(s, revision); err != nil {
		return nil, err
	}

	var next []numbering.Citation
	switch mode {
	case ByAppearance:
		next = numbering.Resequence(s.Citations)
	default:
		next = numbering.Compactify(s.Citations)
	}
	return l.commit(s, next, false)
}
