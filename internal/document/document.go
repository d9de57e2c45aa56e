// Package document defines projects and the documents that cite articles.
package document

import (
	"errors"
	"regexp"
	"time"

	"github.com/matsen/citenum/internal/numbering"
)

// Project is an ordered set of documents whose citations share one
// numbering (e.g. the chapters of a thesis).
type Project struct {
	ID          string   `json:"id"`                    // Required: unique identifier
	Name        string   `json:"name"`                  // Required: human-readable display name
	Description string   `json:"description,omitempty"` // Optional
	Documents   []string `json:"documents"`             // Document IDs in reading order
	CreatedAt   string   `json:"created_at,omitempty"`  // RFC3339, auto-set on create
	UpdatedAt   string   `json:"updated_at,omitempty"`  // RFC3339, auto-set on update
}

// Document is one piece of long-form text and its citations, in order of
// first appearance in the content.
type Document struct {
	ID          string               `json:"id"`
	ProjectID   string               `json:"project_id"`
	Title       string               `json:"title"`
	ContentPath string               `json:"content_path,omitempty"` // Body file, relative to repo root
	Format      string               `json:"format,omitempty"`       // html or markdown
	Citations   []numbering.Citation `json:"citations"`
	UpdatedAt   string               `json:"updated_at,omitempty"`
}

// IDPattern is the regex pattern for valid project and document IDs.
// Must start with alphanumeric, followed by alphanumeric, hyphens, or underscores.
var IDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validation errors.
var (
	ErrEmptyID          = errors.New("id is required")
	ErrInvalidID        = errors.New("id must match pattern: lowercase alphanumeric, hyphens, underscores; must start with alphanumeric")
	ErrEmptyName        = errors.New("name is required")
	ErrEmptyProjectID   = errors.New("project_id is required")
	ErrDuplicateID      = errors.New("an entry with this id already exists")
	ErrProjectNotFound  = errors.New("project not found")
	ErrDocumentNotFound = errors.New("document not found")
)

// ValidateForCreate validates a project for creation.
func (p *Project) ValidateForCreate() error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// ValidateForCreate validates a document for creation.
func (d *Document) ValidateForCreate() error {
	if err := ValidateID(d.ID); err != nil {
		return err
	}
	if d.ProjectID == "" {
		return ErrEmptyProjectID
	}
	return nil
}

// ValidateID validates just the ID field (useful for lookup operations).
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if !IDPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// Touch sets UpdatedAt (and CreatedAt if unset) to now.
func (p *Project) Touch() {
	now := time.Now().UTC().Format(time.RFC3339)
	if p.CreatedAt == "" {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// Touch sets UpdatedAt to now.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// IndexOf returns the position of docID in the project's reading order.
func (p *Project) IndexOf(docID string) int {
	for i, id := range p.Documents {
		if id == docID {
			return i
		}
	}
	return -1
}

// MoveDocument moves docID to position to (clamped) in the reading order.
func (p *Project) MoveDocument(docID string, to int) error {
	from := p.IndexOf(docID)
	if from == -1 {
		return ErrDocumentNotFound
	}

	rest := make([]string, 0, len(p.Documents))
	rest = append(rest, p.Documents[:from]...)
	rest = append(rest, p.Documents[from+1:]...)

	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}

	order := make([]string, 0, len(p.Documents))
	order = append(order, rest[:to]...)
	order = append(order, docID)
	order = append(order, rest[to:]...)
	p.Documents = order
	return nil
}
