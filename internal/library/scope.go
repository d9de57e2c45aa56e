package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/document"
	"github.com/matsen/citenum/internal/markers"
	"github.com/matsen/citenum/internal/numbering"
	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
)

// Snapshot is the state of one project's citation scope at a revision.
type Snapshot struct {
	Project   document.Project     `json:"project"`
	Documents []document.Document  `json:"documents"` // In project order
	Citations []numbering.Citation `json:"citations"` // Flattened, keys attached
	Revision  string               `json:"revision"`

	allProjects  []document.Project
	allDocuments []document.Document
	articles     map[string]reference.Reference
}

// EditResult describes a committed edit.
type EditResult struct {
	ProjectID string                      `json:"project_id"`
	Revision  string                      `json:"revision"`
	Changes   map[string]numbering.Change `json:"changes"`
	Rewritten []string                    `json:"rewritten,omitempty"` // Documents whose content markers changed
	Citation  *numbering.Citation         `json:"citation,omitempty"`  // The citation an insert created
}

// Snapshot reads the current scope of a project.
func (l *Library) Snapshot(projectID string) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(projectID)
}

// load reads the project scope. Callers hold l.mu.
func (l *Library) load(projectID string) (*Snapshot, error) {
	projects, err := storage.ReadAllProjects(config.ProjectsPath(l.root))
	if err != nil {
		return nil, err
	}
	idx, ok := storage.FindProjectByID(projects, projectID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", document.ErrProjectNotFound, projectID)
	}

	docs, err := storage.ReadAllDocuments(config.DocumentsPath(l.root))
	if err != nil {
		return nil, err
	}
	refs, err := storage.ReadAll(config.ArticlesPath(l.root))
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Project:      projects[idx],
		Documents:    storage.DocumentsInProject(docs, projects[idx]),
		allProjects:  projects,
		allDocuments: docs,
	}

	scope := make([]numbering.DocumentCitations, len(s.Documents))
	for i, d := range s.Documents {
		scope[i] = numbering.DocumentCitations{DocumentID: d.ID, Citations: d.Citations}
	}
	s.Citations = numbering.Flatten(scope)

	s.articles = articleIndex(refs)
	for i := range s.Citations {
		s.Citations[i].Key = l.keyFor(s.Citations[i].ArticleID, s.articles)
	}
	s.Revision = storage.Revision(s.Project.Documents, s.Citations)
	return s, nil
}

// checkRevision rejects a write based on an outdated read.
func checkRevision(s *Snapshot, expected string) error {
	if expected != "" && expected != s.Revision {
		return fmt.Errorf("%w: have %s, expected %s", ErrStaleRevision, short(s.Revision), short(expected))
	}
	return nil
}

func short(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// commit persists a new flattened scope: document citation lists, content
// markers and, if changed, the project's document order. Callers hold l.mu.
func (l *Library) commit(s *Snapshot, next []numbering.Citation, projectChanged bool) (*EditResult, error) {
	changes := numbering.Diff(s.Citations, next)
	revision := storage.Revision(s.Project.Documents, next)
	if revision == s.Revision && !projectChanged {
		return &EditResult{ProjectID: s.Project.ID, Revision: revision, Changes: changes}, nil
	}

	split := numbering.Split(next, s.Project.Documents)
	byDoc := make(map[string][]numbering.Citation, len(split))
	for _, dc := range split {
		byDoc[dc.DocumentID] = dc.Citations
	}

	var rewritten []string
	docs := make([]document.Document, len(s.allDocuments))
	copy(docs, s.allDocuments)
	for i := range docs {
		cites, ok := byDoc[docs[i].ID]
		if !ok || docs[i].ProjectID != s.Project.ID {
			continue
		}
		docs[i].Citations = cites
		docs[i].Touch()

		did, err := l.rewriteMarkers(docs[i], changes)
		if err != nil {
			return nil, err
		}
		if did {
			rewritten = append(rewritten, docs[i].ID)
		}
	}

	if err := storage.WriteAllDocuments(config.DocumentsPath(l.root), docs); err != nil {
		return nil, err
	}
	if projectChanged {
		s.Project.Touch()
		projects, _ := storage.UpsertProjectInSlice(s.allProjects, s.Project)
		if err := storage.WriteAllProjects(config.ProjectsPath(l.root), projects); err != nil {
			return nil, err
		}
	}

	for id, ch := range changes {
		l.logger.Debug("renumbered", "project", s.Project.ID, "citation", id, "old", ch.Old, "new", ch.New)
	}

	return &EditResult{
		ProjectID: s.Project.ID,
		Revision:  revision,
		Changes:   changes,
		Rewritten: rewritten,
	}, nil
}

// rewriteMarkers applies changes to the document's content file, if any.
// Reports whether the file was rewritten.
func (l *Library) rewriteMarkers(d document.Document, changes map[string]numbering.Change) (bool, error) {
	if d.ContentPath == "" || len(changes) == 0 {
		return false, nil
	}

	format, err := markers.ParseFormat(d.Format)
	if err != nil {
		return false, fmt.Errorf("document %s: %w", d.ID, err)
	}

	path := l.contentFile(d)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading content of %s: %w", d.ID, err)
	}

	updated, err := markers.UpdateMarkersInContent(string(data), format, changes)
	if err != nil {
		return false, fmt.Errorf("updating markers in %s: %w", d.ID, err)
	}
	if updated == string(data) {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return false, fmt.Errorf("writing content of %s: %w", d.ID, err)
	}
	return true, nil
}

// contentFile resolves a document's content path against the repository root.
func (l *Library) contentFile(d document.Document) string {
	if filepath.IsAbs(d.ContentPath) {
		return d.ContentPath
	}
	return filepath.Join(l.root, d.ContentPath)
}

// flatOffset returns the scope index where document docID starts and the
// number of citations it holds.
func flatOffset(s *Snapshot, docID string) (int, int, error) {
	offset := 0
	for _, d := range s.Documents {
		if d.ID == docID {
			return offset, len(d.Citations), nil
		}
		offset += len(d.Citations)
	}
	return 0, 0, fmt.Errorf("%w: %s in project %s", document.ErrDocumentNotFound, docID, s.Project.ID)
}
