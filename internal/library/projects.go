package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/document"
	"github.com/matsen/citenum/internal/markers"
	"github.com/matsen/citenum/internal/numbering"
	"github.com/matsen/citenum/internal/storage"
)

// CreateProject adds an empty project.
func (l *Library) CreateProject(p document.Project) (*document.Project, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := p.ValidateForCreate(); err != nil {
		return nil, err
	}

	path := config.ProjectsPath(l.root)
	projects, err := storage.ReadAllProjects(path)
	if err != nil {
		return nil, err
	}
	if _, found := storage.FindProjectByID(projects, p.ID); found {
		return nil, fmt.Errorf("%w: %s", document.ErrDuplicateID, p.ID)
	}

	if p.Documents == nil {
		p.Documents = []string{}
	}
	p.Touch()
	if err := storage.AppendProject(path, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Projects returns every project.
func (l *Library) Projects() ([]document.Project, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return storage.ReadAllProjects(config.ProjectsPath(l.root))
}

// CreateDocument adds an empty document to the end of its project. When
// ContentPath is empty a content file is created under content/.
func (l *Library) CreateDocument(d document.Document) (*document.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := d.ValidateForCreate(); err != nil {
		return nil, err
	}
	if d.Format == "" {
		d.Format = l.cfg.DefaultFormat
	}
	format, err := markers.ParseFormat(d.Format)
	if err != nil {
		return nil, err
	}
	d.Format = string(format)

	projectsPath := config.ProjectsPath(l.root)
	projects, err := storage.ReadAllProjects(projectsPath)
	if err != nil {
		return nil, err
	}
	pidx, found := storage.FindProjectByID(projects, d.ProjectID)
	if !found {
		return nil, fmt.Errorf("%w: %s", document.ErrProjectNotFound, d.ProjectID)
	}

	docsPath := config.DocumentsPath(l.root)
	docs, err := storage.ReadAllDocuments(docsPath)
	if err != nil {
		return nil, err
	}
	if _, found := storage.FindDocumentByID(docs, d.ID); found {
		return nil, fmt.Errorf("%w: %s", document.ErrDuplicateID, d.ID)
	}

	if d.ContentPath == "" {
		d.ContentPath = filepath.Join(config.ContentDir, d.ID+format.Extension())
		path := l.contentFile(d)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating content dir: %w", err)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, nil, 0644); err != nil {
				return nil, fmt.Errorf("creating content file: %w", err)
			}
		}
	}
	if d.Citations == nil {
		d.Citations = []numbering.Citation{}
	}
	d.Touch()

	if err := storage.AppendDocument(docsPath, d); err != nil {
		return nil, err
	}

	projects[pidx].Documents = append(projects[pidx].Documents, d.ID)
	projects[pidx].Touch()
	if err := storage.WriteAllProjects(projectsPath, projects); err != nil {
		return nil, err
	}
	return &d, nil
}

// Documents returns the documents of a project in reading order.
func (l *Library) Documents(projectID string) ([]document.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	projects, err := storage.ReadAllProjects(config.ProjectsPath(l.root))
	if err != nil {
		return nil, err
	}
	idx, found := storage.FindProjectByID(projects, projectID)
	if !found {
		return nil, fmt.Errorf("%w: %s", document.ErrProjectNotFound, projectID)
	}

	docs, err := storage.ReadAllDocuments(config.DocumentsPath(l.root))
	if err != nil {
		return nil, err
	}
	return storage.DocumentsInProject(docs, projects[idx]), nil
}
