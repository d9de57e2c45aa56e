package storage

import (
	"github.com/matsen/citenum/internal/document"
)

// ReadAllProjects reads all projects from a JSONL file.
// Returns an error if any project fails structural validation (fail-fast).
func ReadAllProjects(path string) ([]document.Project, error) {
	return readJSONL(path, "project", func(p *document.Project) error {
		return p.ValidateForCreate()
	})
}

// AppendProject adds a project to the end of a JSONL file.
func AppendProject(path string, p document.Project) error {
	return appendJSONL(path, "project", p)
}

// WriteAllProjects writes all projects to a JSONL file, replacing existing content.
func WriteAllProjects(path string, projects []document.Project) error {
	return writeJSONL(path, "project", projects)
}

// FindProjectByID searches for a project by its ID in an in-memory slice.
// Returns the index and true if found, -1 and false otherwise.
func FindProjectByID(projects []document.Project, id string) (int, bool) {
	for i, p := range projects {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

// UpsertProjectInSlice adds or updates a project in an in-memory slice.
// Returns the updated slice and true if the project was updated, false if added.
func UpsertProjectInSlice(projects []document.Project, p document.Project) ([]document.Project, bool) {
	if idx, found := FindProjectByID(projects, p.ID); found {
		projects[idx] = p
		return projects, true
	}
	return append(projects, p), false
}
