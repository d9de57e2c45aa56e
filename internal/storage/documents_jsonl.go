package storage

import (
	"github.com/matsen/citenum/internal/document"
)

// ReadAllDocuments reads all documents from a JSONL file.
// Returns an error if any document fails structural validation (fail-fast).
func ReadAllDocuments(path string) ([]document.Document, error) {
	return readJSONL(path, "document", func(d *document.Document) error {
		return d.ValidateForCreate()
	})
}

// AppendDocument adds a document to the end of a JSONL file.
func AppendDocument(path string, d document.Document) error {
	return appendJSONL(path, "document", d)
}

// WriteAllDocuments writes all documents to a JSONL file, replacing existing content.
func WriteAllDocuments(path string, docs []document.Document) error {
	return writeJSONL(path, "document", docs)
}

// FindDocumentByID searches for a document by its ID in an in-memory slice.
func FindDocumentByID(docs []document.Document, id string) (int, bool) {
	for i, d := range docs {
		if d.ID == id {
			return i, true
		}
	}
	return -1, false
}

// DocumentsInProject returns the project's documents in reading order.
// Document IDs listed by the project but absent from docs are skipped.
func DocumentsInProject(docs []document.Document, p document.Project) []document.Document {
	byID := make(map[string]document.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	out := make([]document.Document, 0, len(p.Documents))
	for _, id := range p.Documents {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
