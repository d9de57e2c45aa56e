package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/citenum/internal/document"
	"github.com/matsen/citenum/internal/numbering"
	"github.com/matsen/citenum/internal/reference"
)

// setupTestDB creates a test database and JSONL files with test data.
func setupTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	articlesPath := filepath.Join(tmpDir, "articles.jsonl")
	documentsPath := filepath.Join(tmpDir, "documents.jsonl")

	refs := []reference.Reference{
		{
			ID:       "Smith2026",
			PMID:     "111",
			DOI:      "10.1234/smith",
			Title:    "Machine Learning in Biology",
			Abstract: "This paper discusses machine learning applications.",
			Venue:    "Nature",
			Authors: []reference.Author{
				{First: "John", Last: "Smith"},
				{First: "Jane", Last: "Doe"},
			},
			Published: reference.PublicationDate{Year: 2026, Month: 3, Day: 15},
			Source:    reference.ImportSource{Type: "pubmed", ID: "111"},
		},
		{
			ID:        "Jones2025",
			DOI:       "10.1234/jones",
			Title:     "Deep Learning for Protein Structure",
			Abstract:  "A study of deep learning methods for proteins.",
			Authors:   []reference.Author{{First: "Alice", Last: "Jones"}},
			Published: reference.PublicationDate{Year: 2025},
			Source:    reference.ImportSource{Type: "paperpile", ID: "def456"},
		},
		{
			ID:        "Brown2024",
			Title:     "Statistical Methods in Genomics",
			Authors:   []reference.Author{{Last: "Brown"}},
			Published: reference.PublicationDate{Year: 2024},
			Source:    reference.ImportSource{Type: "manual"},
		},
	}
	docs := []document.Document{
		{
			ID:        "intro",
			ProjectID: "thesis",
			Citations: []numbering.Citation{
				{ID: "c1", ArticleID: "Smith2026", InlineNumber: 1, SubNumber: 1},
				{ID: "c2", ArticleID: "Jones2025", InlineNumber: 2, SubNumber: 1},
			},
		},
		{
			ID:        "methods",
			ProjectID: "thesis",
			Citations: []numbering.Citation{
				{ID: "c3", ArticleID: "Smith2026", InlineNumber: 1, SubNumber: 2},
			},
		},
	}

	if err := WriteAll(articlesPath, refs); err != nil {
		t.Fatalf("Failed to write test articles: %v", err)
	}
	if err := WriteAllDocuments(documentsPath, docs); err != nil {
		t.Fatalf("Failed to write test documents: %v", err)
	}

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := db.RebuildFromJSONL(articlesPath, documentsPath); err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}

	return db, tmpDir
}

func TestOpenDB_CreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("OpenDB() did not create database file")
	}
}

func TestDB_RebuildFromJSONL(t *testing.T) {
	db, tmpDir := setupTestDB(t)

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	// Rebuild overwrites
	articlesPath := filepath.Join(tmpDir, "articles.jsonl")
	newRefs := []reference.Reference{
		{ID: "New2026", Title: "New Paper", Published: reference.PublicationDate{Year: 2026}, Source: reference.ImportSource{Type: "manual"}},
	}
	if err := WriteAll(articlesPath, newRefs); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	nArticles, nCitations, err := db.RebuildFromJSONL(articlesPath, filepath.Join(tmpDir, "none.jsonl"))
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if nArticles != 1 || nCitations != 0 {
		t.Errorf("RebuildFromJSONL() = (%d, %d), want (1, 0)", nArticles, nCitations)
	}

	count, _ = db.Count()
	if count != 1 {
		t.Errorf("After rebuild, Count() = %d, want 1", count)
	}
}

func TestDB_GetByID(t *testing.T) {
	db, _ := setupTestDB(t)

	ref, err := db.GetByID("Smith2026")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if ref == nil {
		t.Fatal("GetByID() returned nil")
	}
	if ref.PMID != "111" || ref.DOI != "10.1234/smith" || ref.Venue != "Nature" {
		t.Errorf("GetByID() = %+v", ref)
	}
	if ref.Published.Month != 3 || ref.Published.Day != 15 {
		t.Errorf("Published = %+v", ref.Published)
	}
	if len(ref.Authors) != 2 || ref.Authors[1].Last != "Doe" {
		t.Errorf("Authors = %+v", ref.Authors)
	}

	missing, err := db.GetByID("NotFound")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetByID(NotFound) = %+v, want nil", missing)
	}
}

func TestDB_Search(t *testing.T) {
	db, _ := setupTestDB(t)

	tests := []struct {
		query string
		want  int
	}{
		{"learning", 2},
		{"genomics", 1},
		{"Smith", 1},
		{"nonexistent", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			refs, err := db.Search(tt.query, 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(refs) != tt.want {
				t.Errorf("Search(%q) returned %d results, want %d", tt.query, len(refs), tt.want)
			}
		})
	}

	unlimited, err := db.Search("learning", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(unlimited) != 2 {
		t.Errorf("Search(learning, 0) returned %d results, want 2", len(unlimited))
	}
}

func TestDB_ListAll(t *testing.T) {
	db, _ := setupTestDB(t)

	refs, err := db.ListAll(0)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(refs) != 3 || refs[0].ID != "Brown2024" {
		t.Errorf("ListAll(0) = %d refs, first %q", len(refs), refs[0].ID)
	}

	refs, err = db.ListAll(2)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("ListAll(2) returned %d refs, want 2", len(refs))
	}
}

func TestDB_CitedIn(t *testing.T) {
	db, _ := setupTestDB(t)

	sites, err := db.CitedIn("Smith2026")
	if err != nil {
		t.Fatalf("CitedIn() error = %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("CitedIn() returned %d sites, want 2", len(sites))
	}
	if sites[0].DocumentID != "intro" || sites[1].DocumentID != "methods" {
		t.Errorf("sites = %+v", sites)
	}
	if sites[1].SubNumber != 2 {
		t.Errorf("sites[1].SubNumber = %d, want 2", sites[1].SubNumber)
	}

	none, err := db.CitedIn("Brown2024")
	if err != nil {
		t.Fatalf("CitedIn() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("CitedIn(Brown2024) = %+v, want none", none)
	}
}

func TestDB_UncitedArticles(t *testing.T) {
	db, _ := setupTestDB(t)

	ids, err := db.UncitedArticles()
	if err != nil {
		t.Fatalf("UncitedArticles() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "Brown2024" {
		t.Errorf("UncitedArticles() = %v, want [Brown2024]", ids)
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"  padded  ", "padded"},
		{"", ""},
		{"with-dash", `"with-dash"`},
		{`say "hi"`, `"say ""hi"""`},
	}

	for _, tt := range tests {
		if got := prepareFTSQuery(tt.input); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
