package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/citenum/internal/document"
	"github.com/matsen/citenum/internal/reference"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectArticleFields contains the standard field list for SELECT queries.
const selectArticleFields = `id, pmid, doi, title, abstract, venue,
	pub_year, pub_month, pub_day,
	pdf_path, source_type, source_id, authors_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			pmid TEXT,
			doi TEXT,
			title TEXT NOT NULL,
			abstract TEXT,
			venue TEXT,
			pub_year INTEGER NOT NULL,
			pub_month INTEGER,
			pub_day INTEGER,
			pdf_path TEXT,
			source_type TEXT NOT NULL,
			source_id TEXT,
			authors_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_articles_doi ON articles(doi) WHERE doi IS NOT NULL AND doi != '';
		CREATE INDEX IF NOT EXISTS idx_articles_pmid ON articles(pmid) WHERE pmid IS NOT NULL AND pmid != '';

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
			id,
			title,
			abstract,
			authors_text,
			pub_year
		);

		-- One row per citation, flattened across documents
		CREATE TABLE IF NOT EXISTS citations (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			article_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			inline_number INTEGER NOT NULL,
			sub_number INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_citations_article ON citations(article_id);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from the articles
// and documents JSONL files. Returns the number of articles and citations loaded.
func (d *DB) RebuildFromJSONL(articlesPath, documentsPath string) (int, int, error) {
	refs, err := ReadAll(articlesPath)
	if err != nil {
		return 0, 0, fmt.Errorf("reading articles: %w", err)
	}
	docs, err := ReadAllDocuments(documentsPath)
	if err != nil {
		return 0, 0, fmt.Errorf("reading documents: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("beginning rebuild: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"articles", "articles_fts", "citations"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	if err := insertArticles(tx, refs); err != nil {
		return 0, 0, err
	}
	nCitations, err := insertCitations(tx, docs)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(refs), nCitations, nil
}

func insertArticles(tx *sql.Tx, refs []reference.Reference) error {
	articleStmt, err := tx.Prepare(`
		INSERT INTO articles (
			id, pmid, doi, title, abstract, venue,
			pub_year, pub_month, pub_day,
			pdf_path, source_type, source_id, authors_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing articles insert: %w", err)
	}
	defer articleStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO articles_fts (id, title, abstract, authors_text, pub_year)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, ref := range refs {
		authorsJSON, err := json.Marshal(ref.Authors)
		if err != nil {
			return fmt.Errorf("marshaling authors for %s: %w", ref.ID, err)
		}

		_, err = articleStmt.Exec(
			ref.ID, nullableStringValue(ref.PMID), nullableStringValue(ref.DOI),
			ref.Title, ref.Abstract, ref.Venue,
			ref.Published.Year, ref.Published.Month, ref.Published.Day,
			ref.PDFPath, ref.Source.Type, ref.Source.ID, string(authorsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting article %s: %w", ref.ID, err)
		}

		_, err = ftsStmt.Exec(ref.ID, ref.Title, ref.Abstract, formatAuthorsText(ref.Authors), strconv.Itoa(ref.Published.Year))
		if err != nil {
			return fmt.Errorf("inserting fts for %s: %w", ref.ID, err)
		}
	}
	return nil
}

func insertCitations(tx *sql.Tx, docs []document.Document) (int, error) {
	stmt, err := tx.Prepare(`
		INSERT INTO citations (id, project_id, document_id, article_id, position, inline_number, sub_number)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing citations insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, doc := range docs {
		for pos, c := range doc.Citations {
			_, err := stmt.Exec(c.ID, doc.ProjectID, doc.ID, c.ArticleID, pos, c.InlineNumber, c.SubNumber)
			if err != nil {
				return 0, fmt.Errorf("inserting citation %s: %w", c.ID, err)
			}
			n++
		}
	}
	return n, nil
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(authors []reference.Author) string {
	var names []string
	for _, a := range authors {
		if a.First != "" {
			names = append(names, a.First+" "+a.Last)
		} else {
			names = append(names, a.Last)
		}
	}
	return strings.Join(names, ", ")
}

// GetByID retrieves an article by its ID. Returns nil, nil when absent.
func (d *DB) GetByID(id string) (*reference.Reference, error) {
	row := d.db.QueryRow(`SELECT `+selectArticleFields+` FROM articles WHERE id = ?`, id)
	return scanReference(row)
}

// Search performs a full-text search and returns matching articles.
// A limit of 0 or less returns every match.
func (d *DB) Search(query string, limit int) ([]reference.Reference, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(`
		SELECT `+selectArticleFields+`
		FROM articles
		WHERE id IN (SELECT id FROM articles_fts WHERE articles_fts MATCH ?)
		ORDER BY id
		LIMIT ?`, prepareFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// ListAll returns all articles, optionally limited.
func (d *DB) ListAll(limit int) ([]reference.Reference, error) {
	query := `SELECT ` + selectArticleFields + ` FROM articles ORDER BY id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = []any{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// Count returns the total number of articles.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// CitationSite is one place an article is cited.
type CitationSite struct {
	CitationID   string `json:"citation_id"`
	ProjectID    string `json:"project_id"`
	DocumentID   string `json:"document_id"`
	Position     int    `json:"position"`
	InlineNumber int    `json:"inline_number"`
	SubNumber    int    `json:"sub_number"`
}

// CitedIn returns every citation of articleID, ordered by project, document, position.
func (d *DB) CitedIn(articleID string) ([]CitationSite, error) {
	rows, err := d.db.Query(`
		SELECT id, project_id, document_id, position, inline_number, sub_number
		FROM citations
		WHERE article_id = ?
		ORDER BY project_id, document_id, position
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("querying citations of %s: %w", articleID, err)
	}
	defer rows.Close()

	var sites []CitationSite
	for rows.Next() {
		var s CitationSite
		if err := rows.Scan(&s.CitationID, &s.ProjectID, &s.DocumentID, &s.Position, &s.InlineNumber, &s.SubNumber); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// UncitedArticles returns IDs of articles no citation points at.
func (d *DB) UncitedArticles() ([]string, error) {
	rows, err := d.db.Query(`
		SELECT id FROM articles
		WHERE id NOT IN (SELECT DISTINCT article_id FROM citations)
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying uncited articles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanReference(s scanner) (*reference.Reference, error) {
	var ref reference.Reference
	var pmid, doi, abstract, venue, pdfPath, sourceID sql.NullString
	var pubMonth, pubDay sql.NullInt64
	var authorsJSON string

	err := s.Scan(
		&ref.ID, &pmid, &doi, &ref.Title, &abstract, &venue,
		&ref.Published.Year, &pubMonth, &pubDay,
		&pdfPath, &ref.Source.Type, &sourceID, &authorsJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	ref.PMID = pmid.String
	ref.DOI = doi.String
	ref.Abstract = abstract.String
	ref.Venue = venue.String
	ref.PDFPath = pdfPath.String
	ref.Source.ID = sourceID.String
	ref.Published.Month = int(pubMonth.Int64)
	ref.Published.Day = int(pubDay.Int64)

	if err := json.Unmarshal([]byte(authorsJSON), &ref.Authors); err != nil {
		return nil, fmt.Errorf("parsing authors JSON for %s: %w", ref.ID, err)
	}

	return &ref, nil
}

func scanReferences(rows *sql.Rows) ([]reference.Reference, error) {
	var refs []reference.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			refs = append(refs, *ref)
		}
	}
	return refs, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
