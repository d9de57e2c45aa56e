package library

import (
	"fmt"
	"os"
	"sort"

	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
)

// BibEntry is one numbered source of a project's bibliography.
type BibEntry struct {
	Number    int                 `json:"number"`
	Article   reference.Reference `json:"article"`
	Citations int                 `json:"citations"` // How many times the source is cited
}

// Bibliography returns one entry per source in inline-number order. The
// article shown for a source is the one its first citation points at.
func (l *Library) Bibliography(projectID string) ([]BibEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(projectID)
	if err != nil {
		return nil, err
	}

	byNumber := make(map[int]*BibEntry)
	for _, c := range s.Citations {
		if e, ok := byNumber[c.InlineNumber]; ok {
			e.Citations++
			continue
		}
		ref, ok := s.articles[c.ArticleID]
		if !ok {
			ref = reference.Reference{ID: c.ArticleID}
		}
		byNumber[c.InlineNumber] = &BibEntry{Number: c.InlineNumber, Article: ref, Citations: 1}
	}

	entries := make([]BibEntry, 0, len(byNumber))
	for _, e := range byNumber {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Number < entries[j].Number })
	return entries, nil
}

// Rebuild regenerates the SQLite query cache from the JSONL files.
// Returns the number of articles and citations indexed.
func (l *Library) Rebuild() (int, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	db, err := l.openIndex()
	if err != nil {
		return 0, 0, err
	}
	defer db.Close()

	return db.RebuildFromJSONL(config.ArticlesPath(l.root), config.DocumentsPath(l.root))
}

// openIndex opens the query cache. Callers hold l.mu.
func (l *Library) openIndex() (*storage.DB, error) {
	if err := os.MkdirAll(config.CachePath(l.root), 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return storage.OpenDB(config.DBPath(l.root))
}

// Index rebuilds the query cache and returns it open. The caller closes it.
func (l *Library) Index() (*storage.DB, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	db, err := l.openIndex()
	if err != nil {
		return nil, err
	}
	if _, _, err := db.RebuildFromJSONL(config.ArticlesPath(l.root), config.DocumentsPath(l.root)); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
