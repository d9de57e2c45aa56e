// Package library is the edit service over a citenum repository.
//
// Every mutation reads the current JSONL state, computes new numbering with
// package numbering, rewrites affected content markers and writes the
// result back while holding the library lock. Callers that read a snapshot
// earlier can pass its revision to have a write rejected with
// ErrStaleRevision if the scope has changed since.
package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/identity"
	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
)

// Library errors.
var (
	ErrStaleRevision   = errors.New("scope changed since it was read")
	ErrArticleNotFound = errors.New("article not found")
)

// Library serializes edits to one repository.
type Library struct {
	root   string
	cfg    *config.Config
	opts   identity.Options
	logger *slog.Logger

	mu   sync.Mutex
	keys *lru.Cache[string, string] // article ID -> dedupe key
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger for debug events. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithSoftMatch overrides the soft-match setting resolved from config.
func WithSoftMatch(enabled bool) Option {
	return func(l *Library) {
		l.opts.EnableSoftMatch = enabled
	}
}

// Open opens the repository at root.
func Open(root string, opts ...Option) (*Library, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	l := &Library{
		root:   root,
		cfg:    cfg,
		opts:   identity.Options{EnableSoftMatch: config.SoftMatchEnabled(cfg)},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.keys, err = lru.New[string, string](cfg.CacheSize())
	if err != nil {
		return nil, fmt.Errorf("creating key cache: %w", err)
	}

	return l, nil
}

// Root returns the repository root.
func (l *Library) Root() string {
	return l.root
}

// Config returns the repository configuration.
func (l *Library) Config() *config.Config {
	return l.cfg
}

// IdentityOptions returns the dedupe options in effect.
func (l *Library) IdentityOptions() identity.Options {
	return l.opts
}

// Articles returns every article record.
func (l *Library) Articles() ([]reference.Reference, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return storage.ReadAll(config.ArticlesPath(l.root))
}

// Article returns one article record.
func (l *Library) Article(id string) (reference.Reference, error) {
	refs, err := l.Articles()
	if err != nil {
		return reference.Reference{}, err
	}
	idx, ok := storage.FindByID(refs, id)
	if !ok {
		return reference.Reference{}, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}
	return refs[idx], nil
}

// articleIndex maps article ID to record.
func articleIndex(refs []reference.Reference) map[string]reference.Reference {
	m := make(map[string]reference.Reference, len(refs))
	for _, r := range refs {
		m[r.ID] = r
	}
	return m
}

// keyFor returns the dedupe key of an article, consulting the cache first.
// Unknown articles key by their ID so they still group with themselves.
func (l *Library) keyFor(articleID string, articles map[string]reference.Reference) string {
	if key, ok := l.keys.Get(articleID); ok {
		return key
	}

	ref, ok := articles[articleID]
	if !ok {
		return "article:" + articleID
	}
	key := ref.Key(l.opts)
	l.keys.Add(articleID, key)
	l.logger.Debug("key cache miss", "article", articleID, "key", key)
	return key
}
