// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents repository configuration stored in .citenum/config.json.
type Config struct {
	PDFRoot       string `json:"pdf_root,omitempty"`       // Folder scanned by add-pdf
	SoftMatch     bool   `json:"soft_match"`               // Enable title|year|author dedupe keys
	DefaultFormat string `json:"default_format,omitempty"` // Marker format for new documents: html or markdown
	KeyCacheSize  int    `json:"key_cache_size,omitempty"` // Entries in the article key cache
}

const (
	CitenumDir     = ".citenum"
	ConfigFile     = "config.json"
	ArticlesFile   = "articles.jsonl"
	ProjectsFile   = "projects.jsonl"
	DocumentsFile  = "documents.jsonl"
	ContentDir     = "content"
	CacheDir       = "cache"
	DBFile         = "library.db"
	DefaultKeySize = 4096
)

// ErrNotRepository is returned when no citenum repository can be located.
var ErrNotRepository = errors.New("not in a citenum repository (no .citenum directory found)")

// ValidFormats lists the supported content formats.
var ValidFormats = []string{"html", "markdown"}

// CitenumPath returns the path to the .citenum directory from a root path.
func CitenumPath(root string) string {
	return filepath.Join(root, CitenumDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, CitenumDir, ConfigFile)
}

// ArticlesPath returns the path to articles.jsonl from a root path.
func ArticlesPath(root string) string {
	return filepath.Join(root, CitenumDir, ArticlesFile)
}

// ProjectsPath returns the path to projects.jsonl from a root path.
func ProjectsPath(root string) string {
	return filepath.Join(root, CitenumDir, ProjectsFile)
}

// DocumentsPath returns the path to documents.jsonl from a root path.
func DocumentsPath(root string) string {
	return filepath.Join(root, CitenumDir, DocumentsFile)
}

// ContentPath returns the directory holding document bodies.
func ContentPath(root string) string {
	return filepath.Join(root, ContentDir)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, CitenumDir, CacheDir)
}

// DBPath returns the path to library.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, CitenumDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a citenum repository.
func IsRepository(root string) bool {
	info, err := os.Stat(CitenumPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a citenum repository.
// Returns the repository root path or ErrNotRepository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Init creates the repository layout under root with a default config.
// Existing repositories are left untouched and reported as an error.
func Init(root string) (*Config, error) {
	if IsRepository(root) {
		return nil, fmt.Errorf("repository already exists at %s", CitenumPath(root))
	}

	for _, dir := range []string{CitenumPath(root), CachePath(root), ContentPath(root)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	for _, path := range []string{ArticlesPath(root), ProjectsPath(root), DocumentsPath(root)} {
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
		}
	}

	// The cache is derived data.
	if err := os.WriteFile(filepath.Join(CitenumPath(root), ".gitignore"), []byte(CacheDir+"/\n"), 0644); err != nil {
		return nil, fmt.Errorf("writing .gitignore: %w", err)
	}

	cfg := &Config{DefaultFormat: "markdown"}
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the repository at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// CacheSize returns the configured key cache size or the default.
func (c *Config) CacheSize() int {
	if c.KeyCacheSize > 0 {
		return c.KeyCacheSize
	}
	return DefaultKeySize
}

// ValidatePDFRoot checks that the PDF root path exists and is a directory.
func ValidatePDFRoot(path string) error {
	if path == "" {
		return nil // Empty is allowed (not yet configured)
	}

	expandedPath := ExpandPath(path)

	info, err := os.Stat(expandedPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", expandedPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", expandedPath)
	}

	return nil
}

// ValidateFormat checks that the content format value is valid.
func ValidateFormat(format string) error {
	if format == "" {
		return nil
	}

	for _, valid := range ValidFormats {
		if format == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid default_format: %s (valid: %v)", format, ValidFormats)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
