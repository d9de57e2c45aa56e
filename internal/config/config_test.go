package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/repo"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"CitenumPath", CitenumPath, "/test/repo/.citenum"},
		{"ConfigPath", ConfigPath, "/test/repo/.citenum/config.json"},
		{"ArticlesPath", ArticlesPath, "/test/repo/.citenum/articles.jsonl"},
		{"ProjectsPath", ProjectsPath, "/test/repo/.citenum/projects.jsonl"},
		{"DocumentsPath", DocumentsPath, "/test/repo/.citenum/documents.jsonl"},
		{"ContentPath", ContentPath, "/test/repo/content"},
		{"CachePath", CachePath, "/test/repo/.citenum/cache"},
		{"DBPath", DBPath, "/test/repo/.citenum/cache/library.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsRepository_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, CitenumDir), []byte("not a dir"), 0644); err != nil {
		t.Fatalf("Failed to create .citenum file: %v", err)
	}

	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true when .citenum is a file")
	}
}

func TestInit(t *testing.T) {
	root := t.TempDir()

	cfg, err := Init(root)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if cfg.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat = %q, want markdown", cfg.DefaultFormat)
	}
	if !IsRepository(root) {
		t.Fatal("Init() did not create a repository")
	}

	for _, path := range []string{ArticlesPath(root), ProjectsPath(root), DocumentsPath(root), ConfigPath(root)} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Init() did not create %s: %v", path, err)
		}
	}
	if info, err := os.Stat(CachePath(root)); err != nil || !info.IsDir() {
		t.Errorf("Init() did not create cache dir")
	}

	if _, err := Init(root); err == nil {
		t.Error("Init() on existing repository should fail")
	}
}

func TestFindRepository(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(CitenumPath(root), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindRepository(nested)
	if err != nil {
		t.Fatalf("FindRepository() error = %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindRepository() = %q, want %q", got, want)
	}
}

func TestFindRepository_NotFound(t *testing.T) {
	_, err := FindRepository(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("FindRepository() error = %v, want ErrNotRepository", err)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(CitenumPath(root), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{PDFRoot: "/pdfs", SoftMatch: true, DefaultFormat: "html", KeyCacheSize: 10}
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(CitenumPath(root), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(root), []byte("{invalid"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(root); err == nil {
		t.Error("Load() should fail on invalid JSON")
	}
}

func TestCacheSize(t *testing.T) {
	if got := (&Config{}).CacheSize(); got != DefaultKeySize {
		t.Errorf("CacheSize() = %d, want %d", got, DefaultKeySize)
	}
	if got := (&Config{KeyCacheSize: 7}).CacheSize(); got != 7 {
		t.Errorf("CacheSize() = %d, want 7", got)
	}
}

func TestValidatePDFRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty", "", false},
		{"directory", dir, false},
		{"file", file, true},
		{"missing", filepath.Join(dir, "nope"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePDFRoot(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePDFRoot(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"", "html", "markdown"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateFormat("docx"); err == nil {
		t.Error("ValidateFormat(docx) should fail")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	if got := ExpandPath("~/papers"); got != filepath.Join(home, "papers") {
		t.Errorf("ExpandPath(~/papers) = %q", got)
	}
	if got := ExpandPath("/abs"); got != "/abs" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
}
