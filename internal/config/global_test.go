package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeGlobalConfig points XDG_CONFIG_HOME at a temp dir holding content.
func writeGlobalConfig(t *testing.T, content string) {
	t.Helper()
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if content == "" {
		return
	}

	path := filepath.Join(dir, GlobalConfigDir, GlobalConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/cite/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	writeGlobalConfig(t, "")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.DefaultLibrary != "" || cfg.SoftMatch != nil {
		t.Errorf("LoadGlobalConfig() = %+v, want empty", cfg)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	writeGlobalConfig(t, "default_library: /data/library\nsoft_match: true\n")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.DefaultLibrary != "/data/library" {
		t.Errorf("DefaultLibrary = %q", cfg.DefaultLibrary)
	}
	if cfg.SoftMatch == nil || !*cfg.SoftMatch {
		t.Errorf("SoftMatch = %v, want true", cfg.SoftMatch)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	writeGlobalConfig(t, "default_library: [unclosed\n")

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() should fail on invalid YAML")
	}
}

func TestSoftMatchEnabled(t *testing.T) {
	tests := []struct {
		name   string
		global string
		env    string
		repo   *Config
		want   bool
	}{
		{"nothing set", "", "", nil, false},
		{"repo on", "", "", &Config{SoftMatch: true}, true},
		{"global overrides repo", "soft_match: false\n", "", &Config{SoftMatch: true}, false},
		{"env overrides global", "soft_match: false\n", "1", nil, true},
		{"bad env ignored", "", "maybe", &Config{SoftMatch: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeGlobalConfig(t, tt.global)
			t.Setenv(EnvSoftMatch, tt.env)

			if got := SoftMatchEnabled(tt.repo); got != tt.want {
				t.Errorf("SoftMatchEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveRepository(t *testing.T) {
	lib := t.TempDir()
	if err := os.Mkdir(CitenumPath(lib), 0755); err != nil {
		t.Fatal(err)
	}
	elsewhere := t.TempDir()

	t.Run("env", func(t *testing.T) {
		writeGlobalConfig(t, "")
		t.Setenv(EnvLibrary, lib)

		got, err := ResolveRepository(elsewhere)
		if err != nil || got != lib {
			t.Errorf("ResolveRepository() = (%q, %v), want %q", got, err, lib)
		}
	})

	t.Run("env not a repository", func(t *testing.T) {
		writeGlobalConfig(t, "")
		t.Setenv(EnvLibrary, elsewhere)

		if _, err := ResolveRepository(lib); !errors.Is(err, ErrNotRepository) {
			t.Errorf("ResolveRepository() error = %v, want ErrNotRepository", err)
		}
	})

	t.Run("global default", func(t *testing.T) {
		writeGlobalConfig(t, "default_library: "+lib+"\n")
		t.Setenv(EnvLibrary, "")

		got, err := ResolveRepository(elsewhere)
		if err != nil || got != lib {
			t.Errorf("ResolveRepository() = (%q, %v), want %q", got, err, lib)
		}
	})

	t.Run("none", func(t *testing.T) {
		writeGlobalConfig(t, "")
		t.Setenv(EnvLibrary, "")

		if _, err := ResolveRepository(elsewhere); !errors.Is(err, ErrNotRepository) {
			t.Errorf("ResolveRepository() error = %v, want ErrNotRepository", err)
		}
	})
}

func TestHelpfulConfigMessage(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	msg := HelpfulConfigMessage()
	if !strings.Contains(msg, "/cfg/cite/config.yml") || !strings.Contains(msg, "cite init") {
		t.Errorf("HelpfulConfigMessage() = %q", msg)
	}
}

func TestGlobalConfigCache(t *testing.T) {
	writeGlobalConfig(t, "default_library: /first\n")

	first, err := LoadGlobalConfig()
	if err != nil {
		t.Fatal(err)
	}

	// Rewriting the file does not affect the cached value.
	path := GlobalConfigPath()
	if err := os.WriteFile(path, []byte("default_library: /second\n"), 0644); err != nil {
		t.Fatal(err)
	}
	second, _ := LoadGlobalConfig()
	if second != first {
		t.Error("LoadGlobalConfig() did not return cached config")
	}

	ResetGlobalConfigCache()
	third, _ := LoadGlobalConfig()
	if third.DefaultLibrary != "/second" {
		t.Errorf("after reset DefaultLibrary = %q, want /second", third.DefaultLibrary)
	}
}
