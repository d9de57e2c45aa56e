package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/cite/config.yml.
type GlobalConfig struct {
	DefaultLibrary string `yaml:"default_library,omitempty"` // Repository used outside any .citenum tree
	SoftMatch      *bool  `yaml:"soft_match,omitempty"`      // Overrides the repository setting when set
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "cite"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvLibrary names the repository root, overriding discovery.
	EnvLibrary = "CITENUM_LIBRARY"
	// EnvSoftMatch overrides soft_match (any strconv.ParseBool value).
	EnvSoftMatch = "CITENUM_SOFT_MATCH"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/cite/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.DefaultLibrary != "" {
		cfg.DefaultLibrary = ExpandPath(cfg.DefaultLibrary)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ResolveRepository locates the repository to operate on. Order:
// $CITENUM_LIBRARY, then the nearest .citenum above start, then
// default_library from the global config.
func ResolveRepository(start string) (string, error) {
	if env := os.Getenv(EnvLibrary); env != "" {
		root := ExpandPath(env)
		if !IsRepository(root) {
			return "", fmt.Errorf("%s=%s: %w", EnvLibrary, env, ErrNotRepository)
		}
		return root, nil
	}

	root, err := FindRepository(start)
	if err == nil {
		return root, nil
	}

	global, gerr := LoadGlobalConfig()
	if gerr != nil {
		return "", gerr
	}
	if global.DefaultLibrary != "" && IsRepository(global.DefaultLibrary) {
		return global.DefaultLibrary, nil
	}
	return "", err
}

// SoftMatchEnabled reports whether soft dedupe keys are enabled. The
// environment wins over the global config, which wins over the repository.
func SoftMatchEnabled(repo *Config) bool {
	if env := os.Getenv(EnvSoftMatch); env != "" {
		if v, err := strconv.ParseBool(env); err == nil {
			return v
		}
	}
	if global, err := LoadGlobalConfig(); err == nil && global.SoftMatch != nil {
		return *global.SoftMatch
	}
	return repo != nil && repo.SoftMatch
}

// HelpfulConfigMessage returns a hint for when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No citenum repository found.

Run 'cite init' in a project directory, or create %s to set a default:
  mkdir -p %s
  echo 'default_library: /path/to/library' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
