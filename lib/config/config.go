// Package config provides configuration loading for tagfs.
//
// Configuration is loaded from a single optional file specified by:
//   - TAGFS_CONFIG environment variable, or
//   - --config flag passed to the command
//
// Unlike some configuration schemes, there is no requirement that a
// config file exist. [Load] falls back to [Default] when TAGFS_CONFIG
// is unset or the file it names is absent, so a bare `tagfs` install
// works without any config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for tagfs.
type Config struct {
	// Database is the path to the SQLite database file backing the tag
	// store. Expanded for ${VAR} references before use.
	Database string `yaml:"database"`

	// Mount configures the FUSE mount point.
	Mount MountConfig `yaml:"mount"`

	// Query configures default behavior of the tag-query DSL.
	Query QueryConfig `yaml:"query"`
}

// MountConfig configures the FUSE mount point.
type MountConfig struct {
	// AllowOther permits users other than the mount owner to access the
	// filesystem. Requires user_allow_other in /etc/fuse.conf.
	// Default: false
	AllowOther bool `yaml:"allow_other"`

	// EntryTTL is how long the kernel may cache directory entry lookups,
	// as a duration string (e.g. "1s"). Since taggings can change out
	// from under the mount via direct store mutation, this should stay
	// short.
	// Default: "1s"
	EntryTTL string `yaml:"entry_ttl"`

	// NegativeTTL is how long the kernel may cache failed lookups.
	// A zero duration is treated by the mount as unset and replaced
	// with its built-in 1s.
	// Default: "0s"
	NegativeTTL string `yaml:"negative_ttl"`
}

// QueryConfig configures default behavior of the tag-query DSL.
type QueryConfig struct {
	// CaseSensitive controls whether tag name and value matching is
	// case-sensitive by default. The --case-sensitive flag overrides
	// this per invocation.
	// Default: false
	CaseSensitive bool `yaml:"case_sensitive"`

	// SuggestionLimit caps how many tag names are offered as
	// readdir entries under a query-construction directory.
	// Default: 0, which the mount replaces with
	// tagfuse.DefaultSuggestionLimit (256). Negative values are
	// rejected by Validate, so the cap cannot be removed here.
	SuggestionLimit int `yaml:"suggestion_limit"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file, and as the whole
// configuration when no config file is present.
func Default() *Config {
	dataDir, err := os.UserHomeDir()
	defaultPath := "tagfs.db"
	if err == nil {
		defaultPath = filepath.Join(dataDir, ".local", "share", "tagfs", "default.db")
	}

	return &Config{
		Database: defaultPath,
		Mount: MountConfig{
			AllowOther:  false,
			EntryTTL:    "1s",
			NegativeTTL: "0s",
		},
		Query: QueryConfig{
			CaseSensitive:   false,
			SuggestionLimit: 0,
		},
	}
}

// Load loads configuration from the path named by the TAGFS_CONFIG
// environment variable. If the variable is unset, or names a file
// that does not exist, Load returns [Default] rather than failing,
// since tagfs is usable without any config file.
func Load() (*Config, error) {
	configPath := os.Getenv("TAGFS_CONFIG")
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.expandVariables()
			return cfg, nil
		}
		return nil, err
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Missing
// fields in the file retain their [Default] values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in Database.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Database = expandVars(c.Database, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Query.SuggestionLimit < 0 {
		return fmt.Errorf("query.suggestion_limit must be non-negative")
	}
	return nil
}

// EnsureDatabaseDir creates the directory containing the database
// file if it doesn't exist.
func (c *Config) EnsureDatabaseDir() error {
	dir := filepath.Dir(c.Database)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
