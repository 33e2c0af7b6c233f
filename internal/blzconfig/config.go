// Package blzconfig handles global blz configuration: a single immutable
// record loaded once at process start.
package blzconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the process-wide, immutable configuration record.
type Config struct {
	// DataRoot overrides the platform-default data directory when set.
	DataRoot string `toml:"data_root"`

	// DefaultOutputFormat is "text" or "json".
	DefaultOutputFormat string `toml:"default_output_format"`

	// MaxSnippetChars bounds snippet length (clamped to 50..=1000 by Load).
	MaxSnippetChars int `toml:"max_snippet_chars"`

	// FetchTimeoutSeconds bounds a single fetch request.
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`

	// MaxResponseBytes bounds a single fetch body.
	MaxResponseBytes int64 `toml:"max_response_bytes"`

	// RedirectLimit bounds HTTP redirects followed per fetch.
	RedirectLimit int `toml:"redirect_limit"`

	// DefaultLimit is the default per-request result limit for search.
	DefaultLimit int `toml:"default_limit"`

	// MaxParallelSources bounds concurrent per-source search execution.
	MaxParallelSources int `toml:"max_parallel_sources"`

	// QueryDeadlineMs bounds a full multi-source search call.
	QueryDeadlineMs int `toml:"query_deadline_ms"`

	// ArchiveRetention is how many prior snapshots are kept per source.
	ArchiveRetention int `toml:"archive_retention"`
}

// Default returns the baseline configuration used when no config file, env
// var, or flag overrides a field.
func Default() Config {
	return Config{
		DefaultOutputFormat: "text",
		MaxSnippetChars:     280,
		FetchTimeoutSeconds: 30,
		MaxResponseBytes:    50 * 1024 * 1024,
		RedirectLimit:       10,
		DefaultLimit:        10,
		MaxParallelSources:  8,
		QueryDeadlineMs:     5000,
		ArchiveRetention:    5,
	}
}

// Load reads the config file at path if it exists, overlays environment
// variable overrides, and returns the resolved, immutable Config. A missing
// file is not an error; Default() is returned with env overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("blzconfig: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("blzconfig: stat %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.MaxSnippetChars = clampSnippetChars(cfg.MaxSnippetChars)

	if cfg.DataRoot == "" {
		root, err := DefaultDataRoot()
		if err != nil {
			return Config{}, err
		}
		cfg.DataRoot = root
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BLZ_OUTPUT_FORMAT"); v != "" {
		cfg.DefaultOutputFormat = v
	}
	if v := os.Getenv("BLZ_MAX_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSnippetChars = clampSnippetChars(n)
		}
	}
	if v := os.Getenv("BLZ_DATA_ROOT"); v != "" {
		cfg.DataRoot = v
	}
}

func clampSnippetChars(n int) int {
	if n < 50 {
		return 50
	}
	if n > 1000 {
		return 1000
	}
	return n
}

// DefaultConfigPath returns the platform-appropriate path to config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("blzconfig: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "blz", "config.toml"), nil
}

// DefaultDataRoot returns the platform-appropriate default data directory
// for sources, and performs a one-time legacy-path migration when an old
// layout is found and the new one is not.
func DefaultDataRoot() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("blzconfig: resolve user data dir: %w", err)
	}
	root := filepath.Join(dir, "blz", "sources")

	legacy := filepath.Join(dir, "blz-cache")
	if _, err := os.Stat(root); os.IsNotExist(err) {
		if st, legacyErr := os.Stat(legacy); legacyErr == nil && st.IsDir() {
			if err := os.MkdirAll(filepath.Dir(root), 0o755); err == nil {
				if err := os.Rename(legacy, root); err == nil {
					slog.Info("migrated legacy data directory", "from", legacy, "to", root)
				}
			}
		}
	}

	return root, nil
}
