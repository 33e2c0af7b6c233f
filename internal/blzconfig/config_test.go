package blzconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BLZ_OUTPUT_FORMAT", "")
	t.Setenv("BLZ_MAX_CHARS", "")
	t.Setenv("BLZ_DATA_ROOT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultOutputFormat != "text" {
		t.Fatalf("format = %q", cfg.DefaultOutputFormat)
	}
	if cfg.DataRoot == "" {
		t.Fatalf("expected a resolved data root")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`default_output_format = "json"
max_snippet_chars = 500
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultOutputFormat != "json" {
		t.Fatalf("format = %q", cfg.DefaultOutputFormat)
	}
	if cfg.MaxSnippetChars != 500 {
		t.Fatalf("max chars = %d", cfg.MaxSnippetChars)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("BLZ_OUTPUT_FORMAT", "json")
	t.Setenv("BLZ_MAX_CHARS", "90")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultOutputFormat != "json" {
		t.Fatalf("format = %q", cfg.DefaultOutputFormat)
	}
	if cfg.MaxSnippetChars != 90 {
		t.Fatalf("max chars = %d", cfg.MaxSnippetChars)
	}
}

func TestMaxCharsClamped(t *testing.T) {
	t.Setenv("BLZ_MAX_CHARS", "5")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxSnippetChars != 50 {
		t.Fatalf("max chars = %d, want clamped to 50", cfg.MaxSnippetChars)
	}
}
