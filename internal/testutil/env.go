// Package testutil provides reusable test utilities for blz CLI integration
// tests: a temporary data root plus a harness for running the built binary
// against it and asserting on its JSON output.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestEnv is a temporary $BLZ_DATA_ROOT for driving the blz binary end to
// end in integration tests.
type TestEnv struct {
	Path string
	t    *testing.T
}

// NewTestEnv creates an empty temporary data root.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{t: t, Path: t.TempDir()}
}

// FileExists checks whether a path under the data root exists.
func (e *TestEnv) FileExists(relPath string) bool {
	e.t.Helper()
	_, err := os.Stat(filepath.Join(e.Path, relPath))
	return err == nil
}

// DirExists checks whether a directory under the data root exists.
func (e *TestEnv) DirExists(relPath string) bool {
	e.t.Helper()
	info, err := os.Stat(filepath.Join(e.Path, relPath))
	return err == nil && info.IsDir()
}
