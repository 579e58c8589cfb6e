// Package testutil provides shared helpers for ratingsync tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// TestEnv is a temporary directory that every path is kept inside.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates a TestEnv removed when the test completes.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{t: t, rootDir: t.TempDir()}
}

func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path joins elem under the root, failing the test if it escapes.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	p := filepath.Clean(filepath.Join(append([]string{e.rootDir}, elem...)...))
	rel, err := filepath.Rel(e.rootDir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		e.t.Fatalf("path %q escapes test sandbox %q", p, e.rootDir)
	}
	return p
}

// WriteFileString writes content, creating parent directories.
func (e *TestEnv) WriteFileString(path, content string) {
	e.t.Helper()

	full := e.Path(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		e.t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		e.t.Fatalf("write %s: %v", full, err)
	}
}

// ReadFileString reads a file under the root.
func (e *TestEnv) ReadFileString(path string) string {
	e.t.Helper()

	data, err := os.ReadFile(e.Path(path))
	if err != nil {
		e.t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// FileExists reports whether path exists under the root.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	_, err := os.Stat(e.Path(path))
	return err == nil
}

// Chdir switches into the root for the duration of the test.
func (e *TestEnv) Chdir() {
	e.t.Helper()
	e.t.Chdir(e.rootDir)
}

// ResetViper clears global viper state now and after the test.
func ResetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}
