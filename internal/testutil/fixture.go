// Package testutil provides fixture workspaces for tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Workspace is a throwaway workspace directory populated with source files.
type Workspace struct {
	// Root is the absolute workspace root
	Root string
}

// NewWorkspace creates a temporary workspace containing files (relative path -> content).
func NewWorkspace(t *testing.T, files map[string]string) *Workspace {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}

	ws := &Workspace{Root: root}
	for name, content := range files {
		ws.Write(t, name, content)
	}
	return ws
}

// CopyFixture copies testdata/fixtures/<name> into a fresh temporary workspace so tests
// may modify it.
func CopyFixture(t *testing.T, name string) *Workspace {
	t.Helper()

	src := filepath.Join(fixturesRoot(t), name)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		t.Fatalf("Fixture directory not found: %s", src)
	}

	ws := NewWorkspace(t, nil)
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		ws.Write(t, filepath.ToSlash(rel), string(data))
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to copy fixture %s: %v", name, err)
	}
	return ws
}

// Path returns the absolute path of a workspace-relative file.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Root, filepath.FromSlash(name))
}

// Write creates or replaces a file, creating parent directories as needed.
func (w *Workspace) Write(t *testing.T, name, content string) string {
	t.Helper()

	path := w.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// Remove deletes a workspace file.
func (w *Workspace) Remove(t *testing.T, name string) {
	t.Helper()
	if err := os.Remove(w.Path(name)); err != nil {
		t.Fatalf("Failed to remove %s: %v", name, err)
	}
}

// fixturesRoot returns the absolute path to testdata/fixtures/.
func fixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	return filepath.Join(projectRoot, "testdata", "fixtures")
}
