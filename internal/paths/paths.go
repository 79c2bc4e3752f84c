package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the per-workspace directory holding config, logs and the result store
const DataDirName = ".codegraph"

// HomeEnv names the environment variable that overrides the directory of the project
// registry
const HomeEnv = "CODEGRAPH_HOME"

// CanonicalizePath converts an absolute path to a workspace-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to the workspace root
// - Returns a relative path with forward slashes
func CanonicalizePath(absolutePath string, workspaceRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(workspaceRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = workspaceRoot
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// Relative returns path relative to workspaceRoot for display, or path unchanged when it
// cannot be expressed that way.
func Relative(path string, workspaceRoot string) string {
	rel, err := filepath.Rel(workspaceRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Absolute resolves path against workspaceRoot when it is relative and cleans it.
// This is the key used for every per-file cache entry.
func Absolute(path string, workspaceRoot string) string {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workspaceRoot, filepath.FromSlash(path))
	}
	return filepath.Clean(path)
}

// IsWithinWorkspace checks if a path is within the workspace root, either lexically or
// once symlinks are resolved
func IsWithinWorkspace(path string, workspaceRoot string) bool {
	if rel, err := filepath.Rel(workspaceRoot, path); err == nil &&
		rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	canonical, err := CanonicalizePath(path, workspaceRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// DataDir returns <workspaceRoot>/.codegraph
func DataDir(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, DataDirName)
}

// EnsureDataDir creates the workspace data directory if needed and returns it
func EnsureDataDir(workspaceRoot string) (string, error) {
	dir := DataDir(workspaceRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ResolveDataPath resolves a configured path: absolute paths are kept, relative ones are
// taken from the workspace root.
func ResolveDataPath(workspaceRoot string, configured string) string {
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(workspaceRoot, filepath.FromSlash(configured))
}

// RegistryPath returns the project registry database shared by every workspace:
// $CODEGRAPH_HOME/registry.db, or codegraph/registry.db under the user config directory.
func RegistryPath() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Join(home, "registry.db"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "codegraph", "registry.db"), nil
}
