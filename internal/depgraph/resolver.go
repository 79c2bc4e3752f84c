package depgraph

import (
	"os"
	"path/filepath"
	"strings"

	"codegraph/internal/imports"
)

// Resolver maps local import specifiers to absolute file paths.
type Resolver struct {
	root       string
	extensions []string
	stat       func(string) (os.FileInfo, error)
}

// NewResolver creates a resolver trying extensions in the given order.
func NewResolver(root string, extensions []string) *Resolver {
	return &Resolver{
		root:       root,
		extensions: extensions,
		stat:       os.Stat,
	}
}

// Resolve returns the file a specifier imported from fromFile refers to. External
// specifiers never resolve. Candidates are tried in order: the exact path, the path plus
// each extension, then path/index plus each extension. The first regular file wins.
func (r *Resolver) Resolve(fromFile, specifier string) (string, bool) {
	if !imports.IsLocal(specifier) {
		return "", false
	}
	specifier = strings.TrimSpace(specifier)

	var bases []string
	if strings.HasPrefix(specifier, "/") {
		bases = append(bases, filepath.Clean(filepath.FromSlash(specifier)))
		if r.root != "" {
			bases = append(bases, filepath.Join(r.root, filepath.FromSlash(specifier)))
		}
	} else {
		bases = append(bases, filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(specifier)))
	}

	for _, base := range bases {
		if path, ok := r.resolveBase(base); ok {
			return path, true
		}
	}
	return "", false
}

func (r *Resolver) resolveBase(base string) (string, bool) {
	if r.isFile(base) {
		return base, true
	}
	for _, ext := range r.extensions {
		if candidate := base + ext; r.isFile(candidate) {
			return candidate, true
		}
	}
	for _, ext := range r.extensions {
		if candidate := filepath.Join(base, "index"+ext); r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.stat(path)
	return err == nil && info.Mode().IsRegular()
}
