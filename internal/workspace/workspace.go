// Package workspace lists the source files of a workspace under a file-count ceiling.
package workspace

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	cgerrors "codegraph/internal/errors"
	"codegraph/internal/slogutil"
)

// Options controls which files a walk returns
type Options struct {
	// Extensions lists recognized source extensions (".ts", ".js", ...)
	Extensions []string

	// IgnoreDirs lists directory base names that are never entered
	IgnoreDirs []string

	// MaxFiles stops the walk once this many files were collected
	MaxFiles int
}

// Listing is the result of a walk.
type Listing struct {
	Files []string

	// Truncated is set when the walk stopped at MaxFiles; Files is then partial.
	Truncated bool
}

// Walker lists source files beneath a root directory.
type Walker struct {
	root       string
	exts       map[string]bool
	ignoreDirs map[string]bool
	maxFiles   int
	logger     *slog.Logger
}

// NewWalker creates a walker rooted at root.
func NewWalker(root string, opts Options, logger *slog.Logger) *Walker {
	exts := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	ignore := make(map[string]bool, len(opts.IgnoreDirs))
	for _, dir := range opts.IgnoreDirs {
		ignore[dir] = true
	}
	return &Walker{
		root:       root,
		exts:       exts,
		ignoreDirs: ignore,
		maxFiles:   opts.MaxFiles,
		logger:     slogutil.OrDiscard(logger),
	}
}

// Root returns the walk root.
func (w *Walker) Root() string {
	return w.root
}

// IsSourceFile reports whether path has a recognized extension.
func (w *Walker) IsSourceFile(path string) bool {
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

// IsIgnored reports whether any directory component of path (relative to the root) is on
// the ignore list.
func (w *Walker) IsIgnored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if w.ignoreDirs[part] {
			return true
		}
	}
	return false
}

// List walks the root in lexical order and returns absolute source file paths.
// Unreadable directories are skipped; reaching MaxFiles returns a partial listing, never an
// error. A cancelled context also ends the walk with whatever was collected.
func (w *Walker) List(ctx context.Context) Listing {
	var listing Listing

	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != w.root && w.ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !w.IsSourceFile(path) {
			return nil
		}

		if w.maxFiles > 0 && len(listing.Files) >= w.maxFiles {
			listing.Truncated = true
			w.logger.Warn("Reached max files limit during workspace walk",
				"code", cgerrors.WalkLimitReached,
				"maxFiles", w.maxFiles,
				"root", w.root,
			)
			return filepath.SkipAll
		}

		listing.Files = append(listing.Files, path)
		return nil
	})

	return listing
}
