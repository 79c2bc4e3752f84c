// Package depgraph builds file-level dependency graphs: resolved local imports, the
// importers of a file and circular import chains.
package depgraph

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"codegraph/internal/cache"
	cgerrors "codegraph/internal/errors"
	"codegraph/internal/imports"
	"codegraph/internal/paths"
	"codegraph/internal/slogutil"
)

// CircularDependency is one import cycle. Cycle does not repeat its first file at the end.
type CircularDependency struct {
	Cycle       []string `json:"cycle"`
	Description string   `json:"description"`
}

// DependencyGraph describes one file's place in the import graph
type DependencyGraph struct {
	File         string               `json:"file"`
	Imports      []imports.ImportInfo `json:"imports"`
	Exports      []imports.ExportInfo `json:"exports"`
	Importers    []string             `json:"importers"`
	Dependencies []string             `json:"dependencies"`
	CircularDeps []CircularDependency `json:"circularDeps"`
}

// Source supplies file contents and the workspace file list.
type Source interface {
	Content(path string) (string, bool)
	Files(ctx context.Context) []string
}

type parsedFile struct {
	imports      []imports.ImportInfo
	exports      []imports.ExportInfo
	dependencies []string
}

// Builder answers dependency questions for one workspace. It owns its per-file parse
// cache, the graph cache and the importer index.
type Builder struct {
	root     string
	source   Source
	resolver *Resolver
	logger   *slog.Logger

	parsed *cache.DerivedCache[parsedFile]
	graphs *cache.DerivedCache[*DependencyGraph]
	index  *ImporterIndex

	// OnIndexBuild is called after every importer index rebuild
	OnIndexBuild func(files int, took time.Duration)
}

// NewBuilder creates a builder for the workspace at root.
func NewBuilder(root string, source Source, resolver *Resolver, logger *slog.Logger) *Builder {
	return &Builder{
		root:     root,
		source:   source,
		resolver: resolver,
		logger:   slogutil.OrDiscard(logger),
		parsed:   cache.NewDerivedCache[parsedFile](),
		graphs:   cache.NewDerivedCache[*DependencyGraph](),
		index:    NewImporterIndex(),
	}
}

func (b *Builder) parse(file string) parsedFile {
	if p, ok := b.parsed.Get(file); ok {
		return p
	}

	content, ok := b.source.Content(file)
	if !ok {
		return parsedFile{}
	}

	imps, exps := imports.Extract(content, file)
	p := parsedFile{imports: imps, exports: exps}
	seen := make(map[string]bool)
	for _, imp := range imps {
		if imp.IsExternal {
			continue
		}
		target, ok := b.resolver.Resolve(file, imp.Specifier)
		if !ok {
			b.logger.Debug("Unresolved local import",
				"code", cgerrors.UnresolvableImport,
				"file", file,
				"specifier", imp.Specifier,
			)
			continue
		}
		if !seen[target] {
			seen[target] = true
			p.dependencies = append(p.dependencies, target)
		}
	}

	b.parsed.Put(file, p, file)
	return p
}

// Imports returns every import statement in file.
func (b *Builder) Imports(file string) []imports.ImportInfo {
	return b.parse(file).imports
}

// Exports returns every export statement in file.
func (b *Builder) Exports(file string) []imports.ExportInfo {
	return b.parse(file).exports
}

// Dependencies returns the resolved local files imported by file, in first-seen order.
func (b *Builder) Dependencies(file string) []string {
	return b.parse(file).dependencies
}

// AnalyzeDependencies returns the full dependency graph of file.
func (b *Builder) AnalyzeDependencies(ctx context.Context, file string) *DependencyGraph {
	if g, ok := b.graphs.Get(file); ok {
		return g
	}

	p := b.parse(file)
	g := &DependencyGraph{
		File:         file,
		Imports:      nonNil(p.imports),
		Exports:      nonNil(p.exports),
		Dependencies: nonNil(p.dependencies),
		Importers:    b.FindImporters(ctx, file),
		CircularDeps: b.DetectCircularDependencies(file),
	}

	// Importer sets change whenever any file changes, so the graph is dropped on every
	// invalidation.
	b.graphs.Put(file, g, cache.AnyPath)
	return g
}

// FindImporters returns the sorted files that import file, rebuilding the importer index
// first when it is stale.
func (b *Builder) FindImporters(ctx context.Context, file string) []string {
	if !b.index.Built() {
		b.rebuildIndex(ctx)
	}
	return b.index.Importers(file)
}

func (b *Builder) rebuildIndex(ctx context.Context) {
	start := time.Now()
	files := b.source.Files(ctx)
	b.index.Build(files, b.Dependencies)

	took := time.Since(start)
	targets, _ := b.index.Size()
	b.logger.Debug("Importer index rebuilt",
		"files", len(files),
		"targets", targets,
		"duration", took,
	)
	if b.OnIndexBuild != nil {
		b.OnIndexBuild(len(files), took)
	}
}

// Invalidate drops everything derived from the given files and marks the importer index
// stale.
func (b *Builder) Invalidate(files ...string) {
	for _, f := range files {
		b.parsed.InvalidatePath(f)
		b.graphs.InvalidatePath(f)
	}
	b.index.Invalidate()
}

// Clear drops every cached result.
func (b *Builder) Clear() {
	b.parsed.Clear()
	b.graphs.Clear()
	b.index.Invalidate()
}

// IndexBuilt reports whether the importer index is current.
func (b *Builder) IndexBuilt() bool {
	return b.index.Built()
}

// CacheSizes returns the number of cached parse results and graphs.
func (b *Builder) CacheSizes() (parsed, graphs int) {
	return b.parsed.Len(), b.graphs.Len()
}

func (b *Builder) describe(cycle []string) string {
	parts := make([]string, 0, len(cycle)+1)
	for _, f := range cycle {
		parts = append(parts, paths.Relative(f, b.root))
	}
	if len(cycle) > 0 {
		parts = append(parts, paths.Relative(cycle[0], b.root))
	}
	return strings.Join(parts, " -> ")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
