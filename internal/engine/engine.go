// Package engine is the public face of codegraph: it owns the content cache, the
// dependency and call graph analyzers, and the invalidation pipeline, and serializes every
// query and flush so no query ever observes a half-applied invalidation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codegraph/internal/cache"
	"codegraph/internal/callgraph"
	"codegraph/internal/config"
	"codegraph/internal/depgraph"
	cgerrors "codegraph/internal/errors"
	"codegraph/internal/paths"
	"codegraph/internal/sizeguard"
	"codegraph/internal/skim"
	"codegraph/internal/slogutil"
	"codegraph/internal/storage"
	"codegraph/internal/watcher"
	"codegraph/internal/workspace"
)

// Engine answers dependency and call graph queries for one workspace.
type Engine struct {
	root   string
	config *config.Config
	logger *slog.Logger

	// mu serializes queries and invalidation flushes
	mu sync.Mutex

	guard   *sizeguard.Guard
	skimmer *skim.Skimmer
	sources *cache.SourceCache
	walker  *workspace.Walker

	// file list, dropped on every flush
	files          []string
	filesTruncated bool
	filesListed    bool

	deps  *depgraph.Builder
	calls *callgraph.Builder

	invalidator *watcher.Invalidator
	fsw         *watcher.FSWatcher
	sink        storage.ResultSink

	closeOnce sync.Once
}

// NewEngine creates an engine for cfg.WorkspaceRoot. Nothing is read until the first query.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(cfg.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	logger = slogutil.OrDiscard(logger)

	e := &Engine{
		root:   root,
		config: cfg,
		logger: logger,
		guard: sizeguard.New(sizeguard.Config{
			MaxFileSize:    cfg.SizeGuard.MaxFileSizeBytes,
			MaxTotalSize:   cfg.SizeGuard.MaxTotalSizeBytes,
			SkipLargeFiles: cfg.SizeGuard.SkipLargeFiles,
		}, logger.With("component", "sizeguard")),
		skimmer: skim.New(skim.Config{
			Threshold:         cfg.Skim.ThresholdBytes,
			HeaderSize:        cfg.Skim.HeaderSize,
			FooterSize:        cfg.Skim.FooterSize,
			ChunkSize:         cfg.Skim.ChunkSize,
			SampleSize:        cfg.Skim.SampleSize,
			MaxChunks:         cfg.Skim.MaxChunks,
			MaxPatternMatches: cfg.Skim.MaxPatternMatches,
		}, logger.With("component", "skim")),
		walker: workspace.NewWalker(root, workspace.Options{
			Extensions: cfg.Walk.Extensions,
			IgnoreDirs: cfg.Walk.IgnoreDirs,
			MaxFiles:   cfg.Walk.MaxFiles,
		}, logger),
	}

	e.sources, err = cache.NewSourceCache(cfg.Cache.MaxEntries, e.load)
	if err != nil {
		return nil, fmt.Errorf("failed to create source cache: %w", err)
	}
	e.sources.OnHit = func() { sourceCacheLookups.WithLabelValues("hit").Inc() }
	e.sources.OnMiss = func() { sourceCacheLookups.WithLabelValues("miss").Inc() }

	src := source{e}
	e.deps = depgraph.NewBuilder(root, src, depgraph.NewResolver(root, cfg.Walk.Extensions), logger.With("component", "depgraph"))
	e.deps.OnIndexBuild = func(files int, took time.Duration) {
		indexRebuildSeconds.Observe(took.Seconds())
	}
	e.calls = callgraph.NewBuilder(src, cfg.Analysis.MaxCallDepth, logger.With("component", "callgraph"))

	e.invalidator = watcher.NewInvalidator(time.Duration(cfg.Watcher.DebounceMs)*time.Millisecond, e.flush)

	return e, nil
}

// Root returns the absolute workspace root
func (e *Engine) Root() string {
	return e.root
}

// Config returns the engine configuration
func (e *Engine) Config() *config.Config {
	return e.config
}

// SetResultSink attaches a sink that receives recorded results. nil detaches it.
func (e *Engine) SetResultSink(sink storage.ResultSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// Record hands payload to the attached result sink, if any. Failures are only logged.
func (e *Engine) Record(ctx context.Context, kind, key string, payload any) {
	e.mu.Lock()
	sink := e.sink
	e.mu.Unlock()
	if sink == nil {
		return
	}
	if _, err := sink.Record(ctx, kind, key, payload); err != nil {
		e.logger.Warn("Failed to record result", "kind", kind, "key", key, "error", err)
	}
}

// Close stops the watcher, cancels any pending debounce and applies the pending set once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		fsw := e.fsw
		e.mu.Unlock()
		if fsw != nil {
			err = fsw.Stop()
		}
		e.invalidator.Stop()
	})
	return err
}

// abs maps a caller-supplied path to the absolute key every cache uses
func (e *Engine) abs(path string) string {
	return paths.Absolute(path, e.root)
}

// load is the source cache loader. Files below the skim threshold are read whole through
// the size guard and charged against the per-query budget; larger files are skimmed, which
// reads a bounded number of windows.
func (e *Engine) load(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		contentReads.WithLabelValues("skipped").Inc()
		e.logger.Debug("Skipping unreadable source", "path", path, "code", cgerrors.UnreadableFile, "error", err)
		return "", false
	}

	if info.Size() >= e.skimmer.Config().Threshold {
		res := e.skimmer.Read(path)
		if res.OriginalSize == 0 {
			contentReads.WithLabelValues("skipped").Inc()
			e.logger.Debug("Skipping unreadable source", "path", path, "code", cgerrors.UnreadableFile)
			return "", false
		}
		contentReads.WithLabelValues("skimmed").Inc()
		return res.Content, true
	}

	guarded, err := e.guard.Read(path)
	if err != nil || guarded.Skipped {
		contentReads.WithLabelValues("skipped").Inc()
		e.logger.Debug("Skipping source read",
			"path", path,
			"code", guarded.Code,
			"reason", guarded.Reason,
			"totalRead", e.guard.TotalRead(),
		)
		return "", false
	}
	contentReads.WithLabelValues("full").Inc()
	return guarded.Content, true
}

// listFiles returns the cached workspace file list; the caller holds mu.
func (e *Engine) listFiles(ctx context.Context) []string {
	if !e.filesListed {
		listing := e.walker.List(ctx)
		if ctx.Err() != nil {
			return listing.Files
		}
		e.files = listing.Files
		e.filesTruncated = listing.Truncated
		e.filesListed = true
	}
	return e.files
}

// source adapts the engine to the analyzers' Source interface. Its methods run under mu.
type source struct {
	e *Engine
}

func (s source) Content(path string) (string, bool) {
	return s.e.sources.Content(path)
}

func (s source) Files(ctx context.Context) []string {
	return s.e.listFiles(ctx)
}

// begin starts a query: takes the lock, resets the per-query read budget and returns the
// function that ends it.
func (e *Engine) begin(op string) func() {
	start := time.Now()
	e.mu.Lock()
	e.guard.Reset()
	return func() {
		e.mu.Unlock()
		queryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
