package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	cgerrors "codegraph/internal/errors"
	"codegraph/internal/paths"
	"codegraph/internal/watcher"
)

// NotifyChange schedules path for invalidation after the debounce window. Paths outside
// the workspace are ignored.
func (e *Engine) NotifyChange(path string) {
	abs := e.abs(path)
	if !paths.IsWithinWorkspace(abs, e.root) {
		e.logger.Debug("Ignoring change outside workspace", "path", abs)
		return
	}
	e.invalidator.Schedule(abs)
}

// FlushPending applies every pending invalidation now and returns how many paths it
// dropped.
func (e *Engine) FlushPending() int {
	return e.invalidator.Flush()
}

// StartWatching watches the workspace and feeds file events into the invalidator. It
// fails when watcher.enabled is off.
func (e *Engine) StartWatching(ctx context.Context) error {
	if !e.config.Watcher.Enabled {
		return cgerrors.New(cgerrors.InvalidConfig, "file watching is disabled (watcher.enabled)", nil)
	}
	w, err := watcher.New(watcher.Config{
		Root:           e.root,
		IgnorePatterns: e.config.Watcher.IgnorePatterns,
	}, e.walker, e.logger.With("component", "watcher"), func(ev watcher.Event) {
		e.logger.Debug("Source changed", "path", ev.Path, "type", ev.Type.String())
		e.invalidator.Schedule(ev.Path)
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	e.fsw = w
	e.mu.Unlock()
	return nil
}

// flush is the invalidator callback. It runs under mu so queries see either the state
// before the flush or the state after it.
func (e *Engine) flush(changed []string) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	changed, dirs := e.expandDirs(changed)
	structural := dirs || e.structuralChange(changed)
	if dirs && !e.filesListed {
		// Nothing says which cached files lived below the directory.
		e.sources.Clear()
		e.calls.Clear()
	}
	for _, path := range changed {
		e.sources.Invalidate(path)
	}
	if structural {
		// A created or deleted file can change how imports elsewhere resolve.
		e.deps.Clear()
	} else {
		e.deps.Invalidate(changed...)
	}
	e.calls.Invalidate(changed...)

	e.files = nil
	e.filesTruncated = false
	e.filesListed = false

	flushesTotal.Inc()
	invalidatedPathsTotal.Add(float64(len(changed)))
	e.logger.Debug("Applied invalidations",
		"paths", len(changed),
		"structural", structural,
		"duration", time.Since(start),
	)
}

// expandDirs adds the listed files below every changed path that is not a source file,
// so a directory that was removed or moved away invalidates everything it held. dirs
// reports whether such a path was seen.
func (e *Engine) expandDirs(changed []string) (expanded []string, dirs bool) {
	expanded = append([]string(nil), changed...)
	for _, path := range changed {
		if e.walker.IsSourceFile(path) {
			continue
		}
		dirs = true
		prefix := path + string(filepath.Separator)
		for _, f := range e.files {
			if strings.HasPrefix(f, prefix) {
				expanded = append(expanded, f)
			}
		}
	}
	return expanded, dirs
}

// structuralChange reports whether any changed path appeared or disappeared relative to
// the cached file list. Without a list every change counts as structural.
func (e *Engine) structuralChange(changed []string) bool {
	if !e.filesListed {
		return true
	}
	listed := make(map[string]bool, len(e.files))
	for _, f := range e.files {
		listed[f] = true
	}
	for _, path := range changed {
		_, err := os.Stat(path)
		if listed[path] != (err == nil) {
			return true
		}
	}
	return false
}
