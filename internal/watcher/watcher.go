// Package watcher feeds file system changes into cache invalidation: an fsnotify based
// recursive watcher and a debounced invalidator.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"codegraph/internal/slogutil"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called for every source file event that passes the filters, and for every
// watched directory that is removed or renamed
type Handler func(Event)

// Filter decides which paths are interesting. *workspace.Walker satisfies it.
type Filter interface {
	IsSourceFile(path string) bool
	IsIgnored(path string) bool
}

// Config contains watcher configuration
type Config struct {
	// Root is the directory watched recursively
	Root string

	// IgnorePatterns are glob patterns matched against the workspace-relative path,
	// the base name and every path suffix
	IgnorePatterns []string
}

// FSWatcher watches a workspace recursively and reports source file changes.
type FSWatcher struct {
	config   Config
	filter   Filter
	handler  Handler
	logger   *slog.Logger
	excludes []glob.Glob

	fs       *fsnotify.Watcher
	mu       sync.Mutex
	dirs     map[string]bool
	events   int64
	stopped  bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a watcher. Nothing is watched until Start.
func New(config Config, filter Filter, logger *slog.Logger, handler Handler) (*FSWatcher, error) {
	info, err := os.Stat(config.Root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", config.Root)
	}

	excludes, err := compilePatterns(config.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	return &FSWatcher{
		config:   config,
		filter:   filter,
		handler:  handler,
		logger:   slogutil.OrDiscard(logger),
		excludes: excludes,
		dirs:     make(map[string]bool),
	}, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Start adds the root and all non-ignored subdirectories and begins processing events
// until ctx is done or Stop is called.
func (w *FSWatcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.fs = fw
	w.mu.Unlock()

	if err := w.addRecursive(w.config.Root); err != nil {
		_ = fw.Close()
		return err
	}

	w.logger.Info("Starting file watcher",
		"root", w.config.Root,
		"directories", w.watchedDirs(),
		"ignorePatterns", len(w.excludes),
	)

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop stops watching. Safe to call more than once.
func (w *FSWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		fw := w.fs
		w.mu.Unlock()

		if fw != nil {
			err = fw.Close()
		}
		w.wg.Wait()
		w.logger.Info("File watcher stopped")
	})
	return err
}

func (w *FSWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.config.Root && w.IsIgnored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Debug("Failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.mu.Lock()
		w.dirs[filepath.Clean(path)] = true
		w.mu.Unlock()
		return nil
	})
}

// forgetDir drops dir and every watched directory below it. It reports whether dir was
// being watched.
func (w *FSWatcher) forgetDir(dir string) bool {
	w.mu.Lock()
	if !w.dirs[dir] {
		w.mu.Unlock()
		return false
	}
	prefix := dir + string(filepath.Separator)
	var gone []string
	for d := range w.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			gone = append(gone, d)
			delete(w.dirs, d)
		}
	}
	fw := w.fs
	w.mu.Unlock()

	for _, d := range gone {
		// fsnotify drops watches of deleted directories itself; a moved one stays registered.
		_ = fw.Remove(d)
	}
	return true
}

// emitTree reports every source file already present below a newly created directory.
// Files written before the directory was watched produce no events of their own.
func (w *FSWatcher) emitTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if w.IsIgnored(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || (w.filter != nil && !w.filter.IsSourceFile(path)) {
			return nil
		}
		w.emit(EventCreate, path)
		return nil
	})
}

func (w *FSWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

func (w *FSWatcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if w.IsIgnored(path) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = w.addRecursive(path)
			w.emitTree(path)
			return
		}
	}

	// A directory deleted or moved away takes its files with it; the handler receives the
	// directory path.
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if w.forgetDir(path) {
			w.emit(mapOp(ev.Op), path)
			return
		}
	}

	if w.filter != nil && !w.filter.IsSourceFile(path) {
		return
	}
	w.emit(mapOp(ev.Op), path)
}

func (w *FSWatcher) emit(typ EventType, path string) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.events++
	w.mu.Unlock()

	event := Event{Type: typ, Path: path, Timestamp: time.Now()}
	w.logger.Debug("File change detected", "path", event.Path, "type", event.Type.String())
	if w.handler != nil {
		w.handler(event)
	}
}

// opMappings is checked in order; first match wins.
var opMappings = []struct {
	op  fsnotify.Op
	typ EventType
}{
	{fsnotify.Create, EventCreate},
	{fsnotify.Write, EventModify},
	{fsnotify.Remove, EventDelete},
	{fsnotify.Rename, EventRename},
}

func mapOp(op fsnotify.Op) EventType {
	for _, m := range opMappings {
		if op.Has(m.op) {
			return m.typ
		}
	}
	return EventModify
}

// IsIgnored checks if a path is inside an ignored directory or matches an ignore pattern
func (w *FSWatcher) IsIgnored(path string) bool {
	if w.filter != nil && w.filter.IsIgnored(path) {
		return true
	}
	if len(w.excludes) == 0 {
		return false
	}

	rel := path
	if r, err := filepath.Rel(w.config.Root, path); err == nil {
		rel = filepath.ToSlash(r)
	}
	for _, g := range w.excludes {
		if matches(g, rel) {
			return true
		}
	}
	return false
}

func matches(g glob.Glob, rel string) bool {
	if g.Match(rel) || g.Match(filepath.Base(rel)) {
		return true
	}
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' && g.Match(rel[i+1:]) {
			return true
		}
	}
	return false
}

func (w *FSWatcher) watchedDirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

// Stats reports watcher state
type Stats struct {
	Root           string `json:"root"`
	Directories    int    `json:"directories"`
	Events         int64  `json:"events"`
	IgnorePatterns int    `json:"ignorePatterns"`
	Stopped        bool   `json:"stopped"`
}

// Stats returns watcher statistics
func (w *FSWatcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Root:           w.config.Root,
		Directories:    len(w.dirs),
		Events:         w.events,
		IgnorePatterns: len(w.excludes),
		Stopped:        w.stopped,
	}
}
