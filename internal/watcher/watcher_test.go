package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.String())
		})
	}
}

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) flush(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.batches))
	copy(out, r.batches)
	return out
}

func TestInvalidator_CoalescesWindow(t *testing.T) {
	rec := &recorder{}
	inv := NewInvalidator(30*time.Millisecond, rec.flush)

	inv.Schedule("/w/b.ts")
	inv.Schedule("/w/a.ts")
	inv.Schedule("/w/b.ts")
	assert.Equal(t, 2, inv.Pending())

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"/w/a.ts", "/w/b.ts"}, rec.snapshot()[0])
	assert.Zero(t, inv.Pending())
}

func TestInvalidator_ResetsTimer(t *testing.T) {
	rec := &recorder{}
	inv := NewInvalidator(80*time.Millisecond, rec.flush)

	inv.Schedule("/w/a.ts")
	time.Sleep(40 * time.Millisecond)
	inv.Schedule("/w/b.ts")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot(), "timer should restart on every schedule")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.snapshot()[0], 2)
}

func TestInvalidator_FlushNow(t *testing.T) {
	rec := &recorder{}
	inv := NewInvalidator(time.Hour, rec.flush)

	assert.Zero(t, inv.Flush())
	inv.Schedule("/w/a.ts")
	assert.Equal(t, 1, inv.Flush())
	assert.Equal(t, [][]string{{"/w/a.ts"}}, rec.snapshot())
	assert.Zero(t, inv.Flush())
}

func TestInvalidator_ScheduleDuringFlush(t *testing.T) {
	var inv *Invalidator
	var mu sync.Mutex
	var batches [][]string
	inv = NewInvalidator(time.Hour, func(paths []string) {
		mu.Lock()
		batches = append(batches, paths)
		first := len(batches) == 1
		mu.Unlock()
		if first {
			inv.Schedule("/w/late.ts")
		}
	})

	inv.Schedule("/w/a.ts")
	inv.Flush()
	assert.Equal(t, 1, inv.Pending())
	inv.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]string{{"/w/a.ts"}, {"/w/late.ts"}}, batches)
}

func TestInvalidator_Stop(t *testing.T) {
	rec := &recorder{}
	inv := NewInvalidator(time.Hour, rec.flush)

	inv.Schedule("/w/a.ts")
	inv.Stop()
	assert.Equal(t, [][]string{{"/w/a.ts"}}, rec.snapshot())

	inv.Schedule("/w/b.ts")
	assert.Zero(t, inv.Pending())
}

type extFilter struct{ root string }

func (f extFilter) IsSourceFile(path string) bool {
	return strings.HasSuffix(path, ".ts") || strings.HasSuffix(path, ".js")
}

func (f extFilter) IsIgnored(path string) bool {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(filepath.ToSlash(rel), "node_modules")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Root: filepath.Join(t.TempDir(), "missing")}, nil, nil, nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "a.ts")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = New(Config{Root: file}, nil, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{Root: t.TempDir(), IgnorePatterns: []string{"[unclosed"}}, nil, nil, nil)
	assert.Error(t, err)
}

func TestIsIgnored(t *testing.T) {
	root := t.TempDir()
	w, err := New(Config{Root: root, IgnorePatterns: []string{"*.log", "*.d.ts", "**/*.min.js", "generated/**"}}, extFilter{root: root}, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		rel     string
		ignored bool
	}{
		{"src/a.ts", false},
		{"debug.log", true},
		{"src/types/index.d.ts", true},
		{"public/vendor/lib.min.js", true},
		{"generated/api/client.ts", true},
		{"node_modules/react/index.js", true},
		{"src/generated.ts", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.ignored, w.IsIgnored(filepath.Join(root, filepath.FromSlash(tt.rel))))
		})
	}
}

func TestFSWatcher_ReportsSourceChanges(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))

	var mu sync.Mutex
	seen := map[string]EventType{}
	w, err := New(Config{Root: root, IgnorePatterns: []string{"*.log"}}, extFilter{root: root}, nil, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		seen[ev.Path] = ev.Type
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	target := filepath.Join(root, "src", "a.ts")
	require.NoError(t, os.WriteFile(target, []byte("export const a = 1;\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "notes.log"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		_, ok := seen[target]
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for path := range seen {
		assert.True(t, strings.HasSuffix(path, ".ts"), "unexpected event for %s", path)
	}
}

func TestFSWatcher_WatchesNewDirectories(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	events := make(chan Event, 16)
	w, err := New(Config{Root: root}, extFilter{root: root}, nil, func(ev Event) { events <- ev })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	dir := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.Eventually(t, func() bool { return w.Stats().Directories == 2 }, 2*time.Second, 10*time.Millisecond)

	target := filepath.Join(dir, "b.ts")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == target {
				return
			}
		case <-deadline:
			t.Fatal("no event for file in new directory")
		}
	}
}

func TestFSWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(Config{Root: t.TempDir()}, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.True(t, w.Stats().Stopped)
}

func collect(t *testing.T, events <-chan Event, want func(Event) bool) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if want(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("expected event not reported")
			return Event{}
		}
	}
}

func TestFSWatcher_DirectoryMovedIn(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	outside, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	staged := filepath.Join(outside, "feature")
	require.NoError(t, os.MkdirAll(filepath.Join(staged, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "y.ts"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "nested", "z.ts"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "README.md"), []byte("x"), 0644))

	events := make(chan Event, 64)
	w, err := New(Config{Root: root}, extFilter{root: root}, nil, func(ev Event) { events <- ev })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	moved := filepath.Join(root, "feature")
	require.NoError(t, os.Rename(staged, moved))

	for _, name := range []string{filepath.Join(moved, "y.ts"), filepath.Join(moved, "nested", "z.ts")} {
		ev := collect(t, events, func(ev Event) bool { return ev.Path == name })
		assert.Equal(t, EventCreate, ev.Type)
	}
	require.Eventually(t, func() bool { return w.Stats().Directories == 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestFSWatcher_DirectoryMovedOut(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	outside, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	dir := filepath.Join(root, "feature")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "y.ts"), []byte("x"), 0644))

	events := make(chan Event, 64)
	w, err := New(Config{Root: root}, extFilter{root: root}, nil, func(ev Event) { events <- ev })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()
	require.Equal(t, 3, w.Stats().Directories)

	require.NoError(t, os.Rename(dir, filepath.Join(outside, "feature")))

	ev := collect(t, events, func(ev Event) bool { return ev.Path == dir })
	assert.Equal(t, EventRename, ev.Type)
	assert.Equal(t, 1, w.Stats().Directories)
}

func TestFSWatcher_DirectoryRemoved(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	dir := filepath.Join(root, "feature")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "y.ts"), []byte("x"), 0644))

	events := make(chan Event, 64)
	w, err := New(Config{Root: root}, extFilter{root: root}, nil, func(ev Event) { events <- ev })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.RemoveAll(dir))

	ev := collect(t, events, func(ev Event) bool { return ev.Path == dir })
	assert.Equal(t, EventDelete, ev.Type)
}
