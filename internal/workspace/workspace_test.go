package workspace

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/config"
	"codegraph/internal/slogutil"
	"codegraph/internal/testutil"
)

func defaultOptions(maxFiles int) Options {
	return Options{
		Extensions: config.DefaultExtensions,
		IgnoreDirs: config.DefaultIgnoreDirs,
		MaxFiles:   maxFiles,
	}
}

func TestWalker_List(t *testing.T) {
	ws := testutil.NewWorkspace(t, map[string]string{
		"src/a.ts":                  "",
		"src/b.tsx":                 "",
		"src/util/c.js":             "",
		"README.md":                 "",
		"node_modules/lib/index.js": "",
		"dist/bundle.js":            "",
		".git/HEAD":                 "",
	})

	listing := NewWalker(ws.Root, defaultOptions(100), nil).List(context.Background())

	assert.False(t, listing.Truncated)
	assert.Equal(t, []string{
		ws.Path("src/a.ts"),
		ws.Path("src/b.tsx"),
		ws.Path("src/util/c.js"),
	}, listing.Files)
}

func TestWalker_ListTruncates(t *testing.T) {
	ws := testutil.NewWorkspace(t, map[string]string{
		"a.ts": "", "b.ts": "", "c.ts": "", "d.ts": "",
	})

	var logs bytes.Buffer
	logger := slogutil.NewLogger(&logs, slog.LevelWarn)
	listing := NewWalker(ws.Root, defaultOptions(2), logger).List(context.Background())

	assert.True(t, listing.Truncated)
	assert.Equal(t, []string{ws.Path("a.ts"), ws.Path("b.ts")}, listing.Files)
	assert.Contains(t, logs.String(), "code=WALK_LIMIT_REACHED")
}

func TestWalker_ExactCeilingIsNotTruncated(t *testing.T) {
	ws := testutil.NewWorkspace(t, map[string]string{"a.ts": "", "b.ts": ""})

	listing := NewWalker(ws.Root, defaultOptions(2), nil).List(context.Background())

	assert.False(t, listing.Truncated)
	assert.Len(t, listing.Files, 2)
}

func TestWalker_CancelledContext(t *testing.T) {
	ws := testutil.NewWorkspace(t, map[string]string{"a.ts": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listing := NewWalker(ws.Root, defaultOptions(10), nil).List(ctx)
	assert.Empty(t, listing.Files)
}

func TestWalker_Classification(t *testing.T) {
	root := t.TempDir()
	w := NewWalker(root, defaultOptions(10), nil)

	assert.True(t, w.IsSourceFile("x/App.TSX"))
	assert.False(t, w.IsSourceFile("x/readme.md"))
	assert.True(t, w.IsIgnored(filepath.Join(root, "node_modules", "a.js")))
	assert.False(t, w.IsIgnored(filepath.Join(root, "src", "a.js")))
}

func TestWalker_MissingRoot(t *testing.T) {
	listing := NewWalker(filepath.Join(t.TempDir(), "nope"), defaultOptions(10), nil).List(context.Background())
	require.Empty(t, listing.Files)
}
