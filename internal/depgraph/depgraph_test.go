package depgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/config"
	"codegraph/internal/testutil"
	"codegraph/internal/workspace"
)

type fsSource struct {
	walker *workspace.Walker
	reads  map[string]int
}

func (s *fsSource) Content(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	if s.reads != nil {
		s.reads[path]++
	}
	return string(data), true
}

func (s *fsSource) Files(ctx context.Context) []string {
	return s.walker.List(ctx).Files
}

func newBuilder(t *testing.T, files map[string]string) (*Builder, *testutil.Workspace, *fsSource) {
	t.Helper()
	ws := testutil.NewWorkspace(t, files)
	src := &fsSource{
		walker: workspace.NewWalker(ws.Root, workspace.Options{
			Extensions: config.DefaultExtensions,
			IgnoreDirs: config.DefaultIgnoreDirs,
			MaxFiles:   1000,
		}, nil),
		reads: map[string]int{},
	}
	return NewBuilder(ws.Root, src, NewResolver(ws.Root, config.DefaultExtensions), nil), ws, src
}

func TestResolver_Resolve(t *testing.T) {
	ws := testutil.NewWorkspace(t, map[string]string{
		"src/a.ts":            "",
		"src/b.tsx":           "",
		"src/lib/index.ts":    "",
		"src/data.json":       "",
		"src/widget/index.js": "",
	})
	r := NewResolver(ws.Root, config.DefaultExtensions)
	from := ws.Path("src/main.ts")

	tests := []struct {
		specifier string
		want      string
	}{
		{"./a", "src/a.ts"},
		{"./a.ts", "src/a.ts"},
		{"./b", "src/b.tsx"},
		{"./lib", "src/lib/index.ts"},
		{"./widget", "src/widget/index.js"},
		{"./data.json", "src/data.json"},
		{"../src/a", "src/a.ts"},
		{"/src/a", "src/a.ts"},
		{"./missing", ""},
		{"react", ""},
		{"@scope/pkg", ""},
	}
	for _, tt := range tests {
		t.Run(tt.specifier, func(t *testing.T) {
			got, ok := r.Resolve(from, tt.specifier)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Empty(t, got)
				return
			}
			require.True(t, ok)
			assert.Equal(t, ws.Path(tt.want), got)
		})
	}
}

func TestResolver_AbsoluteSpecifier(t *testing.T) {
	ws := testutil.NewWorkspace(t, map[string]string{"lib/util.ts": ""})
	r := NewResolver(ws.Root, config.DefaultExtensions)

	got, ok := r.Resolve(ws.Path("main.ts"), filepath.ToSlash(ws.Path("lib/util")))
	require.True(t, ok)
	assert.Equal(t, ws.Path("lib/util.ts"), got)
}

func TestResolver_DirectoryIsNotAFile(t *testing.T) {
	ws := testutil.NewWorkspace(t, map[string]string{"lib/other.ts": ""})
	r := NewResolver(ws.Root, config.DefaultExtensions)

	_, ok := r.Resolve(ws.Path("main.ts"), "./lib")
	assert.False(t, ok)
}

func TestAnalyzeDependencies(t *testing.T) {
	b, ws, _ := newBuilder(t, map[string]string{
		"a.ts": "export function foo(){ bar(); }\n",
		"b.ts": "import {foo} from './a'; foo();\nimport React from 'react';\nimport { gone } from './gone';\nimport { foo as f2 } from './a';\n",
	})
	ctx := context.Background()

	g := b.AnalyzeDependencies(ctx, ws.Path("b.ts"))
	assert.Equal(t, ws.Path("b.ts"), g.File)
	assert.Equal(t, []string{ws.Path("a.ts")}, g.Dependencies)
	assert.Len(t, g.Imports, 4)
	assert.Empty(t, g.Importers)
	assert.Empty(t, g.CircularDeps)

	a := b.AnalyzeDependencies(ctx, ws.Path("a.ts"))
	assert.Equal(t, []string{ws.Path("b.ts")}, a.Importers)
	require.Len(t, a.Exports, 1)
	assert.Equal(t, []string{"foo"}, a.Exports[0].ExportedNames)
	assert.Empty(t, a.Dependencies)
}

func TestAnalyzeDependencies_Idempotent(t *testing.T) {
	b, ws, src := newBuilder(t, map[string]string{
		"a.ts": "import './b';\n",
		"b.ts": "export const b = 1;\n",
	})
	ctx := context.Background()

	first := b.AnalyzeDependencies(ctx, ws.Path("a.ts"))
	reads := src.reads[ws.Path("a.ts")]
	second := b.AnalyzeDependencies(ctx, ws.Path("a.ts"))
	assert.Equal(t, first, second)
	assert.Equal(t, reads, src.reads[ws.Path("a.ts")])
}

func TestDetectCircularDependencies_Acyclic(t *testing.T) {
	files := map[string]string{
		"a.ts": "import './b';\nimport './c';\n",
		"b.ts": "import './c';\nimport './d';\n",
		"c.ts": "import './d';\n",
		"d.ts": "export const d = 1;\n",
	}
	b, ws, _ := newBuilder(t, files)

	for name := range files {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, b.DetectCircularDependencies(ws.Path(name)))
		})
	}
}

func TestDetectCircularDependencies_Cycle(t *testing.T) {
	b, ws, _ := newBuilder(t, map[string]string{
		"a.ts": "import { b } from './b';\n",
		"b.ts": "import { c } from './c';\n",
		"c.ts": "import { a } from './a';\n",
	})

	cycles := b.DetectCircularDependencies(ws.Path("a.ts"))
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{ws.Path("a.ts"), ws.Path("b.ts"), ws.Path("c.ts")}, cycles[0].Cycle)
	assert.Equal(t, "a.ts -> b.ts -> c.ts -> a.ts", cycles[0].Description)
}

func TestDetectCircularDependencies_Multiple(t *testing.T) {
	b, ws, _ := newBuilder(t, map[string]string{
		"a.ts": "import './b';\nimport './a';\n",
		"b.ts": "import './a';\nimport './c';\n",
		"c.ts": "import './b';\n",
	})

	cycles := b.DetectCircularDependencies(ws.Path("a.ts"))
	var got [][]string
	for _, c := range cycles {
		got = append(got, c.Cycle)
	}
	assert.Equal(t, [][]string{
		{ws.Path("a.ts"), ws.Path("b.ts")},
		{ws.Path("b.ts"), ws.Path("c.ts")},
		{ws.Path("a.ts")},
	}, got)
}

func TestFindImporters_RebuildAfterInvalidate(t *testing.T) {
	b, ws, _ := newBuilder(t, map[string]string{
		"x.ts": "export const x = 1;\n",
		"y.ts": "export const y = 2;\n",
		"z.ts": "import { x } from './x';\n",
	})
	ctx := context.Background()

	assert.False(t, b.IndexBuilt())
	assert.Equal(t, []string{ws.Path("z.ts")}, b.FindImporters(ctx, ws.Path("x.ts")))
	assert.True(t, b.IndexBuilt())

	ws.Write(t, "y.ts", "import { x } from './x';\nexport const y = 2;\n")
	assert.Equal(t, []string{ws.Path("z.ts")}, b.FindImporters(ctx, ws.Path("x.ts")), "stale until invalidated")

	b.Invalidate(ws.Path("y.ts"))
	assert.False(t, b.IndexBuilt())
	assert.Equal(t, []string{ws.Path("y.ts"), ws.Path("z.ts")}, b.FindImporters(ctx, ws.Path("x.ts")))
}

func TestInvalidate_DropsGraphs(t *testing.T) {
	b, ws, _ := newBuilder(t, map[string]string{
		"x.ts": "export const x = 1;\n",
		"y.ts": "export const y = 2;\n",
	})
	ctx := context.Background()

	before := b.AnalyzeDependencies(ctx, ws.Path("x.ts"))
	assert.Empty(t, before.Importers)

	ws.Write(t, "y.ts", "import { x } from './x';\n")
	b.Invalidate(ws.Path("y.ts"))

	after := b.AnalyzeDependencies(ctx, ws.Path("x.ts"))
	assert.Equal(t, []string{ws.Path("y.ts")}, after.Importers)

	b.Clear()
	parsed, graphs := b.CacheSizes()
	assert.Zero(t, parsed)
	assert.Zero(t, graphs)
}

func TestImporterIndex(t *testing.T) {
	ix := NewImporterIndex()
	deps := map[string][]string{
		"/w/a.ts": {"/w/c.ts"},
		"/w/b.ts": {"/w/c.ts", "/w/a.ts"},
	}
	ix.Build([]string{"/w/b.ts", "/w/a.ts"}, func(f string) []string { return deps[f] })

	assert.True(t, ix.Built())
	assert.Equal(t, []string{"/w/a.ts", "/w/b.ts"}, ix.Importers("/w/c.ts"))
	assert.Equal(t, []string{"/w/b.ts"}, ix.Importers("/w/a.ts"))
	assert.Empty(t, ix.Importers("/w/b.ts"))

	targets, scanned := ix.Size()
	assert.Equal(t, 2, targets)
	assert.Equal(t, 2, scanned)

	ix.Invalidate()
	assert.False(t, ix.Built())
}
