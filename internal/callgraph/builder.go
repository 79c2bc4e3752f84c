// Package callgraph builds name-based call graphs over a workspace: the calls each
// function makes, who calls it, call depth, execution paths and call trees. Functions are
// matched by name only, so same-named functions in different files or classes are
// indistinguishable.
package callgraph

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"codegraph/internal/cache"
	cgerrors "codegraph/internal/errors"
	"codegraph/internal/functions"
	"codegraph/internal/slogutil"
)

// CallEdge is one call site
type CallEdge struct {
	Caller        string `json:"caller"`
	Callee        string `json:"callee"`
	Line          int    `json:"line"`
	FilePath      string `json:"filePath"`
	IsAsync       bool   `json:"isAsync"`
	RawExpression string `json:"rawExpression"`
}

// CallGraph describes one function's callers and callees
type CallGraph struct {
	Function    functions.FunctionDefinition `json:"function"`
	Callers     []CallEdge                   `json:"callers"`
	Callees     []CallEdge                   `json:"callees"`
	CallDepth   int                          `json:"callDepth"`
	IsRecursive bool                         `json:"isRecursive"`
}

// Source supplies file contents and the workspace file list.
type Source interface {
	Content(path string) (string, bool)
	Files(ctx context.Context) []string
}

// symbols is the workspace-wide view rebuilt after every invalidation
type symbols struct {
	files   []string
	defs    map[string][]functions.FunctionDefinition
	callees map[string][]string
}

// Builder answers call graph questions for one workspace. It owns its per-file caches
// and the workspace symbol table.
type Builder struct {
	source       Source
	logger       *slog.Logger
	maxCallDepth int

	functions *cache.DerivedCache[[]functions.FunctionDefinition]
	calls     *cache.DerivedCache[fileCalls]
	graphs    *cache.DerivedCache[*CallGraph]

	mu  sync.Mutex
	sym *symbols
}

// NewBuilder creates a builder. maxCallDepth bounds CalculateCallDepth.
func NewBuilder(source Source, maxCallDepth int, logger *slog.Logger) *Builder {
	if maxCallDepth <= 0 {
		maxCallDepth = 50
	}
	return &Builder{
		source:       source,
		logger:       slogutil.OrDiscard(logger),
		maxCallDepth: maxCallDepth,
		functions:    cache.NewDerivedCache[[]functions.FunctionDefinition](),
		calls:        cache.NewDerivedCache[fileCalls](),
		graphs:       cache.NewDerivedCache[*CallGraph](),
	}
}

// Functions returns the definitions in file.
func (b *Builder) Functions(file string) []functions.FunctionDefinition {
	if defs, ok := b.functions.Get(file); ok {
		return defs
	}
	content, ok := b.source.Content(file)
	if !ok {
		return nil
	}
	defs := functions.Extract(content, file)
	b.functions.Put(file, defs, file)
	return defs
}

func (b *Builder) fileCalls(file string) fileCalls {
	if fc, ok := b.calls.Get(file); ok {
		return fc
	}
	content, ok := b.source.Content(file)
	if !ok {
		return fileCalls{}
	}
	fc := scanFile(content, file, b.Functions(file))
	b.calls.Put(file, fc, file)
	return fc
}

func (b *Builder) symbols(ctx context.Context) *symbols {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sym != nil {
		return b.sym
	}

	files := b.source.Files(ctx)
	sym := &symbols{
		files:   files,
		defs:    make(map[string][]functions.FunctionDefinition),
		callees: make(map[string][]string),
	}
	total := 0
	for _, file := range files {
		for _, fn := range b.Functions(file) {
			sym.defs[fn.Name] = append(sym.defs[fn.Name], fn)
			total++
		}
	}
	b.logger.Debug("Function table built", "files", len(files), "functions", total)
	b.sym = sym
	return sym
}

// FindFunction returns the first definition of name in workspace file order.
func (b *Builder) FindFunction(ctx context.Context, name string) (functions.FunctionDefinition, bool) {
	defs := b.symbols(ctx).defs[name]
	if len(defs) == 0 {
		return functions.FunctionDefinition{}, false
	}
	return defs[0], true
}

// ExtractCalls returns the calls made in the body of fn.
func (b *Builder) ExtractCalls(fn functions.FunctionDefinition) []CallEdge {
	return b.fileCalls(fn.FilePath).byFunction[fn.Key()]
}

// FindCallers returns every call of name across the workspace, top-level calls included,
// ordered by file and line.
func (b *Builder) FindCallers(ctx context.Context, name string) []CallEdge {
	callers := []CallEdge{}
	for _, file := range b.symbols(ctx).files {
		fc := b.fileCalls(file)
		var inFile []CallEdge
		for _, fn := range b.Functions(file) {
			for _, e := range fc.byFunction[fn.Key()] {
				if e.Callee == name {
					inFile = append(inFile, e)
				}
			}
		}
		for _, e := range fc.module {
			if e.Callee == name {
				inFile = append(inFile, e)
			}
		}
		sort.SliceStable(inFile, func(i, j int) bool { return inFile[i].Line < inFile[j].Line })
		callers = append(callers, inFile...)
	}
	return callers
}

// calleeNames returns the distinct callees of the first definition of name, in call order.
func (b *Builder) calleeNames(ctx context.Context, name string) []string {
	sym := b.symbols(ctx)

	b.mu.Lock()
	names, ok := sym.callees[name]
	b.mu.Unlock()
	if ok {
		return names
	}

	names = []string{}
	if fn, found := b.FindFunction(ctx, name); found {
		seen := make(map[string]bool)
		for _, e := range b.ExtractCalls(fn) {
			if !seen[e.Callee] {
				seen[e.Callee] = true
				names = append(names, e.Callee)
			}
		}
	}

	b.mu.Lock()
	sym.callees[name] = names
	b.mu.Unlock()
	return names
}

// AnalyzeCallGraph returns the call graph of the first definition of name.
func (b *Builder) AnalyzeCallGraph(ctx context.Context, name string) (*CallGraph, bool) {
	if g, ok := b.graphs.Get(name); ok {
		return g, true
	}
	fn, ok := b.FindFunction(ctx, name)
	if !ok {
		return nil, false
	}

	callees := b.ExtractCalls(fn)
	if callees == nil {
		callees = []CallEdge{}
	}
	g := &CallGraph{
		Function:    fn,
		Callers:     b.FindCallers(ctx, name),
		Callees:     callees,
		CallDepth:   b.CalculateCallDepth(ctx, name, nil),
		IsRecursive: b.reaches(ctx, name, name),
	}
	b.graphs.Put(name, g, cache.AnyPath)
	return g, true
}

// CalculateCallDepth returns the length of the longest call chain below name. Functions
// in visited, or already on the current chain, count as depth 0. Each branch works on
// its own copy of visited, so siblings do not prune each other. Depth is capped at the
// configured maximum.
func (b *Builder) CalculateCallDepth(ctx context.Context, name string, visited map[string]bool) int {
	w := &depthWalk{budget: depthBudget}
	depth := b.callDepth(ctx, name, visited, 0, w)
	if w.truncated {
		b.logger.Debug("Call depth truncated",
			"code", cgerrors.MaxDepthExceeded,
			"function", name,
			"maxCallDepth", b.maxCallDepth,
			"budgetLeft", w.budget,
		)
	}
	return depth
}

// depthBudget bounds the number of nodes a single depth calculation may visit
const depthBudget = 200000

type depthWalk struct {
	budget    int
	truncated bool
}

func (b *Builder) callDepth(ctx context.Context, name string, visited map[string]bool, level int, w *depthWalk) int {
	if visited[name] || ctx.Err() != nil {
		return 0
	}
	if level >= b.maxCallDepth || w.budget <= 0 {
		w.truncated = true
		return 0
	}
	w.budget--
	callees := b.calleeNames(ctx, name)
	if len(callees) == 0 {
		return 0
	}

	branch := make(map[string]bool, len(visited)+1)
	for k, v := range visited {
		branch[k] = v
	}
	branch[name] = true

	deepest := 0
	for _, callee := range callees {
		deepest = max(deepest, b.callDepth(ctx, callee, branch, level+1, w))
	}
	return 1 + deepest
}

// reaches reports whether target is reachable through calls starting below from.
func (b *Builder) reaches(ctx context.Context, from, target string) bool {
	seen := map[string]bool{}
	stack := append([]string(nil), b.calleeNames(ctx, from)...)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if name == target {
			return true
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		stack = append(stack, b.calleeNames(ctx, name)...)
	}
	return false
}

// Invalidate drops everything derived from the given files. The symbol table and every
// call graph are rebuilt on the next query.
func (b *Builder) Invalidate(files ...string) {
	for _, f := range files {
		b.functions.InvalidatePath(f)
		b.calls.InvalidatePath(f)
	}
	b.graphs.Clear()

	b.mu.Lock()
	b.sym = nil
	b.mu.Unlock()
}

// Clear drops every cached result.
func (b *Builder) Clear() {
	b.functions.Clear()
	b.calls.Clear()
	b.graphs.Clear()

	b.mu.Lock()
	b.sym = nil
	b.mu.Unlock()
}

// CacheSizes returns the number of files with cached definitions and the number of
// cached call graphs.
func (b *Builder) CacheSizes() (files, graphs int) {
	return b.functions.Len(), b.graphs.Len()
}
