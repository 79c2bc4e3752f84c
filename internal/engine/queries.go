package engine

import (
	"context"

	"codegraph/internal/callgraph"
	"codegraph/internal/depgraph"
	"codegraph/internal/functions"
	"codegraph/internal/imports"
)

// AnalyzeDependencies returns the dependency graph of file. Paths may be absolute or
// workspace-relative; results always use absolute paths.
func (e *Engine) AnalyzeDependencies(ctx context.Context, file string) *depgraph.DependencyGraph {
	defer e.begin("deps")()
	return e.deps.AnalyzeDependencies(ctx, e.abs(file))
}

// FindImporters returns the files importing file.
func (e *Engine) FindImporters(ctx context.Context, file string) []string {
	defer e.begin("importers")()
	return e.deps.FindImporters(ctx, e.abs(file))
}

// DetectCircularDependencies returns the import cycles reachable from file.
func (e *Engine) DetectCircularDependencies(ctx context.Context, file string) []depgraph.CircularDependency {
	defer e.begin("cycles")()
	return e.deps.DetectCircularDependencies(e.abs(file))
}

// FileImports returns the import statements of file.
func (e *Engine) FileImports(file string) []imports.ImportInfo {
	defer e.begin("imports")()
	return nonNil(e.deps.Imports(e.abs(file)))
}

// FileExports returns the export statements of file.
func (e *Engine) FileExports(file string) []imports.ExportInfo {
	defer e.begin("exports")()
	return nonNil(e.deps.Exports(e.abs(file)))
}

// Functions returns the function definitions in file.
func (e *Engine) Functions(file string) []functions.FunctionDefinition {
	defer e.begin("functions")()
	return nonNil(e.calls.Functions(e.abs(file)))
}

// FindFunction returns the first definition of name in workspace order.
func (e *Engine) FindFunction(ctx context.Context, name string) (functions.FunctionDefinition, bool) {
	defer e.begin("function")()
	return e.calls.FindFunction(ctx, name)
}

// FindCallers returns every call site of name.
func (e *Engine) FindCallers(ctx context.Context, name string) []callgraph.CallEdge {
	defer e.begin("callers")()
	return e.calls.FindCallers(ctx, name)
}

// AnalyzeCallGraph returns the call graph of name, or false when no definition exists.
func (e *Engine) AnalyzeCallGraph(ctx context.Context, name string) (*callgraph.CallGraph, bool) {
	defer e.begin("callgraph")()
	return e.calls.AnalyzeCallGraph(ctx, name)
}

// CalculateCallDepth returns the longest call chain below name.
func (e *Engine) CalculateCallDepth(ctx context.Context, name string) int {
	defer e.begin("depth")()
	return e.calls.CalculateCallDepth(ctx, name, nil)
}

// TraceExecutionPath returns call chains from start to end. A non-positive maxDepth uses
// the configured default.
func (e *Engine) TraceExecutionPath(ctx context.Context, start, end string, maxDepth int) []callgraph.ExecutionPath {
	defer e.begin("path")()
	if maxDepth <= 0 {
		maxDepth = e.config.Analysis.DefaultPathDepth
	}
	return e.calls.TraceExecutionPath(ctx, start, end, maxDepth)
}

// GetCallTree returns the call tree below name. A non-positive maxDepth uses the
// configured default.
func (e *Engine) GetCallTree(ctx context.Context, name string, maxDepth int) (*callgraph.CallTree, bool) {
	defer e.begin("tree")()
	if maxDepth <= 0 {
		maxDepth = e.config.Analysis.DefaultTreeDepth
	}
	return e.calls.GetCallTree(ctx, name, maxDepth)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
