package callgraph

import (
	"context"

	"codegraph/internal/functions"
)

// ExecutionPath is one call chain from a start function to an end function
type ExecutionPath struct {
	Functions []string `json:"functions"`
	Files     []string `json:"files"`
	IsAsync   bool     `json:"isAsync"`
	Depth     int      `json:"depth"`
}

type pathFrame struct {
	name string
	path []string
}

type visitKey struct {
	name  string
	depth int
}

// TraceExecutionPath collects call chains from start to end no longer than maxDepth
// calls. The search is depth-first on an explicit stack; a function already expanded at
// the same depth is not expanded again, and a chain never revisits a function.
func (b *Builder) TraceExecutionPath(ctx context.Context, start, end string, maxDepth int) []ExecutionPath {
	paths := []ExecutionPath{}
	if maxDepth < 0 {
		return paths
	}

	expanded := make(map[visitKey]bool)
	stack := []pathFrame{{name: start, path: []string{start}}}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			break
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		depth := len(f.path) - 1

		if f.name == end {
			paths = append(paths, b.executionPath(ctx, f.path))
			continue
		}
		if depth >= maxDepth {
			continue
		}
		key := visitKey{name: f.name, depth: depth}
		if expanded[key] {
			continue
		}
		expanded[key] = true

		callees := b.calleeNames(ctx, f.name)
		for i := len(callees) - 1; i >= 0; i-- {
			callee := callees[i]
			if contains(f.path, callee) {
				continue
			}
			next := make([]string, len(f.path), len(f.path)+1)
			copy(next, f.path)
			stack = append(stack, pathFrame{name: callee, path: append(next, callee)})
		}
	}
	return paths
}

func (b *Builder) executionPath(ctx context.Context, names []string) ExecutionPath {
	p := ExecutionPath{
		Functions: names,
		Files:     make([]string, len(names)),
		Depth:     len(names) - 1,
	}
	for i, name := range names {
		fn, ok := b.FindFunction(ctx, name)
		if !ok {
			continue
		}
		p.Files[i] = fn.FilePath
		if fn.Kind == functions.KindAsync {
			p.IsAsync = true
		}
	}
	return p
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
