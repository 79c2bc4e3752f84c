package callgraph

import "context"

// CallTree is one node of an expanded call hierarchy
type CallTree struct {
	Function    string      `json:"function"`
	File        string      `json:"file,omitempty"`
	Line        int         `json:"line,omitempty"`
	Depth       int         `json:"depth"`
	Calls       []*CallTree `json:"calls,omitempty"`
	IsRecursive bool        `json:"isRecursive,omitempty"`
	IsAsync     bool        `json:"isAsync,omitempty"`
}

type treeFrame struct {
	node   *CallTree
	parent *treeFrame
}

func (f *treeFrame) onPath(name string) bool {
	for p := f; p != nil; p = p.parent {
		if p.node.Function == name {
			return true
		}
	}
	return false
}

// GetCallTree expands the calls below name up to maxDepth levels. A callee that already
// appears among its ancestors is marked recursive and left unexpanded.
func (b *Builder) GetCallTree(ctx context.Context, name string, maxDepth int) (*CallTree, bool) {
	fn, ok := b.FindFunction(ctx, name)
	if !ok {
		return nil, false
	}

	root := &CallTree{
		Function: fn.Name,
		File:     fn.FilePath,
		Line:     fn.Line,
		IsAsync:  fn.IsAsync(),
	}
	stack := []*treeFrame{{node: root}}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			break
		}
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if frame.node.Depth >= maxDepth {
			continue
		}

		def, found := b.FindFunction(ctx, frame.node.Function)
		if !found {
			continue
		}

		seen := make(map[string]bool)
		var children []*treeFrame
		for _, edge := range b.ExtractCalls(def) {
			if seen[edge.Callee] {
				continue
			}
			seen[edge.Callee] = true

			child := &CallTree{
				Function: edge.Callee,
				Depth:    frame.node.Depth + 1,
				IsAsync:  edge.IsAsync,
			}
			if calleeDef, ok := b.FindFunction(ctx, edge.Callee); ok {
				child.File = calleeDef.FilePath
				child.Line = calleeDef.Line
				child.IsAsync = child.IsAsync || calleeDef.IsAsync()
			}
			frame.node.Calls = append(frame.node.Calls, child)

			if frame.onPath(edge.Callee) {
				child.IsRecursive = true
				continue
			}
			children = append(children, &treeFrame{node: child, parent: frame})
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return root, true
}
