package depgraph

// DetectCircularDependencies searches the import graph depth-first from file. Reaching a
// file that is still on the recursion stack records the stack slice from that file's
// first occurrence to the current file. The search continues after each hit and the
// results are not deduplicated, so overlapping cycles may be reported more than once.
func (b *Builder) DetectCircularDependencies(file string) []CircularDependency {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var cycles []CircularDependency
	b.findCycles(file, visited, onStack, nil, &cycles)
	if cycles == nil {
		return []CircularDependency{}
	}
	return cycles
}

func (b *Builder) findCycles(file string, visited, onStack map[string]bool, stack []string, cycles *[]CircularDependency) {
	visited[file] = true
	onStack[file] = true
	stack = append(stack, file)

	for _, dep := range b.Dependencies(file) {
		if onStack[dep] {
			for i, f := range stack {
				if f == dep {
					cycle := make([]string, len(stack)-i)
					copy(cycle, stack[i:])
					*cycles = append(*cycles, CircularDependency{
						Cycle:       cycle,
						Description: b.describe(cycle),
					})
					break
				}
			}
		} else if !visited[dep] {
			b.findCycles(dep, visited, onStack, stack, cycles)
		}
	}

	onStack[file] = false
}
