package depgraph

import (
	"sort"
	"sync"
)

// ImporterIndex maps a file to the set of files that import it. It is built by one full
// scan and never patched; Invalidate marks it stale until the next Build.
type ImporterIndex struct {
	mu        sync.RWMutex
	importers map[string]map[string]struct{}
	built     bool
	scanned   int
}

// NewImporterIndex creates an empty, unbuilt index.
func NewImporterIndex() *ImporterIndex {
	return &ImporterIndex{importers: make(map[string]map[string]struct{})}
}

// Build replaces the index contents by inverting deps over files.
func (ix *ImporterIndex) Build(files []string, deps func(file string) []string) {
	importers := make(map[string]map[string]struct{})
	for _, file := range files {
		for _, target := range deps(file) {
			set, ok := importers[target]
			if !ok {
				set = make(map[string]struct{})
				importers[target] = set
			}
			set[file] = struct{}{}
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.importers = importers
	ix.built = true
	ix.scanned = len(files)
}

// Importers returns the sorted importers of target.
func (ix *ImporterIndex) Importers(target string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	set := ix.importers[target]
	out := make([]string, 0, len(set))
	for file := range set {
		out = append(out, file)
	}
	sort.Strings(out)
	return out
}

// Invalidate marks the index stale.
func (ix *ImporterIndex) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.built = false
}

// Built reports whether the index is current.
func (ix *ImporterIndex) Built() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.built
}

// Size returns the number of targets and the number of files scanned by the last build.
func (ix *ImporterIndex) Size() (targets, scanned int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.importers), ix.scanned
}
