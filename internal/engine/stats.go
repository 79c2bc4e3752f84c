package engine

import (
	"codegraph/internal/cache"
	"codegraph/internal/watcher"
)

// Stats reports engine cache and invalidation state
type Stats struct {
	Root                 string            `json:"root"`
	Files                int               `json:"files"`
	FilesListed          bool              `json:"filesListed"`
	FilesTruncated       bool              `json:"filesTruncated"`
	Source               cache.SourceStats `json:"source"`
	ParsedFiles          int               `json:"parsedFiles"`
	DependencyGraphs     int               `json:"dependencyGraphs"`
	ImporterIndexBuilt   bool              `json:"importerIndexBuilt"`
	FunctionFiles        int               `json:"functionFiles"`
	CallGraphs           int               `json:"callGraphs"`
	PendingInvalidations int               `json:"pendingInvalidations"`
	BytesRead            int64             `json:"bytesRead"`
	Watcher              *watcher.Stats    `json:"watcher,omitempty"`
}

// Stats returns a snapshot of the engine state.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	parsed, graphs := e.deps.CacheSizes()
	fnFiles, callGraphs := e.calls.CacheSizes()
	s := Stats{
		Root:                 e.root,
		Files:                len(e.files),
		FilesListed:          e.filesListed,
		FilesTruncated:       e.filesTruncated,
		Source:               e.sources.Stats(),
		ParsedFiles:          parsed,
		DependencyGraphs:     graphs,
		ImporterIndexBuilt:   e.deps.IndexBuilt(),
		FunctionFiles:        fnFiles,
		CallGraphs:           callGraphs,
		PendingInvalidations: e.invalidator.Pending(),
		BytesRead:            e.guard.TotalRead(),
	}
	if e.fsw != nil {
		ws := e.fsw.Stats()
		s.Watcher = &ws
	}
	return s
}
