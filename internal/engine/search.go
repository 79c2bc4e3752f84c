package engine

import (
	"context"

	"codegraph/internal/skim"
)

// SearchOptions bounds a workspace content search
type SearchOptions struct {
	Terms []string

	// MaxFiles caps the files scanned (0 = every listed file)
	MaxFiles int

	// MaxResults caps the total matches returned (0 = unbounded)
	MaxResults int
}

// SearchResult holds the matches found in one file
type SearchResult struct {
	File    string              `json:"file"`
	Skimmed bool                `json:"skimmed"`
	Matches []skim.PatternMatch `json:"matches"`
}

// SearchFiles scans workspace files for the search terms through the skimmer, so large
// files are searched window by window rather than read whole. Files without matches are
// omitted.
func (e *Engine) SearchFiles(ctx context.Context, opts SearchOptions) []SearchResult {
	defer e.begin("search")()

	results := []SearchResult{}
	if len(opts.Terms) == 0 {
		return results
	}

	files := e.listFiles(ctx)
	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		files = files[:opts.MaxFiles]
	}

	total := 0
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		res := e.skimmer.Read(file, opts.Terms...)
		if len(res.Patterns) == 0 {
			continue
		}
		matches := res.Patterns
		if opts.MaxResults > 0 && total+len(matches) > opts.MaxResults {
			matches = matches[:opts.MaxResults-total]
		}
		results = append(results, SearchResult{File: file, Skimmed: res.Skimmed, Matches: matches})
		total += len(matches)
		if opts.MaxResults > 0 && total >= opts.MaxResults {
			break
		}
	}

	e.logger.Debug("Search finished",
		"terms", len(opts.Terms),
		"files", len(files),
		"hits", total,
	)
	return results
}

// Skim reads path adaptively, matching terms when given.
func (e *Engine) Skim(path string, terms ...string) skim.SkimmedContent {
	defer e.begin("skim")()
	return e.skimmer.Read(e.abs(path), terms...)
}
