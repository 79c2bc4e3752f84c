package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered once per process and shared by every Engine in it.
var (
	// sourceCacheLookups counts content cache lookups.
	// Labels: result (hit, miss)
	sourceCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codegraph",
		Subsystem: "source_cache",
		Name:      "lookups_total",
		Help:      "Source cache lookups by result",
	}, []string{"result"})

	// contentReads counts file loads by how the content was obtained.
	// Labels: mode (full, skimmed, skipped)
	contentReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codegraph",
		Subsystem: "content",
		Name:      "reads_total",
		Help:      "File content loads by read mode",
	}, []string{"mode"})

	flushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codegraph",
		Subsystem: "invalidation",
		Name:      "flushes_total",
		Help:      "Invalidation flushes applied",
	})

	invalidatedPathsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codegraph",
		Subsystem: "invalidation",
		Name:      "paths_total",
		Help:      "Paths invalidated by flushes",
	})

	indexRebuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "codegraph",
		Subsystem: "importer_index",
		Name:      "rebuild_seconds",
		Help:      "Importer index rebuild duration",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	// queryDuration measures public query latency.
	// Labels: op (deps, importers, cycles, callgraph, callers, depth, path, tree, search, skim, ...)
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codegraph",
		Subsystem: "engine",
		Name:      "query_seconds",
		Help:      "Engine query latency by operation",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"op"})
)
