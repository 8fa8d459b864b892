// Package metrics provides Prometheus metrics for the Jasmine service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PairsScoredTotal tracks scored viewer->candidate directions by outcome
	PairsScoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jasmine",
			Subsystem: "matching",
			Name:      "pairs_scored_total",
			Help:      "Total number of scored pair directions by outcome",
		},
		[]string{"outcome"}, // ranked, excluded, skipped
	)

	// PageDuration tracks candidate discovery duration in seconds
	PageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jasmine",
			Subsystem: "matching",
			Name:      "page_duration_seconds",
			Help:      "Duration of candidate page requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// PoolCandidates tracks the candidate pool size per discovery request
	PoolCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jasmine",
			Subsystem: "matching",
			Name:      "pool_candidates",
			Help:      "Candidate pool size fetched per discovery request",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	// MalformedPreferenceFields tracks preference fields dropped during
	// normalization, labeled by field name
	MalformedPreferenceFields = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jasmine",
			Subsystem: "preferences",
			Name:      "malformed_fields_total",
			Help:      "Total number of malformed preference fields treated as missing",
		},
		[]string{"field"},
	)

	// PageCacheHits tracks ranked page cache hits and misses
	PageCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jasmine",
			Subsystem: "matching",
			Name:      "page_cache_total",
			Help:      "Ranked page cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)
)
