// Package metrics exposes Prometheus instrumentation for the detection
// pipeline: request throughput/latency, per-item risk distribution, and
// cache/circuit-breaker health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbn_detect_requests_total",
			Help: "Total number of /detect requests by outcome",
		},
		[]string{"status"}, // "ok", "validation_error", "internal_error"
	)

	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pbn_detect_duration_seconds",
			Help:    "Duration of a full /detect request",
			Buckets: prometheus.DefBuckets,
		},
	)

	BacklinksScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pbn_detect_backlinks_per_request",
			Help:    "Number of backlinks scored per request",
			Buckets: []float64{1, 5, 20, 50, 100, 500, 1000},
		},
	)

	ItemsByRiskLevel = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbn_detect_items_total",
			Help: "Total scored backlinks by assigned risk level",
		},
		[]string{"risk_level"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pbn_cache_hits_total",
			Help: "Total advisory cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pbn_cache_misses_total",
			Help: "Total advisory cache misses, including circuit-open reads",
		},
	)

	ModelReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbn_classifier_model_reloads_total",
			Help: "Total learned-model reload attempts by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)
)

// ObserveItems increments ItemsByRiskLevel for a batch of finished items.
func ObserveItems(riskLevels []string) {
	for _, rl := range riskLevels {
		ItemsByRiskLevel.WithLabelValues(rl).Inc()
	}
}
