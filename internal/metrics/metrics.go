// Package metrics provides Prometheus metrics for the Cardboard Compass backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cc_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cc_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Collection Metrics
	CollectionMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cc_collection_mutations_total",
			Help: "Collection mutations by operation and result",
		},
		[]string{"op", "result"}, // op: "add", "update", "remove", "prices"; result: "ok" or "error"
	)

	StatsRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cc_stats_recompute_duration_seconds",
			Help:    "Time taken to re-read and refold a collection into statistics",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	StatsRecomputedCards = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cc_stats_recomputed_cards",
			Help:    "Number of cards folded per statistics recomputation",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
	)

	// Error reporting
	ErrorsReportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cc_errors_reported_total",
			Help: "Errors captured by the error reporter, by call site",
		},
		[]string{"context"},
	)

	// Scanner Metrics
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cc_scans_total",
			Help: "Card scan requests by result",
		},
		[]string{"result"}, // "match", "no_match", "rate_limited", "cancelled"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cc_scan_duration_seconds",
			Help:    "Time taken to answer a scan request",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
	)

	// Chart Metrics
	ChartRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cc_chart_renders_total",
			Help: "Price chart renders by format",
		},
		[]string{"format"}, // "json", "svg", "png"
	)

	ChartCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cc_chart_cache_hits_total",
			Help: "Rendered PNG chart cache hit count",
		},
	)

	ChartCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cc_chart_cache_misses_total",
			Help: "Rendered PNG chart cache miss count",
		},
	)

	// Snapshot Metrics
	SnapshotsTakenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cc_value_snapshots_total",
			Help: "Daily collection value snapshots recorded",
		},
	)

	SnapshotOwnersTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cc_snapshot_owners_tracked",
			Help: "Owners with statistics seen by the last snapshot pass",
		},
	)
)
