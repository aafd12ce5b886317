package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	// QueriesTotal counts resolved queries.
	// Labels: intent
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fundrag",
		Subsystem: "query",
		Name:      "resolved_total",
		Help:      "Total queries by resolved intent",
	}, []string{"intent"})

	// EmptyResultsTotal counts queries whose context was an empty-result sentinel.
	// Labels: intent
	EmptyResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fundrag",
		Subsystem: "query",
		Name:      "empty_results_total",
		Help:      "Total queries that found nothing in the knowledge base",
	}, []string{"intent"})

	// GenerationLatency measures answer generation time.
	// Labels: status (success, error)
	GenerationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fundrag",
		Subsystem: "generator",
		Name:      "latency_seconds",
		Help:      "Answer generation latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"status"})

	// SnapshotReloads counts knowledge base reload attempts.
	// Labels: source (csv, yaml, neo4j), status (success, error, empty)
	SnapshotReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fundrag",
		Subsystem: "knowledge",
		Name:      "reloads_total",
		Help:      "Total knowledge base reloads by source and outcome",
	}, []string{"source", "status"})

	// SnapshotRows tracks the row count of each table in the live snapshot.
	// Labels: table
	SnapshotRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fundrag",
		Subsystem: "knowledge",
		Name:      "rows",
		Help:      "Rows per table in the current knowledge base snapshot",
	}, []string{"table"})
)
