package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Scoring pipeline Prometheus metrics.
var (
	EngineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_duration_seconds",
			Help:      "Sub-score engine duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"engine"},
	)

	EngineResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_results_total",
			Help:      "Sub-score results by engine and status",
		},
		[]string{"engine", "status"},
	)

	BaselineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crime_baseline_duration_seconds",
			Help:      "Borough crime baseline computation time",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"borough"},
	)

	RetrievalHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_hits",
			Help:      "Number of documents returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	RetrievalErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_errors_total",
			Help:      "Retrieval failures by kind",
		},
		[]string{"error_type"},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Documents in the loaded vector index",
		},
	)

	ScoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_requests_total",
			Help:      "ScoreAddress calls by outcome",
		},
		[]string{"outcome"},
	)
)

var scoringOnce sync.Once

// RegisterScoringMetrics registers engine, baseline, retrieval and index metrics.
func RegisterScoringMetrics() {
	scoringOnce.Do(func() {
		prometheus.MustRegister(
			EngineDuration,
			EngineResultsTotal,
			BaselineDuration,
			RetrievalHits,
			RetrievalErrorsTotal,
			IndexDocuments,
			ScoreRequestsTotal,
		)
	})
}
