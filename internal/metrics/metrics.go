// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moviematch"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	// RecommendRequests counts recommendation queries.
	// Labels:
	//   - algorithm: "hybrid", "tfidf", "bm25", "semantic"
	//   - query_type: classifier output
	//   - outcome: "success", "error"
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation queries",
		},
		[]string{"algorithm", "query_type", "outcome"},
	)

	// RecommendDuration measures end-to-end query latency
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Duration of recommendation queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"algorithm"},
	)

	// SignalDuration measures one signal's scoring pass
	SignalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "signal_duration_seconds",
			Help:      "Duration of a single relevance signal scoring pass",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"signal"},
	)

	// ResponseCacheLookups counts response cache lookups by result ("hit", "miss")
	ResponseCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_lookups_total",
			Help:      "Recommendation response cache lookups",
		},
		[]string{"result"},
	)

	// EmbeddingCacheLookups counts query embedding cache lookups by result ("hit", "miss")
	EmbeddingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Query embedding cache lookups",
		},
		[]string{"result"},
	)

	// EmbeddingRequests counts calls to the embedding provider
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Embedding provider calls",
		},
		[]string{"provider", "outcome"},
	)

	// SnapshotLoads counts embedding snapshot loads at startup.
	// Labels:
	//   - result: "hit", "miss", "stale", "corrupt"
	SnapshotLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_snapshot_loads_total",
			Help:      "Embedding snapshot load attempts by result",
		},
		[]string{"result"},
	)

	// IndexBuildDuration records how long each index took to build
	IndexBuildDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Wall time of the last index build per stage",
		},
		[]string{"stage"},
	)

	// CorpusMovies is the number of movies in the loaded corpus
	CorpusMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_movies",
			Help:      "Movies in the loaded corpus",
		},
	)

	// HTTPRequests counts HTTP API requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration measures HTTP API latency
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Outcome maps an error to an outcome label
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ObserveSince records the time elapsed since start on h
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
