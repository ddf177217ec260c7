package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_queries_total",
			Help: "Total number of evidence queries answered",
		},
		[]string{"status"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ufdr_query_duration_seconds",
			Help:    "End-to-end query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CategoryResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ufdr_category_results",
			Help:    "Number of evidence items returned per category",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"category"},
	)

	MessageStages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_message_retrieval_stage_total",
			Help: "Which message retrieval stage produced the result set",
		},
		[]string{"stage"},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_collaborator_failures_total",
			Help: "Collaborator calls that degraded to an empty result",
		},
		[]string{"collaborator", "kind"},
	)

	// Advisory planner metrics
	PlannerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_planner_requests_total",
			Help: "Advisory planner calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	PlannerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ufdr_planner_latency_seconds",
			Help:    "Advisory planner latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"provider"},
	)

	// Similarity index metrics
	VectorSearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_vector_search_total",
			Help: "Vector searches against the similarity index",
		},
		[]string{"collection", "status"},
	)

	VectorSearchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ufdr_vector_search_latency_seconds",
			Help:    "Vector search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_embedding_requests_total",
			Help: "Embedding lookups by model and source",
		},
		[]string{"model", "status"},
	)

	EmbeddingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ufdr_embedding_latency_seconds",
			Help:    "Embedding generation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	LexiconReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_lexicon_reloads_total",
			Help: "Lexicon file reload attempts",
		},
		[]string{"status"},
	)
)

// RecordQuery records the outcome of one Answer call
func RecordQuery(status string, durationSeconds float64) {
	QueriesTotal.WithLabelValues(status).Inc()
	QueryDuration.Observe(durationSeconds)
}

// RecordCategory records the size of one category result
func RecordCategory(category string, count int) {
	CategoryResults.WithLabelValues(category).Observe(float64(count))
}

// RecordCollaboratorFailure counts a degraded collaborator call
func RecordCollaboratorFailure(collaborator, kind string) {
	CollaboratorFailures.WithLabelValues(collaborator, kind).Inc()
}

// RecordPlanner records an advisory planner call
func RecordPlanner(provider, outcome string, durationSeconds float64) {
	PlannerRequests.WithLabelValues(provider, outcome).Inc()
	if durationSeconds > 0 {
		PlannerLatency.WithLabelValues(provider).Observe(durationSeconds)
	}
}

// RecordVectorSearchMetrics records a similarity index search
func RecordVectorSearchMetrics(collection, status string, durationSeconds float64) {
	VectorSearchTotal.WithLabelValues(collection, status).Inc()
	VectorSearchLatency.WithLabelValues(collection).Observe(durationSeconds)
}

// RecordEmbeddingMetrics records an embedding lookup
func RecordEmbeddingMetrics(model, status string, durationSeconds float64) {
	EmbeddingRequests.WithLabelValues(model, status).Inc()
	if durationSeconds > 0 {
		EmbeddingLatency.WithLabelValues(model).Observe(durationSeconds)
	}
}
