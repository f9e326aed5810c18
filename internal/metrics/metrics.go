// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Store operation latency and failures (all backends)
// - API endpoint latency and throughput
// - Recommendation latency, result sizes and outcomes
// - Interaction volume, retraining and vocabulary state
// - Neighbor cache efficiency and circuit breaker state

var (
	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"operation", "error_type"}, // error_type: "timeout", "not_found", "conflict", "unavailable", "other"
	)

	StoreRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_retries_total",
			Help: "Total number of retried store operations",
		},
		[]string{"operation"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"outcome"}, // "ok", "empty", "cold_start", "error"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of recommendation scoring in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	RecommendationResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_result_size",
			Help:    "Number of videos returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_total",
			Help: "Total number of recorded user interactions",
		},
		[]string{"type"}, // "watch", "rating", "like"
	)

	VideosIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videos_ingested_total",
			Help: "Total number of ingested videos",
		},
		[]string{"mode"}, // "create", "update"
	)

	// Training Metrics
	RetrainTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrain_total",
			Help: "Total number of vocabulary rebuilds and re-embeddings",
		},
		[]string{"trigger", "result"}, // trigger: "ingest", "manual", "scheduled", "event", "startup"
	)

	RetrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrain_duration_seconds",
			Help:    "Duration of a full re-embedding pass in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	VocabularyTerms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vocabulary_terms",
			Help: "Number of terms in the serving vocabulary",
		},
	)

	VocabularyGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vocabulary_generation",
			Help: "Generation counter of the serving vocabulary snapshot",
		},
	)

	InconsistentStateErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inconsistent_state_errors_total",
			Help: "Total number of scoring passes halted by embedding dimension or version mismatches",
		},
	)

	// Cache Metrics
	NeighborCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neighbor_cache_hits_total",
			Help: "Total number of neighbor list cache hits",
		},
	)

	NeighborCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neighbor_cache_misses_total",
			Help: "Total number of neighbor list cache misses",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of published domain events",
		},
		[]string{"topic"},
	)

	EventsThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_retrain_throttled_total",
			Help: "Total number of retrain-triggering events skipped by the rate limiter",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordStoreOperation records the latency of a store call and, on failure,
// its error class.
func RecordStoreOperation(operation string, duration time.Duration, errorType string) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if errorType != "" {
		StoreOperationErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// RecordStoreRetry records one retry of a store operation.
func RecordStoreRetry(operation string) {
	StoreRetries.WithLabelValues(operation).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records the outcome of one recommendation call.
func RecordRecommendation(outcome string, resultSize int, duration time.Duration) {
	RecommendationRequests.WithLabelValues(outcome).Inc()
	if outcome == "error" {
		return
	}
	RecommendationResultSize.Observe(float64(resultSize))
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordInteraction records a watch, rating or like.
func RecordInteraction(kind string) {
	InteractionsTotal.WithLabelValues(kind).Inc()
}

// RecordVideoIngested records a created or updated video.
func RecordVideoIngested(created bool) {
	mode := "update"
	if created {
		mode = "create"
	}
	VideosIngested.WithLabelValues(mode).Inc()
}

// RecordRetrain records a re-embedding pass.
func RecordRetrain(trigger string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	RetrainTotal.WithLabelValues(trigger, result).Inc()
	if err == nil {
		RetrainDuration.Observe(duration.Seconds())
	}
}

// SetVocabulary publishes the serving vocabulary's size and generation.
func SetVocabulary(terms int, generation uint64) {
	VocabularyTerms.Set(float64(terms))
	VocabularyGeneration.Set(float64(generation))
}

// RecordInconsistentState records a halted scoring pass.
func RecordInconsistentState() {
	InconsistentStateErrors.Inc()
}

// RecordNeighborCache records a neighbor cache lookup.
func RecordNeighborCache(hit bool) {
	if hit {
		NeighborCacheHits.Inc()
	} else {
		NeighborCacheMisses.Inc()
	}
}

// RecordEventPublished records a published domain event.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventThrottled records a retrain trigger dropped by the limiter.
func RecordEventThrottled() {
	EventsThrottled.Inc()
}
