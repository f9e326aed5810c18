// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered globally through promauto and updated through small
Record* helpers so call sites stay one line long.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Store Metrics:
  - store_operation_duration_seconds: latency per operation (histogram)
  - store_operation_errors_total: failures by operation and error type
  - store_operation_retries_total: retried reads

API Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests

Recommendation Metrics:
  - recommendation_requests_total (outcome: ok, empty, cold_start, error)
  - recommendation_duration_seconds, recommendation_result_size
  - interactions_total (type: watch, rating, like)
  - videos_ingested_total (mode: create, update)
  - retrain_total, retrain_duration_seconds
  - vocabulary_terms, vocabulary_generation
  - inconsistent_state_errors_total
  - neighbor_cache_hits_total, neighbor_cache_misses_total

Event Metrics:
  - events_published_total, events_retrain_throttled_total

Circuit Breaker Metrics:
  - circuit_breaker_state (0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total, circuit_breaker_state_transitions_total
*/
package metrics
