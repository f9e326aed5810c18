// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package middleware provides the HTTP middleware of the Vidrec API.

Key Components:

  - RequestID: assigns or propagates X-Request-ID and a correlation ID
  - AccessLog: one zerolog line per request plus a request-scoped logger
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - Compression: gzip for clients that accept it

All middleware use the http.HandlerFunc form; the api package adapts them
to chi's func(http.Handler) http.Handler.

Order:

	RequestID -> AccessLog -> PrometheusMetrics -> Compression -> handler
*/
package middleware
