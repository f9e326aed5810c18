// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package api exposes the recommendation engine over HTTP with a chi router.

# Routes

	POST /api/v1/videos                          ingest or update a video
	GET  /api/v1/videos?tag=                     list videos
	GET  /api/v1/videos/{id}                     get a video
	PUT  /api/v1/users/{id}                      create or get a profile
	GET  /api/v1/users/{id}                      get a profile
	POST /api/v1/users/{id}/watches              record a watch or rating
	POST /api/v1/users/{id}/likes                record a like
	GET  /api/v1/users/{id}/recommendations      top-N recommendations
	GET  /api/v1/users/{id}/neighbors            nearest users
	GET  /api/v1/users/{id}/insights             similar users and suggestions
	GET  /api/v1/effectiveness                   click-through report
	GET  /api/v1/stats                           engine state
	POST /api/v1/admin/retrain                   full rebuild
	GET  /health/live, /health/ready             probes
	GET  /metrics                                Prometheus

# Responses

Every API response uses the models.APIResponse envelope. Engine errors map
to statuses by kind: not found 404, invalid input 400 (VALIDATION_ERROR,
with per-field details), inconsistent state 500, storage failure 503, and a
concurrent retrain 409.

# Middleware

Global: request ID, real IP, panic recovery, CORS. Under /api/v1 also
per-IP rate limiting (httprate), access logging, Prometheus metrics and
gzip compression.
*/
package api
