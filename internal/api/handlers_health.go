// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status string            `json:"status"`
	Uptime float64           `json:"uptime_seconds"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthLive handles GET /health/live. It only reports that the process
// is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, HealthStatus{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady handles GET /health/ready. It probes the engine and every
// registered check and answers 503 when any of them fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.ReadyTimeout)
	defer cancel()

	results := map[string]string{}
	ready := true
	record := func(name string, err error) {
		if err != nil {
			ready = false
			results[name] = err.Error()
			return
		}
		results[name] = "ok"
	}

	_, err := h.engine.Stats(ctx)
	record("engine", err)

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		record(name, h.checks[name](ctx))
	}

	if !ready {
		details := make(map[string]interface{}, len(results))
		for name, result := range results {
			details[name] = result
		}
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "Service is not ready", details)
		return
	}
	respondSuccess(w, r, http.StatusOK, HealthStatus{
		Status: "ready",
		Uptime: time.Since(h.startTime).Seconds(),
		Checks: results,
	}, started)
}
