// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/vidrec/internal/logging"
	"github.com/tomtom215/vidrec/internal/recommend"
)

// Effectiveness handles
// GET /api/v1/effectiveness?user_id=&video_id=&algorithm=&since=&until=.
//
// Without since the report covers the configured window ending at until
// (or now). Pass since explicitly to widen it.
func (h *Handler) Effectiveness(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	since, err := queryTime(r, "since")
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	until, err := queryTime(r, "until")
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	if since.IsZero() {
		end := until
		if end.IsZero() {
			end = h.now().UTC()
		}
		since = end.Add(-h.cfg.EffectivenessWindow)
	}

	q := r.URL.Query()
	report, err := h.engine.Effectiveness(r.Context(), recommend.EffectivenessQuery{
		UserID:    q.Get("user_id"),
		VideoID:   q.Get("video_id"),
		Algorithm: q.Get("algorithm"),
		Since:     since,
		Until:     until,
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, report, started)
}

// Retrain handles POST /api/v1/admin/retrain. The rebuild is detached from
// the request context so a disconnecting client does not abort it; the
// engine's retrain timeout still applies.
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx := context.WithoutCancel(r.Context())
	result, err := h.engine.Retrain(ctx, recommend.TriggerManual)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Int("videos", result.Videos).
		Int("profiles", result.Profiles).
		Msg("manual retrain completed")
	respondSuccess(w, r, http.StatusOK, result, started)
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, stats, started)
}
