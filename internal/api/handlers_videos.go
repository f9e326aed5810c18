// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend"
)

// IngestVideo handles POST /api/v1/videos. Re-ingesting an existing ID
// replaces its content and keeps its engagement statistics.
func (h *Handler) IngestVideo(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var in recommend.VideoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	video, err := h.engine.IngestVideo(r.Context(), in)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, video, started)
}

// GetVideo handles GET /api/v1/videos/{id}.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	video, err := h.engine.GetVideo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, video, started)
}

// ListVideos handles GET /api/v1/videos?tag=.
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	videos, err := h.engine.ListVideos(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"items": videos,
		"count": len(videos),
	}, started)
}
