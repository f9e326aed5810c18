// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vidrec/internal/logging"
	"github.com/tomtom215/vidrec/internal/recommend"
)

// userContext tags the request logger with the path user.
func userContext(r *http.Request) (*http.Request, string) {
	userID := chi.URLParam(r, "id")
	return r.WithContext(logging.ContextWithUserID(r.Context(), userID)), userID
}

// PutUser handles PUT /api/v1/users/{id}. It answers 201 when the profile
// was created and 200 when it already existed.
func (h *Handler) PutUser(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	r, userID := userContext(r)
	profile, created, err := h.engine.CreateOrGetProfile(r.Context(), userID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondSuccess(w, r, status, profile, started)
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	r, userID := userContext(r)
	profile, err := h.engine.GetProfile(r.Context(), userID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, profile, started)
}

// RecordWatch handles POST /api/v1/users/{id}/watches and returns the
// updated profile.
func (h *Handler) RecordWatch(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	r, userID := userContext(r)
	var req WatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.engine.RecordWatch(r.Context(), recommend.WatchInput{
		UserID:     userID,
		VideoID:    req.VideoID,
		Rating:     req.Rating,
		Completion: req.Completion,
		WatchedAt:  req.WatchedAt,
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, profile, started)
}

// RecordLike handles POST /api/v1/users/{id}/likes. A repeated like answers
// 200 with the original timestamp.
func (h *Handler) RecordLike(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	r, userID := userContext(r)
	var req LikeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.engine.RecordLike(r.Context(), userID, req.VideoID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondSuccess(w, r, status, result, started)
}

// Recommendations handles
// GET /api/v1/users/{id}/recommendations?n=&include_watched=.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	r, userID := userContext(r)
	n, err := queryInt(r, "n", 0)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	includeWatched, err := queryBool(r, "include_watched")
	if err != nil {
		respondParamError(w, r, err)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		UserID:         userID,
		N:              n,
		IncludeWatched: includeWatched,
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, resp, started)
}

// Neighbors handles GET /api/v1/users/{id}/neighbors?k=.
func (h *Handler) Neighbors(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	r, userID := userContext(r)
	k, err := queryInt(r, "k", 0)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	neighbors, err := h.engine.Neighbors(r.Context(), userID, k)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if neighbors == nil {
		neighbors = []recommend.Neighbor{}
	}
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"user_id":   userID,
		"neighbors": neighbors,
		"count":     len(neighbors),
	}, started)
}

// Insights handles GET /api/v1/users/{id}/insights?limit=.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	r, userID := userContext(r)
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	insights, err := h.engine.Insights(r.Context(), userID, limit)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, insights, started)
}
