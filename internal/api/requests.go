// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// WatchRequest is the body of POST /api/v1/users/{id}/watches. The user
// comes from the path.
type WatchRequest struct {
	VideoID    string    `json:"video_id"`
	Rating     *float64  `json:"rating,omitempty"`
	Completion *float64  `json:"completion,omitempty"`
	WatchedAt  time.Time `json:"watched_at,omitempty"`
}

// LikeRequest is the body of POST /api/v1/users/{id}/likes.
type LikeRequest struct {
	VideoID string `json:"video_id"`
}

// paramError is a malformed query parameter.
type paramError struct {
	name  string
	value string
	want  string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("query parameter %s=%q is not %s", e.name, e.value, e.want)
}

// queryInt returns the integer parameter or def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw, want: "an integer"}
	}
	return v, nil
}

// queryBool returns the boolean parameter or false when absent.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name: name, value: raw, want: "a boolean"}
	}
	return v, nil
}

// queryTime parses an RFC 3339 parameter. Absent yields the zero time.
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	v, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, &paramError{name: name, value: raw, want: "an RFC 3339 timestamp"}
	}
	return v.UTC(), nil
}

func respondParamError(w http.ResponseWriter, r *http.Request, err error) {
	details := map[string]interface{}{}
	var pe *paramError
	if errors.As(err, &pe) {
		details["field"] = pe.name
		details["value"] = pe.value
	}
	respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), details)
}
