// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package models

import (
	"time"
)

// WatchEntry is one watch event. Entries are append-only; a re-watch appends
// a new entry rather than overwriting the previous one.
type WatchEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	VideoID    string    `json:"video_id"`
	Rating     *float64  `json:"rating,omitempty"`     // [0,5], nil when the watch carried no explicit rating
	Completion *float64  `json:"completion,omitempty"` // [0,1] fraction watched, nil when unknown
	WatchedAt  time.Time `json:"watched_at"`
}

// Rated reports whether the entry carries an explicit rating.
func (w *WatchEntry) Rated() bool {
	return w.Rating != nil
}

// LikedVideo records that a user liked a video. Unique per (UserID, VideoID).
type LikedVideo struct {
	UserID  string    `json:"user_id"`
	VideoID string    `json:"video_id"`
	LikedAt time.Time `json:"liked_at"`
}

// RecommendationLog captures exactly one recommendation call, including
// calls that returned no videos.
type RecommendationLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	VideoIDs  []string  `json:"video_ids"`
	Scores    []float64 `json:"scores,omitempty"`
	Algorithm string    `json:"algorithm"`
	ColdStart bool      `json:"cold_start,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Float64Ptr is a convenience for building optional ratings and completions.
func Float64Ptr(v float64) *float64 {
	return &v
}
