// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"time"
)

// Reason explains which signal placed a video in a result.
type Reason string

const (
	ReasonContent       Reason = "content"
	ReasonCollaborative Reason = "collaborative"
	ReasonHybrid        Reason = "hybrid"
	ReasonPopular       Reason = "popular"
)

// VideoInput is the payload of IngestVideo.
type VideoInput struct {
	ID          string   `json:"id" validate:"required,ident"`
	Title       string   `json:"title" validate:"required,max=512"`
	Description string   `json:"description" validate:"max=16384"`
	Tags        []string `json:"tags" validate:"max=64,dive,required,max=64"`
}

// MaxClockSkew is how far past the engine clock a caller-supplied
// WatchedAt may lie.
const MaxClockSkew = 5 * time.Minute

// WatchInput is the payload of RecordWatch. A zero WatchedAt means now, and
// one later than now plus MaxClockSkew is rejected.
type WatchInput struct {
	UserID     string    `json:"user_id" validate:"required,ident"`
	VideoID    string    `json:"video_id" validate:"required,ident"`
	Rating     *float64  `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Completion *float64  `json:"completion,omitempty" validate:"omitempty,gte=0,lte=1"`
	WatchedAt  time.Time `json:"watched_at,omitempty"`
}

// LikeResult reports the outcome of RecordLike.
type LikeResult struct {
	// Created is false when the user had already liked the video.
	Created bool      `json:"created"`
	LikedAt time.Time `json:"liked_at"`
}

// Request is a recommendation request.
type Request struct {
	UserID string `json:"user_id" validate:"required,ident"`

	// N is the number of results. Zero selects the default, values above the
	// maximum are capped, negative values are rejected.
	N int `json:"n"`

	// IncludeWatched lets already watched or liked videos back into the
	// candidate set (replay).
	IncludeWatched bool `json:"include_watched"`
}

// ScoredVideo is one ranked result.
type ScoredVideo struct {
	VideoID            string  `json:"video_id"`
	Title              string  `json:"title"`
	Score              float64 `json:"score"`
	ContentScore       float64 `json:"content_score"`
	CollaborativeScore float64 `json:"collaborative_score"`
	ViewCount          int64   `json:"view_count"`
	Reason             Reason  `json:"reason"`
}

// Response is the result of Recommend.
type Response struct {
	UserID            string        `json:"user_id"`
	Items             []ScoredVideo `json:"items"`
	Count             int           `json:"count"`
	Candidates        int           `json:"candidates"`
	LogID             string        `json:"log_id"`
	Algorithm         string        `json:"algorithm"`
	ColdStart         bool          `json:"cold_start"`
	VocabularyVersion uint64        `json:"vocabulary_version"`
	GeneratedAt       time.Time     `json:"generated_at"`
	ProcessingTime    time.Duration `json:"processing_time_ns"`
}

// Neighbor is a similar user.
type Neighbor struct {
	UserID           string  `json:"user_id"`
	Similarity       float64 `json:"similarity"`
	CoRated          int     `json:"co_rated"`
	InteractionCount int64   `json:"interaction_count"`
}

// SimilarUser is a user sharing watched videos with the subject.
type SimilarUser struct {
	UserID       string `json:"user_id"`
	SharedVideos int    `json:"shared_videos"`
}

// Suggestion is a video rated highly by similar users.
type Suggestion struct {
	VideoID       string  `json:"video_id"`
	Title         string  `json:"title"`
	AverageRating float64 `json:"average_rating"`
	Raters        int     `json:"raters"`
}

// Insights bundles SimilarUsers and SuggestFromSimilar for one user.
type Insights struct {
	UserID       string        `json:"user_id"`
	SimilarUsers []SimilarUser `json:"similar_users"`
	Suggestions  []Suggestion  `json:"suggestions"`
}

// EffectivenessQuery filters the recommendation log. Zero fields do not
// filter. The time range is half-open: [Since, Until).
type EffectivenessQuery struct {
	UserID    string    `json:"user_id,omitempty"`
	VideoID   string    `json:"video_id,omitempty"`
	Algorithm string    `json:"algorithm,omitempty"`
	Since     time.Time `json:"since,omitempty"`
	Until     time.Time `json:"until,omitempty"`
}

// AlgorithmEffectiveness is the per-algorithm breakdown of a report.
type AlgorithmEffectiveness struct {
	RecommendationCount int      `json:"recommendation_count"`
	RecommendedItems    int      `json:"recommended_items"`
	Clicks              int      `json:"clicks"`
	ClickThroughRate    *float64 `json:"click_through_rate"`
}

// EffectivenessReport measures how often recommendations led to watches.
// When no recommended item matches the query, Available is false and the
// rates are nil.
type EffectivenessReport struct {
	Query               EffectivenessQuery                `json:"query"`
	RecommendationCount int                               `json:"recommendation_count"`
	RecommendedItems    int                               `json:"recommended_items"`
	Clicks              int                               `json:"clicks"`
	ClickThroughRate    *float64                          `json:"click_through_rate"`
	AverageRating       *float64                          `json:"average_rating"`
	RatedClicks         int                               `json:"rated_clicks"`
	Available           bool                              `json:"available"`
	ByAlgorithm         map[string]AlgorithmEffectiveness `json:"by_algorithm"`
}

// RetrainResult summarizes a full rebuild.
type RetrainResult struct {
	Trigger           string        `json:"trigger"`
	Videos            int           `json:"videos"`
	Profiles          int           `json:"profiles"`
	Terms             int           `json:"terms"`
	VocabularyVersion uint64        `json:"vocabulary_version"`
	Generation        uint64        `json:"generation"`
	Duration          time.Duration `json:"duration_ns"`
	CompletedAt       time.Time     `json:"completed_at"`
}

// Stats describes the engine's serving state.
type Stats struct {
	Videos            int        `json:"videos"`
	Profiles          int        `json:"profiles"`
	Terms             int        `json:"terms"`
	VocabularyVersion uint64     `json:"vocabulary_version"`
	Generation        uint64     `json:"generation"`
	VocabularyStale   bool       `json:"vocabulary_stale"`
	ReembedMode       string     `json:"reembed_mode"`
	Similarity        string     `json:"similarity"`
	Alpha             float64    `json:"alpha"`
	Retraining        bool       `json:"retraining"`
	LastRetrainAt     *time.Time `json:"last_retrain_at,omitempty"`
}

// VideoIngested is published after a video is stored.
type VideoIngested struct {
	VideoID    string    `json:"video_id"`
	Created    bool      `json:"created"`
	NewTerms   bool      `json:"new_terms"`
	Reembedded bool      `json:"reembedded"`
	At         time.Time `json:"at"`
}
