// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package models

import (
	"time"
)

// MaxRating is the top of the explicit rating scale. Ratings live in [0, MaxRating].
const MaxRating = 5.0

// Video is a catalog entry together with its content embedding and aggregate
// engagement statistics.
//
// Embedding is computed against a vocabulary snapshot; VocabularyVersion holds
// that snapshot's fingerprint so readers can detect embeddings that were
// produced against a different term table.
type Video struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	Embedding         []float64 `json:"embedding,omitempty"`
	VocabularyVersion uint64    `json:"vocabulary_version"`

	ViewCount   int64   `json:"view_count"`
	LikeCount   int64   `json:"like_count"`
	RatingCount int64   `json:"rating_count"`
	RatingSum   float64 `json:"rating_sum"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AverageRating returns the mean explicit rating, or 0 when the video has
// never been rated.
func (v *Video) AverageRating() float64 {
	if v.RatingCount == 0 {
		return 0
	}
	return v.RatingSum / float64(v.RatingCount)
}

// Clone returns a deep copy so callers can mutate slices without touching
// the stored record.
func (v *Video) Clone() *Video {
	if v == nil {
		return nil
	}
	c := *v
	c.Tags = append([]string(nil), v.Tags...)
	c.Embedding = append([]float64(nil), v.Embedding...)
	return &c
}
