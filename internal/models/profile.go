// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package models

import (
	"time"
)

// UserProfile summarizes a user's inferred preferences.
//
// Preference lives in the same space as video embeddings and is nil until
// the first qualifying interaction. Revision increases on every mutation and
// is the epoch used to invalidate memoized neighbor lists.
type UserProfile struct {
	UserID            string    `json:"user_id"`
	Preference        []float64 `json:"preference,omitempty"`
	VocabularyVersion uint64    `json:"vocabulary_version"`

	InteractionCount int64 `json:"interaction_count"`
	PositiveCount    int64 `json:"positive_count"`
	NegativeCount    int64 `json:"negative_count"`
	Revision         int64 `json:"revision"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserProfile returns an empty profile with default parameters.
func NewUserProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsCold reports whether the profile has seen no interactions yet.
func (p *UserProfile) IsCold() bool {
	return p == nil || p.InteractionCount == 0
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Preference = append([]float64(nil), p.Preference...)
	return &c
}
