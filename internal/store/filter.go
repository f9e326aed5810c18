// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package store

import (
	"cmp"
	"slices"
	"time"

	"github.com/tomtom215/vidrec/internal/models"
)

// VideoFilter narrows ListVideos. Zero value lists every video.
type VideoFilter struct {
	IDs []string // only these ids (missing ids are skipped)
	Tag string   // only videos carrying this tag (exact match)

	// Predicate is evaluated after the backend-level filters.
	Predicate func(*models.Video) bool
}

// Match reports whether v passes the filter.
func (f VideoFilter) Match(v *models.Video) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, v.ID) {
		return false
	}
	if f.Tag != "" && !slices.Contains(v.Tags, f.Tag) {
		return false
	}
	if f.Predicate != nil && !f.Predicate(v) {
		return false
	}
	return true
}

// TimeRange is a half-open [Since, Until) window. Zero bounds are open.
type TimeRange struct {
	Since time.Time
	Until time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Since.IsZero() && t.Before(r.Since) {
		return false
	}
	if !r.Until.IsZero() && !t.Before(r.Until) {
		return false
	}
	return true
}

// WatchFilter narrows ListWatch. UserID and VideoID may be combined.
type WatchFilter struct {
	UserID    string
	VideoID   string
	RatedOnly bool
	TimeRange
}

// Match reports whether w passes the filter.
func (f WatchFilter) Match(w *models.WatchEntry) bool {
	if f.UserID != "" && w.UserID != f.UserID {
		return false
	}
	if f.VideoID != "" && w.VideoID != f.VideoID {
		return false
	}
	if f.RatedOnly && !w.Rated() {
		return false
	}
	return f.Contains(w.WatchedAt)
}

// LikeFilter narrows ListLikes.
type LikeFilter struct {
	UserID  string
	VideoID string
}

// Match reports whether l passes the filter.
func (f LikeFilter) Match(l *models.LikedVideo) bool {
	if f.UserID != "" && l.UserID != f.UserID {
		return false
	}
	if f.VideoID != "" && l.VideoID != f.VideoID {
		return false
	}
	return true
}

// LogFilter narrows ListRecommendationLogs.
type LogFilter struct {
	UserID string
	TimeRange
}

// Match reports whether e passes the filter.
func (f LogFilter) Match(e *models.RecommendationLog) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	return f.Contains(e.CreatedAt)
}

// SortVideos orders videos by id.
func SortVideos(vs []*models.Video) {
	slices.SortFunc(vs, func(a, b *models.Video) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortWatch orders entries by time, then id.
func SortWatch(ws []*models.WatchEntry) {
	slices.SortFunc(ws, func(a, b *models.WatchEntry) int {
		if c := a.WatchedAt.Compare(b.WatchedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortLikes orders likes by time, then user and video.
func SortLikes(ls []*models.LikedVideo) {
	slices.SortFunc(ls, func(a, b *models.LikedVideo) int {
		if c := a.LikedAt.Compare(b.LikedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
			return c
		}
		return cmp.Compare(a.VideoID, b.VideoID)
	})
}

// SortLogs orders recommendation logs by time, then id.
func SortLogs(es []*models.RecommendationLog) {
	slices.SortFunc(es, func(a, b *models.RecommendationLog) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortProfiles orders profiles by user id.
func SortProfiles(ps []*models.UserProfile) {
	slices.SortFunc(ps, func(a, b *models.UserProfile) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
}
