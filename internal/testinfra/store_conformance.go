// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package testinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
)

// StoreFactory opens a fresh, empty store for one subtest. The factory is
// responsible for registering cleanup with t.
type StoreFactory func(t *testing.T) store.Store

// RunStoreConformance exercises the store.Store contract against a backend.
// Every backend package calls it from its own tests.
func RunStoreConformance(t *testing.T, open StoreFactory) {
	t.Helper()

	t.Run("VideoRoundTrip", func(t *testing.T) { testVideoRoundTrip(t, open(t)) })
	t.Run("VideoFilters", func(t *testing.T) { testVideoFilters(t, open(t)) })
	t.Run("ProfileRoundTrip", func(t *testing.T) { testProfileRoundTrip(t, open(t)) })
	t.Run("WatchHistory", func(t *testing.T) { testWatchHistory(t, open(t)) })
	t.Run("LikesIdempotent", func(t *testing.T) { testLikesIdempotent(t, open(t)) })
	t.Run("RecommendationLogs", func(t *testing.T) { testRecommendationLogs(t, open(t)) })
	t.Run("UpdateRollsBackOnError", func(t *testing.T) { testUpdateRollback(t, open(t)) })
	t.Run("ViewIsReadOnly", func(t *testing.T) { testViewReadOnly(t, open(t)) })
}

// Base is a fixed, microsecond-aligned timestamp used by fixtures.
var Base = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testVideoRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.GetVideo(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetVideo(missing) error = %v, want ErrNotFound", err)
	}

	v := &models.Video{
		ID:                "v1",
		Title:             "Space travel documentary",
		Description:       "Rockets and orbits",
		Tags:              []string{"space", "science"},
		Embedding:         []float64{0.6, 0.8},
		VocabularyVersion: 42,
		ViewCount:         3,
		LikeCount:         1,
		RatingCount:       2,
		RatingSum:         9,
		CreatedAt:         Base,
		UpdatedAt:         Base.Add(time.Minute),
	}
	if err := s.PutVideo(ctx, v); err != nil {
		t.Fatalf("PutVideo() error = %v", err)
	}

	got, err := s.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Title != v.Title || got.Description != v.Description || got.VocabularyVersion != 42 {
		t.Errorf("GetVideo() = %+v, want %+v", got, v)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "space" {
		t.Errorf("Tags = %v, want [space science]", got.Tags)
	}
	if len(got.Embedding) != 2 || got.Embedding[1] != 0.8 {
		t.Errorf("Embedding = %v, want [0.6 0.8]", got.Embedding)
	}
	if got.ViewCount != 3 || got.LikeCount != 1 || got.AverageRating() != 4.5 {
		t.Errorf("stats = views %d likes %d avg %v", got.ViewCount, got.LikeCount, got.AverageRating())
	}
	if !got.CreatedAt.Equal(Base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, Base)
	}

	v.Title = "Updated"
	v.ViewCount = 4
	if err := s.PutVideo(ctx, v); err != nil {
		t.Fatalf("PutVideo(update) error = %v", err)
	}
	got, err = s.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Title != "Updated" || got.ViewCount != 4 {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.PutVideo(ctx, &models.Video{}); !errors.Is(err, store.ErrInvalidRecord) {
		t.Errorf("PutVideo(empty id) error = %v, want ErrInvalidRecord", err)
	}
}

func testVideoFilters(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, v := range []*models.Video{
		{ID: "c", Title: "C", Tags: []string{"cooking"}, ViewCount: 1, CreatedAt: Base, UpdatedAt: Base},
		{ID: "a", Title: "A", Tags: []string{"space"}, ViewCount: 5, CreatedAt: Base, UpdatedAt: Base},
		{ID: "b", Title: "B", Tags: []string{"space", "cooking"}, ViewCount: 2, CreatedAt: Base, UpdatedAt: Base},
	} {
		if err := s.PutVideo(ctx, v); err != nil {
			t.Fatalf("PutVideo(%s) error = %v", v.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter store.VideoFilter
		want   []string
	}{
		{"all sorted by id", store.VideoFilter{}, []string{"a", "b", "c"}},
		{"by ids skips missing", store.VideoFilter{IDs: []string{"c", "zzz", "a"}}, []string{"a", "c"}},
		{"by tag", store.VideoFilter{Tag: "cooking"}, []string{"b", "c"}},
		{"by predicate", store.VideoFilter{Predicate: func(v *models.Video) bool { return v.ViewCount >= 2 }}, []string{"a", "b"}},
		{"tag and predicate", store.VideoFilter{Tag: "space", Predicate: func(v *models.Video) bool { return v.ViewCount < 5 }}, []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListVideos(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListVideos() error = %v", err)
			}
			if ids := videoIDs(got); !equalStrings(ids, tt.want) {
				t.Errorf("ListVideos() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func testProfileRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetProfile(missing) error = %v, want ErrNotFound", err)
	}

	p := &models.UserProfile{
		UserID:            "u1",
		Preference:        []float64{0.1, -0.2},
		VocabularyVersion: 7,
		InteractionCount:  3,
		PositiveCount:     2,
		NegativeCount:     1,
		Revision:          3,
		CreatedAt:         Base,
		UpdatedAt:         Base,
	}
	if err := s.PutProfile(ctx, p); err != nil {
		t.Fatalf("PutProfile() error = %v", err)
	}
	if err := s.PutProfile(ctx, &models.UserProfile{UserID: "u0", CreatedAt: Base, UpdatedAt: Base}); err != nil {
		t.Fatalf("PutProfile() error = %v", err)
	}

	got, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.InteractionCount != 3 || got.Revision != 3 || got.VocabularyVersion != 7 {
		t.Errorf("GetProfile() = %+v", got)
	}
	if len(got.Preference) != 2 || got.Preference[1] != -0.2 {
		t.Errorf("Preference = %v", got.Preference)
	}

	all, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(all) != 2 || all[0].UserID != "u0" || all[1].UserID != "u1" {
		t.Errorf("ListProfiles() returned %d profiles in wrong order", len(all))
	}
	if len(all[0].Preference) != 0 {
		t.Errorf("empty profile preference = %v, want empty", all[0].Preference)
	}
}

func testWatchHistory(t *testing.T, s store.Store) {
	ctx := context.Background()

	entries := []*models.WatchEntry{
		{ID: "w3", UserID: "u1", VideoID: "v2", WatchedAt: Base.Add(3 * time.Minute)},
		{ID: "w1", UserID: "u1", VideoID: "v1", Rating: models.Float64Ptr(5), WatchedAt: Base.Add(time.Minute)},
		{ID: "w2", UserID: "u2", VideoID: "v1", Rating: models.Float64Ptr(0), Completion: models.Float64Ptr(0.5), WatchedAt: Base.Add(2 * time.Minute)},
		{ID: "w4", UserID: "u1", VideoID: "v1", WatchedAt: Base.Add(4 * time.Minute)},
	}
	for _, w := range entries {
		if err := s.AppendWatch(ctx, w); err != nil {
			t.Fatalf("AppendWatch(%s) error = %v", w.ID, err)
		}
	}

	if err := s.AppendWatch(ctx, entries[0]); !errors.Is(err, store.ErrInvalidRecord) {
		t.Errorf("AppendWatch(duplicate id) error = %v, want ErrInvalidRecord", err)
	}

	tests := []struct {
		name   string
		filter store.WatchFilter
		want   []string
	}{
		{"all ordered by time", store.WatchFilter{}, []string{"w1", "w2", "w3", "w4"}},
		{"by user", store.WatchFilter{UserID: "u1"}, []string{"w1", "w3", "w4"}},
		{"by video", store.WatchFilter{VideoID: "v1"}, []string{"w1", "w2", "w4"}},
		{"by user and video", store.WatchFilter{UserID: "u1", VideoID: "v1"}, []string{"w1", "w4"}},
		{"rated only keeps zero rating", store.WatchFilter{RatedOnly: true}, []string{"w1", "w2"}},
		{"time range half open", store.WatchFilter{TimeRange: store.TimeRange{Since: Base.Add(2 * time.Minute), Until: Base.Add(4 * time.Minute)}}, []string{"w2", "w3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListWatch(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListWatch() error = %v", err)
			}
			ids := make([]string, len(got))
			for i, w := range got {
				ids[i] = w.ID
			}
			if !equalStrings(ids, tt.want) {
				t.Errorf("ListWatch() = %v, want %v", ids, tt.want)
			}
		})
	}

	got, err := s.ListWatch(ctx, store.WatchFilter{UserID: "u2"})
	if err != nil || len(got) != 1 {
		t.Fatalf("ListWatch(u2) = %v, %v", got, err)
	}
	if got[0].Rating == nil || *got[0].Rating != 0 {
		t.Errorf("zero rating not preserved: %v", got[0].Rating)
	}
	if got[0].Completion == nil || *got[0].Completion != 0.5 {
		t.Errorf("completion not preserved: %v", got[0].Completion)
	}
}

func testLikesIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()

	like := &models.LikedVideo{UserID: "u1", VideoID: "v1", LikedAt: Base}
	created, err := s.AppendLike(ctx, like)
	if err != nil || !created {
		t.Fatalf("first AppendLike() = %v, %v; want true, nil", created, err)
	}
	created, err = s.AppendLike(ctx, &models.LikedVideo{UserID: "u1", VideoID: "v1", LikedAt: Base.Add(time.Hour)})
	if err != nil || created {
		t.Fatalf("second AppendLike() = %v, %v; want false, nil", created, err)
	}
	if _, err := s.AppendLike(ctx, &models.LikedVideo{UserID: "u2", VideoID: "v1", LikedAt: Base.Add(time.Minute)}); err != nil {
		t.Fatalf("AppendLike(u2) error = %v", err)
	}
	if _, err := s.AppendLike(ctx, &models.LikedVideo{UserID: "u1", VideoID: "v2", LikedAt: Base.Add(2 * time.Minute)}); err != nil {
		t.Fatalf("AppendLike(v2) error = %v", err)
	}

	byUser, err := s.ListLikes(ctx, store.LikeFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("ListLikes(user) error = %v", err)
	}
	if len(byUser) != 2 || byUser[0].VideoID != "v1" || !byUser[0].LikedAt.Equal(Base) {
		t.Errorf("ListLikes(user) = %+v", byUser)
	}

	byVideo, err := s.ListLikes(ctx, store.LikeFilter{VideoID: "v1"})
	if err != nil {
		t.Fatalf("ListLikes(video) error = %v", err)
	}
	if len(byVideo) != 2 || byVideo[0].UserID != "u1" || byVideo[1].UserID != "u2" {
		t.Errorf("ListLikes(video) = %+v", byVideo)
	}

	all, err := s.ListLikes(ctx, store.LikeFilter{})
	if err != nil || len(all) != 3 {
		t.Errorf("ListLikes(all) = %d, %v; want 3", len(all), err)
	}
}

func testRecommendationLogs(t *testing.T, s store.Store) {
	ctx := context.Background()

	logs := []*models.RecommendationLog{
		{ID: "r1", UserID: "u1", VideoIDs: []string{"v1", "v2"}, Scores: []float64{0.9, 0.5}, Algorithm: "hybrid", CreatedAt: Base},
		{ID: "r2", UserID: "u1", VideoIDs: []string{}, Algorithm: "hybrid", CreatedAt: Base.Add(time.Hour)},
		{ID: "r3", UserID: "u2", VideoIDs: []string{"v3"}, Algorithm: "popular", ColdStart: true, CreatedAt: Base.Add(2 * time.Hour)},
	}
	for _, e := range logs {
		if err := s.AppendRecommendationLog(ctx, e); err != nil {
			t.Fatalf("AppendRecommendationLog(%s) error = %v", e.ID, err)
		}
	}
	// Re-appending the same id is a no-op.
	if err := s.AppendRecommendationLog(ctx, logs[0]); err != nil {
		t.Fatalf("AppendRecommendationLog(duplicate) error = %v", err)
	}

	all, err := s.ListRecommendationLogs(ctx, store.LogFilter{})
	if err != nil {
		t.Fatalf("ListRecommendationLogs() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListRecommendationLogs() returned %d, want 3", len(all))
	}
	if len(all[0].VideoIDs) != 2 || all[0].VideoIDs[1] != "v2" || all[0].Scores[0] != 0.9 {
		t.Errorf("log r1 = %+v", all[0])
	}
	if all[1].VideoIDs == nil || len(all[1].VideoIDs) != 0 {
		t.Errorf("empty log video ids = %#v, want empty non-nil", all[1].VideoIDs)
	}
	if !all[2].ColdStart || all[2].Algorithm != "popular" {
		t.Errorf("log r3 = %+v", all[2])
	}

	byUser, err := s.ListRecommendationLogs(ctx, store.LogFilter{UserID: "u1"})
	if err != nil || len(byUser) != 2 {
		t.Errorf("ListRecommendationLogs(u1) = %d, %v; want 2", len(byUser), err)
	}

	windowed, err := s.ListRecommendationLogs(ctx, store.LogFilter{
		TimeRange: store.TimeRange{Since: Base.Add(30 * time.Minute)},
	})
	if err != nil || len(windowed) != 2 || windowed[0].ID != "r2" {
		t.Errorf("ListRecommendationLogs(since) = %v, %v", windowed, err)
	}
}

func testUpdateRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := s.Update(ctx, func(tx store.Tx) error {
		if err := tx.PutVideo(ctx, &models.Video{ID: "v1", Title: "T", CreatedAt: Base, UpdatedAt: Base}); err != nil {
			return err
		}
		if err := tx.AppendWatch(ctx, &models.WatchEntry{ID: "w1", UserID: "u1", VideoID: "v1", WatchedAt: Base}); err != nil {
			return err
		}
		// Writes are visible inside the transaction.
		if _, err := tx.GetVideo(ctx, "v1"); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Update() error = %v, want errBoom", err)
	}

	if _, err := s.GetVideo(ctx, "v1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("video visible after rollback: err = %v", err)
	}
	ws, err := s.ListWatch(ctx, store.WatchFilter{})
	if err != nil || len(ws) != 0 {
		t.Errorf("watch entries visible after rollback: %d, %v", len(ws), err)
	}

	err = s.Update(ctx, func(tx store.Tx) error {
		return tx.PutVideo(ctx, &models.Video{ID: "v2", Title: "T", CreatedAt: Base, UpdatedAt: Base})
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := s.GetVideo(ctx, "v2"); err != nil {
		t.Errorf("committed video missing: %v", err)
	}
}

func testViewReadOnly(t *testing.T, s store.Store) {
	ctx := context.Background()

	err := s.View(ctx, func(tx store.Tx) error {
		return tx.PutVideo(ctx, &models.Video{ID: "v1", Title: "T", CreatedAt: Base, UpdatedAt: Base})
	})
	if !errors.Is(err, store.ErrReadOnly) {
		t.Errorf("View write error = %v, want ErrReadOnly", err)
	}
}

func videoIDs(vs []*models.Video) []string {
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
