// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend/similarity"
)

func TestLearningStep(t *testing.T) {
	t.Parallel()
	l := DefaultConfig().Learning

	tests := []struct {
		name string
		ev   interaction
		want float64
	}{
		{name: "max rating", ev: interaction{rating: models.Float64Ptr(5)}, want: 0.3},
		{name: "neutral rating", ev: interaction{rating: models.Float64Ptr(2.5)}, want: 0},
		{name: "zero rating", ev: interaction{rating: models.Float64Ptr(0)}, want: -0.3},
		{name: "implicit watch", ev: interaction{}, want: 0.1},
		{name: "like", ev: interaction{like: true}, want: 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := l.step(tt.ev); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("step() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := models.NewUserProfile("u", now)

	if err := updateProfile(p, []float64{1, 0}, 7, 0.5, now); err != nil {
		t.Fatalf("updateProfile() error = %v", err)
	}
	if p.Preference[0] != 0.5 || p.Preference[1] != 0 {
		t.Errorf("Preference = %v, want [0.5 0] from the zero vector", p.Preference)
	}
	if p.InteractionCount != 1 || p.PositiveCount != 1 || p.Revision != 1 || p.VocabularyVersion != 7 {
		t.Errorf("profile = %+v", p)
	}

	if err := updateProfile(p, []float64{1, 0}, 7, -0.5, now); err != nil {
		t.Fatalf("updateProfile() error = %v", err)
	}
	if p.Preference[0] != 0.25 || p.NegativeCount != 1 {
		t.Errorf("after negative step Preference = %v, negatives = %d", p.Preference, p.NegativeCount)
	}

	err := updateProfile(p, []float64{1, 0, 0}, 7, 0.1, now)
	if !errors.Is(err, ErrInconsistentState) {
		t.Errorf("dimension mismatch error = %v, want ErrInconsistentState", err)
	}
	err = updateProfile(p, []float64{1, 0}, 8, 0.1, now)
	if !errors.Is(err, ErrInconsistentState) {
		t.Errorf("version mismatch error = %v, want ErrInconsistentState", err)
	}
	if p.InteractionCount != 2 {
		t.Errorf("failed updates changed InteractionCount to %d", p.InteractionCount)
	}
}

func TestSortInteractions(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	events := []interaction{
		{videoID: "b", like: true, at: t0},
		{videoID: "c", at: t0.Add(-time.Minute), id: "w2"},
		{videoID: "a", at: t0, id: "w1"},
	}
	sortInteractions(events)

	want := []string{"c", "a", "b"}
	for i, ev := range events {
		if ev.videoID != want[i] {
			t.Fatalf("order = %v, want %v", events, want)
		}
	}
}

func TestReplayProfile_ResetsWithoutEvents(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	base := &models.UserProfile{
		UserID:           "u",
		Preference:       []float64{1, 2},
		InteractionCount: 4,
		Revision:         9,
		CreatedAt:        now.Add(-time.Hour),
	}

	p, err := replayProfile(base, nil, nil, 1, DefaultConfig().Learning, now)
	if err != nil {
		t.Fatalf("replayProfile() error = %v", err)
	}
	if p.Preference != nil || p.InteractionCount != 0 {
		t.Errorf("profile = %+v, want reset", p)
	}
	if p.Revision != 10 || !p.CreatedAt.Equal(base.CreatedAt) {
		t.Errorf("Revision = %d CreatedAt = %v, want 10 and the original", p.Revision, p.CreatedAt)
	}
}

func TestCollaborativeScores(t *testing.T) {
	t.Parallel()
	neighbors := []neighborEntry{
		{Neighbor: Neighbor{UserID: "n1", Similarity: 1}, ratings: similarity.Ratings{"w": 5, "x": 0}},
		{Neighbor: Neighbor{UserID: "n2", Similarity: 0.5}, ratings: similarity.Ratings{"w": 2.5}},
	}
	scores := collaborativeScores(neighbors)

	// (1*1 + 0.5*0.5) / 1.5
	if got, want := scores["w"], 1.25/1.5; math.Abs(got-want) > 1e-12 {
		t.Errorf("score(w) = %v, want %v", got, want)
	}
	if got := scores["x"]; got != 0 {
		t.Errorf("score(x) = %v, want 0", got)
	}
	if _, ok := scores["untouched"]; ok {
		t.Error("untouched video has a score")
	}
}

func TestKeyedLocks_SerializesSameKey(t *testing.T) {
	t.Parallel()
	var locks keyedLocks
	unlock := locks.Lock("u")

	acquired := make(chan struct{})
	go func() {
		u := locks.RLock("u")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("RLock acquired while the write lock was held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("RLock not acquired after unlock")
	}
}
