// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/validation"
)

const (
	defaultInsightLimit = 10

	// suggestRating is the lowest rating a similar user must have given a
	// video for it to be suggested.
	suggestRating = 4.0
)

// SimilarUsers lists users who watched at least one video userID watched,
// most shared videos first.
func (e *Engine) SimilarUsers(ctx context.Context, userID string, limit int) ([]SimilarUser, error) {
	const op = "similar_users"
	if err := e.checkUser(ctx, op, userID); err != nil {
		return nil, err
	}
	users, err := e.similarUsers(ctx, e.store, userID)
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return truncate(users, e.insightLimit(limit)), nil
}

// SuggestFromSimilar lists videos that similar users rated at least 4 and
// userID has not watched, best rated first.
func (e *Engine) SuggestFromSimilar(ctx context.Context, userID string, limit int) ([]Suggestion, error) {
	const op = "suggest_from_similar"
	if err := e.checkUser(ctx, op, userID); err != nil {
		return nil, err
	}
	users, err := e.similarUsers(ctx, e.store, userID)
	if err != nil {
		return nil, storageFailure(op, err)
	}
	suggestions, err := e.suggest(ctx, e.store, userID, users)
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return truncate(suggestions, e.insightLimit(limit)), nil
}

// Insights returns SimilarUsers and SuggestFromSimilar read from one
// consistent snapshot.
func (e *Engine) Insights(ctx context.Context, userID string, limit int) (*Insights, error) {
	const op = "insights"
	if err := e.checkUser(ctx, op, userID); err != nil {
		return nil, err
	}
	limit = e.insightLimit(limit)

	out := &Insights{UserID: userID}
	err := e.store.View(ctx, func(tx store.Tx) error {
		users, err := e.similarUsers(ctx, tx, userID)
		if err != nil {
			return err
		}
		suggestions, err := e.suggest(ctx, tx, userID, users)
		if err != nil {
			return err
		}
		out.SimilarUsers = truncate(users, limit)
		out.Suggestions = truncate(suggestions, limit)
		return nil
	})
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return out, nil
}

func (e *Engine) checkUser(ctx context.Context, op, userID string) error {
	if !validation.IsIdentifier(userID) {
		return invalidInputf(op, "invalid user id %q", userID)
	}
	if _, err := e.store.GetProfile(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(op, "user %s", userID)
		}
		return storageFailure(op, err)
	}
	return nil
}

func (e *Engine) insightLimit(limit int) int {
	if limit <= 0 {
		return defaultInsightLimit
	}
	return min(limit, e.cfg.Limits.MaxN)
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func (e *Engine) similarUsers(ctx context.Context, r store.Reader, userID string) ([]SimilarUser, error) {
	watched, err := watchedSet(ctx, r, userID)
	if err != nil {
		return nil, err
	}

	shared := make(map[string]int)
	for videoID := range watched {
		watches, err := r.ListWatch(ctx, store.WatchFilter{VideoID: videoID})
		if err != nil {
			return nil, fmt.Errorf("list watches of video %s: %w", videoID, err)
		}
		counted := make(map[string]struct{})
		for _, w := range watches {
			if w.UserID == userID {
				continue
			}
			if _, ok := counted[w.UserID]; ok {
				continue
			}
			counted[w.UserID] = struct{}{}
			shared[w.UserID]++
		}
	}

	users := make([]SimilarUser, 0, len(shared))
	for u, n := range shared {
		users = append(users, SimilarUser{UserID: u, SharedVideos: n})
	}
	slices.SortFunc(users, func(a, b SimilarUser) int {
		if c := cmp.Compare(b.SharedVideos, a.SharedVideos); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return users, nil
}

func (e *Engine) suggest(ctx context.Context, r store.Reader, userID string, users []SimilarUser) ([]Suggestion, error) {
	watched, err := watchedSet(ctx, r, userID)
	if err != nil {
		return nil, err
	}

	type agg struct {
		sum    float64
		raters int
	}
	byVideo := make(map[string]*agg)
	for _, u := range users {
		watches, err := r.ListWatch(ctx, store.WatchFilter{UserID: u.UserID, RatedOnly: true})
		if err != nil {
			return nil, fmt.Errorf("list watches of %s: %w", u.UserID, err)
		}
		// Latest rating per video; watches are ordered by time.
		latest := make(map[string]float64)
		for _, w := range watches {
			latest[w.VideoID] = *w.Rating
		}
		for videoID, rating := range latest {
			if rating < suggestRating {
				continue
			}
			if _, ok := watched[videoID]; ok {
				continue
			}
			a := byVideo[videoID]
			if a == nil {
				a = &agg{}
				byVideo[videoID] = a
			}
			a.sum += rating
			a.raters++
		}
	}

	out := make([]Suggestion, 0, len(byVideo))
	for videoID, a := range byVideo {
		s := Suggestion{VideoID: videoID, AverageRating: a.sum / float64(a.raters), Raters: a.raters}
		v, err := r.GetVideo(ctx, videoID)
		switch {
		case err == nil:
			s.Title = v.Title
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("get video %s: %w", videoID, err)
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Suggestion) int {
		if c := cmp.Compare(b.AverageRating, a.AverageRating); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Raters, a.Raters); c != 0 {
			return c
		}
		return cmp.Compare(a.VideoID, b.VideoID)
	})
	return out, nil
}

func watchedSet(ctx context.Context, r store.Reader, userID string) (map[string]struct{}, error) {
	watches, err := r.ListWatch(ctx, store.WatchFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list watches of %s: %w", userID, err)
	}
	set := make(map[string]struct{}, len(watches))
	for _, w := range watches {
		set[w.VideoID] = struct{}{}
	}
	return set, nil
}
