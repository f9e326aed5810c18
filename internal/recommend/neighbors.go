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
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/vidrec/internal/metrics"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend/similarity"
	"github.com/tomtom215/vidrec/internal/store"
)

// neighborKey identifies a memoized neighbor list. A profile mutation bumps
// the revision, so stale lists are never served for a changed profile.
type neighborKey struct {
	userID   string
	revision int64
	k        int
}

// neighborEntry is a neighbor together with the rating vector that feeds the
// collaborative score.
type neighborEntry struct {
	Neighbor
	ratings similarity.Ratings
}

// userRatings returns the rating vector of a user: the latest explicit
// rating per video, raised to MaxRating for liked videos.
func userRatings(ctx context.Context, r store.Reader, userID string) (similarity.Ratings, error) {
	watches, err := r.ListWatch(ctx, store.WatchFilter{UserID: userID, RatedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list watches of %s: %w", userID, err)
	}
	likes, err := r.ListLikes(ctx, store.LikeFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list likes of %s: %w", userID, err)
	}

	ratings := make(similarity.Ratings, len(watches)+len(likes))
	// Watches arrive ordered by time, so the last write wins.
	for _, w := range watches {
		ratings[w.VideoID] = *w.Rating
	}
	for _, l := range likes {
		ratings[l.VideoID] = models.MaxRating
	}
	return ratings, nil
}

// candidateUsers returns every other user who rated or liked one of the
// given videos, sorted by id.
func candidateUsers(ctx context.Context, r store.Reader, userID string, ratings similarity.Ratings) ([]string, error) {
	seen := make(map[string]struct{})
	for videoID := range ratings {
		watches, err := r.ListWatch(ctx, store.WatchFilter{VideoID: videoID, RatedOnly: true})
		if err != nil {
			return nil, fmt.Errorf("list watches of video %s: %w", videoID, err)
		}
		for _, w := range watches {
			seen[w.UserID] = struct{}{}
		}
		likes, err := r.ListLikes(ctx, store.LikeFilter{VideoID: videoID})
		if err != nil {
			return nil, fmt.Errorf("list likes of video %s: %w", videoID, err)
		}
		for _, l := range likes {
			seen[l.UserID] = struct{}{}
		}
	}
	delete(seen, userID)

	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

// neighbors returns the k nearest users to profile, memoized per profile
// revision. Concurrent misses for the same key share one computation.
func (e *Engine) neighbors(ctx context.Context, profile *models.UserProfile, k int) ([]neighborEntry, error) {
	key := neighborKey{userID: profile.UserID, revision: profile.Revision, k: k}
	if cached, ok := e.neighborCache.Get(key); ok {
		metrics.RecordNeighborCache(true)
		return cached, nil
	}
	metrics.RecordNeighborCache(false)

	flightKey := fmt.Sprintf("%s/%d/%d", key.userID, key.revision, key.k)
	v, err, _ := e.flight.Do(flightKey, func() (interface{}, error) {
		entries, err := e.computeNeighbors(ctx, profile.UserID, k)
		if err != nil {
			return nil, err
		}
		e.neighborCache.Add(key, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]neighborEntry), nil
}

func (e *Engine) computeNeighbors(ctx context.Context, userID string, k int) ([]neighborEntry, error) {
	own, err := userRatings(ctx, e.store, userID)
	if err != nil {
		return nil, err
	}
	if len(own) == 0 {
		return nil, nil
	}

	users, err := candidateUsers(ctx, e.store, userID, own)
	if err != nil {
		return nil, err
	}

	entries := make([]*neighborEntry, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.NeighborConcurrency)
	for i, other := range users {
		g.Go(func() error {
			ratings, err := userRatings(gctx, e.store, other)
			if err != nil {
				return err
			}
			sim := e.metric.Similarity(own, ratings)
			if sim <= e.cfg.MinSimilarity {
				return nil
			}

			var interactions int64
			p, err := e.store.GetProfile(gctx, other)
			switch {
			case err == nil:
				interactions = p.InteractionCount
			case !errors.Is(err, store.ErrNotFound):
				return fmt.Errorf("get profile %s: %w", other, err)
			}

			entries[i] = &neighborEntry{
				Neighbor: Neighbor{
					UserID:           other,
					Similarity:       sim,
					CoRated:          similarity.CoRatedCount(own, ratings),
					InteractionCount: interactions,
				},
				ratings: ratings,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]neighborEntry, 0, len(entries))
	for _, ne := range entries {
		if ne != nil {
			out = append(out, *ne)
		}
	}
	slices.SortFunc(out, func(a, b neighborEntry) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		if c := cmp.Compare(b.InteractionCount, a.InteractionCount); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// collaborativeScores returns, per video, the similarity-weighted mean of
// the neighbors' normalized ratings. Videos no neighbor touched are absent.
func collaborativeScores(neighbors []neighborEntry) map[string]float64 {
	num := make(map[string]float64)
	den := make(map[string]float64)
	for _, n := range neighbors {
		for videoID, r := range n.ratings {
			num[videoID] += n.Similarity * r / models.MaxRating
			den[videoID] += n.Similarity
		}
	}

	scores := make(map[string]float64, len(num))
	for videoID, d := range den {
		if d > 0 {
			scores[videoID] = num[videoID] / d
		}
	}
	return scores
}
