// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/vidrec/internal/cache"
	"github.com/tomtom215/vidrec/internal/metrics"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend/embedding"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/validation"
)

// ranks reports whether a ranks ahead of b: score desc, then view count
// desc, then video id asc. The order is total, so results are deterministic.
func ranks(a, b ScoredVideo) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.ViewCount != b.ViewCount {
		return a.ViewCount > b.ViewCount
	}
	return a.VideoID < b.VideoID
}

func reasonFor(content, collaborative float64) Reason {
	switch {
	case content > 0 && collaborative > 0:
		return ReasonHybrid
	case collaborative > 0:
		return ReasonCollaborative
	default:
		return ReasonContent
	}
}

// Recommend returns up to N videos for the user and appends exactly one
// recommendation log entry, even when the list is empty.
//
// A warm user's candidates are scored Alpha*content + (1-Alpha)*collaborative
// and only positive scores are eligible. A user without interactions gets
// every candidate at score 0, which orders by popularity.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := e.recommend(ctx, req, start)
	if err != nil {
		metrics.RecordRecommendation("error", 0, time.Since(start))
		return nil, err
	}
	outcome := "ok"
	switch {
	case resp.ColdStart:
		outcome = "cold_start"
	case resp.Count == 0:
		outcome = "empty"
	}
	metrics.RecordRecommendation(outcome, resp.Count, resp.ProcessingTime)
	return resp, nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) recommend(ctx context.Context, req Request, start time.Time) (*Response, error) {
	const op = "recommend"
	if err := validation.ValidateStruct(req); err != nil {
		return nil, invalidInput(op, err)
	}
	n := req.N
	switch {
	case n < 0:
		return nil, invalidInputf(op, "n must not be negative, got %d", n)
	case n == 0:
		n = e.cfg.Limits.DefaultN
	case n > e.cfg.Limits.MaxN:
		n = e.cfg.Limits.MaxN
	}

	e.corpus.RLock()
	defer e.corpus.RUnlock()
	unlock := e.users.RLock(req.UserID)
	defer unlock()

	vocab := e.embedder.Current()
	logger := e.logger.With().Str("user_id", req.UserID).Logger()

	profile, err := e.store.GetProfile(ctx, req.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, storageFailure(op, err)
	}
	cold := profile.IsCold()
	if !cold && profile.Preference != nil {
		if err := checkEmbedding(op, vocab, "profile "+req.UserID, profile.Preference, profile.VocabularyVersion); err != nil {
			return nil, err
		}
	}

	var excluded map[string]struct{}
	if !req.IncludeWatched {
		excluded, err = e.interactedVideos(ctx, req.UserID)
		if err != nil {
			return nil, storageFailure(op, err)
		}
	}

	var collab map[string]float64
	if !cold {
		neighbors, err := e.neighbors(ctx, profile, e.cfg.NeighborK)
		if err != nil {
			return nil, storageFailure(op, err)
		}
		collab = collaborativeScores(neighbors)
	}

	videos, err := e.store.ListVideos(ctx, store.VideoFilter{})
	if err != nil {
		return nil, storageFailure(op, err)
	}

	top := cache.NewTopK(n, ranks)
	candidates := 0
	for _, v := range videos {
		if _, ok := excluded[v.ID]; ok {
			continue
		}
		// Every candidate is checked, not only the ones that make the cut.
		if err := checkEmbedding(op, vocab, "video "+v.ID, v.Embedding, v.VocabularyVersion); err != nil {
			logger.Error().Err(err).Msg("scoring halted")
			return nil, err
		}
		candidates++

		item := ScoredVideo{VideoID: v.ID, Title: v.Title, ViewCount: v.ViewCount}
		if cold {
			item.Reason = ReasonPopular
			top.Push(item)
			continue
		}

		content, err := embedding.Cosine(profile.Preference, v.Embedding)
		if err != nil {
			return nil, inconsistent(op, "video %s: %v", v.ID, err)
		}
		cf := collab[v.ID]
		item.ContentScore = content
		item.CollaborativeScore = cf
		item.Score = e.cfg.Alpha*content + (1-e.cfg.Alpha)*cf
		if item.Score <= 0 {
			continue
		}
		item.Reason = reasonFor(content, cf)
		top.Push(item)
	}

	items := top.Sorted()
	now := e.timestamp()
	entry := &models.RecommendationLog{
		ID:        e.newID(),
		UserID:    req.UserID,
		VideoIDs:  make([]string, len(items)),
		Scores:    make([]float64, len(items)),
		Algorithm: e.cfg.Algorithm,
		ColdStart: cold,
		CreatedAt: now,
	}
	for i, it := range items {
		entry.VideoIDs[i] = it.VideoID
		entry.Scores[i] = it.Score
	}
	if err := e.store.AppendRecommendationLog(ctx, entry); err != nil {
		return nil, storageFailure(op, err)
	}

	resp := &Response{
		UserID:            req.UserID,
		Items:             items,
		Count:             len(items),
		Candidates:        candidates,
		LogID:             entry.ID,
		Algorithm:         e.cfg.Algorithm,
		ColdStart:         cold,
		VocabularyVersion: vocab.Fingerprint(),
		GeneratedAt:       now,
		ProcessingTime:    time.Since(start),
	}
	logger.Debug().
		Int("candidates", candidates).
		Int("returned", resp.Count).
		Bool("cold_start", cold).
		Dur("latency", resp.ProcessingTime).
		Msg("recommendation complete")
	return resp, nil
}

// interactedVideos returns the ids of every video the user watched or liked.
func (e *Engine) interactedVideos(ctx context.Context, userID string) (map[string]struct{}, error) {
	watches, err := e.store.ListWatch(ctx, store.WatchFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	likes, err := e.store.ListLikes(ctx, store.LikeFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(watches)+len(likes))
	for _, w := range watches {
		seen[w.VideoID] = struct{}{}
	}
	for _, l := range likes {
		seen[l.VideoID] = struct{}{}
	}
	return seen, nil
}
