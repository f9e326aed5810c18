// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vidrec/internal/logging"
	"github.com/tomtom215/vidrec/internal/metrics"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend/embedding"
	"github.com/tomtom215/vidrec/internal/store"
)

// Retrain triggers.
const (
	TriggerManual   = "manual"
	TriggerEvent    = "event"
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
)

// rebuildResult is the outcome of a rebuild transaction. Nothing in it is
// served until publish is called after commit.
type rebuildResult struct {
	vocab    *embedding.Vocabulary
	video    *models.Video
	videos   int
	profiles int
}

// Retrain rebuilds the vocabulary from every stored video, re-embeds them,
// rebuilds every profile by replaying the interaction log and persists all
// of it in one transaction before swapping the serving snapshot. Only one
// retrain runs at a time; a concurrent call returns ErrRetrainInProgress.
func (e *Engine) Retrain(ctx context.Context, trigger string) (*RetrainResult, error) {
	if !e.retrainMu.TryLock() {
		return nil, ErrRetrainInProgress
	}
	defer e.retrainMu.Unlock()

	e.corpus.Lock()
	defer e.corpus.Unlock()
	return e.retrainLocked(ctx, trigger)
}

// retrainLocked must be called with the corpus lock held exclusively.
func (e *Engine) retrainLocked(ctx context.Context, trigger string) (*RetrainResult, error) {
	const op = "retrain"
	if trigger == "" {
		trigger = TriggerManual
	}
	e.retraining.Store(true)
	defer e.retraining.Store(false)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RetrainTimeout)
	defer cancel()
	ctx = logging.ContextWithLogger(logging.ContextWithNewCorrelationID(ctx), e.logger)
	logger := logging.CtxWith(ctx).Str("trigger", trigger).Logger()

	start := time.Now()
	now := e.timestamp()
	logger.Info().Msg("retrain started")

	var rebuilt *rebuildResult
	err := e.bulk.Update(ctx, func(tx store.Tx) error {
		var err error
		rebuilt, err = e.rebuild(ctx, tx, nil, now)
		return err
	})
	duration := time.Since(start)
	metrics.RecordRetrain(trigger, duration, err)
	if err != nil {
		logger.Error().Err(err).Dur("duration", duration).Msg("retrain failed")
		return nil, storageFailure(op, err)
	}

	published := e.publish(rebuilt.vocab)
	completed := e.timestamp()
	e.lastRetrain.Store(&completed)

	logger.Info().
		Int("videos", rebuilt.videos).
		Int("profiles", rebuilt.profiles).
		Int("terms", published.Dim()).
		Uint64("generation", published.Generation()).
		Dur("duration", duration).
		Msg("retrain completed")

	return &RetrainResult{
		Trigger:           trigger,
		Videos:            rebuilt.videos,
		Profiles:          rebuilt.profiles,
		Terms:             published.Dim(),
		VocabularyVersion: published.Fingerprint(),
		Generation:        published.Generation(),
		Duration:          duration,
		CompletedAt:       completed,
	}, nil
}

// publish swaps in a committed vocabulary and drops every memoized neighbor
// list. The corpus lock must be held exclusively.
func (e *Engine) publish(vocab *embedding.Vocabulary) *embedding.Vocabulary {
	published := e.embedder.Swap(vocab)
	e.neighborCache.Purge()
	e.stale.Store(false)
	metrics.SetVocabulary(published.Dim(), published.Generation())
	return published
}

// rebuild recomputes the vocabulary over every stored video plus extra
// (which replaces a stored video of the same id), re-embeds every video and
// replays every profile, writing all of it through tx.
func (e *Engine) rebuild(ctx context.Context, tx store.Tx, extra *models.Video, now time.Time) (*rebuildResult, error) {
	videos, err := tx.ListVideos(ctx, store.VideoFilter{})
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	if extra != nil {
		replaced := false
		for i, v := range videos {
			if v.ID == extra.ID {
				videos[i] = extra
				replaced = true
				break
			}
		}
		if !replaced {
			videos = append(videos, extra)
		}
	}

	docs := corpusDocuments(videos)
	vocab := embedding.Build(docs)
	embeddings := make(map[string][]float64, len(videos))
	for i, v := range videos {
		v.Embedding = vocab.Embed(docs[i])
		v.VocabularyVersion = vocab.Fingerprint()
		embeddings[v.ID] = v.Embedding
		if err := tx.PutVideo(ctx, v); err != nil {
			return nil, fmt.Errorf("put video %s: %w", v.ID, err)
		}
	}

	profiles, err := e.replayAll(ctx, tx, embeddings, vocab.Fingerprint(), now)
	if err != nil {
		return nil, err
	}

	// A transaction that outlived its deadline must not commit.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &rebuildResult{vocab: vocab, videos: len(videos), profiles: profiles}
	if extra != nil {
		res.video = extra
	}
	return res, nil
}

// replayAll rebuilds every profile from the interaction log. Users with
// interactions but no stored profile get one.
func (e *Engine) replayAll(ctx context.Context, tx store.Tx, embeddings map[string][]float64, version uint64, now time.Time) (int, error) {
	profiles, err := tx.ListProfiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}
	watches, err := tx.ListWatch(ctx, store.WatchFilter{})
	if err != nil {
		return 0, fmt.Errorf("list watches: %w", err)
	}
	likes, err := tx.ListLikes(ctx, store.LikeFilter{})
	if err != nil {
		return 0, fmt.Errorf("list likes: %w", err)
	}

	events := make(map[string][]interaction)
	for _, w := range watches {
		events[w.UserID] = append(events[w.UserID], watchInteraction(w))
	}
	for _, l := range likes {
		events[l.UserID] = append(events[l.UserID], likeInteraction(l))
	}

	bases := make(map[string]*models.UserProfile, len(profiles))
	for _, p := range profiles {
		bases[p.UserID] = p
	}
	for userID := range events {
		if _, ok := bases[userID]; !ok {
			bases[userID] = models.NewUserProfile(userID, now)
		}
	}

	for userID, base := range bases {
		p, err := replayProfile(base, events[userID], embeddings, version, e.cfg.Learning, now)
		if err != nil {
			return 0, err
		}
		if err := tx.PutProfile(ctx, p); err != nil {
			return 0, fmt.Errorf("put profile %s: %w", userID, err)
		}
	}
	return len(bases), nil
}
