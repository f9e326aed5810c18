// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/vidrec/internal/metrics"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/validation"
)

// CreateOrGetProfile returns the profile of userID, creating an empty one
// when none exists. created reports whether it was created by this call.
func (e *Engine) CreateOrGetProfile(ctx context.Context, userID string) (*models.UserProfile, bool, error) {
	const op = "create_or_get_profile"
	if !validation.IsIdentifier(userID) {
		return nil, false, invalidInputf(op, "invalid user id %q", userID)
	}

	unlock := e.users.Lock(userID)
	defer unlock()

	var (
		profile *models.UserProfile
		created bool
	)
	err := e.store.Update(ctx, func(tx store.Tx) error {
		p, err := tx.GetProfile(ctx, userID)
		if err == nil {
			profile = p
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		profile = models.NewUserProfile(userID, e.timestamp())
		created = true
		return tx.PutProfile(ctx, profile)
	})
	if err != nil {
		return nil, false, storageFailure(op, err)
	}
	if created {
		e.logger.Debug().Str("user_id", userID).Msg("profile created")
	}
	return profile, created, nil
}

// loadForUpdate reads the video and profile an interaction touches and
// checks both against the serving vocabulary. A missing profile is created.
func (e *Engine) loadForUpdate(ctx context.Context, tx store.Tx, op, userID, videoID string, now time.Time) (*models.Video, *models.UserProfile, error) {
	video, err := tx.GetVideo(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, notFound(op, "video %s", videoID)
	}
	if err != nil {
		return nil, nil, err
	}

	vocab := e.embedder.Current()
	if err := checkEmbedding(op, vocab, "video "+video.ID, video.Embedding, video.VocabularyVersion); err != nil {
		return nil, nil, err
	}

	profile, err := tx.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		profile = models.NewUserProfile(userID, now)
	case err != nil:
		return nil, nil, err
	case profile.Preference != nil:
		if err := checkEmbedding(op, vocab, "profile "+userID, profile.Preference, profile.VocabularyVersion); err != nil {
			return nil, nil, err
		}
	}
	return video, profile, nil
}

// RecordWatch appends a watch, moves the user's profile toward (or, for a
// low rating, away from) the video's content and bumps the video's view and
// rating statistics, all in one transaction.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func (e *Engine) RecordWatch(ctx context.Context, in WatchInput) (*models.UserProfile, error) {
	const op = "record_watch"
	if err := validation.ValidateStruct(in); err != nil {
		return nil, invalidInput(op, err)
	}

	e.corpus.RLock()
	defer e.corpus.RUnlock()
	unlock := e.users.Lock(in.UserID)
	defer unlock()

	now := e.timestamp()
	watchedAt := now
	if !in.WatchedAt.IsZero() {
		watchedAt = in.WatchedAt.UTC().Truncate(time.Microsecond)
		if watchedAt.After(now.Add(MaxClockSkew)) {
			return nil, invalidInputf(op, "watched_at %s is in the future", watchedAt.Format(time.RFC3339))
		}
	}
	entry := &models.WatchEntry{
		ID:         e.newID(),
		UserID:     in.UserID,
		VideoID:    in.VideoID,
		Rating:     in.Rating,
		Completion: in.Completion,
		WatchedAt:  watchedAt,
	}
	ev := watchInteraction(entry)

	var profile *models.UserProfile
	err := e.store.Update(ctx, func(tx store.Tx) error {
		video, p, err := e.loadForUpdate(ctx, tx, op, in.UserID, in.VideoID, now)
		if err != nil {
			return err
		}
		if err := updateProfile(p, video.Embedding, video.VocabularyVersion, e.cfg.Learning.step(ev), now); err != nil {
			return err
		}
		if err := tx.AppendWatch(ctx, entry); err != nil {
			return err
		}

		video.ViewCount++
		if entry.Rating != nil {
			video.RatingCount++
			video.RatingSum += *entry.Rating
		}
		video.UpdatedAt = now
		if err := tx.PutVideo(ctx, video); err != nil {
			return err
		}
		if err := tx.PutProfile(ctx, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, storageFailure(op, err)
	}

	kind := "watch"
	if entry.Rating != nil {
		kind = "rating"
	}
	metrics.RecordInteraction(kind)
	e.logger.Debug().
		Str("user_id", in.UserID).
		Str("video_id", in.VideoID).
		Str("kind", kind).
		Int64("interactions", profile.InteractionCount).
		Msg("watch recorded")
	return profile, nil
}

// RecordLike records that userID liked videoID. Liking is idempotent: only
// the first like moves the profile and the video's like count.
func (e *Engine) RecordLike(ctx context.Context, userID, videoID string) (*LikeResult, error) {
	const op = "record_like"
	if !validation.IsIdentifier(userID) {
		return nil, invalidInputf(op, "invalid user id %q", userID)
	}
	if !validation.IsIdentifier(videoID) {
		return nil, invalidInputf(op, "invalid video id %q", videoID)
	}

	e.corpus.RLock()
	defer e.corpus.RUnlock()
	unlock := e.users.Lock(userID)
	defer unlock()

	now := e.timestamp()
	result := &LikeResult{}
	err := e.store.Update(ctx, func(tx store.Tx) error {
		video, p, err := e.loadForUpdate(ctx, tx, op, userID, videoID, now)
		if err != nil {
			return err
		}

		existing, err := tx.ListLikes(ctx, store.LikeFilter{UserID: userID, VideoID: videoID})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			*result = LikeResult{Created: false, LikedAt: existing[0].LikedAt}
			return nil
		}

		like := &models.LikedVideo{UserID: userID, VideoID: videoID, LikedAt: now}
		created, err := tx.AppendLike(ctx, like)
		if err != nil {
			return err
		}
		if !created {
			*result = LikeResult{Created: false, LikedAt: now}
			return nil
		}

		if err := updateProfile(p, video.Embedding, video.VocabularyVersion, e.cfg.Learning.step(likeInteraction(like)), now); err != nil {
			return err
		}
		video.LikeCount++
		video.UpdatedAt = now
		if err := tx.PutVideo(ctx, video); err != nil {
			return err
		}
		if err := tx.PutProfile(ctx, p); err != nil {
			return err
		}
		*result = LikeResult{Created: true, LikedAt: now}
		return nil
	})
	if err != nil {
		return nil, storageFailure(op, err)
	}

	if result.Created {
		metrics.RecordInteraction("like")
	}
	e.logger.Debug().
		Str("user_id", userID).
		Str("video_id", videoID).
		Bool("created", result.Created).
		Msg("like recorded")
	return result, nil
}
