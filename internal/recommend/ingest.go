// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomtom215/vidrec/internal/metrics"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend/embedding"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/validation"
)

// IngestVideo creates a video or updates the metadata of an existing one.
// Engagement statistics of an existing video are kept.
//
// In eager mode a video introducing a term the vocabulary lacks triggers a
// full rebuild inside the same transaction. In batched mode the video is
// embedded against the serving vocabulary, the vocabulary is marked stale
// and a VideoIngested event is published.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func (e *Engine) IngestVideo(ctx context.Context, in VideoInput) (*models.Video, error) {
	const op = "ingest_video"
	in = normalizeVideoInput(in)
	if err := validation.ValidateStruct(in); err != nil {
		return nil, invalidInput(op, err)
	}

	doc := embedding.Document(in.Title, in.Description, in.Tags)
	video, created, newTerms, err := e.ingestAgainstSnapshot(ctx, in, doc)
	if err != nil {
		return nil, err
	}
	reembedded := false
	if video == nil {
		video, created, err = e.ingestAndRebuild(ctx, in)
		if err != nil {
			return nil, err
		}
		reembedded = true
	}

	metrics.RecordVideoIngested(created)
	if newTerms && !reembedded {
		e.stale.Store(true)
	}
	e.logger.Debug().
		Str("video_id", video.ID).
		Bool("created", created).
		Bool("new_terms", newTerms).
		Bool("reembedded", reembedded).
		Msg("video ingested")

	if e.publisher != nil {
		ev := VideoIngested{
			VideoID:    video.ID,
			Created:    created,
			NewTerms:   newTerms,
			Reembedded: reembedded,
			At:         video.UpdatedAt,
		}
		if perr := e.publisher.PublishVideoIngested(ctx, ev); perr != nil {
			e.logger.Warn().Err(perr).Str("video_id", video.ID).Msg("failed to publish video ingested event")
		}
	}
	return video, nil
}

// normalizeVideoInput trims fields and drops blank or duplicate tags.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func normalizeVideoInput(in VideoInput) VideoInput {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	tags := make([]string, 0, len(in.Tags))
	seen := make(map[string]struct{}, len(in.Tags))
	for _, t := range in.Tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	in.Tags = tags
	return in
}

// mergeVideo applies in to the stored video, or starts a new one.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func mergeVideo(existing *models.Video, in VideoInput, now time.Time) (*models.Video, bool) {
	if existing == nil {
		return &models.Video{
			ID:          in.ID,
			Title:       in.Title,
			Description: in.Description,
			Tags:        in.Tags,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, true
	}
	v := existing.Clone()
	v.Title = in.Title
	v.Description = in.Description
	v.Tags = in.Tags
	v.UpdatedAt = now
	return v, false
}

func getVideoOrNil(ctx context.Context, tx store.Reader, id string) (*models.Video, error) {
	v, err := tx.GetVideo(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// ingestAgainstSnapshot embeds the video against the serving vocabulary.
// Holding the corpus lock shared keeps the snapshot fixed until commit.
// In eager mode a document with new terms is not stored and the returned
// video is nil; the caller rebuilds instead.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func (e *Engine) ingestAgainstSnapshot(ctx context.Context, in VideoInput, doc string) (*models.Video, bool, bool, error) {
	const op = "ingest_video"
	e.corpus.RLock()
	defer e.corpus.RUnlock()

	vocab := e.embedder.Current()
	newTerms := vocab.HasNewTerms(doc)
	if newTerms && e.cfg.ReembedMode == ReembedEager {
		return nil, false, true, nil
	}
	now := e.timestamp()

	var (
		video   *models.Video
		created bool
	)
	err := e.store.Update(ctx, func(tx store.Tx) error {
		existing, err := getVideoOrNil(ctx, tx, in.ID)
		if err != nil {
			return err
		}
		video, created = mergeVideo(existing, in, now)
		video.Embedding = vocab.Embed(doc)
		video.VocabularyVersion = vocab.Fingerprint()
		return tx.PutVideo(ctx, video)
	})
	if err != nil {
		return nil, false, false, storageFailure(op, err)
	}
	return video, created, newTerms, nil
}

// ingestAndRebuild stores the video and rebuilds the vocabulary, every
// embedding and every profile in one transaction under the exclusive
// corpus lock.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func (e *Engine) ingestAndRebuild(ctx context.Context, in VideoInput) (*models.Video, bool, error) {
	const op = "ingest_video"
	e.corpus.Lock()
	defer e.corpus.Unlock()

	now := e.timestamp()
	var (
		video   *models.Video
		created bool
		rebuilt *rebuildResult
	)
	err := e.bulk.Update(ctx, func(tx store.Tx) error {
		existing, err := getVideoOrNil(ctx, tx, in.ID)
		if err != nil {
			return err
		}
		video, created = mergeVideo(existing, in, now)

		rebuilt, err = e.rebuild(ctx, tx, video, now)
		if err != nil {
			return err
		}
		video = rebuilt.video
		return nil
	})
	if err != nil {
		return nil, false, storageFailure(op, err)
	}

	e.publish(rebuilt.vocab)
	return video, created, nil
}
