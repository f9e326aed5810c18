// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"cmp"
	"errors"
	"slices"
	"time"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend/embedding"
)

// interaction is one event that moves a profile.
type interaction struct {
	videoID string
	rating  *float64
	like    bool
	at      time.Time
	id      string // watch id; empty for likes
}

// step returns the interpolation step for the interaction. Positive steps
// pull the profile toward the content, negative steps push it away.
func (l *LearningConfig) step(ev interaction) float64 {
	switch {
	case ev.like:
		return l.LearningRate
	case ev.rating != nil:
		return l.LearningRate * (*ev.rating - l.NeutralRating) / (models.MaxRating - l.NeutralRating)
	default:
		return l.ImplicitStep
	}
}

// updateProfile applies one interaction to p in place. emb must have been
// computed against the vocabulary identified by version.
func updateProfile(p *models.UserProfile, emb []float64, version uint64, step float64, at time.Time) error {
	if p.Preference != nil && p.VocabularyVersion != version {
		return inconsistent("update_profile", "profile %s is at vocabulary %x, embedding at %x",
			p.UserID, p.VocabularyVersion, version)
	}

	next, err := embedding.Lerp(p.Preference, emb, step)
	if err != nil {
		if errors.Is(err, embedding.ErrDimensionMismatch) {
			return inconsistent("update_profile", "profile %s: %v", p.UserID, err)
		}
		return err
	}

	p.Preference = next
	p.VocabularyVersion = version
	p.InteractionCount++
	p.Revision++
	switch {
	case step > 0:
		p.PositiveCount++
	case step < 0:
		p.NegativeCount++
	}
	if at.After(p.UpdatedAt) {
		p.UpdatedAt = at
	}
	return nil
}

// replayProfile rebuilds a profile from its interaction history against a
// new set of embeddings. Identity, CreatedAt and Revision carry over; the
// revision is bumped so memoized neighbor lists are recomputed.
func replayProfile(base *models.UserProfile, events []interaction, embeddings map[string][]float64,
	version uint64, learning LearningConfig, now time.Time) (*models.UserProfile, error) {
	p := &models.UserProfile{
		UserID:    base.UserID,
		Revision:  base.Revision + 1,
		CreatedAt: base.CreatedAt,
		UpdatedAt: now,
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	sortInteractions(events)
	for _, ev := range events {
		emb, ok := embeddings[ev.videoID]
		if !ok {
			continue
		}
		if err := updateProfile(p, emb, version, learning.step(ev), now); err != nil {
			return nil, err
		}
	}
	// updateProfile bumps the revision per event; only the replay counts.
	p.Revision = base.Revision + 1
	p.UpdatedAt = now
	return p, nil
}

// sortInteractions orders events by time. On ties a watch precedes a like,
// then watch ids and video ids break the tie.
func sortInteractions(events []interaction) {
	slices.SortFunc(events, func(a, b interaction) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		if a.like != b.like {
			if a.like {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(a.id, b.id); c != 0 {
			return c
		}
		return cmp.Compare(a.videoID, b.videoID)
	})
}

func watchInteraction(w *models.WatchEntry) interaction {
	return interaction{videoID: w.VideoID, rating: w.Rating, at: w.WatchedAt, id: w.ID}
}

func likeInteraction(l *models.LikedVideo) interaction {
	return interaction{videoID: l.VideoID, like: true, at: l.LikedAt}
}
