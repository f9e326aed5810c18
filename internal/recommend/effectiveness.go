// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"context"
	"fmt"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
)

// Effectiveness measures how often recommended videos were watched
// afterwards. A (log, video) pair is clicked when the same user watched the
// video strictly after the log was written. With no matching pair the
// report has Available false and nil rates; that is not an error.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) Effectiveness(ctx context.Context, q EffectivenessQuery) (*EffectivenessReport, error) {
	const op = "effectiveness"
	if !q.Since.IsZero() && !q.Until.IsZero() && !q.Since.Before(q.Until) {
		return nil, invalidInputf(op, "since must be before until")
	}

	report := &EffectivenessReport{
		Query:       q,
		ByAlgorithm: make(map[string]AlgorithmEffectiveness),
	}
	err := e.store.View(ctx, func(tx store.Tx) error {
		return e.measure(ctx, tx, q, report)
	})
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return report, nil
}

type userVideo struct {
	userID  string
	videoID string
}

//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) measure(ctx context.Context, tx store.Reader, q EffectivenessQuery, report *EffectivenessReport) error {
	logs, err := tx.ListRecommendationLogs(ctx, store.LogFilter{
		UserID:    q.UserID,
		TimeRange: store.TimeRange{Since: q.Since, Until: q.Until},
	})
	if err != nil {
		return fmt.Errorf("list recommendation logs: %w", err)
	}

	watchCache := make(map[userVideo][]*models.WatchEntry)
	watchesOf := func(userID, videoID string) ([]*models.WatchEntry, error) {
		key := userVideo{userID, videoID}
		if ws, ok := watchCache[key]; ok {
			return ws, nil
		}
		ws, err := tx.ListWatch(ctx, store.WatchFilter{UserID: userID, VideoID: videoID})
		if err != nil {
			return nil, fmt.Errorf("list watches of %s/%s: %w", userID, videoID, err)
		}
		watchCache[key] = ws
		return ws, nil
	}

	ratedClicks := make(map[string]float64)
	for _, entry := range logs {
		if q.Algorithm != "" && entry.Algorithm != q.Algorithm {
			continue
		}
		report.RecommendationCount++
		alg := report.ByAlgorithm[entry.Algorithm]
		alg.RecommendationCount++

		for _, videoID := range entry.VideoIDs {
			if q.VideoID != "" && videoID != q.VideoID {
				continue
			}
			report.RecommendedItems++
			alg.RecommendedItems++

			watches, err := watchesOf(entry.UserID, videoID)
			if err != nil {
				return err
			}
			clicked := false
			for _, w := range watches {
				if !w.WatchedAt.After(entry.CreatedAt) {
					continue
				}
				clicked = true
				if w.Rating != nil {
					ratedClicks[w.ID] = *w.Rating
				}
			}
			if clicked {
				report.Clicks++
				alg.Clicks++
			}
		}
		report.ByAlgorithm[entry.Algorithm] = alg
	}

	for name, alg := range report.ByAlgorithm {
		alg.ClickThroughRate = ratio(alg.Clicks, alg.RecommendedItems)
		report.ByAlgorithm[name] = alg
	}

	if report.RecommendedItems == 0 {
		return nil
	}
	report.Available = true
	report.ClickThroughRate = ratio(report.Clicks, report.RecommendedItems)
	if len(ratedClicks) > 0 {
		var sum float64
		for _, r := range ratedClicks {
			sum += r
		}
		avg := sum / float64(len(ratedClicks))
		report.AverageRating = &avg
		report.RatedClicks = len(ratedClicks)
	}
	return nil
}

func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	r := float64(num) / float64(den)
	return &r
}
