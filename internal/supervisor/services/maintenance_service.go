// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vidrec/internal/recommend"
)

// Maintainer is the part of the engine the maintenance loop drives.
type Maintainer interface {
	VocabularyStale() bool
	Retrain(ctx context.Context, trigger string) (*recommend.RetrainResult, error)
	CleanupCache() int
}

// MaintenanceConfig controls the maintenance loop. A non-positive interval
// disables that job.
type MaintenanceConfig struct {
	// RetrainInterval is how often a stale vocabulary is rebuilt.
	RetrainInterval time.Duration

	// CleanupInterval is how often expired neighbor lists are dropped.
	CleanupInterval time.Duration
}

// MaintenanceService retrains a stale engine on a schedule and sweeps the
// neighbor cache.
type MaintenanceService struct {
	engine Maintainer
	config MaintenanceConfig
	logger zerolog.Logger
}

// NewMaintenanceService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMaintenanceService(engine Maintainer, cfg MaintenanceConfig, logger zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "maintenance").Logger(),
	}
}

// Serve implements suture.Service.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	retrainC, stopRetrain := ticker(s.config.RetrainInterval)
	defer stopRetrain()
	cleanupC, stopCleanup := ticker(s.config.CleanupInterval)
	defer stopCleanup()

	s.logger.Info().
		Dur("retrain_interval", s.config.RetrainInterval).
		Dur("cleanup_interval", s.config.CleanupInterval).
		Msg("maintenance service running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retrainC:
			s.retrainIfStale(ctx)
		case <-cleanupC:
			if n := s.engine.CleanupCache(); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("neighbor cache swept")
			}
		}
	}
}

// retrainIfStale rebuilds the engine when ingests left the vocabulary
// behind the stored corpus.
func (s *MaintenanceService) retrainIfStale(ctx context.Context) {
	if !s.engine.VocabularyStale() {
		return
	}
	result, err := s.engine.Retrain(ctx, recommend.TriggerSchedule)
	switch {
	case errors.Is(err, recommend.ErrRetrainInProgress):
		s.logger.Debug().Msg("scheduled retrain skipped, another is running")
	case err != nil:
		s.logger.Warn().Err(err).Msg("scheduled retrain failed")
	default:
		s.logger.Info().
			Int("videos", result.Videos).
			Int("profiles", result.Profiles).
			Dur("duration", result.Duration).
			Msg("scheduled retrain completed")
	}
}

// String names the service in supervisor logs.
func (s *MaintenanceService) String() string {
	return "engine-maintenance"
}

// ticker returns a tick channel, or nil (never ready) for a disabled job.
func ticker(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(d)
	return t.C, t.Stop
}
