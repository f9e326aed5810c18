// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector reclaims store space. *badgerstore.Store implements it.
type GarbageCollector interface {
	RunGC() error
}

// GCService runs value log garbage collection on an interval.
type GCService struct {
	gc       GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
}

// NewGCService creates the service. A non-positive interval means 10m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGCService(gc GarbageCollector, interval time.Duration, logger zerolog.Logger) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{
		gc:       gc,
		interval: interval,
		logger:   logger.With().Str("service", "badger-gc").Logger(),
	}
}

// Serve implements suture.Service. GC errors are logged, not returned; a
// failing collection is retried on the next tick.
func (s *GCService) Serve(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			start := time.Now()
			if err := s.gc.RunGC(); err != nil {
				s.logger.Warn().Err(err).Msg("value log gc failed")
				continue
			}
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("value log gc completed")
		}
	}
}

// String names the service in supervisor logs.
func (s *GCService) String() string {
	return "badger-gc"
}
