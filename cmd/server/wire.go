// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/vidrec/internal/api"
	"github.com/tomtom215/vidrec/internal/config"
	"github.com/tomtom215/vidrec/internal/events"
	"github.com/tomtom215/vidrec/internal/recommend"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/store/badgerstore"
	"github.com/tomtom215/vidrec/internal/store/duckstore"
	"github.com/tomtom215/vidrec/internal/store/memory"
	"github.com/tomtom215/vidrec/internal/supervisor/services"
)

// backend is an opened store plus its optional maintenance hook.
type backend struct {
	store store.Store
	gc    services.GarbageCollector
}

func openStore(ctx context.Context, cfg *config.StoreConfig) (*backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return &backend{store: memory.New()}, nil

	case config.BackendBadger:
		s, err := badgerstore.Open(badgerstore.Config{
			Path:        cfg.Path,
			SyncWrites:  cfg.Badger.SyncWrites,
			Compression: cfg.Badger.Compression,
			GCRatio:     cfg.Badger.GCRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return &backend{store: s, gc: s}, nil

	case config.BackendDuckDB:
		s, err := duckstore.Open(ctx, duckstore.Config{
			Path:      cfg.Path,
			Threads:   cfg.DuckDB.Threads,
			MaxMemory: cfg.DuckDB.MaxMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("open duckdb store: %w", err)
		}
		return &backend{store: s}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func guardConfig(cfg *config.GuardConfig) store.GuardConfig {
	return store.GuardConfig{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Breaker: store.BreakerConfig{
			Enabled:      cfg.BreakerEnabled,
			MaxRequests:  cfg.BreakerMaxRequests,
			Interval:     cfg.BreakerInterval,
			OpenTimeout:  cfg.BreakerOpenTimeout,
			MinRequests:  cfg.BreakerMinRequests,
			FailureRatio: cfg.BreakerFailureRatio,
		},
	}
}

func engineConfig(cfg *config.RecommendConfig) *recommend.Config {
	return &recommend.Config{
		Alpha:               cfg.Alpha,
		Similarity:          cfg.Similarity,
		NeighborK:           cfg.NeighborK,
		MinSimilarity:       cfg.MinSimilarity,
		MinCommonItems:      cfg.MinCommonItems,
		Shrinkage:           cfg.Shrinkage,
		NeighborConcurrency: cfg.NeighborConcurrency,
		Learning: recommend.LearningConfig{
			LearningRate:  cfg.LearningRate,
			ImplicitStep:  cfg.ImplicitStep,
			NeutralRating: cfg.NeutralRating,
		},
		Limits: recommend.LimitsConfig{
			DefaultN: cfg.DefaultN,
			MaxN:     cfg.MaxN,
		},
		Cache: recommend.CacheConfig{
			NeighborEntries: cfg.NeighborCacheSize,
			NeighborTTL:     cfg.NeighborCacheTTL,
		},
		ReembedMode:    cfg.ReembedMode,
		Algorithm:      cfg.Algorithm,
		RetrainTimeout: cfg.RetrainTimeout,
	}
}

func eventsConfig(cfg *config.EventsConfig) events.Config {
	out := events.DefaultConfig()
	out.RetrainRate = cfg.RetrainRate
	out.RetrainBurst = cfg.RetrainBurst
	if cfg.BufferSize > 0 {
		out.BufferSize = cfg.BufferSize
	}
	return out
}

func middlewareConfig(cfg *config.ServerConfig) *api.ChiMiddlewareConfig {
	out := api.DefaultChiMiddlewareConfig()
	out.CORSAllowedOrigins = cfg.CORSOrigins
	out.RateLimitRequests = cfg.RateLimitReqs
	out.RateLimitWindow = cfg.RateLimitWindow
	out.RateLimitDisabled = cfg.RateLimitDisabled
	return out
}
