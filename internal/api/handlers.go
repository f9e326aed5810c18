// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package api

import (
	"context"
	"time"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend"
)

// Engine is the part of *recommend.Engine the handlers use.
type Engine interface {
	IngestVideo(ctx context.Context, in recommend.VideoInput) (*models.Video, error)
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context, tag string) ([]*models.Video, error)
	CreateOrGetProfile(ctx context.Context, userID string) (*models.UserProfile, bool, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	RecordWatch(ctx context.Context, in recommend.WatchInput) (*models.UserProfile, error)
	RecordLike(ctx context.Context, userID, videoID string) (*recommend.LikeResult, error)
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Neighbors(ctx context.Context, userID string, k int) ([]recommend.Neighbor, error)
	Insights(ctx context.Context, userID string, limit int) (*recommend.Insights, error)
	Effectiveness(ctx context.Context, q recommend.EffectivenessQuery) (*recommend.EffectivenessReport, error)
	Retrain(ctx context.Context, trigger string) (*recommend.RetrainResult, error)
	Stats(ctx context.Context) (*recommend.Stats, error)
}

var _ Engine = (*recommend.Engine)(nil)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HandlerConfig holds handler settings.
type HandlerConfig struct {
	// EffectivenessWindow is the lookback used when a report request gives
	// no since.
	EffectivenessWindow time.Duration

	// ReadyTimeout bounds the readiness probe.
	ReadyTimeout time.Duration
}

// Handler serves the HTTP API on top of the engine.
type Handler struct {
	engine    Engine
	cfg       HandlerConfig
	checks    map[string]ReadinessCheck
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a handler. checks are run by /health/ready in
// addition to an engine stats probe.
func NewHandler(engine Engine, cfg HandlerConfig, checks map[string]ReadinessCheck) *Handler {
	if cfg.EffectivenessWindow <= 0 {
		cfg.EffectivenessWindow = 30 * 24 * time.Hour
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}
	return &Handler{
		engine:    engine,
		cfg:       cfg,
		checks:    checks,
		startTime: time.Now(),
		now:       time.Now,
	}
}
