// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/vidrec/internal/logging"
	"github.com/tomtom215/vidrec/internal/metrics"
	"github.com/tomtom215/vidrec/internal/recommend"
)

const retrainHandlerName = "retrain-on-new-terms"

// Retrainer rebuilds the engine's vocabulary and embeddings.
type Retrainer interface {
	Retrain(ctx context.Context, trigger string) (*recommend.RetrainResult, error)
}

// Processor routes bus events to their handlers.
type Processor struct {
	router    *message.Router
	retrainer Retrainer
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// NewProcessor creates a processor reading from bus.
func NewProcessor(bus *Bus, retrainer Retrainer, cfg Config, logger zerolog.Logger) (*Processor, error) {
	if bus == nil {
		return nil, errors.New("event bus is required")
	}
	if retrainer == nil {
		return nil, errors.New("retrainer is required")
	}

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, bus.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer, middleware.CorrelationID)

	p := &Processor{
		router:    router,
		retrainer: retrainer,
		logger:    logger.With().Str("component", "events").Logger(),
	}
	// A nil limiter throttles every event.
	if cfg.RetrainRate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RetrainRate), max(cfg.RetrainBurst, 1))
	}

	router.AddConsumerHandler(retrainHandlerName, TopicVideoIngested, bus.Subscriber(), p.handleVideoIngested)
	return p, nil
}

// Run starts the router and blocks until ctx is canceled or Close is
// called.
func (p *Processor) Run(ctx context.Context) error {
	return p.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (p *Processor) Running() chan struct{} {
	return p.router.Running()
}

// Close stops the router and waits for running handlers.
func (p *Processor) Close() error {
	return p.router.Close()
}

func (p *Processor) handleVideoIngested(msg *message.Message) error {
	var ev recommend.VideoIngested
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		p.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed video ingested event")
		return nil
	}
	if !ev.NewTerms || ev.Reembedded {
		return nil
	}

	ctx := msg.Context()
	if id := middleware.MessageCorrelationID(msg); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	logger := logging.CtxWith(logging.ContextWithLogger(ctx, p.logger)).
		Str("video_id", ev.VideoID).
		Logger()

	if p.limiter == nil || !p.limiter.Allow() {
		metrics.RecordEventThrottled()
		logger.Debug().Msg("event retrain throttled")
		return nil
	}

	result, err := p.retrainer.Retrain(ctx, recommend.TriggerEvent)
	switch {
	case errors.Is(err, recommend.ErrRetrainInProgress):
		logger.Debug().Msg("retrain already running")
	case err != nil:
		logger.Error().Err(err).Msg("event retrain failed")
	default:
		logger.Info().
			Int("videos", result.Videos).
			Int("profiles", result.Profiles).
			Msg("event retrain completed")
	}
	return nil
}
