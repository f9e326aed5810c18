// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/vidrec/internal/api"
	"github.com/tomtom215/vidrec/internal/config"
	"github.com/tomtom215/vidrec/internal/events"
	"github.com/tomtom215/vidrec/internal/logging"
	"github.com/tomtom215/vidrec/internal/recommend"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/supervisor"
	"github.com/tomtom215/vidrec/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("vidrec exited with error")
	}
}

//nolint:gocyclo // sequential startup
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logger.Info().
		Str("backend", cfg.Store.Backend).
		Str("path", cfg.Store.Path).
		Str("addr", cfg.Server.Addr()).
		Str("reembed_mode", cfg.Recommend.ReembedMode).
		Msg("starting vidrec")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opened, err := openStore(ctx, &cfg.Store)
	if err != nil {
		return err
	}
	guarded := store.NewGuarded(opened.store, guardConfig(&cfg.Store.Guard), logger)
	defer func() {
		if err := guarded.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing store")
		}
	}()

	var (
		bus  *events.Bus
		opts []recommend.Option
	)
	eventsCfg := eventsConfig(&cfg.Events)
	if cfg.Events.Enabled {
		bus = events.NewBus(eventsCfg, nil)
		defer func() { _ = bus.Close() }()
		opts = append(opts, recommend.WithPublisher(bus))
	}

	engine, err := recommend.NewEngine(engineConfig(&cfg.Recommend), guarded, logger, opts...)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	if err := engine.Load(ctx); err != nil {
		return fmt.Errorf("load engine: %w", err)
	}

	handler := api.NewHandler(engine, api.HandlerConfig{
		EffectivenessWindow: cfg.Server.EffectivenessWindow,
	}, map[string]api.ReadinessCheck{
		"store": func(context.Context) error {
			if state := guarded.State(); state == "open" {
				return errors.New("store circuit breaker is open")
			}
			return nil
		},
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(middlewareConfig(&cfg.Server)), logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if opened.gc != nil {
		tree.AddStorageService(services.NewGCService(opened.gc, cfg.Store.Badger.GCInterval, logger))
	}
	tree.AddEngineService(services.NewMaintenanceService(engine, services.MaintenanceConfig{
		RetrainInterval: cfg.Events.RetrainInterval,
		CleanupInterval: cfg.Events.CacheCleanupInterval,
	}, logger))
	if bus != nil {
		tree.AddEngineService(services.NewEventService(func() (services.EventRunner, error) {
			p, err := events.NewProcessor(bus, engine, eventsCfg, logger)
			if err != nil {
				return nil, err
			}
			return p, nil
		}))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logger.Info().Str("addr", server.Addr).Msg("supervisor tree starting")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}
	logger.Info().Msg("vidrec stopped")
	return nil
}
