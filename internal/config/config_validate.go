// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package config

import (
	"errors"
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate checks the configuration and reports every problem at once.
// Engine tuning in Recommend is validated again by the engine itself.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.validateStore()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateRecommend()...)
	errs = append(errs, c.validateEvents()...)
	return errors.Join(errs...)
}

func (c *Config) validateStore() []error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory:
	case BackendBadger, BackendDuckDB:
		if strings.TrimSpace(c.Store.Path) == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the %s backend", c.Store.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be one of memory, badger, duckdb, got %q", c.Store.Backend))
	}

	if c.Store.Badger.GCRatio <= 0 || c.Store.Badger.GCRatio >= 1 {
		errs = append(errs, fmt.Errorf("store.badger.gc_ratio must be in (0, 1), got %v", c.Store.Badger.GCRatio))
	}
	if c.Store.DuckDB.Threads < 0 {
		errs = append(errs, fmt.Errorf("store.duckdb.threads must not be negative, got %d", c.Store.DuckDB.Threads))
	}

	g := c.Store.Guard
	if g.Timeout < 0 {
		errs = append(errs, fmt.Errorf("store.guard.timeout must not be negative, got %v", g.Timeout))
	}
	if g.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("store.guard.max_retries must not be negative, got %d", g.MaxRetries))
	}
	if g.BreakerEnabled && (g.BreakerFailureRatio <= 0 || g.BreakerFailureRatio > 1) {
		errs = append(errs, fmt.Errorf("store.guard.breaker_failure_ratio must be in (0, 1], got %v", g.BreakerFailureRatio))
	}
	return errs
}

func (c *Config) validateServer() []error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server read and write timeouts must be positive"))
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			errs = append(errs, fmt.Errorf("server.rate_limit_requests must be positive, got %d", c.Server.RateLimitReqs))
		}
		if c.Server.RateLimitWindow <= 0 {
			errs = append(errs, fmt.Errorf("server.rate_limit_window must be positive, got %v", c.Server.RateLimitWindow))
		}
	}
	if c.Server.EffectivenessWindow <= 0 {
		errs = append(errs, fmt.Errorf("server.effectiveness_window must be positive, got %v", c.Server.EffectivenessWindow))
	}
	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errs
}

func (c *Config) validateRecommend() []error {
	var errs []error
	r := c.Recommend
	if r.Alpha < 0 || r.Alpha > 1 {
		errs = append(errs, fmt.Errorf("recommend.alpha must be in [0, 1], got %v", r.Alpha))
	}
	if r.ReembedMode != "eager" && r.ReembedMode != "batched" {
		errs = append(errs, fmt.Errorf("recommend.reembed_mode must be eager or batched, got %q", r.ReembedMode))
	}
	if r.Shrinkage < 0 {
		errs = append(errs, fmt.Errorf("recommend.shrinkage must not be negative, got %v", r.Shrinkage))
	}
	if r.MaxN < r.DefaultN {
		errs = append(errs, fmt.Errorf("recommend.max_n must be >= recommend.default_n, got %d < %d", r.MaxN, r.DefaultN))
	}
	return errs
}

func (c *Config) validateEvents() []error {
	if !c.Events.Enabled {
		return nil
	}
	var errs []error
	if c.Events.RetrainRate <= 0 {
		errs = append(errs, fmt.Errorf("events.retrain_rate must be positive, got %v", c.Events.RetrainRate))
	}
	if c.Events.RetrainBurst < 1 {
		errs = append(errs, fmt.Errorf("events.retrain_burst must be positive, got %d", c.Events.RetrainBurst))
	}
	if c.Events.RetrainInterval < 0 {
		errs = append(errs, fmt.Errorf("events.retrain_interval must not be negative, got %v", c.Events.RetrainInterval))
	}
	if c.Events.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("events.buffer_size must not be negative, got %d", c.Events.BufferSize))
	}
	return errs
}
