// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package config

import "time"

// Store backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendDuckDB = "duckdb"
)

// Config holds all application configuration.
//
// Loading order (later layers win):
//  1. Defaults
//  2. Optional YAML file (CONFIG_PATH, then config.yaml)
//  3. VIDREC_* environment variables
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Store     StoreConfig     `koanf:"store"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Events    EventsConfig    `koanf:"events"`
}

// StoreConfig selects and tunes the persistence backend.
type StoreConfig struct {
	// Backend is memory, badger or duckdb.
	Backend string `koanf:"backend"`

	// Path is the Badger directory or the DuckDB file.
	Path string `koanf:"path"`

	Badger BadgerConfig `koanf:"badger"`
	DuckDB DuckDBConfig `koanf:"duckdb"`
	Guard  GuardConfig  `koanf:"guard"`
}

// BadgerConfig holds Badger tuning.
type BadgerConfig struct {
	SyncWrites  bool          `koanf:"sync_writes"`
	Compression bool          `koanf:"compression"`
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCRatio     float64       `koanf:"gc_ratio"`
}

// DuckDBConfig holds DuckDB tuning.
type DuckDBConfig struct {
	Threads   int    `koanf:"threads"` // 0 = DuckDB default
	MaxMemory string `koanf:"max_memory"`
}

// GuardConfig configures the timeout, retry and circuit breaker wrapper
// around the backend.
type GuardConfig struct {
	Timeout             time.Duration `koanf:"timeout"`
	MaxRetries          int           `koanf:"max_retries"`
	RetryDelay          time.Duration `koanf:"retry_delay"`
	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerMaxRequests  uint32        `koanf:"breaker_max_requests"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests are allowed per RateLimitWindow and client IP.
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// EffectivenessWindow is the default lookback of the effectiveness
	// report when the caller gives no since.
	EffectivenessWindow time.Duration `koanf:"effectiveness_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// RecommendConfig mirrors the engine configuration.
type RecommendConfig struct {
	Alpha               float64       `koanf:"alpha"`
	Similarity          string        `koanf:"similarity"`
	NeighborK           int           `koanf:"neighbor_k"`
	MinSimilarity       float64       `koanf:"min_similarity"`
	MinCommonItems      int           `koanf:"min_common_items"`
	Shrinkage           float64       `koanf:"shrinkage"`
	NeighborConcurrency int           `koanf:"neighbor_concurrency"`
	LearningRate        float64       `koanf:"learning_rate"`
	ImplicitStep        float64       `koanf:"implicit_step"`
	NeutralRating       float64       `koanf:"neutral_rating"`
	DefaultN            int           `koanf:"default_n"`
	MaxN                int           `koanf:"max_n"`
	NeighborCacheSize   int           `koanf:"neighbor_cache_size"`
	NeighborCacheTTL    time.Duration `koanf:"neighbor_cache_ttl"`
	ReembedMode         string        `koanf:"reembed_mode"`
	Algorithm           string        `koanf:"algorithm"`
	RetrainTimeout      time.Duration `koanf:"retrain_timeout"`
}

// EventsConfig controls the in-process event bus and background jobs.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// RetrainRate is the number of event-triggered retrains allowed per
	// second, with RetrainBurst as the bucket size.
	RetrainRate  float64 `koanf:"retrain_rate"`
	RetrainBurst int     `koanf:"retrain_burst"`

	// RetrainInterval is the period of the stale-vocabulary check. Zero
	// disables periodic retraining.
	RetrainInterval time.Duration `koanf:"retrain_interval"`

	// CacheCleanupInterval is the period of the neighbor cache sweep.
	CacheCleanupInterval time.Duration `koanf:"cache_cleanup_interval"`

	BufferSize int64 `koanf:"buffer_size"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
