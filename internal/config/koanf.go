// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vidrec/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is the prefix of every recognised environment variable.
const EnvPrefix = "VIDREC_"

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendBadger,
			Path:    "/data/vidrec",
			Badger: BadgerConfig{
				SyncWrites:  false,
				Compression: true,
				GCInterval:  10 * time.Minute,
				GCRatio:     0.5,
			},
			DuckDB: DuckDBConfig{
				Threads:   0,
				MaxMemory: "1GB",
			},
			Guard: GuardConfig{
				Timeout:             5 * time.Second,
				MaxRetries:          2,
				RetryDelay:          50 * time.Millisecond,
				BreakerEnabled:      true,
				BreakerMaxRequests:  3,
				BreakerInterval:     time.Minute,
				BreakerOpenTimeout:  30 * time.Second,
				BreakerMinRequests:  10,
				BreakerFailureRatio: 0.6,
			},
		},
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeout:         15 * time.Second,
			WriteTimeout:        30 * time.Second,
			IdleTimeout:         2 * time.Minute,
			ShutdownTimeout:     15 * time.Second,
			CORSOrigins:         []string{"*"},
			RateLimitReqs:       300,
			RateLimitWindow:     time.Minute,
			EffectivenessWindow: 30 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Recommend: RecommendConfig{
			Alpha:               0.5,
			Similarity:          "agreement",
			NeighborK:           20,
			MinSimilarity:       0,
			MinCommonItems:      1,
			Shrinkage:           1,
			NeighborConcurrency: 8,
			LearningRate:        0.3,
			ImplicitStep:        0.1,
			NeutralRating:       2.5,
			DefaultN:            10,
			MaxN:                100,
			NeighborCacheSize:   10000,
			NeighborCacheTTL:    10 * time.Minute,
			ReembedMode:         "eager",
			Algorithm:           "hybrid-tfidf-v1",
			RetrainTimeout:      10 * time.Minute,
		},
		Events: EventsConfig{
			Enabled:              true,
			RetrainRate:          1.0 / 60,
			RetrainBurst:         1,
			RetrainInterval:      15 * time.Minute,
			CacheCleanupInterval: 5 * time.Minute,
			BufferSize:           256,
		},
	}
}

// Default returns the built-in defaults without reading any source.
func Default() *Config {
	return defaultConfig()
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// VIDREC_HTTP_PORT -> server.port
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps VIDREC_* variables (prefix stripped, lower-cased) to
// koanf paths. Unmapped variables are ignored.
var envMappings = map[string]string{
	"store_backend":                  "store.backend",
	"store_path":                     "store.path",
	"badger_sync_writes":             "store.badger.sync_writes",
	"badger_compression":             "store.badger.compression",
	"badger_gc_interval":             "store.badger.gc_interval",
	"badger_gc_ratio":                "store.badger.gc_ratio",
	"duckdb_threads":                 "store.duckdb.threads",
	"duckdb_max_memory":              "store.duckdb.max_memory",
	"store_timeout":                  "store.guard.timeout",
	"store_max_retries":              "store.guard.max_retries",
	"store_retry_delay":              "store.guard.retry_delay",
	"store_breaker_enabled":          "store.guard.breaker_enabled",
	"store_breaker_max_requests":     "store.guard.breaker_max_requests",
	"store_breaker_interval":         "store.guard.breaker_interval",
	"store_breaker_open_timeout":     "store.guard.breaker_open_timeout",
	"store_breaker_min_requests":     "store.guard.breaker_min_requests",
	"store_breaker_failure_ratio":    "store.guard.breaker_failure_ratio",
	"http_host":                      "server.host",
	"http_port":                      "server.port",
	"http_read_timeout":              "server.read_timeout",
	"http_write_timeout":             "server.write_timeout",
	"http_idle_timeout":              "server.idle_timeout",
	"http_shutdown_timeout":          "server.shutdown_timeout",
	"cors_origins":                   "server.cors_origins",
	"rate_limit_requests":            "server.rate_limit_requests",
	"rate_limit_window":              "server.rate_limit_window",
	"rate_limit_disabled":            "server.rate_limit_disabled",
	"effectiveness_window":           "server.effectiveness_window",
	"log_level":                      "logging.level",
	"log_format":                     "logging.format",
	"log_caller":                     "logging.caller",
	"recommend_alpha":                "recommend.alpha",
	"recommend_similarity":           "recommend.similarity",
	"recommend_neighbor_k":           "recommend.neighbor_k",
	"recommend_min_similarity":       "recommend.min_similarity",
	"recommend_min_common_items":     "recommend.min_common_items",
	"recommend_shrinkage":            "recommend.shrinkage",
	"recommend_neighbor_concurrency": "recommend.neighbor_concurrency",
	"recommend_learning_rate":        "recommend.learning_rate",
	"recommend_implicit_step":        "recommend.implicit_step",
	"recommend_neutral_rating":       "recommend.neutral_rating",
	"recommend_default_n":            "recommend.default_n",
	"recommend_max_n":                "recommend.max_n",
	"recommend_neighbor_cache_size":  "recommend.neighbor_cache_size",
	"recommend_neighbor_cache_ttl":   "recommend.neighbor_cache_ttl",
	"recommend_reembed_mode":         "recommend.reembed_mode",
	"recommend_algorithm":            "recommend.algorithm",
	"recommend_retrain_timeout":      "recommend.retrain_timeout",
	"events_enabled":                 "events.enabled",
	"events_retrain_rate":            "events.retrain_rate",
	"events_retrain_burst":           "events.retrain_burst",
	"events_retrain_interval":        "events.retrain_interval",
	"events_cache_cleanup_interval":  "events.cache_cleanup_interval",
	"events_buffer_size":             "events.buffer_size",
}

// envTransformFunc maps an environment variable name to its koanf path.
//
// Examples:
//   - VIDREC_STORE_BACKEND -> store.backend
//   - VIDREC_HTTP_PORT -> server.port
//   - VIDREC_RECOMMEND_ALPHA -> recommend.alpha
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
