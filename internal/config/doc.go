// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package config loads the Vidrec configuration with koanf.

# Configuration Sources

Three layers are merged, later layers winning:
  - built-in defaults
  - an optional YAML file: $CONFIG_PATH, config.yaml, config.yml or
    /etc/vidrec/config.yaml, whichever exists first
  - VIDREC_* environment variables

Only the environment variables listed in the mapping table are read; any
other VIDREC_ variable is ignored.

# Environment Variables

Store:
  - VIDREC_STORE_BACKEND: memory, badger or duckdb (default: badger)
  - VIDREC_STORE_PATH: Badger directory or DuckDB file (default: /data/vidrec)
  - VIDREC_STORE_TIMEOUT: per-call store timeout (default: 5s)
  - VIDREC_BADGER_GC_INTERVAL: value log GC period (default: 10m)

HTTP Server:
  - VIDREC_HTTP_HOST, VIDREC_HTTP_PORT (default: 0.0.0.0:8080)
  - VIDREC_CORS_ORIGINS: comma-separated origins (default: *)
  - VIDREC_RATE_LIMIT_REQUESTS, VIDREC_RATE_LIMIT_WINDOW (default: 300 per 1m)

Recommendation engine:
  - VIDREC_RECOMMEND_ALPHA: content weight (default: 0.5)
  - VIDREC_RECOMMEND_SIMILARITY: agreement, cosine or pearson (default: agreement)
  - VIDREC_RECOMMEND_MIN_COMMON_ITEMS, VIDREC_RECOMMEND_SHRINKAGE (default: 1, 1)
  - VIDREC_RECOMMEND_NEIGHBOR_K (default: 20)
  - VIDREC_RECOMMEND_REEMBED_MODE: eager or batched (default: eager)

Events:
  - VIDREC_EVENTS_ENABLED (default: true)
  - VIDREC_EVENTS_RETRAIN_INTERVAL: stale vocabulary check (default: 15m)

Logging:
  - VIDREC_LOG_LEVEL, VIDREC_LOG_FORMAT, VIDREC_LOG_CALLER

# Example

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	srv := &http.Server{Addr: cfg.Server.Addr()}
*/
package config
