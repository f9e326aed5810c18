// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package main is the entry point for the vidrec server.

vidrec ingests video metadata, learns a preference vector per user from
watches, ratings and likes, and serves hybrid content plus collaborative
recommendations over HTTP.

# Startup

 1. Configuration: koanf (defaults, optional YAML, VIDREC_* variables)
 2. Logging: zerolog, JSON or console
 3. Store: memory, Badger or DuckDB behind a timeout, retry and circuit
    breaker guard
 4. Engine: loads the corpus and retrains when stored vectors disagree with
    the vocabulary
 5. Events: in-process Watermill bus (optional)
 6. Supervisor tree: suture v4

	Root ("vidrec")
	├── storage-layer: badger-gc
	├── engine-layer:  engine-maintenance, event-processor
	└── api-layer:     http-server

# Signals

SIGINT and SIGTERM cancel the tree. The HTTP server drains in-flight
requests for server.shutdown_timeout before the store is closed.

# Example

	export VIDREC_STORE_BACKEND=badger
	export VIDREC_STORE_PATH=/var/lib/vidrec
	export VIDREC_LOG_FORMAT=console
	./vidrec
*/
package main
