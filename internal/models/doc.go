// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package models defines data structures for the Vidrec application.

This package contains the persisted domain records shared by the store
backends, the recommendation engine and the HTTP API. It has no dependencies
on other internal packages so every layer can import it.

Key Components:

  - Video: catalog entry with content embedding and engagement statistics
  - UserProfile: per-user preference vector and interaction counters
  - WatchEntry: append-only watch event with optional rating and completion
  - LikedVideo: unique (user, video) like record
  - RecommendationLog: one record per recommendation call
  - APIResponse: standard HTTP response envelope

Records are plain structs with JSON tags. The Badger backend stores them as
JSON values and the HTTP API serializes them directly.
*/
package models
