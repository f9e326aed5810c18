// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package cache provides the small in-memory data structures the engine
memoizes and ranks with.

  - LRU: a generic, thread-safe least-recently-used cache with TTL. The
    recommendation engine keys neighbor lists by (user, profile revision)
    so a profile update never serves a stale list.
  - TopK: a bounded heap that keeps the best k items under a caller
    supplied ordering, used to select the top N recommendations without
    sorting every candidate.

Both are stdlib only; the engine wraps LRU lookups in singleflight so
concurrent misses for the same key compute once.
*/
package cache
