// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package events carries engine domain events over an in-process Watermill
GoChannel and reacts to them.

The Bus implements recommend.EventPublisher. Each VideoIngested event is
serialized to JSON and published on the "video.ingested" topic with the
caller's correlation ID in the message metadata.

The Processor subscribes to that topic through a Watermill router. An event
that introduced new vocabulary terms without re-embedding the corpus asks
the engine for a full retrain, at most RetrainRate times per second with a
burst of RetrainBurst. Throttled events are dropped and counted; the
vocabulary stays marked stale so the periodic retrain in the supervisor
picks the change up later. A retrain already in progress is not an error.

Handler failures are logged and acknowledged. Nothing is redelivered: the
events are hints, and the stale flag on the engine is the source of truth.
*/
package events
