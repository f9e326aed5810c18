// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package events

import "time"

// Config controls the bus and the retrain processor.
type Config struct {
	// BufferSize is the GoChannel output buffer per subscriber.
	BufferSize int64

	// RetrainRate is the sustained number of event-triggered retrains per
	// second. Zero or less disables event-triggered retrains.
	RetrainRate float64

	// RetrainBurst is the number of retrains allowed back to back.
	RetrainBurst int

	// CloseTimeout bounds how long the router waits for a running handler.
	CloseTimeout time.Duration
}

// DefaultConfig returns one retrain per minute with no burst.
func DefaultConfig() Config {
	return Config{
		BufferSize:   256,
		RetrainRate:  1.0 / 60,
		RetrainBurst: 1,
		CloseTimeout: 30 * time.Second,
	}
}
