// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend/similarity"
)

// Re-embedding modes.
const (
	// ReembedEager rebuilds the vocabulary and every embedding inside the
	// ingest that introduced a new term.
	ReembedEager = "eager"

	// ReembedBatched embeds new videos against the serving vocabulary and
	// leaves the rebuild to Retrain.
	ReembedBatched = "batched"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Alpha weighs content against collaborative signal:
	// score = Alpha*content + (1-Alpha)*collaborative.
	Alpha float64 `json:"alpha"`

	// Similarity names the user-user metric (cosine, pearson, agreement).
	Similarity string `json:"similarity"`

	// NeighborK is the number of neighbors feeding the collaborative score.
	NeighborK int `json:"neighbor_k"`

	// MinSimilarity is the exclusive lower bound for a neighbor.
	MinSimilarity float64 `json:"min_similarity"`

	// MinCommonItems is the number of co-rated videos a pair needs before
	// its similarity counts.
	MinCommonItems int `json:"min_common_items"`

	// Shrinkage damps pairs with few co-rated videos:
	// sim = raw * n / (n + Shrinkage).
	Shrinkage float64 `json:"shrinkage"`

	// NeighborConcurrency bounds the parallel loads of neighbor ratings.
	NeighborConcurrency int `json:"neighbor_concurrency"`

	Learning LearningConfig `json:"learning"`
	Limits   LimitsConfig   `json:"limits"`
	Cache    CacheConfig    `json:"cache"`

	// ReembedMode is ReembedEager or ReembedBatched.
	ReembedMode string `json:"reembed_mode"`

	// Algorithm is the tag written to every recommendation log entry.
	Algorithm string `json:"algorithm"`

	// RetrainTimeout bounds a full retrain.
	RetrainTimeout time.Duration `json:"retrain_timeout"`
}

// LearningConfig controls how interactions move a profile.
type LearningConfig struct {
	// LearningRate is the step of a maximum rating or a like.
	LearningRate float64 `json:"learning_rate"`

	// ImplicitStep is the step of a watch without a rating.
	ImplicitStep float64 `json:"implicit_step"`

	// NeutralRating is the rating that leaves a profile unchanged. Ratings
	// below it push the profile away from the content.
	NeutralRating float64 `json:"neutral_rating"`
}

// LimitsConfig contains request limits.
type LimitsConfig struct {
	DefaultN int `json:"default_n"`
	MaxN     int `json:"max_n"`
}

// CacheConfig sizes the neighbor memo.
type CacheConfig struct {
	NeighborEntries int           `json:"neighbor_entries"`
	NeighborTTL     time.Duration `json:"neighbor_ttl"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Alpha:               0.5,
		Similarity:          similarity.DefaultName,
		NeighborK:           20,
		MinSimilarity:       0,
		MinCommonItems:      1,
		Shrinkage:           1,
		NeighborConcurrency: 8,
		Learning: LearningConfig{
			LearningRate:  0.3,
			ImplicitStep:  0.1,
			NeutralRating: 2.5,
		},
		Limits: LimitsConfig{
			DefaultN: 10,
			MaxN:     100,
		},
		Cache: CacheConfig{
			NeighborEntries: 10000,
			NeighborTTL:     10 * time.Minute,
		},
		ReembedMode:    ReembedEager,
		Algorithm:      "hybrid-tfidf-v1",
		RetrainTimeout: 10 * time.Minute,
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Alpha < 0 || c.Alpha > 1 {
		add("alpha must be in [0, 1], got %v", c.Alpha)
	}
	if _, err := similarity.Lookup(c.Similarity); err != nil {
		add("similarity: %v", err)
	}
	if c.NeighborK < 1 {
		add("neighbor_k must be positive, got %d", c.NeighborK)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity >= 1 {
		add("min_similarity must be in [0, 1), got %v", c.MinSimilarity)
	}
	if c.MinCommonItems < 1 {
		add("min_common_items must be positive, got %d", c.MinCommonItems)
	}
	if c.Shrinkage < 0 {
		add("shrinkage must not be negative, got %v", c.Shrinkage)
	}
	if c.NeighborConcurrency < 1 {
		add("neighbor_concurrency must be positive, got %d", c.NeighborConcurrency)
	}
	if c.Learning.LearningRate <= 0 || c.Learning.LearningRate > 1 {
		add("learning.learning_rate must be in (0, 1], got %v", c.Learning.LearningRate)
	}
	if c.Learning.ImplicitStep < 0 || c.Learning.ImplicitStep > 1 {
		add("learning.implicit_step must be in [0, 1], got %v", c.Learning.ImplicitStep)
	}
	if c.Learning.NeutralRating < 0 || c.Learning.NeutralRating >= models.MaxRating {
		add("learning.neutral_rating must be in [0, %v), got %v", models.MaxRating, c.Learning.NeutralRating)
	}
	if c.Limits.DefaultN < 1 {
		add("limits.default_n must be positive, got %d", c.Limits.DefaultN)
	}
	if c.Limits.MaxN < c.Limits.DefaultN {
		add("limits.max_n must be >= limits.default_n, got %d < %d", c.Limits.MaxN, c.Limits.DefaultN)
	}
	if c.Cache.NeighborEntries < 1 {
		add("cache.neighbor_entries must be positive, got %d", c.Cache.NeighborEntries)
	}
	if c.Cache.NeighborTTL <= 0 {
		add("cache.neighbor_ttl must be positive, got %v", c.Cache.NeighborTTL)
	}
	if c.ReembedMode != ReembedEager && c.ReembedMode != ReembedBatched {
		add("reembed_mode must be %q or %q, got %q", ReembedEager, ReembedBatched, c.ReembedMode)
	}
	if c.Algorithm == "" {
		add("algorithm tag is required")
	}
	if c.RetrainTimeout <= 0 {
		add("retrain_timeout must be positive, got %v", c.RetrainTimeout)
	}

	return errors.Join(errs...)
}

// Clone returns a copy of the configuration. All fields are values.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
