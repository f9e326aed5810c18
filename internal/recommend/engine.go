// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/vidrec/internal/cache"
	"github.com/tomtom215/vidrec/internal/metrics"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend/embedding"
	"github.com/tomtom215/vidrec/internal/recommend/similarity"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/validation"
)

// EventPublisher receives engine events. It is implemented by the events
// package; a nil publisher drops events.
type EventPublisher interface {
	PublishVideoIngested(ctx context.Context, ev VideoIngested) error
}

// Engine ingests videos, learns user profiles from interactions and serves
// hybrid recommendations. It is safe for concurrent use.
//
// Lock order: corpus before user. The corpus lock is exclusive only while
// the vocabulary and every embedding are being rebuilt.
type Engine struct {
	cfg    *Config
	logger zerolog.Logger
	metric similarity.Metric

	store store.Store
	// bulk runs retrain transactions, bypassing per-call store timeouts.
	bulk store.Store

	embedder  *embedding.Embedder
	publisher EventPublisher

	corpus    sync.RWMutex
	users     keyedLocks
	retrainMu sync.Mutex

	retraining  atomic.Bool
	stale       atomic.Bool
	lastRetrain atomic.Pointer[time.Time]

	neighborCache *cache.LRU[neighborKey, []neighborEntry]
	flight        singleflight.Group

	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets the publisher for VideoIngested events.
func WithPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine over st. Call Load before serving.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, st store.Store, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	metric, err := similarity.Lookup(cfg.Similarity)
	if err != nil {
		return nil, err
	}
	metric = similarity.Regularize(metric, cfg.MinCommonItems, cfg.Shrinkage)

	bulk := st
	if g, ok := st.(interface{ Inner() store.Store }); ok {
		bulk = g.Inner()
	}

	e := &Engine{
		cfg:           cfg.Clone(),
		logger:        logger.With().Str("component", "recommend").Logger(),
		metric:        metric,
		store:         st,
		bulk:          bulk,
		embedder:      embedding.NewEmbedder(),
		neighborCache: cache.NewLRU[neighborKey, []neighborEntry](cfg.Cache.NeighborEntries, cfg.Cache.NeighborTTL),
		now:           time.Now,
		newID:         func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg.Clone()
}

// timestamp returns the current time at the precision every backend keeps.
func (e *Engine) timestamp() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}

// Load builds the serving vocabulary from the stored corpus. When a stored
// embedding or profile was computed against a different vocabulary it runs a
// full retrain, so a restart never serves mixed dimensions.
func (e *Engine) Load(ctx context.Context) error {
	e.corpus.Lock()
	defer e.corpus.Unlock()

	videos, err := e.store.ListVideos(ctx, store.VideoFilter{})
	if err != nil {
		return storageFailure("load", err)
	}
	profiles, err := e.store.ListProfiles(ctx)
	if err != nil {
		return storageFailure("load", err)
	}

	vocab := embedding.Build(corpusDocuments(videos))
	if consistent(vocab, videos, profiles) {
		published := e.embedder.Swap(vocab)
		e.stale.Store(false)
		metrics.SetVocabulary(published.Dim(), published.Generation())
		e.logger.Info().
			Int("videos", len(videos)).
			Int("profiles", len(profiles)).
			Int("terms", published.Dim()).
			Msg("loaded corpus")
		return nil
	}

	e.logger.Warn().
		Int("videos", len(videos)).
		Msg("stored embeddings disagree with the corpus vocabulary, retraining")
	_, err = e.retrainLocked(ctx, TriggerStartup)
	return err
}

// consistent reports whether every stored vector was computed against vocab.
func consistent(vocab *embedding.Vocabulary, videos []*models.Video, profiles []*models.UserProfile) bool {
	for _, v := range videos {
		if len(v.Embedding) != vocab.Dim() || v.VocabularyVersion != vocab.Fingerprint() {
			return false
		}
	}
	for _, p := range profiles {
		if p.Preference == nil {
			continue
		}
		if len(p.Preference) != vocab.Dim() || p.VocabularyVersion != vocab.Fingerprint() {
			return false
		}
	}
	return true
}

func corpusDocuments(videos []*models.Video) []string {
	docs := make([]string, len(videos))
	for i, v := range videos {
		docs[i] = embedding.Document(v.Title, v.Description, v.Tags)
	}
	return docs
}

// checkEmbedding verifies that a stored vector belongs to the serving vocabulary.
func checkEmbedding(op string, vocab *embedding.Vocabulary, id string, vec []float64, version uint64) error {
	if len(vec) != vocab.Dim() {
		metrics.RecordInconsistentState()
		return inconsistent(op, "%s has dimension %d, serving vocabulary has %d", id, len(vec), vocab.Dim())
	}
	if version != vocab.Fingerprint() {
		metrics.RecordInconsistentState()
		return inconsistent(op, "%s was embedded against vocabulary %x, serving %x", id, version, vocab.Fingerprint())
	}
	return nil
}

// GetVideo returns a stored video.
func (e *Engine) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	if !validation.IsIdentifier(id) {
		return nil, invalidInputf("get_video", "invalid video id %q", id)
	}
	v, err := e.store.GetVideo(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("get_video", "video %s", id)
	}
	if err != nil {
		return nil, storageFailure("get_video", err)
	}
	return v, nil
}

// ListVideos lists stored videos, optionally only those carrying tag.
func (e *Engine) ListVideos(ctx context.Context, tag string) ([]*models.Video, error) {
	videos, err := e.store.ListVideos(ctx, store.VideoFilter{Tag: tag})
	if err != nil {
		return nil, storageFailure("list_videos", err)
	}
	return videos, nil
}

// GetProfile returns a stored profile.
func (e *Engine) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if !validation.IsIdentifier(userID) {
		return nil, invalidInputf("get_profile", "invalid user id %q", userID)
	}
	p, err := e.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("get_profile", "user %s", userID)
	}
	if err != nil {
		return nil, storageFailure("get_profile", err)
	}
	return p, nil
}

// Neighbors returns up to k users most similar to userID. k <= 0 selects
// the configured NeighborK.
func (e *Engine) Neighbors(ctx context.Context, userID string, k int) ([]Neighbor, error) {
	const op = "neighbors"
	if !validation.IsIdentifier(userID) {
		return nil, invalidInputf(op, "invalid user id %q", userID)
	}
	if k <= 0 {
		k = e.cfg.NeighborK
	}
	if k > e.cfg.Limits.MaxN {
		k = e.cfg.Limits.MaxN
	}

	e.corpus.RLock()
	defer e.corpus.RUnlock()
	unlock := e.users.RLock(userID)
	defer unlock()

	p, err := e.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(op, "user %s", userID)
	}
	if err != nil {
		return nil, storageFailure(op, err)
	}

	entries, err := e.neighbors(ctx, p, k)
	if err != nil {
		return nil, storageFailure(op, err)
	}
	out := make([]Neighbor, len(entries))
	for i, n := range entries {
		out[i] = n.Neighbor
	}
	return out, nil
}

// Stats reports the serving state.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	videos, err := e.store.ListVideos(ctx, store.VideoFilter{})
	if err != nil {
		return nil, storageFailure("stats", err)
	}
	profiles, err := e.store.ListProfiles(ctx)
	if err != nil {
		return nil, storageFailure("stats", err)
	}

	vocab := e.embedder.Current()
	s := &Stats{
		Videos:            len(videos),
		Profiles:          len(profiles),
		Terms:             vocab.Dim(),
		VocabularyVersion: vocab.Fingerprint(),
		Generation:        vocab.Generation(),
		VocabularyStale:   e.stale.Load(),
		ReembedMode:       e.cfg.ReembedMode,
		Similarity:        e.metric.Name(),
		Alpha:             e.cfg.Alpha,
		Retraining:        e.retraining.Load(),
	}
	if t := e.lastRetrain.Load(); t != nil {
		at := *t
		s.LastRetrainAt = &at
	}
	return s, nil
}

// VocabularyStale reports whether videos were ingested since the last
// rebuild without extending the vocabulary.
func (e *Engine) VocabularyStale() bool {
	return e.stale.Load()
}

// CleanupCache drops expired neighbor lists and returns how many were removed.
func (e *Engine) CleanupCache() int {
	return e.neighborCache.CleanupExpired()
}
