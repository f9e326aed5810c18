// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

// Package badgerstore implements store.Store on top of BadgerDB.
//
// Records are stored as JSON values under prefixed keys. Secondary indexes
// (watch by user, watch by video, like by video, log by user) are empty-value
// keys maintained in the same transaction as the primary record, so a reader
// never observes an index entry without its record.
//
// Key layout:
//
//	v/<video>                   Video
//	p/<user>                    UserProfile
//	w/<watch>                   WatchEntry
//	wu/<user>\x00<watch>        index
//	wv/<video>\x00<watch>       index
//	l/<user>\x00<video>         LikedVideo
//	lv/<video>\x00<user>        index
//	r/<log>                     RecommendationLog
//	ru/<user>\x00<log>          index
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/vidrec/internal/logging"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
)

const (
	prefixVideo       = "v/"
	prefixProfile     = "p/"
	prefixWatch       = "w/"
	prefixWatchUser   = "wu/"
	prefixWatchVideo  = "wv/"
	prefixLike        = "l/"
	prefixLikeVideo   = "lv/"
	prefixLog         = "r/"
	prefixLogUser     = "ru/"
	keySep            = "\x00"
	defaultGCRatio    = 0.5
	defaultCloseLimit = 30 * time.Second
)

// Config holds BadgerDB options.
type Config struct {
	Path        string
	InMemory    bool
	SyncWrites  bool
	Compression bool
	GCRatio     float64
}

// Store is a BadgerDB-backed store.Store.
type Store struct {
	db     *badger.DB
	cfg    Config
	mu     sync.RWMutex
	closed bool
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, errors.New("badger path is required unless running in memory")
	}
	if cfg.GCRatio <= 0 || cfg.GCRatio >= 1 {
		cfg.GCRatio = defaultGCRatio
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	// Disable Badger's own logger; we log through zerolog.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Badger store opened")

	return &Store{db: db, cfg: cfg}, nil
}

// Update runs fn inside a read-write Badger transaction.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := fn(&badgerTx{txn: txn, writable: true}); err != nil {
			return err
		}
		// Badger commits without looking at ctx; a caller that already gave
		// up must not see the write land later.
		return ctx.Err()
	})
	return mapErr(err)
}

// View runs fn inside a read-only Badger transaction.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
	return mapErr(err)
}

// Close closes the database, giving up after a bounded wait.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close badger: %w", err)
		}
		logging.Info().Msg("Badger store closed")
		return nil
	case <-time.After(defaultCloseLimit):
		return fmt.Errorf("close badger: timed out after %v", defaultCloseLimit)
	}
}

// RunGC reclaims value-log space. It is a no-op for in-memory stores.
func (s *Store) RunGC() error {
	if err := s.checkOpen(context.Background()); err != nil {
		return err
	}
	if s.cfg.InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(s.cfg.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log gc: %w", err)
		}
	}
}

func (s *Store) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: %v", store.ErrClosed, err)
	default:
		return err
	}
}

func (s *Store) GetVideo(ctx context.Context, id string) (v *models.Video, err error) {
	err = s.View(ctx, func(tx store.Tx) error {
		v, err = tx.GetVideo(ctx, id)
		return err
	})
	return v, err
}

func (s *Store) ListVideos(ctx context.Context, filter store.VideoFilter) (vs []*models.Video, err error) {
	err = s.View(ctx, func(tx store.Tx) error {
		vs, err = tx.ListVideos(ctx, filter)
		return err
	})
	return vs, err
}

func (s *Store) GetProfile(ctx context.Context, userID string) (p *models.UserProfile, err error) {
	err = s.View(ctx, func(tx store.Tx) error {
		p, err = tx.GetProfile(ctx, userID)
		return err
	})
	return p, err
}

func (s *Store) ListProfiles(ctx context.Context) (ps []*models.UserProfile, err error) {
	err = s.View(ctx, func(tx store.Tx) error {
		ps, err = tx.ListProfiles(ctx)
		return err
	})
	return ps, err
}

func (s *Store) ListWatch(ctx context.Context, filter store.WatchFilter) (ws []*models.WatchEntry, err error) {
	err = s.View(ctx, func(tx store.Tx) error {
		ws, err = tx.ListWatch(ctx, filter)
		return err
	})
	return ws, err
}

func (s *Store) ListLikes(ctx context.Context, filter store.LikeFilter) (ls []*models.LikedVideo, err error) {
	err = s.View(ctx, func(tx store.Tx) error {
		ls, err = tx.ListLikes(ctx, filter)
		return err
	})
	return ls, err
}

func (s *Store) ListRecommendationLogs(ctx context.Context, filter store.LogFilter) (es []*models.RecommendationLog, err error) {
	err = s.View(ctx, func(tx store.Tx) error {
		es, err = tx.ListRecommendationLogs(ctx, filter)
		return err
	})
	return es, err
}

func (s *Store) PutVideo(ctx context.Context, video *models.Video) error {
	return s.Update(ctx, func(tx store.Tx) error {
		return tx.PutVideo(ctx, video)
	})
}

func (s *Store) PutProfile(ctx context.Context, profile *models.UserProfile) error {
	return s.Update(ctx, func(tx store.Tx) error {
		return tx.PutProfile(ctx, profile)
	})
}

func (s *Store) AppendWatch(ctx context.Context, entry *models.WatchEntry) error {
	return s.Update(ctx, func(tx store.Tx) error {
		return tx.AppendWatch(ctx, entry)
	})
}

func (s *Store) AppendLike(ctx context.Context, like *models.LikedVideo) (created bool, err error) {
	err = s.Update(ctx, func(tx store.Tx) error {
		created, err = tx.AppendLike(ctx, like)
		return err
	})
	return created, err
}

func (s *Store) AppendRecommendationLog(ctx context.Context, entry *models.RecommendationLog) error {
	return s.Update(ctx, func(tx store.Tx) error {
		return tx.AppendRecommendationLog(ctx, entry)
	})
}

// validKey rejects empty ids and ids containing the index separator.
func validKey(parts ...string) bool {
	for _, p := range parts {
		if p == "" || strings.Contains(p, keySep) {
			return false
		}
	}
	return true
}
