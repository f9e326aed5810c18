// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

// Package duckstore implements store.Store on DuckDB.
//
// Tables are created on open. Slice-valued fields (tags, embeddings,
// preference vectors, recommended ids) are stored as JSON text. Update and
// View map onto database/sql transactions; DuckDB transaction conflicts are
// reported as store.ErrConflict.
package duckstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/vidrec/internal/logging"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
)

// Config holds DuckDB connection options.
type Config struct {
	// Path is the database file. Empty or ":memory:" opens an in-memory database.
	Path      string
	Threads   int
	MaxMemory string
}

// Store is a DuckDB-backed store.Store.
type Store struct {
	conn *sql.DB
}

var _ store.Store = (*Store)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS videos (
		id VARCHAR PRIMARY KEY,
		title VARCHAR NOT NULL,
		description VARCHAR,
		tags VARCHAR,
		embedding VARCHAR,
		vocabulary_version UBIGINT,
		view_count BIGINT DEFAULT 0,
		like_count BIGINT DEFAULT 0,
		rating_count BIGINT DEFAULT 0,
		rating_sum DOUBLE DEFAULT 0,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id VARCHAR PRIMARY KEY,
		preference VARCHAR,
		vocabulary_version UBIGINT,
		interaction_count BIGINT DEFAULT 0,
		positive_count BIGINT DEFAULT 0,
		negative_count BIGINT DEFAULT 0,
		revision BIGINT DEFAULT 0,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS watch_history (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		video_id VARCHAR NOT NULL,
		rating DOUBLE,
		completion DOUBLE,
		watched_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS liked_videos (
		user_id VARCHAR NOT NULL,
		video_id VARCHAR NOT NULL,
		liked_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, video_id)
	)`,
	`CREATE TABLE IF NOT EXISTS recommendation_logs (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		video_ids VARCHAR,
		scores VARCHAR,
		algorithm VARCHAR,
		cold_start BOOLEAN DEFAULT false,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watch_user ON watch_history(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_watch_video ON watch_history(video_id)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_video ON liked_videos(video_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reclog_user ON recommendation_logs(user_id)`,
}

// Open opens the database and creates the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d", path, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	logging.Info().Str("path", path).Msg("DuckDB store opened")
	return &Store{conn: conn}, nil
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Debug().Err(err).Msg("Error closing DuckDB connection")
	}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close duckdb: %w", err)
	}
	return nil
}

// Update runs fn inside a database transaction, committing on success.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	sqlTx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Warn().Err(rbErr).Msg("DuckDB rollback failed")
			}
		}
	}()

	if err = fn(&duckTx{q: sqlTx, writable: true}); err != nil {
		return mapErr(err)
	}
	if err = sqlTx.Commit(); err != nil {
		return mapErr(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// View runs fn inside a transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Debug().Err(rbErr).Msg("DuckDB read transaction rollback failed")
		}
	}()
	return mapErr(fn(&duckTx{q: sqlTx}))
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict.
func isTransactionConflict(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update")
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrConnDone), strings.Contains(err.Error(), "database is closed"):
		return fmt.Errorf("%w: %v", store.ErrClosed, err)
	case isTransactionConflict(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
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
