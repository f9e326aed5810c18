// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package store

import (
	"context"
	"errors"

	"github.com/tomtom215/vidrec/internal/models"
)

// Sentinel errors shared by every backend.
var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("store: record not found")

	// ErrConflict is returned when a transaction could not commit because of
	// a concurrent write. Nothing from the transaction was applied, so the
	// whole transaction may be retried.
	ErrConflict = errors.New("store: transaction conflict")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")

	// ErrReadOnly is returned by writes attempted inside View.
	ErrReadOnly = errors.New("store: write in read-only transaction")

	// ErrInvalidRecord is returned when a record is missing its key.
	ErrInvalidRecord = errors.New("store: invalid record")
)

// Reader is the read side of the store.
type Reader interface {
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context, filter VideoFilter) ([]*models.Video, error)

	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	ListProfiles(ctx context.Context) ([]*models.UserProfile, error)

	ListWatch(ctx context.Context, filter WatchFilter) ([]*models.WatchEntry, error)
	ListLikes(ctx context.Context, filter LikeFilter) ([]*models.LikedVideo, error)
	ListRecommendationLogs(ctx context.Context, filter LogFilter) ([]*models.RecommendationLog, error)
}

// Writer is the write side of the store.
type Writer interface {
	PutVideo(ctx context.Context, video *models.Video) error
	PutProfile(ctx context.Context, profile *models.UserProfile) error

	AppendWatch(ctx context.Context, entry *models.WatchEntry) error

	// AppendLike stores the like unless the (user, video) pair already
	// exists. created is false for a duplicate.
	AppendLike(ctx context.Context, like *models.LikedVideo) (created bool, err error)

	// AppendRecommendationLog is idempotent by log ID.
	AppendRecommendationLog(ctx context.Context, entry *models.RecommendationLog) error
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	Reader
	Writer
}

// Store is a transactional record store for videos, profiles and the
// interaction log.
//
// Methods called directly on the Store run in their own implicit
// transaction. Update runs fn atomically: either every write inside fn
// becomes visible or none does.
type Store interface {
	Tx

	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}
