// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

// Package memory provides a non-persistent store.Store backed by maps.
//
// It satisfies the same contract as the Badger and DuckDB backends and is
// used by the engine tests and by the "memory" store backend for demos.
// Update holds the exclusive lock for the whole transaction and keeps an
// undo log, so a failing transaction leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
)

type likeKey struct {
	userID  string
	videoID string
}

// Store is an in-memory store.Store.
type Store struct {
	mu     sync.RWMutex
	closed bool

	videos   map[string]*models.Video
	profiles map[string]*models.UserProfile
	watches  []*models.WatchEntry
	watchIDs map[string]struct{}
	likes    map[likeKey]*models.LikedVideo
	logs     map[string]*models.RecommendationLog
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		videos:   make(map[string]*models.Video),
		profiles: make(map[string]*models.UserProfile),
		watchIDs: make(map[string]struct{}),
		likes:    make(map[likeKey]*models.LikedVideo),
		logs:     make(map[string]*models.RecommendationLog),
	}
}

// Update runs fn atomically under the exclusive lock.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	tx := &memTx{s: s, writable: true}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// View runs fn under the shared lock.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return fn(&memTx{s: s})
}

// Close marks the store closed. Further calls return store.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
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

// memTx operates on the store's maps directly; the caller holds the lock.
type memTx struct {
	s        *Store
	writable bool
	undo     []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) checkWritable() error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return nil
}

func (t *memTx) GetVideo(_ context.Context, id string) (*models.Video, error) {
	v, ok := t.s.videos[id]
	if !ok {
		return nil, fmt.Errorf("video %q: %w", id, store.ErrNotFound)
	}
	return v.Clone(), nil
}

func (t *memTx) ListVideos(_ context.Context, filter store.VideoFilter) ([]*models.Video, error) {
	out := make([]*models.Video, 0, len(t.s.videos))
	for _, v := range t.s.videos {
		if c := v.Clone(); filter.Match(c) {
			out = append(out, c)
		}
	}
	store.SortVideos(out)
	return out, nil
}

func (t *memTx) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	p, ok := t.s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %q: %w", userID, store.ErrNotFound)
	}
	return p.Clone(), nil
}

func (t *memTx) ListProfiles(_ context.Context) ([]*models.UserProfile, error) {
	out := make([]*models.UserProfile, 0, len(t.s.profiles))
	for _, p := range t.s.profiles {
		out = append(out, p.Clone())
	}
	store.SortProfiles(out)
	return out, nil
}

func (t *memTx) ListWatch(_ context.Context, filter store.WatchFilter) ([]*models.WatchEntry, error) {
	var out []*models.WatchEntry
	for _, w := range t.s.watches {
		if filter.Match(w) {
			c := *w
			out = append(out, &c)
		}
	}
	store.SortWatch(out)
	return out, nil
}

func (t *memTx) ListLikes(_ context.Context, filter store.LikeFilter) ([]*models.LikedVideo, error) {
	var out []*models.LikedVideo
	for _, l := range t.s.likes {
		if filter.Match(l) {
			c := *l
			out = append(out, &c)
		}
	}
	store.SortLikes(out)
	return out, nil
}

func (t *memTx) ListRecommendationLogs(_ context.Context, filter store.LogFilter) ([]*models.RecommendationLog, error) {
	var out []*models.RecommendationLog
	for _, e := range t.s.logs {
		if filter.Match(e) {
			out = append(out, cloneLog(e))
		}
	}
	store.SortLogs(out)
	return out, nil
}

func (t *memTx) PutVideo(_ context.Context, video *models.Video) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if video == nil || video.ID == "" {
		return fmt.Errorf("video without id: %w", store.ErrInvalidRecord)
	}
	prev, had := t.s.videos[video.ID]
	t.s.videos[video.ID] = video.Clone()
	t.undo = append(t.undo, func() {
		if had {
			t.s.videos[video.ID] = prev
		} else {
			delete(t.s.videos, video.ID)
		}
	})
	return nil
}

func (t *memTx) PutProfile(_ context.Context, profile *models.UserProfile) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("profile without user id: %w", store.ErrInvalidRecord)
	}
	prev, had := t.s.profiles[profile.UserID]
	t.s.profiles[profile.UserID] = profile.Clone()
	t.undo = append(t.undo, func() {
		if had {
			t.s.profiles[profile.UserID] = prev
		} else {
			delete(t.s.profiles, profile.UserID)
		}
	})
	return nil
}

func (t *memTx) AppendWatch(_ context.Context, entry *models.WatchEntry) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if entry == nil || entry.ID == "" || entry.UserID == "" || entry.VideoID == "" {
		return fmt.Errorf("watch entry missing id, user or video: %w", store.ErrInvalidRecord)
	}
	if _, dup := t.s.watchIDs[entry.ID]; dup {
		return fmt.Errorf("watch entry %q already exists: %w", entry.ID, store.ErrInvalidRecord)
	}
	c := *entry
	t.s.watches = append(t.s.watches, &c)
	t.s.watchIDs[entry.ID] = struct{}{}
	n := len(t.s.watches) - 1
	t.undo = append(t.undo, func() {
		t.s.watches = t.s.watches[:n]
		delete(t.s.watchIDs, entry.ID)
	})
	return nil
}

func (t *memTx) AppendLike(_ context.Context, like *models.LikedVideo) (bool, error) {
	if err := t.checkWritable(); err != nil {
		return false, err
	}
	if like == nil || like.UserID == "" || like.VideoID == "" {
		return false, fmt.Errorf("like missing user or video: %w", store.ErrInvalidRecord)
	}
	k := likeKey{userID: like.UserID, videoID: like.VideoID}
	if _, exists := t.s.likes[k]; exists {
		return false, nil
	}
	c := *like
	t.s.likes[k] = &c
	t.undo = append(t.undo, func() { delete(t.s.likes, k) })
	return true, nil
}

func (t *memTx) AppendRecommendationLog(_ context.Context, entry *models.RecommendationLog) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if entry == nil || entry.ID == "" || entry.UserID == "" {
		return fmt.Errorf("recommendation log missing id or user: %w", store.ErrInvalidRecord)
	}
	if _, exists := t.s.logs[entry.ID]; exists {
		return nil
	}
	t.s.logs[entry.ID] = cloneLog(entry)
	id := entry.ID
	t.undo = append(t.undo, func() { delete(t.s.logs, id) })
	return nil
}

func cloneLog(e *models.RecommendationLog) *models.RecommendationLog {
	c := *e
	c.VideoIDs = append([]string{}, e.VideoIDs...)
	c.Scores = append([]float64(nil), e.Scores...)
	return &c
}
