// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
)

type badgerTx struct {
	txn      *badger.Txn
	writable bool
}

func (t *badgerTx) checkWritable() error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return nil
}

// get decodes the JSON value at key into dst.
func (t *badgerTx) get(key string, dst any) error {
	item, err := t.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %q: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func (t *badgerTx) exists(key string) (bool, error) {
	_, err := t.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %q: %w", key, err)
	}
	return true, nil
}

func (t *badgerTx) set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	if err := t.txn.Set([]byte(key), data); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (t *badgerTx) setIndex(key string) error {
	if err := t.txn.Set([]byte(key), nil); err != nil {
		return fmt.Errorf("set index %q: %w", key, err)
	}
	return nil
}

// scan calls fn for every key under prefix. withValues controls prefetching.
func (t *badgerTx) scan(ctx context.Context, prefix string, withValues bool, fn func(key string, item *badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = withValues
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		item := it.Item()
		if err := fn(string(item.KeyCopy(nil)), item); err != nil {
			return err
		}
	}
	return nil
}

// indexTargets returns the trailing component of every index key under prefix.
func (t *badgerTx) indexTargets(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	err := t.scan(ctx, prefix, false, func(key string, _ *badger.Item) error {
		ids = append(ids, key[strings.LastIndex(key, keySep)+1:])
		return nil
	})
	return ids, err
}

func decodeItem(item *badger.Item, dst any) error {
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func (t *badgerTx) GetVideo(_ context.Context, id string) (*models.Video, error) {
	var v models.Video
	if err := t.get(prefixVideo+id, &v); err != nil {
		return nil, fmt.Errorf("video %q: %w", id, err)
	}
	return &v, nil
}

func (t *badgerTx) ListVideos(ctx context.Context, filter store.VideoFilter) ([]*models.Video, error) {
	var out []*models.Video

	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			v, err := t.GetVideo(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if filter.Match(v) {
				out = append(out, v)
			}
		}
		store.SortVideos(out)
		return out, nil
	}

	err := t.scan(ctx, prefixVideo, true, func(key string, item *badger.Item) error {
		var v models.Video
		if err := decodeItem(item, &v); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		if filter.Match(&v) {
			out = append(out, &v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	store.SortVideos(out)
	return out, nil
}

func (t *badgerTx) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := t.get(prefixProfile+userID, &p); err != nil {
		return nil, fmt.Errorf("profile %q: %w", userID, err)
	}
	return &p, nil
}

func (t *badgerTx) ListProfiles(ctx context.Context) ([]*models.UserProfile, error) {
	var out []*models.UserProfile
	err := t.scan(ctx, prefixProfile, true, func(key string, item *badger.Item) error {
		var p models.UserProfile
		if err := decodeItem(item, &p); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		out = append(out, &p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	store.SortProfiles(out)
	return out, nil
}

func (t *badgerTx) ListWatch(ctx context.Context, filter store.WatchFilter) ([]*models.WatchEntry, error) {
	var out []*models.WatchEntry
	add := func(w *models.WatchEntry) {
		if filter.Match(w) {
			out = append(out, w)
		}
	}

	var indexPrefix string
	switch {
	case filter.UserID != "":
		indexPrefix = prefixWatchUser + filter.UserID + keySep
	case filter.VideoID != "":
		indexPrefix = prefixWatchVideo + filter.VideoID + keySep
	}

	if indexPrefix != "" {
		ids, err := t.indexTargets(ctx, indexPrefix)
		if err != nil {
			return nil, fmt.Errorf("list watch index: %w", err)
		}
		for _, id := range ids {
			var w models.WatchEntry
			if err := t.get(prefixWatch+id, &w); err != nil {
				return nil, fmt.Errorf("watch %q: %w", id, err)
			}
			add(&w)
		}
	} else {
		err := t.scan(ctx, prefixWatch, true, func(key string, item *badger.Item) error {
			var w models.WatchEntry
			if err := decodeItem(item, &w); err != nil {
				return fmt.Errorf("decode %q: %w", key, err)
			}
			add(&w)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list watch: %w", err)
		}
	}

	store.SortWatch(out)
	return out, nil
}

func (t *badgerTx) ListLikes(ctx context.Context, filter store.LikeFilter) ([]*models.LikedVideo, error) {
	var out []*models.LikedVideo

	switch {
	case filter.UserID != "":
		err := t.scan(ctx, prefixLike+filter.UserID+keySep, true, func(key string, item *badger.Item) error {
			var l models.LikedVideo
			if err := decodeItem(item, &l); err != nil {
				return fmt.Errorf("decode %q: %w", key, err)
			}
			if filter.Match(&l) {
				out = append(out, &l)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list likes: %w", err)
		}
	case filter.VideoID != "":
		users, err := t.indexTargets(ctx, prefixLikeVideo+filter.VideoID+keySep)
		if err != nil {
			return nil, fmt.Errorf("list like index: %w", err)
		}
		for _, userID := range users {
			var l models.LikedVideo
			if err := t.get(prefixLike+userID+keySep+filter.VideoID, &l); err != nil {
				return nil, fmt.Errorf("like %s/%s: %w", userID, filter.VideoID, err)
			}
			out = append(out, &l)
		}
	default:
		err := t.scan(ctx, prefixLike, true, func(key string, item *badger.Item) error {
			var l models.LikedVideo
			if err := decodeItem(item, &l); err != nil {
				return fmt.Errorf("decode %q: %w", key, err)
			}
			out = append(out, &l)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list likes: %w", err)
		}
	}

	store.SortLikes(out)
	return out, nil
}

func (t *badgerTx) ListRecommendationLogs(ctx context.Context, filter store.LogFilter) ([]*models.RecommendationLog, error) {
	var out []*models.RecommendationLog

	if filter.UserID != "" {
		ids, err := t.indexTargets(ctx, prefixLogUser+filter.UserID+keySep)
		if err != nil {
			return nil, fmt.Errorf("list log index: %w", err)
		}
		for _, id := range ids {
			var e models.RecommendationLog
			if err := t.get(prefixLog+id, &e); err != nil {
				return nil, fmt.Errorf("recommendation log %q: %w", id, err)
			}
			if filter.Match(&e) {
				out = append(out, &e)
			}
		}
	} else {
		err := t.scan(ctx, prefixLog, true, func(key string, item *badger.Item) error {
			var e models.RecommendationLog
			if err := decodeItem(item, &e); err != nil {
				return fmt.Errorf("decode %q: %w", key, err)
			}
			if filter.Match(&e) {
				out = append(out, &e)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list recommendation logs: %w", err)
		}
	}

	store.SortLogs(out)
	return out, nil
}

func (t *badgerTx) PutVideo(_ context.Context, video *models.Video) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if video == nil || !validKey(video.ID) {
		return fmt.Errorf("video id: %w", store.ErrInvalidRecord)
	}
	return t.set(prefixVideo+video.ID, video)
}

func (t *badgerTx) PutProfile(_ context.Context, profile *models.UserProfile) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if profile == nil || !validKey(profile.UserID) {
		return fmt.Errorf("profile user id: %w", store.ErrInvalidRecord)
	}
	return t.set(prefixProfile+profile.UserID, profile)
}

func (t *badgerTx) AppendWatch(_ context.Context, entry *models.WatchEntry) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if entry == nil || !validKey(entry.ID, entry.UserID, entry.VideoID) {
		return fmt.Errorf("watch entry keys: %w", store.ErrInvalidRecord)
	}
	dup, err := t.exists(prefixWatch + entry.ID)
	if err != nil {
		return err
	}
	if dup {
		return fmt.Errorf("watch entry %q already exists: %w", entry.ID, store.ErrInvalidRecord)
	}
	if err := t.set(prefixWatch+entry.ID, entry); err != nil {
		return err
	}
	if err := t.setIndex(prefixWatchUser + entry.UserID + keySep + entry.ID); err != nil {
		return err
	}
	return t.setIndex(prefixWatchVideo + entry.VideoID + keySep + entry.ID)
}

func (t *badgerTx) AppendLike(_ context.Context, like *models.LikedVideo) (bool, error) {
	if err := t.checkWritable(); err != nil {
		return false, err
	}
	if like == nil || !validKey(like.UserID, like.VideoID) {
		return false, fmt.Errorf("like keys: %w", store.ErrInvalidRecord)
	}
	key := prefixLike + like.UserID + keySep + like.VideoID
	dup, err := t.exists(key)
	if err != nil || dup {
		return false, err
	}
	if err := t.set(key, like); err != nil {
		return false, err
	}
	if err := t.setIndex(prefixLikeVideo + like.VideoID + keySep + like.UserID); err != nil {
		return false, err
	}
	return true, nil
}

func (t *badgerTx) AppendRecommendationLog(_ context.Context, entry *models.RecommendationLog) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if entry == nil || !validKey(entry.ID, entry.UserID) {
		return fmt.Errorf("recommendation log keys: %w", store.ErrInvalidRecord)
	}
	dup, err := t.exists(prefixLog + entry.ID)
	if err != nil || dup {
		return err
	}
	if err := t.set(prefixLog+entry.ID, entry); err != nil {
		return err
	}
	return t.setIndex(prefixLogUser + entry.UserID + keySep + entry.ID)
}
