// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package duckstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type duckTx struct {
	q        querier
	writable bool
}

func (t *duckTx) checkWritable() error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSON(s sql.NullString, dst any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

const videoColumns = `id, title, description, tags, embedding, vocabulary_version,
	view_count, like_count, rating_count, rating_sum, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(r rowScanner) (*models.Video, error) {
	var (
		v           models.Video
		description sql.NullString
		tags        sql.NullString
		embedding   sql.NullString
	)
	err := r.Scan(&v.ID, &v.Title, &description, &tags, &embedding, &v.VocabularyVersion,
		&v.ViewCount, &v.LikeCount, &v.RatingCount, &v.RatingSum, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Description = description.String
	if err := decodeJSON(tags, &v.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := decodeJSON(embedding, &v.Embedding); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return &v, nil
}

func (t *duckTx) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	row := t.q.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get video %q: %w", id, err)
	}
	return v, nil
}

func (t *duckTx) ListVideos(ctx context.Context, filter store.VideoFilter) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos`
	var args []any
	if len(filter.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.IDs)), ",")
		query += ` WHERE id IN (` + placeholders + `)`
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY id`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		// Tag and predicate filters run in Go; tags are stored as JSON text.
		if filter.Match(v) {
			out = append(out, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return out, nil
}

const profileColumns = `user_id, preference, vocabulary_version, interaction_count,
	positive_count, negative_count, revision, created_at, updated_at`

func scanProfile(r rowScanner) (*models.UserProfile, error) {
	var (
		p          models.UserProfile
		preference sql.NullString
	)
	err := r.Scan(&p.UserID, &preference, &p.VocabularyVersion, &p.InteractionCount,
		&p.PositiveCount, &p.NegativeCount, &p.Revision, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(preference, &p.Preference); err != nil {
		return nil, fmt.Errorf("decode preference: %w", err)
	}
	return &p, nil
}

func (t *duckTx) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	row := t.q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %q: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %q: %w", userID, err)
	}
	return p, nil
}

func (t *duckTx) ListProfiles(ctx context.Context) ([]*models.UserProfile, error) {
	rows, err := t.q.QueryContext(ctx, `SELECT `+profileColumns+` FROM user_profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func (t *duckTx) ListWatch(ctx context.Context, filter store.WatchFilter) ([]*models.WatchEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.VideoID != "" {
		where = append(where, "video_id = ?")
		args = append(args, filter.VideoID)
	}
	if filter.RatedOnly {
		where = append(where, "rating IS NOT NULL")
	}
	if !filter.Since.IsZero() {
		where = append(where, "watched_at >= ?")
		args = append(args, utc(filter.Since))
	}
	if !filter.Until.IsZero() {
		where = append(where, "watched_at < ?")
		args = append(args, utc(filter.Until))
	}

	query := `SELECT id, user_id, video_id, rating, completion, watched_at FROM watch_history`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY watched_at, id`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list watch: %w", err)
	}
	defer rows.Close()

	var out []*models.WatchEntry
	for rows.Next() {
		var (
			w          models.WatchEntry
			rating     sql.NullFloat64
			completion sql.NullFloat64
		)
		if err := rows.Scan(&w.ID, &w.UserID, &w.VideoID, &rating, &completion, &w.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watch: %w", err)
		}
		w.Rating = floatPtr(rating)
		w.Completion = floatPtr(completion)
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch: %w", err)
	}
	return out, nil
}

func (t *duckTx) ListLikes(ctx context.Context, filter store.LikeFilter) ([]*models.LikedVideo, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.VideoID != "" {
		where = append(where, "video_id = ?")
		args = append(args, filter.VideoID)
	}
	query := `SELECT user_id, video_id, liked_at FROM liked_videos`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY liked_at, user_id, video_id`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	defer rows.Close()

	var out []*models.LikedVideo
	for rows.Next() {
		var l models.LikedVideo
		if err := rows.Scan(&l.UserID, &l.VideoID, &l.LikedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}
	return out, nil
}

func (t *duckTx) ListRecommendationLogs(ctx context.Context, filter store.LogFilter) ([]*models.RecommendationLog, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, utc(filter.Since))
	}
	if !filter.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, utc(filter.Until))
	}
	query := `SELECT id, user_id, video_ids, scores, algorithm, cold_start, created_at FROM recommendation_logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recommendation logs: %w", err)
	}
	defer rows.Close()

	var out []*models.RecommendationLog
	for rows.Next() {
		var (
			e         models.RecommendationLog
			videoIDs  sql.NullString
			scores    sql.NullString
			algorithm sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &videoIDs, &scores, &algorithm, &e.ColdStart, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation log: %w", err)
		}
		e.Algorithm = algorithm.String
		if err := decodeJSON(videoIDs, &e.VideoIDs); err != nil {
			return nil, fmt.Errorf("decode video ids: %w", err)
		}
		if err := decodeJSON(scores, &e.Scores); err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
		if e.VideoIDs == nil {
			e.VideoIDs = []string{}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendation logs: %w", err)
	}
	return out, nil
}

func (t *duckTx) PutVideo(ctx context.Context, v *models.Video) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if v == nil || v.ID == "" {
		return fmt.Errorf("video id: %w", store.ErrInvalidRecord)
	}
	tags, err := encodeJSON(v.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	embedding, err := encodeJSON(v.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	_, err = t.q.ExecContext(ctx, `INSERT OR REPLACE INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Title, v.Description, tags, embedding, v.VocabularyVersion,
		v.ViewCount, v.LikeCount, v.RatingCount, v.RatingSum, utc(v.CreatedAt), utc(v.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put video %q: %w", v.ID, err)
	}
	return nil
}

func (t *duckTx) PutProfile(ctx context.Context, p *models.UserProfile) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if p == nil || p.UserID == "" {
		return fmt.Errorf("profile user id: %w", store.ErrInvalidRecord)
	}
	preference, err := encodeJSON(p.Preference)
	if err != nil {
		return fmt.Errorf("encode preference: %w", err)
	}
	_, err = t.q.ExecContext(ctx, `INSERT OR REPLACE INTO user_profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, preference, p.VocabularyVersion, p.InteractionCount,
		p.PositiveCount, p.NegativeCount, p.Revision, utc(p.CreatedAt), utc(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put profile %q: %w", p.UserID, err)
	}
	return nil
}

func (t *duckTx) AppendWatch(ctx context.Context, w *models.WatchEntry) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if w == nil || w.ID == "" || w.UserID == "" || w.VideoID == "" {
		return fmt.Errorf("watch entry keys: %w", store.ErrInvalidRecord)
	}
	var n int
	if err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM watch_history WHERE id = ?`, w.ID).Scan(&n); err != nil {
		return fmt.Errorf("check watch %q: %w", w.ID, err)
	}
	if n > 0 {
		return fmt.Errorf("watch entry %q already exists: %w", w.ID, store.ErrInvalidRecord)
	}
	_, err := t.q.ExecContext(ctx, `INSERT INTO watch_history (id, user_id, video_id, rating, completion, watched_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.VideoID, nullFloat(w.Rating), nullFloat(w.Completion), utc(w.WatchedAt))
	if err != nil {
		return fmt.Errorf("append watch: %w", err)
	}
	return nil
}

func (t *duckTx) AppendLike(ctx context.Context, l *models.LikedVideo) (bool, error) {
	if err := t.checkWritable(); err != nil {
		return false, err
	}
	if l == nil || l.UserID == "" || l.VideoID == "" {
		return false, fmt.Errorf("like keys: %w", store.ErrInvalidRecord)
	}
	var n int
	err := t.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM liked_videos WHERE user_id = ? AND video_id = ?`, l.UserID, l.VideoID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = t.q.ExecContext(ctx, `INSERT INTO liked_videos (user_id, video_id, liked_at) VALUES (?, ?, ?)`,
		l.UserID, l.VideoID, utc(l.LikedAt))
	if err != nil {
		return false, fmt.Errorf("append like: %w", err)
	}
	return true, nil
}

func (t *duckTx) AppendRecommendationLog(ctx context.Context, e *models.RecommendationLog) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if e == nil || e.ID == "" || e.UserID == "" {
		return fmt.Errorf("recommendation log keys: %w", store.ErrInvalidRecord)
	}
	var n int
	if err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommendation_logs WHERE id = ?`, e.ID).Scan(&n); err != nil {
		return fmt.Errorf("check recommendation log: %w", err)
	}
	if n > 0 {
		return nil
	}
	videoIDs, err := encodeJSON(e.VideoIDs)
	if err != nil {
		return fmt.Errorf("encode video ids: %w", err)
	}
	scores, err := encodeJSON(e.Scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	_, err = t.q.ExecContext(ctx, `INSERT INTO recommendation_logs (id, user_id, video_ids, scores, algorithm, cold_start, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, videoIDs, scores, e.Algorithm, e.ColdStart, utc(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("append recommendation log: %w", err)
	}
	return nil
}
