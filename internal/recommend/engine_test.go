// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/store/memory"
)

// stepClock advances one second on every reading, so consecutive engine
// operations always get strictly increasing timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []VideoIngested
}

func (p *recordingPublisher) PublishVideoIngested(_ context.Context, ev VideoIngested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Events() []VideoIngested {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]VideoIngested(nil), p.events...)
}

func newTestEngine(t *testing.T, st store.Store, mutate func(*Config), opts ...Option) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	opts = append([]Option{WithClock(newStepClock().Now)}, opts...)
	e, err := NewEngine(cfg, st, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return e
}

func mustIngest(t *testing.T, e *Engine, id, title string, tags ...string) *models.Video {
	t.Helper()
	v, err := e.IngestVideo(context.Background(), VideoInput{ID: id, Title: title, Tags: tags})
	if err != nil {
		t.Fatalf("IngestVideo(%s) error = %v", id, err)
	}
	return v
}

func mustWatch(t *testing.T, e *Engine, userID, videoID string, rating *float64) *models.UserProfile {
	t.Helper()
	p, err := e.RecordWatch(context.Background(), WatchInput{UserID: userID, VideoID: videoID, Rating: rating})
	if err != nil {
		t.Fatalf("RecordWatch(%s, %s) error = %v", userID, videoID, err)
	}
	return p
}

func itemIDs(items []ScoredVideo) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.VideoID
	}
	return ids
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Alpha = 2
	if _, err := NewEngine(cfg, memory.New(), zerolog.Nop()); err == nil {
		t.Fatal("NewEngine() expected error for alpha out of range")
	}
	if _, err := NewEngine(DefaultConfig(), nil, zerolog.Nop()); err == nil {
		t.Fatal("NewEngine() expected error for nil store")
	}
}

func TestRecommend_NoSharedVocabulary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	e := newTestEngine(t, st, nil)

	mustIngest(t, e, "A", "cats whiskers purring")
	mustIngest(t, e, "B", "rockets engines thrust")
	mustWatch(t, e, "U", "A", models.Float64Ptr(5))

	resp, err := e.Recommend(ctx, Request{UserID: "U", N: 1})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Count != 0 || len(resp.Items) != 0 {
		t.Errorf("Recommend() = %v (count %d), want empty", itemIDs(resp.Items), resp.Count)
	}
	if resp.ColdStart {
		t.Error("ColdStart = true for a user with interactions")
	}

	logs, err := st.ListRecommendationLogs(ctx, store.LogFilter{UserID: "U"})
	if err != nil {
		t.Fatalf("ListRecommendationLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d log entries, want 1", len(logs))
	}
	if len(logs[0].VideoIDs) != 0 {
		t.Errorf("log VideoIDs = %v, want empty", logs[0].VideoIDs)
	}
	if logs[0].ID != resp.LogID {
		t.Errorf("log ID = %q, want %q", logs[0].ID, resp.LogID)
	}
}

func TestNeighbors_DisagreeingUserRanksBelowAgreeingUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	mustIngest(t, e, "v", "space rockets launch")
	mustWatch(t, e, "u1", "v", models.Float64Ptr(5))
	mustWatch(t, e, "agrees", "v", models.Float64Ptr(5))
	mustWatch(t, e, "opposes", "v", models.Float64Ptr(1))

	neighbors, err := e.Neighbors(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(neighbors) != 2 || neighbors[0].UserID != "agrees" || neighbors[1].UserID != "opposes" {
		t.Fatalf("Neighbors(u1) = %+v, want agrees then opposes", neighbors)
	}
	if neighbors[1].Similarity >= neighbors[0].Similarity {
		t.Errorf("similarity(opposes) = %v, want below similarity(agrees) = %v",
			neighbors[1].Similarity, neighbors[0].Similarity)
	}
}

func TestNeighbors_TieBreaks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	mustIngest(t, e, "v", "space rockets launch")
	mustIngest(t, e, "w", "pasta cooking recipes")
	mustWatch(t, e, "u1", "v", models.Float64Ptr(5))
	for _, u := range []string{"mm", "aa", "zz"} {
		mustWatch(t, e, u, "v", models.Float64Ptr(5))
	}
	// An unrated watch adds an interaction without changing the co-rated set.
	mustWatch(t, e, "zz", "w", nil)

	neighbors, err := e.Neighbors(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	var got []string
	for _, n := range neighbors {
		got = append(got, n.UserID)
	}
	want := []string{"zz", "aa", "mm"}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(u1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Neighbors(u1) = %v, want %v", got, want)
		}
	}
	if neighbors[0].Similarity != neighbors[1].Similarity || neighbors[1].Similarity != neighbors[2].Similarity {
		t.Errorf("similarities = %v, %v, %v, want equal", neighbors[0].Similarity, neighbors[1].Similarity, neighbors[2].Similarity)
	}
	if neighbors[0].InteractionCount <= neighbors[1].InteractionCount {
		t.Errorf("InteractionCount zz = %d, aa = %d, want zz higher", neighbors[0].InteractionCount, neighbors[1].InteractionCount)
	}

	neighbors, err = e.Neighbors(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("Neighbors(k=2) error = %v", err)
	}
	if len(neighbors) != 2 || neighbors[1].UserID != "aa" {
		t.Errorf("Neighbors(u1, 2) = %+v, want zz, aa", neighbors)
	}
}

func TestNeighbors_RecomputedAfterOwnProfileChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	mustIngest(t, e, "v", "space rockets launch")
	mustIngest(t, e, "x", "pasta cooking recipes")
	mustWatch(t, e, "u1", "v", models.Float64Ptr(5))
	mustWatch(t, e, "u2", "v", models.Float64Ptr(5))
	mustWatch(t, e, "u3", "x", models.Float64Ptr(5))

	first, err := e.Neighbors(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(first) != 1 || first[0].UserID != "u2" {
		t.Fatalf("Neighbors(u1) = %+v, want only u2", first)
	}

	mustWatch(t, e, "u1", "x", models.Float64Ptr(5))

	second, err := e.Neighbors(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("Neighbors() after rating error = %v", err)
	}
	if indexOfNeighbor(second, "u3") < 0 {
		t.Errorf("Neighbors(u1) after rating x = %+v, want u3 included", second)
	}
}

func indexOfNeighbor(neighbors []Neighbor, userID string) int {
	for i, n := range neighbors {
		if n.UserID == userID {
			return i
		}
	}
	return -1
}

func TestRecommend_NeighborSurfacesLikedVideo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	mustIngest(t, e, "V", "space rockets launch")
	mustIngest(t, e, "W", "space shuttle orbit")
	mustIngest(t, e, "X", "pasta cooking recipes")

	mustWatch(t, e, "U1", "V", models.Float64Ptr(5))
	mustWatch(t, e, "U2", "V", models.Float64Ptr(5))
	mustWatch(t, e, "U2", "W", nil)
	if _, err := e.RecordLike(ctx, "U2", "W"); err != nil {
		t.Fatalf("RecordLike() error = %v", err)
	}

	neighbors, err := e.Neighbors(ctx, "U1", 5)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(neighbors) == 0 || neighbors[0].UserID != "U2" {
		t.Fatalf("Neighbors(U1) = %+v, want U2 first", neighbors)
	}
	if neighbors[0].Similarity <= 0 {
		t.Errorf("similarity(U1, U2) = %v, want > 0", neighbors[0].Similarity)
	}

	resp, err := e.Recommend(ctx, Request{UserID: "U1", N: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	ids := itemIDs(resp.Items)
	w, x := indexOf(ids, "W"), indexOf(ids, "X")
	if w < 0 {
		t.Fatalf("Recommend(U1) = %v, want W included", ids)
	}
	if x >= 0 && x < w {
		t.Errorf("Recommend(U1) = %v, want W ranked above X", ids)
	}
	if got := resp.Items[w]; got.CollaborativeScore <= 0 || got.Reason != ReasonHybrid {
		t.Errorf("W = %+v, want positive collaborative score and hybrid reason", got)
	}
	if indexOf(ids, "V") >= 0 {
		t.Errorf("Recommend(U1) = %v, watched video V must be excluded", ids)
	}
}

func TestRecommend_ExcludesWatchedUnlessReplay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	mustIngest(t, e, "v1", "guitar lesson basics")
	mustIngest(t, e, "v2", "guitar solo advanced")
	mustWatch(t, e, "u", "v1", models.Float64Ptr(5))

	resp, err := e.Recommend(ctx, Request{UserID: "u"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if ids := itemIDs(resp.Items); len(ids) != 1 || ids[0] != "v2" {
		t.Errorf("Recommend() = %v, want [v2]", ids)
	}

	resp, err = e.Recommend(ctx, Request{UserID: "u", IncludeWatched: true})
	if err != nil {
		t.Fatalf("Recommend(replay) error = %v", err)
	}
	if ids := itemIDs(resp.Items); len(ids) != 2 || ids[0] != "v1" {
		t.Errorf("Recommend(replay) = %v, want v1 first of two", ids)
	}
}

func TestRecommend_ColdStartOrdersByPopularity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	mustIngest(t, e, "a", "first video")
	mustIngest(t, e, "b", "second video")
	mustIngest(t, e, "c", "third video")
	for i := 0; i < 3; i++ {
		mustWatch(t, e, "viewer", "c", nil)
	}
	mustWatch(t, e, "viewer", "b", nil)

	resp, err := e.Recommend(ctx, Request{UserID: "newcomer", N: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !resp.ColdStart {
		t.Error("ColdStart = false, want true")
	}
	want := []string{"c", "b", "a"}
	got := itemIDs(resp.Items)
	if len(got) != len(want) {
		t.Fatalf("Recommend() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Recommend() = %v, want %v", got, want)
		}
		if resp.Items[i].Reason != ReasonPopular || resp.Items[i].Score != 0 {
			t.Errorf("item %d = %+v, want popular with score 0", i, resp.Items[i])
		}
	}
}

func TestRecommend_Limits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), func(c *Config) {
		c.Limits.DefaultN = 2
		c.Limits.MaxN = 3
	})
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		mustIngest(t, e, id, "video "+id+"x")
	}

	tests := []struct {
		name    string
		n       int
		want    int
		wantErr error
	}{
		{name: "default", n: 0, want: 2},
		{name: "explicit", n: 1, want: 1},
		{name: "capped", n: 50, want: 3},
		{name: "negative", n: -1, wantErr: ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := e.Recommend(ctx, Request{UserID: "u", N: tt.n})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Recommend() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if resp.Count != tt.want {
				t.Errorf("Count = %d, want %d", resp.Count, tt.want)
			}
		})
	}
}

func TestRecommend_DimensionMismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	e := newTestEngine(t, st, nil)

	mustIngest(t, e, "good", "healthy video")
	bad := mustIngest(t, e, "bad", "broken video")
	bad.Embedding = append(bad.Embedding, 0.5)
	if err := st.PutVideo(ctx, bad); err != nil {
		t.Fatalf("PutVideo() error = %v", err)
	}

	_, err := e.Recommend(ctx, Request{UserID: "u"})
	if !errors.Is(err, ErrInconsistentState) {
		t.Fatalf("Recommend() error = %v, want ErrInconsistentState", err)
	}
	if KindOf(err) != KindInconsistentState {
		t.Errorf("KindOf() = %v, want %v", KindOf(err), KindInconsistentState)
	}

	logs, _ := st.ListRecommendationLogs(ctx, store.LogFilter{})
	if len(logs) != 0 {
		t.Errorf("got %d log entries after a halted pass, want 0", len(logs))
	}

	_, err = e.RecordWatch(ctx, WatchInput{UserID: "u", VideoID: "bad"})
	if !errors.Is(err, ErrInconsistentState) {
		t.Errorf("RecordWatch() error = %v, want ErrInconsistentState", err)
	}
}

func TestRecordWatch_Validation(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, memory.New(), nil)
	mustIngest(t, e, "v", "some video")

	tests := []struct {
		name    string
		in      WatchInput
		wantErr error
	}{
		{name: "unknown video", in: WatchInput{UserID: "u", VideoID: "missing"}, wantErr: ErrNotFound},
		{name: "rating too high", in: WatchInput{UserID: "u", VideoID: "v", Rating: models.Float64Ptr(6)}, wantErr: ErrInvalidInput},
		{name: "rating negative", in: WatchInput{UserID: "u", VideoID: "v", Rating: models.Float64Ptr(-1)}, wantErr: ErrInvalidInput},
		{name: "completion too high", in: WatchInput{UserID: "u", VideoID: "v", Completion: models.Float64Ptr(1.5)}, wantErr: ErrInvalidInput},
		{name: "missing user", in: WatchInput{VideoID: "v"}, wantErr: ErrInvalidInput},
		{name: "watched in the future", in: WatchInput{UserID: "u", VideoID: "v", WatchedAt: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)}, wantErr: ErrInvalidInput},
		{name: "watched within skew", in: WatchInput{UserID: "u", VideoID: "v", WatchedAt: time.Date(2026, 1, 1, 12, 3, 0, 0, time.UTC)}},
		{name: "watched in the past", in: WatchInput{UserID: "u", VideoID: "v", WatchedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}},
		{name: "valid", in: WatchInput{UserID: "u", VideoID: "v", Rating: models.Float64Ptr(0), Completion: models.Float64Ptr(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.RecordWatch(context.Background(), tt.in)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("RecordWatch() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordWatch() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordWatch_UpdatesProfileAndStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)
	mustIngest(t, e, "v", "jazz piano trio")

	p := mustWatch(t, e, "u", "v", models.Float64Ptr(5))
	if p.InteractionCount != 1 || p.PositiveCount != 1 || p.Revision != 1 {
		t.Errorf("profile = %+v, want one positive interaction at revision 1", p)
	}
	p = mustWatch(t, e, "u", "v", models.Float64Ptr(1))
	if p.InteractionCount != 2 || p.NegativeCount != 1 {
		t.Errorf("profile = %+v, want a negative interaction recorded", p)
	}

	v, err := e.GetVideo(ctx, "v")
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if v.ViewCount != 2 || v.RatingCount != 2 || v.AverageRating() != 3 {
		t.Errorf("video stats = views %d, ratings %d, avg %v; want 2, 2, 3", v.ViewCount, v.RatingCount, v.AverageRating())
	}
}

func TestRecordLike_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	e := newTestEngine(t, st, nil)
	mustIngest(t, e, "v", "mountain hiking trail")

	first, err := e.RecordLike(ctx, "u", "v")
	if err != nil {
		t.Fatalf("RecordLike() error = %v", err)
	}
	second, err := e.RecordLike(ctx, "u", "v")
	if err != nil {
		t.Fatalf("RecordLike() second error = %v", err)
	}
	if !first.Created || second.Created {
		t.Errorf("Created = %v then %v, want true then false", first.Created, second.Created)
	}
	if !second.LikedAt.Equal(first.LikedAt) {
		t.Errorf("second LikedAt = %v, want original %v", second.LikedAt, first.LikedAt)
	}

	likes, _ := st.ListLikes(ctx, store.LikeFilter{UserID: "u"})
	if len(likes) != 1 {
		t.Errorf("got %d likes, want 1", len(likes))
	}
	p, _ := e.GetProfile(ctx, "u")
	if p.InteractionCount != 1 {
		t.Errorf("InteractionCount = %d, want 1", p.InteractionCount)
	}
	v, _ := e.GetVideo(ctx, "v")
	if v.LikeCount != 1 {
		t.Errorf("LikeCount = %d, want 1", v.LikeCount)
	}

	if _, err := e.RecordLike(ctx, "u", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordLike(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRecordWatch_ConcurrentSameUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)
	mustIngest(t, e, "v1", "ocean waves surfing")
	mustIngest(t, e, "v2", "ocean reef diving")

	const events = 40
	var wg sync.WaitGroup
	errs := make(chan error, events+10)
	for i := 0; i < events; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			videoID := "v1"
			if i%2 == 1 {
				videoID = "v2"
			}
			_, err := e.RecordWatch(ctx, WatchInput{UserID: "u", VideoID: videoID, Rating: models.Float64Ptr(4)})
			errs <- err
		}(i)
	}
	// Readers run alongside the writers.
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Recommend(ctx, Request{UserID: "u"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent operation error = %v", err)
		}
	}

	p, err := e.GetProfile(ctx, "u")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if p.InteractionCount != events {
		t.Errorf("InteractionCount = %d, want %d", p.InteractionCount, events)
	}
	if p.Revision != events {
		t.Errorf("Revision = %d, want %d", p.Revision, events)
	}
}

func TestCreateOrGetProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	p, created, err := e.CreateOrGetProfile(ctx, "u")
	if err != nil || !created {
		t.Fatalf("CreateOrGetProfile() = %v, %v, want created", created, err)
	}
	if !p.IsCold() {
		t.Error("new profile is not cold")
	}
	_, created, err = e.CreateOrGetProfile(ctx, "u")
	if err != nil || created {
		t.Errorf("second CreateOrGetProfile() = %v, %v, want existing", created, err)
	}
	if _, _, err := e.CreateOrGetProfile(ctx, "a/b"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CreateOrGetProfile(a/b) error = %v, want ErrInvalidInput", err)
	}
	if _, err := e.GetProfile(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProfile(nobody) error = %v, want ErrNotFound", err)
	}
}

func TestIngestVideo_UpdateKeepsStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	orig := mustIngest(t, e, "v", "old title")
	mustWatch(t, e, "u", "v", models.Float64Ptr(4))

	updated, err := e.IngestVideo(ctx, VideoInput{ID: "v", Title: "new title", Tags: []string{" drama ", "drama", ""}})
	if err != nil {
		t.Fatalf("IngestVideo() error = %v", err)
	}
	if updated.Title != "new title" || updated.ViewCount != 1 || updated.RatingCount != 1 {
		t.Errorf("updated = %+v, want new title with stats kept", updated)
	}
	if !updated.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", updated.CreatedAt, orig.CreatedAt)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "drama" {
		t.Errorf("Tags = %q, want [drama]", updated.Tags)
	}

	if _, err := e.IngestVideo(ctx, VideoInput{ID: "", Title: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("IngestVideo(no id) error = %v, want ErrInvalidInput", err)
	}
	if _, err := e.IngestVideo(ctx, VideoInput{ID: "y"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("IngestVideo(no title) error = %v, want ErrInvalidInput", err)
	}
}

// assertUniformDimensions checks every stored vector against the serving
// vocabulary.
func assertUniformDimensions(t *testing.T, e *Engine, st store.Store) {
	t.Helper()
	ctx := context.Background()
	vocab := e.embedder.Current()

	videos, err := st.ListVideos(ctx, store.VideoFilter{})
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	for _, v := range videos {
		if len(v.Embedding) != vocab.Dim() || v.VocabularyVersion != vocab.Fingerprint() {
			t.Errorf("video %s: dim %d version %x, serving dim %d version %x",
				v.ID, len(v.Embedding), v.VocabularyVersion, vocab.Dim(), vocab.Fingerprint())
		}
	}
	profiles, err := st.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	for _, p := range profiles {
		if p.Preference == nil {
			continue
		}
		if len(p.Preference) != vocab.Dim() || p.VocabularyVersion != vocab.Fingerprint() {
			t.Errorf("profile %s: dim %d, serving dim %d", p.UserID, len(p.Preference), vocab.Dim())
		}
	}
}

func TestIngestVideo_EagerRebuildsOnNewTerms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	pub := &recordingPublisher{}
	e := newTestEngine(t, st, nil, WithPublisher(pub))

	mustIngest(t, e, "v1", "alpine skiing")
	mustWatch(t, e, "u", "v1", models.Float64Ptr(5))
	gen := e.embedder.Current().Generation()

	mustIngest(t, e, "v2", "alpine climbing")
	if got := e.embedder.Current().Generation(); got <= gen {
		t.Errorf("generation = %d, want > %d after a new term", got, gen)
	}
	assertUniformDimensions(t, e, st)

	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.VocabularyStale {
		t.Error("VocabularyStale = true in eager mode")
	}
	if stats.Videos != 2 || stats.Profiles != 1 {
		t.Errorf("Stats() = %+v, want 2 videos and 1 profile", stats)
	}

	events := pub.Events()
	if len(events) != 2 || !events[1].Reembedded || !events[1].NewTerms {
		t.Errorf("events = %+v, want the second ingest reembedded", events)
	}

	// The rebuilt profile keeps its history.
	p, _ := e.GetProfile(ctx, "u")
	if p.InteractionCount != 1 {
		t.Errorf("InteractionCount after rebuild = %d, want 1", p.InteractionCount)
	}
}

func TestIngestVideo_BatchedMarksStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()
	pub := &recordingPublisher{}
	e := newTestEngine(t, st, func(c *Config) { c.ReembedMode = ReembedBatched }, WithPublisher(pub))

	mustIngest(t, e, "v1", "desert safari")
	if !e.VocabularyStale() {
		t.Fatal("VocabularyStale() = false after ingesting unseen terms in batched mode")
	}
	assertUniformDimensions(t, e, st)
	events := pub.Events()
	if len(events) != 1 || !events[0].NewTerms || events[0].Reembedded {
		t.Fatalf("events = %+v, want one new-terms event without reembedding", events)
	}

	res, err := e.Retrain(ctx, TriggerEvent)
	if err != nil {
		t.Fatalf("Retrain() error = %v", err)
	}
	if res.Terms == 0 || res.Videos != 1 || res.Trigger != TriggerEvent {
		t.Errorf("Retrain() = %+v, want terms > 0 over 1 video", res)
	}
	if e.VocabularyStale() {
		t.Error("VocabularyStale() = true after Retrain")
	}
	assertUniformDimensions(t, e, st)

	stats, _ := e.Stats(ctx)
	if stats.LastRetrainAt == nil {
		t.Error("Stats().LastRetrainAt = nil after Retrain")
	}
}

func TestRetrain_InProgress(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, memory.New(), nil)

	e.retrainMu.Lock()
	_, err := e.Retrain(context.Background(), TriggerManual)
	e.retrainMu.Unlock()
	if !errors.Is(err, ErrRetrainInProgress) {
		t.Fatalf("Retrain() error = %v, want ErrRetrainInProgress", err)
	}

	if _, err := e.Retrain(context.Background(), ""); err != nil {
		t.Fatalf("Retrain() after release error = %v", err)
	}
}

func TestRetrain_ReplayMatchesLiveProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	mustIngest(t, e, "v1", "baking bread sourdough")
	mustIngest(t, e, "v2", "baking cakes frosting")
	mustWatch(t, e, "u", "v1", models.Float64Ptr(5))
	mustWatch(t, e, "u", "v2", nil)
	if _, err := e.RecordLike(ctx, "u", "v2"); err != nil {
		t.Fatalf("RecordLike() error = %v", err)
	}
	live, _ := e.GetProfile(ctx, "u")

	if _, err := e.Retrain(ctx, TriggerManual); err != nil {
		t.Fatalf("Retrain() error = %v", err)
	}
	replayed, _ := e.GetProfile(ctx, "u")

	if replayed.InteractionCount != live.InteractionCount || replayed.PositiveCount != live.PositiveCount {
		t.Errorf("replayed counts = %d/%d, want %d/%d",
			replayed.InteractionCount, replayed.PositiveCount, live.InteractionCount, live.PositiveCount)
	}
	if replayed.Revision != live.Revision+1 {
		t.Errorf("Revision = %d, want %d", replayed.Revision, live.Revision+1)
	}
	for i := range live.Preference {
		if d := live.Preference[i] - replayed.Preference[i]; d > 1e-9 || d < -1e-9 {
			t.Fatalf("Preference[%d] = %v, want %v", i, replayed.Preference[i], live.Preference[i])
		}
	}
}

func TestLoad_RestartPreservesConsistency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := memory.New()

	first := newTestEngine(t, st, func(c *Config) { c.ReembedMode = ReembedBatched })
	mustIngest(t, first, "v1", "violin concerto")
	mustIngest(t, first, "v2", "cello sonata")
	mustWatch(t, first, "u", "v1", models.Float64Ptr(5))

	// The batched engine left embeddings computed against an empty
	// vocabulary; a restart must retrain rather than serve them.
	second := newTestEngine(t, st, nil)
	assertUniformDimensions(t, second, st)
	if second.embedder.Current().Dim() == 0 {
		t.Fatal("restart kept the empty vocabulary")
	}
	if _, err := second.Recommend(ctx, Request{UserID: "u"}); err != nil {
		t.Fatalf("Recommend() after restart error = %v", err)
	}

	// A clean restart reuses the stored vectors as they are.
	third := newTestEngine(t, st, nil)
	if third.embedder.Current().Fingerprint() != second.embedder.Current().Fingerprint() {
		t.Error("fingerprint changed across a clean restart")
	}
}

func TestEffectiveness_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)
	mustIngest(t, e, "v", "chess openings explained")

	resp, err := e.Recommend(ctx, Request{UserID: "u", N: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if indexOf(itemIDs(resp.Items), "v") < 0 {
		t.Fatalf("Recommend() = %v, want v", itemIDs(resp.Items))
	}
	mustWatch(t, e, "u", "v", models.Float64Ptr(4))

	report, err := e.Effectiveness(ctx, EffectivenessQuery{UserID: "u"})
	if err != nil {
		t.Fatalf("Effectiveness() error = %v", err)
	}
	if !report.Available || report.RecommendationCount != 1 || report.RecommendedItems != 1 || report.Clicks != 1 {
		t.Fatalf("report = %+v, want one click over one item", report)
	}
	if report.ClickThroughRate == nil || *report.ClickThroughRate != 1 {
		t.Errorf("ClickThroughRate = %v, want 1", report.ClickThroughRate)
	}
	if report.AverageRating == nil || *report.AverageRating != 4 || report.RatedClicks != 1 {
		t.Errorf("AverageRating = %v over %d, want 4 over 1", report.AverageRating, report.RatedClicks)
	}
	alg, ok := report.ByAlgorithm[DefaultConfig().Algorithm]
	if !ok || alg.Clicks != 1 {
		t.Errorf("ByAlgorithm = %+v, want one click for the default algorithm", report.ByAlgorithm)
	}
}

func TestEffectiveness_WatchBeforeLogIsNotAClick(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)
	mustIngest(t, e, "v", "knitting patterns")

	mustWatch(t, e, "u", "v", nil)
	if _, err := e.Recommend(ctx, Request{UserID: "u", IncludeWatched: true}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	report, err := e.Effectiveness(ctx, EffectivenessQuery{})
	if err != nil {
		t.Fatalf("Effectiveness() error = %v", err)
	}
	if report.RecommendedItems != 1 || report.Clicks != 0 {
		t.Errorf("report = %+v, want one item and no click", report)
	}
}

func TestEffectiveness_NoLogs(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, memory.New(), nil)

	report, err := e.Effectiveness(context.Background(), EffectivenessQuery{Algorithm: "none"})
	if err != nil {
		t.Fatalf("Effectiveness() error = %v", err)
	}
	if report.Available || report.ClickThroughRate != nil || report.AverageRating != nil {
		t.Errorf("report = %+v, want the not-available sentinel", report)
	}

	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = e.Effectiveness(context.Background(), EffectivenessQuery{Since: since, Until: since})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Effectiveness(empty range) error = %v, want ErrInvalidInput", err)
	}
}

func TestInsights(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newTestEngine(t, memory.New(), nil)

	for _, id := range []string{"v1", "v2", "v3", "v4"} {
		mustIngest(t, e, id, "episode "+id+"x")
	}
	mustWatch(t, e, "alice", "v1", models.Float64Ptr(5))
	mustWatch(t, e, "alice", "v2", models.Float64Ptr(4))
	mustWatch(t, e, "bob", "v1", models.Float64Ptr(4))
	mustWatch(t, e, "bob", "v2", models.Float64Ptr(5))
	mustWatch(t, e, "bob", "v3", models.Float64Ptr(5))
	mustWatch(t, e, "carol", "v1", models.Float64Ptr(3))
	mustWatch(t, e, "carol", "v4", models.Float64Ptr(2))

	out, err := e.Insights(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("Insights() error = %v", err)
	}
	if len(out.SimilarUsers) != 2 || out.SimilarUsers[0].UserID != "bob" || out.SimilarUsers[0].SharedVideos != 2 {
		t.Errorf("SimilarUsers = %+v, want bob (2) then carol (1)", out.SimilarUsers)
	}
	if len(out.Suggestions) != 1 || out.Suggestions[0].VideoID != "v3" || out.Suggestions[0].Raters != 1 {
		t.Errorf("Suggestions = %+v, want only v3", out.Suggestions)
	}

	if _, err := e.Insights(ctx, "nobody", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Insights(nobody) error = %v, want ErrNotFound", err)
	}
}
