// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/testinfra"
)

func TestStoreConformance(t *testing.T) {
	t.Parallel()

	testinfra.RunStoreConformance(t, func(t *testing.T) store.Store {
		s := New()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	if err := s.PutVideo(ctx, &models.Video{ID: "v1", Title: "T", Embedding: []float64{1, 0}}); err != nil {
		t.Fatalf("PutVideo() error = %v", err)
	}
	got, err := s.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	got.Embedding[0] = 42

	again, err := s.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if again.Embedding[0] != 1 {
		t.Errorf("stored embedding mutated through returned value: %v", again.Embedding)
	}
}

func TestStore_Closed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := s.GetVideo(ctx, "v1"); !errors.Is(err, store.ErrClosed) {
		t.Errorf("GetVideo() after close error = %v, want ErrClosed", err)
	}
	if err := s.PutVideo(ctx, &models.Video{ID: "v1"}); !errors.Is(err, store.ErrClosed) {
		t.Errorf("PutVideo() after close error = %v, want ErrClosed", err)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	if _, err := s.ListVideos(ctx, store.VideoFilter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("ListVideos() error = %v, want context.Canceled", err)
	}
}
