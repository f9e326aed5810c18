// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordStoreOperation(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		errorType string
		wantErr   bool
	}{
		{name: "successful read", operation: "get_video_test"},
		{name: "timeout", operation: "list_watch_test", errorType: "timeout", wantErr: true},
		{name: "unavailable", operation: "update_test", errorType: "unavailable", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(StoreOperationErrors.WithLabelValues(tt.operation, tt.errorType))
			RecordStoreOperation(tt.operation, 3*time.Millisecond, tt.errorType)
			after := testutil.ToFloat64(StoreOperationErrors.WithLabelValues(tt.operation, tt.errorType))

			if tt.wantErr && after != before+1 {
				t.Errorf("error counter = %v, want %v", after, before+1)
			}
			if !tt.wantErr && after != before {
				t.Errorf("error counter changed on success: %v -> %v", before, after)
			}
		})
	}
}

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendationRequests.WithLabelValues("empty"))
	RecordRecommendation("empty", 0, time.Millisecond)
	if got := testutil.ToFloat64(RecommendationRequests.WithLabelValues("empty")); got != before+1 {
		t.Errorf("recommendation_requests_total{outcome=empty} = %v, want %v", got, before+1)
	}

	var m dto.Metric
	if err := RecommendationResultSize.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	countBefore := m.GetHistogram().GetSampleCount()

	RecordRecommendation("error", 0, time.Millisecond)

	m.Reset()
	if err := RecommendationResultSize.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if m.GetHistogram().GetSampleCount() != countBefore {
		t.Errorf("error outcome should not observe a result size")
	}
}

func TestRecordRetrain(t *testing.T) {
	okBefore := testutil.ToFloat64(RetrainTotal.WithLabelValues("manual", "success"))
	errBefore := testutil.ToFloat64(RetrainTotal.WithLabelValues("manual", "error"))

	RecordRetrain("manual", 10*time.Millisecond, nil)
	RecordRetrain("manual", 0, errors.New("store down"))

	if got := testutil.ToFloat64(RetrainTotal.WithLabelValues("manual", "success")); got != okBefore+1 {
		t.Errorf("retrain success = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(RetrainTotal.WithLabelValues("manual", "error")); got != errBefore+1 {
		t.Errorf("retrain error = %v, want %v", got, errBefore+1)
	}
}

func TestSetVocabulary(t *testing.T) {
	SetVocabulary(128, 7)
	if got := testutil.ToFloat64(VocabularyTerms); got != 128 {
		t.Errorf("vocabulary_terms = %v, want 128", got)
	}
	if got := testutil.ToFloat64(VocabularyGeneration); got != 7 {
		t.Errorf("vocabulary_generation = %v, want 7", got)
	}
}

func TestRecordNeighborCache(t *testing.T) {
	hits := testutil.ToFloat64(NeighborCacheHits)
	misses := testutil.ToFloat64(NeighborCacheMisses)

	RecordNeighborCache(true)
	RecordNeighborCache(false)
	RecordNeighborCache(false)

	if got := testutil.ToFloat64(NeighborCacheHits); got != hits+1 {
		t.Errorf("hits = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(NeighborCacheMisses); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
}

// TestTrackActiveRequest verifies the gauge returns to its starting value
// under concurrent use.
func TestTrackActiveRequest(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("api_active_requests = %v, want %v", got, start)
	}
}

func TestRecordInteractionAndIngest(t *testing.T) {
	likes := testutil.ToFloat64(InteractionsTotal.WithLabelValues("like"))
	created := testutil.ToFloat64(VideosIngested.WithLabelValues("create"))

	RecordInteraction("like")
	RecordVideoIngested(true)

	if got := testutil.ToFloat64(InteractionsTotal.WithLabelValues("like")); got != likes+1 {
		t.Errorf("interactions_total{type=like} = %v, want %v", got, likes+1)
	}
	if got := testutil.ToFloat64(VideosIngested.WithLabelValues("create")); got != created+1 {
		t.Errorf("videos_ingested_total{mode=create} = %v, want %v", got, created+1)
	}
}
