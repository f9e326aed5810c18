// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package duckstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/store"
	"github.com/tomtom215/vidrec/internal/testinfra"
)

// DuckDB instances are memory hungry; tests in this package run serially.

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Path: ":memory:", Threads: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	})
	return s
}

func TestStoreConformance(t *testing.T) {
	testinfra.RunStoreConformance(t, openTestStore)
}

func TestStore_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vidrec.duckdb")

	s, err := Open(ctx, Config{Path: path, Threads: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	err = s.AppendRecommendationLog(ctx, &models.RecommendationLog{
		ID: "r1", UserID: "u1", VideoIDs: []string{"v1"}, Algorithm: "hybrid", CreatedAt: testinfra.Base,
	})
	if err != nil {
		t.Fatalf("AppendRecommendationLog() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(ctx, Config{Path: path, Threads: 1})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	logs, err := reopened.ListRecommendationLogs(ctx, store.LogFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("ListRecommendationLogs() error = %v", err)
	}
	if len(logs) != 1 || logs[0].VideoIDs[0] != "v1" || !logs[0].CreatedAt.Equal(testinfra.Base) {
		t.Errorf("logs after reopen = %+v", logs)
	}
}
