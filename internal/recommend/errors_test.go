// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tomtom215/vidrec/internal/store"
)

func TestError_IsAndKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{name: "not found", err: notFound("get_video", "video %s", "v1"), sentinel: ErrNotFound, kind: KindNotFound},
		{name: "invalid input", err: invalidInputf("recommend", "n is %d", -1), sentinel: ErrInvalidInput, kind: KindInvalidInput},
		{name: "inconsistent", err: inconsistent("recommend", "dim %d", 3), sentinel: ErrInconsistentState, kind: KindInconsistentState},
		{name: "storage", err: storageFailure("record_watch", store.ErrClosed), sentinel: ErrStorageFailure, kind: KindStorageFailure},
		{name: "wrapped", err: fmt.Errorf("handler: %w", notFound("get_profile", "user u")), sentinel: ErrNotFound, kind: KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf() = %v, want %v", got, tt.kind)
			}
			for _, other := range []error{ErrNotFound, ErrInvalidInput, ErrInconsistentState, ErrStorageFailure} {
				if other != tt.sentinel && errors.Is(tt.err, other) {
					t.Errorf("errors.Is(%v, %v) = true", tt.err, other)
				}
			}
		})
	}
}

func TestStorageFailure_KeepsCauseAndClassification(t *testing.T) {
	t.Parallel()

	err := storageFailure("record_watch", store.ErrClosed)
	if !errors.Is(err, store.ErrClosed) {
		t.Error("storage failure lost its cause")
	}

	nf := notFound("record_watch", "video v")
	if got := storageFailure("record_watch", nf); got != nf {
		t.Errorf("storageFailure reclassified %v as %v", nf, got)
	}
	if storageFailure("x", nil) != nil {
		t.Error("storageFailure(nil) != nil")
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()
	err := notFound("get_video", "video %s", "v1")
	if got := err.Error(); !strings.Contains(got, "get_video") || !strings.Contains(got, "v1") {
		t.Errorf("Error() = %q", got)
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("KindOf(plain error) != KindUnknown")
	}
	if KindStorageFailure.String() != "storage_failure" {
		t.Errorf("String() = %q", KindStorageFailure.String())
	}
}
