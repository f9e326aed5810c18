// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vidrec/internal/logging"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()
	var capturedID, correlationID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		capturedID = logging.RequestIDFromContext(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	responseID := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID: %v", responseID, err)
	}
	if capturedID != responseID {
		t.Errorf("context ID %q != header ID %q", capturedID, responseID)
	}
	if correlationID == "" {
		t.Error("no correlation ID in context")
	}
}

func TestRequestID_PreservesOrReplacesUpstreamID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "short id kept", incoming: "upstream-123", keep: true},
		{name: "oversized id replaced", incoming: strings.Repeat("x", maxRequestIDLength+1), keep: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := RequestID(func(w http.ResponseWriter, r *http.Request) {})
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(RequestIDHeader, tt.incoming)
			rec := httptest.NewRecorder()
			handler(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if (got == tt.incoming) != tt.keep {
				t.Errorf("X-Request-ID = %q, keep = %v", got, tt.keep)
			}
		})
	}
}

func TestAccessLog_LogsRouteAndStatus(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Get("/users/{id}", RequestID(AccessLog(logger)(func(w http.ResponseWriter, r *http.Request) {
		logging.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/u1", nil))

	out := buf.String()
	for _, want := range []string{`"route":"/users/{id}"`, `"status":404`, `"message":"request completed"`, "inside handler", `"request_id"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestPrometheusMetrics_PassesThrough(t *testing.T) {
	t.Parallel()
	statuses := []int{http.StatusOK, http.StatusCreated, http.StatusBadRequest, http.StatusServiceUnavailable}
	for _, status := range statuses {
		handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/videos", nil))
		if rec.Code != status {
			t.Errorf("status = %d, want %d", rec.Code, status)
		}
	}
}

func TestRoutePattern(t *testing.T) {
	t.Parallel()
	if got := routePattern(httptest.NewRequest(http.MethodGet, "/nowhere", nil)); got != unmatchedRoute {
		t.Errorf("routePattern() without chi = %q, want %q", got, unmatchedRoute)
	}

	var got string
	r := chi.NewRouter()
	r.Get("/videos/{id}", func(w http.ResponseWriter, r *http.Request) { got = routePattern(r) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/videos/v1", nil))
	if got != "/videos/{id}" {
		t.Errorf("routePattern() = %q, want /videos/{id}", got)
	}
}

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	t.Parallel()
	sw := newStatusWriter(httptest.NewRecorder())
	_, _ = sw.Write([]byte("ok"))
	sw.WriteHeader(http.StatusTeapot)
	if sw.status != http.StatusOK || sw.bytes != 2 {
		t.Errorf("status = %d bytes = %d, want 200 and 2", sw.status, sw.bytes)
	}
}

func TestCompression(t *testing.T) {
	t.Parallel()
	body := strings.Repeat("recommendation ", 200)
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "3000")
		_, _ = io.WriteString(w, body)
	})

	tests := []struct {
		name     string
		accept   string
		wantGzip bool
	}{
		{name: "gzip", accept: "gzip, deflate", wantGzip: true},
		{name: "gzip with q", accept: "br;q=1.0, gzip;q=0.8", wantGzip: true},
		{name: "gzip refused", accept: "gzip;q=0", wantGzip: false},
		{name: "none", accept: "", wantGzip: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			gotGzip := rec.Header().Get("Content-Encoding") == "gzip"
			if gotGzip != tt.wantGzip {
				t.Fatalf("Content-Encoding = %q, want gzip = %v", rec.Header().Get("Content-Encoding"), tt.wantGzip)
			}
			if !gotGzip {
				if rec.Body.String() != body {
					t.Error("uncompressed body changed")
				}
				return
			}
			if rec.Header().Get("Content-Length") != "" {
				t.Error("Content-Length kept on a compressed response")
			}
			zr, err := gzip.NewReader(rec.Body)
			if err != nil {
				t.Fatalf("gzip.NewReader() error = %v", err)
			}
			defer zr.Close()
			plain, err := io.ReadAll(zr)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(plain) != body {
				t.Error("decompressed body differs")
			}
		})
	}
}
