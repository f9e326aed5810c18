// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// countingService runs until canceled, failing the first fails calls.
type countingService struct {
	name    string
	fails   int32
	starts  atomic.Int32
	started chan struct{}
}

func newCountingService(name string, fails int32) *countingService {
	return &countingService{name: name, fails: fails, started: make(chan struct{}, 16)}
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	if n <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTreeConfig_Defaults(t *testing.T) {
	t.Parallel()

	tree := NewSupervisorTree(quietLogger(), TreeConfig{})
	got := tree.Config()
	want := DefaultTreeConfig()
	if got != want {
		t.Errorf("Config() = %+v, want %+v", got, want)
	}
	if tree.Root() == nil {
		t.Fatal("Root() = nil")
	}

	tree = NewSupervisorTree(quietLogger(), TreeConfig{FailureBackoff: time.Second})
	if tree.Config().FailureBackoff != time.Second {
		t.Errorf("FailureBackoff = %v, want 1s", tree.Config().FailureBackoff)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	t.Parallel()

	tree := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	services := []*countingService{
		newCountingService("storage", 0),
		newCountingService("engine", 0),
		newCountingService("api", 0),
	}
	tree.AddStorageService(services[0])
	tree.AddEngineService(services[1])
	tree.AddAPIService(services[2])

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range services {
		select {
		case <-svc.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("service %s did not start", svc.name)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestSupervisorTree_RestartsFailedService(t *testing.T) {
	t.Parallel()

	tree := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	flaky := newCountingService("flaky", 2)
	steady := newCountingService("steady", 0)
	tree.AddEngineService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	for flaky.starts.Load() < 3 {
		select {
		case <-flaky.started:
		case <-ctx.Done():
			t.Fatalf("flaky service started %d times, want 3", flaky.starts.Load())
		}
	}
	if got := steady.starts.Load(); got != 1 {
		t.Errorf("steady service started %d times, want 1", got)
	}

	cancel()
	<-errCh
}
