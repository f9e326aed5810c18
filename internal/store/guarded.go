// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vidrec/internal/metrics"
	"github.com/tomtom215/vidrec/internal/models"
)

var (
	// ErrTimeout is returned when a store call exceeds the configured timeout.
	ErrTimeout = errors.New("store: operation timed out")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("store: unavailable")
)

// GuardConfig configures the Guarded decorator.
type GuardConfig struct {
	// Timeout bounds every store call. Zero disables the timeout.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts for reads. Transactions
	// are only retried on ErrConflict.
	MaxRetries int
	RetryDelay time.Duration

	Breaker BreakerConfig
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	Enabled      bool
	MaxRequests  uint32        // requests allowed in half-open state
	Interval     time.Duration // count reset period while closed
	OpenTimeout  time.Duration // time spent open before probing
	MinRequests  uint32        // requests required before the ratio is evaluated
	FailureRatio float64       // trip when failures/requests >= ratio
}

// DefaultGuardConfig returns production defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: 50 * time.Millisecond,
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     time.Minute,
			OpenTimeout:  30 * time.Second,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
	}
}

// Guarded wraps a Store so every call is bounded by a timeout, passes
// through a circuit breaker and is recorded in metrics. A backend that
// ignores its context still cannot hang the caller: the call runs in its
// own goroutine and the caller returns ErrTimeout when the deadline passes.
type Guarded struct {
	inner  Store
	cfg    GuardConfig
	cb     *gobreaker.CircuitBreaker[struct{}]
	name   string
	logger zerolog.Logger
}

var _ Store = (*Guarded)(nil)

// NewGuarded decorates inner.
func NewGuarded(inner Store, cfg GuardConfig, logger zerolog.Logger) *Guarded {
	g := &Guarded{
		inner:  inner,
		cfg:    cfg,
		name:   "store",
		logger: logger.With().Str("component", "store_guard").Logger(),
	}

	if cfg.Breaker.Enabled {
		metrics.CircuitBreakerState.WithLabelValues(g.name).Set(0)
		bc := cfg.Breaker
		g.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        g.name,
			MaxRequests: bc.MaxRequests,
			Interval:    bc.Interval,
			Timeout:     bc.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < bc.MinRequests {
					return false
				}
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return ratio >= bc.FailureRatio
			},
			// Only infrastructure failures count against the breaker;
			// not-found lookups and caller errors are normal traffic.
			IsSuccessful: func(err error) bool {
				var f *failure
				return !errors.As(err, &f)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				g.logger.Warn().
					Str("from", stateToString(from)).
					Str("to", stateToString(to)).
					Msg("Store circuit breaker state transition")
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
				metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
			},
		})
	}
	return g
}

// Inner returns the decorated store.
func (g *Guarded) Inner() Store {
	return g.inner
}

// State reports the circuit breaker state ("disabled" when not configured).
func (g *Guarded) State() string {
	if g.cb == nil {
		return "disabled"
	}
	return stateToString(g.cb.State())
}

// failure marks an error as an infrastructure failure for the breaker.
type failure struct{ err error }

func (f *failure) Error() string { return f.err.Error() }
func (f *failure) Unwrap() error { return f.err }

// isInfraFailure reports whether err indicates the backend itself failed,
// as opposed to a normal negative answer or a caller error.
func isInfraFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidRecord),
		errors.Is(err, ErrReadOnly),
		errors.Is(err, ErrConflict),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}

type result[T any] struct {
	val T
	err error
}

// runOnce executes fn once under the timeout and breaker. direct marks calls
// whose errors come straight from the backend (not from a caller closure).
func runOnce[T any](ctx context.Context, g *Guarded, op string, direct bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()

	call := func() (T, error) {
		tctx, cancel := ctx, context.CancelFunc(func() {})
		if g.cfg.Timeout > 0 {
			tctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		}
		defer cancel()

		ch := make(chan result[T], 1)
		go func() {
			v, err := fn(tctx)
			ch <- result[T]{val: v, err: err}
		}()

		select {
		case r := <-ch:
			if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return zero, &failure{fmt.Errorf("%s: %w after %v", op, ErrTimeout, g.cfg.Timeout)}
			}
			if r.err != nil && (errors.Is(r.err, ErrClosed) || (direct && isInfraFailure(r.err))) {
				return zero, &failure{r.err}
			}
			return r.val, r.err
		case <-tctx.Done():
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, &failure{fmt.Errorf("%s: %w after %v", op, ErrTimeout, g.cfg.Timeout)}
		}
	}

	var (
		val T
		err error
	)
	if g.cb != nil {
		_, err = g.cb.Execute(func() (struct{}, error) {
			var innerErr error
			val, innerErr = call()
			return struct{}{}, innerErr
		})
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.CircuitBreakerRequests.WithLabelValues(g.name, "rejected").Inc()
			err = fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
		case err != nil:
			metrics.CircuitBreakerRequests.WithLabelValues(g.name, "failure").Inc()
		default:
			metrics.CircuitBreakerRequests.WithLabelValues(g.name, "success").Inc()
		}
	} else {
		val, err = call()
	}

	var f *failure
	if errors.As(err, &f) {
		err = f.err
	}
	metrics.RecordStoreOperation(op, time.Since(start), errorType(err))
	if err != nil {
		return zero, err
	}
	return val, nil
}

// read runs a backend read with retries on transient failures.
func read[T any](ctx context.Context, g *Guarded, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	delay := g.cfg.RetryDelay
	var (
		val T
		err error
	)
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordStoreRetry(op)
			g.logger.Debug().Str("operation", op).Int("attempt", attempt).Err(err).Msg("Retrying store read")
			select {
			case <-ctx.Done():
				return val, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		val, err = runOnce(ctx, g, op, true, fn)
		if err == nil || !retryableRead(err) {
			return val, err
		}
	}
	return val, err
}

func retryableRead(err error) bool {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConflict) || isInfraFailure(err)
}

// Update runs fn atomically. The whole transaction is retried only on
// ErrConflict, which guarantees nothing was committed.
func (g *Guarded) Update(ctx context.Context, fn func(tx Tx) error) error {
	return g.transact(ctx, "update", func(ctx context.Context) error {
		return g.inner.Update(ctx, fn)
	})
}

// View runs fn in a read-only transaction.
func (g *Guarded) View(ctx context.Context, fn func(tx Tx) error) error {
	return g.transact(ctx, "view", func(ctx context.Context) error {
		return g.inner.View(ctx, fn)
	})
}

func (g *Guarded) transact(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	delay := g.cfg.RetryDelay
	var err error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordStoreRetry(op)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		_, err = runOnce(ctx, g, op, false, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		})
		if !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}

// Close closes the underlying store.
func (g *Guarded) Close() error {
	return g.inner.Close()
}

func (g *Guarded) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	return read(ctx, g, "get_video", func(ctx context.Context) (*models.Video, error) {
		return g.inner.GetVideo(ctx, id)
	})
}

func (g *Guarded) ListVideos(ctx context.Context, filter VideoFilter) ([]*models.Video, error) {
	return read(ctx, g, "list_videos", func(ctx context.Context) ([]*models.Video, error) {
		return g.inner.ListVideos(ctx, filter)
	})
}

func (g *Guarded) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return read(ctx, g, "get_profile", func(ctx context.Context) (*models.UserProfile, error) {
		return g.inner.GetProfile(ctx, userID)
	})
}

func (g *Guarded) ListProfiles(ctx context.Context) ([]*models.UserProfile, error) {
	return read(ctx, g, "list_profiles", func(ctx context.Context) ([]*models.UserProfile, error) {
		return g.inner.ListProfiles(ctx)
	})
}

func (g *Guarded) ListWatch(ctx context.Context, filter WatchFilter) ([]*models.WatchEntry, error) {
	return read(ctx, g, "list_watch", func(ctx context.Context) ([]*models.WatchEntry, error) {
		return g.inner.ListWatch(ctx, filter)
	})
}

func (g *Guarded) ListLikes(ctx context.Context, filter LikeFilter) ([]*models.LikedVideo, error) {
	return read(ctx, g, "list_likes", func(ctx context.Context) ([]*models.LikedVideo, error) {
		return g.inner.ListLikes(ctx, filter)
	})
}

func (g *Guarded) ListRecommendationLogs(ctx context.Context, filter LogFilter) ([]*models.RecommendationLog, error) {
	return read(ctx, g, "list_recommendation_logs", func(ctx context.Context) ([]*models.RecommendationLog, error) {
		return g.inner.ListRecommendationLogs(ctx, filter)
	})
}

func (g *Guarded) PutVideo(ctx context.Context, video *models.Video) error {
	_, err := runOnce(ctx, g, "put_video", true, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.inner.PutVideo(ctx, video)
	})
	return err
}

func (g *Guarded) PutProfile(ctx context.Context, profile *models.UserProfile) error {
	_, err := runOnce(ctx, g, "put_profile", true, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.inner.PutProfile(ctx, profile)
	})
	return err
}

func (g *Guarded) AppendWatch(ctx context.Context, entry *models.WatchEntry) error {
	_, err := runOnce(ctx, g, "append_watch", true, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.inner.AppendWatch(ctx, entry)
	})
	return err
}

func (g *Guarded) AppendLike(ctx context.Context, like *models.LikedVideo) (bool, error) {
	return runOnce(ctx, g, "append_like", true, func(ctx context.Context) (bool, error) {
		return g.inner.AppendLike(ctx, like)
	})
}

// AppendRecommendationLog is idempotent by id, so it is retried like a read.
func (g *Guarded) AppendRecommendationLog(ctx context.Context, entry *models.RecommendationLog) error {
	_, err := read(ctx, g, "append_recommendation_log", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.inner.AppendRecommendationLog(ctx, entry)
	})
	return err
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
