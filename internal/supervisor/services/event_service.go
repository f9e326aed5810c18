// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package services

import (
	"context"
	"errors"
	"fmt"
)

// EventRunner is a Watermill-style router that runs once.
type EventRunner interface {
	Run(ctx context.Context) error
	Close() error
}

// EventService runs an event processor. A Watermill router cannot be
// restarted after Close, so each Serve builds a fresh one from newRunner.
type EventService struct {
	newRunner func() (EventRunner, error)
}

// NewEventService creates the service.
func NewEventService(newRunner func() (EventRunner, error)) *EventService {
	return &EventService{newRunner: newRunner}
}

// Serve implements suture.Service.
func (s *EventService) Serve(ctx context.Context) error {
	runner, err := s.newRunner()
	if err != nil {
		return fmt.Errorf("create event processor: %w", err)
	}
	defer func() { _ = runner.Close() }()

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("event processor: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New("event processor stopped unexpectedly")
}

// String names the service in supervisor logs.
func (s *EventService) String() string {
	return "event-processor"
}
