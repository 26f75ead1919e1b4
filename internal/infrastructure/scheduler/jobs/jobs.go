// Package jobs contains the periodic lifecycle sweeps run by the scheduler.
// Every sweep isolates failures per entity: a failing internship or student is
// logged and counted, and the sweep moves on to the next one.
package jobs

import (
	"context"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/notification"
)

// NotificationSender sends a rendered template to a user.
type NotificationSender interface {
	Send(ctx context.Context, recipientUserID string, c notification.Content) (*notification.Notification, error)
}

// SuggestionInvalidator drops every cached suggestion list.
type SuggestionInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// RunStats is the common part of every sweep's statistics.
type RunStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Failures    int
	Errors      []error
}

func (s *RunStats) fail(err error) {
	s.Failures++
	s.Errors = append(s.Errors, err)
}

func (s *RunStats) finish() {
	s.CompletedAt = time.Now()
	s.Duration = s.CompletedAt.Sub(s.StartedAt)
}

// withTimeout applies a job timeout when one is configured.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
