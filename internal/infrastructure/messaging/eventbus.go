// Package messaging implements the in-process event bus that carries
// placement domain events from the CRUD layer to the automation engine.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ErrEventBusClosed is returned when publishing or subscribing on a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events synchronously on the publisher's goroutine.
// Handler errors are joined and returned to the publisher, so a trigger that
// cannot find its aggregate surfaces the failure to the caller.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[shared.EventType][]shared.EventHandler
	logger   *slog.Logger
	metrics  *EventBusMetrics
	closed   bool
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(logger *slog.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventBus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		logger:   logger.With("component", "eventbus"),
		metrics:  &EventBusMetrics{},
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed handler", "event_type", eventType)

	return nil
}

// Publish runs every handler subscribed to the event's type.
func (b *InMemoryEventBus) Publish(ctx context.Context, event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := append([]shared.EventHandler(nil), b.handlers[event.EventType()]...)
	b.mu.RUnlock()

	b.metrics.published.Add(1)

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.EventType())
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		start := time.Now()
		err := handler(ctx, event)
		if err != nil {
			b.metrics.failed.Add(1)
			b.logger.Error("handler error",
				"event_type", event.EventType(),
				"aggregate_id", event.AggregateID(),
				"correlation_id", event.CorrelationID(),
				"duration", time.Since(start),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", event.EventType(), err))
			continue
		}
		b.metrics.handled.Add(1)
	}

	return errors.Join(errs...)
}

// Close stops accepting new events and subscriptions.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.logger.Info("event bus closed")
	return nil
}

// Metrics returns the bus counters.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics counts published events and handler outcomes.
type EventBusMetrics struct {
	published atomic.Int64
	handled   atomic.Int64
	failed    atomic.Int64
}

// EventBusStats is a point-in-time copy of EventBusMetrics.
type EventBusStats struct {
	Published int64 `json:"published"`
	Handled   int64 `json:"handled"`
	Failed    int64 `json:"failed"`
}

// Snapshot returns the current counter values.
func (m *EventBusMetrics) Snapshot() EventBusStats {
	return EventBusStats{
		Published: m.published.Load(),
		Handled:   m.handled.Load(),
		Failed:    m.failed.Load(),
	}
}
