package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/forgo/mentora/api/internal/model"
)

// EventHandler consumes one published event. Handlers run independently:
// an error or panic in one handler never reaches its siblings, it is
// caught and logged at the dispatch boundary.
type EventHandler func(ctx context.Context, event model.Event) error

// EventBus routes published events to the handlers registered for their
// type. Each delivery runs in its own goroutine, so a slow or failing
// subscriber cannot stall the publisher or other subscribers.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[model.EventType][]EventHandler
	wg       sync.WaitGroup
	closed   bool
	logger   *slog.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[model.EventType][]EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type. Registration order is
// preserved per type.
func (b *EventBus) Subscribe(eventType model.EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers an event to every handler registered for its type,
// each in its own goroutine. Publishing never blocks on handlers.
//
// Handlers outlive the publishing caller: an HTTP intake returns 202 and
// its request context is cancelled immediately, so handlers receive the
// caller's context values without its cancellation. Handlers run to
// completion once dispatched.
func (b *EventBus) Publish(ctx context.Context, event model.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		b.wg.Add(1)
		go func(h EventHandler) {
			defer b.wg.Done()
			b.dispatch(detached, event, h)
		}(handler)
	}
	return nil
}

// PublishSync delivers an event to every handler in registration order on
// the caller's goroutine, still isolating failures per handler. Used by
// tests and by callers that need the handlers finished before returning.
func (b *EventBus) PublishSync(ctx context.Context, event model.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(ctx, event, handler)
	}
	return nil
}

// dispatch runs one handler with the panic/error isolation boundary
func (b *EventBus) dispatch(ctx context.Context, event model.Event, handler EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event_type", string(event.Type)),
				slog.Any("panic", r),
			)
		}
	}()

	if err := handler(ctx, event); err != nil {
		b.logger.Error("event handler failed",
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()),
		)
	}
}

// Close stops accepting publishes and waits for in-flight handlers
func (b *EventBus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

// SubscriberCount returns the number of handlers for an event type
func (b *EventBus) SubscriberCount(eventType model.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
