package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/mentora/api/internal/model"
)

func TestEventBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	var count atomic.Int32

	for i := 0; i < 3; i++ {
		bus.Subscribe(model.EventSessionCreated, func(ctx context.Context, e model.Event) error {
			count.Add(1)
			return nil
		})
	}

	require.NoError(t, bus.Publish(context.Background(), model.Event{Type: model.EventSessionCreated}))
	bus.Close()

	assert.Equal(t, int32(3), count.Load())
}

func TestEventBusPublishDoesNotBlockOnSlowHandler(t *testing.T) {
	bus := NewEventBus(nil)
	release := make(chan struct{})
	bus.Subscribe(model.EventSessionCreated, func(ctx context.Context, e model.Event) error {
		<-release
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = bus.Publish(context.Background(), model.Event{Type: model.EventSessionCreated})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow handler")
	}
	close(release)
	bus.Close()
}

func TestEventBusIsolatesPanickingHandler(t *testing.T) {
	bus := NewEventBus(nil)
	var siblingRan atomic.Bool

	bus.Subscribe(model.EventSessionCreated, func(ctx context.Context, e model.Event) error {
		panic("boom")
	})
	bus.Subscribe(model.EventSessionCreated, func(ctx context.Context, e model.Event) error {
		siblingRan.Store(true)
		return nil
	})

	require.NoError(t, bus.PublishSync(context.Background(), model.Event{Type: model.EventSessionCreated}))
	assert.True(t, siblingRan.Load())
}

func TestEventBusIsolatesFailingHandler(t *testing.T) {
	bus := NewEventBus(nil)
	var siblingRan atomic.Bool

	bus.Subscribe(model.EventSessionCancelled, func(ctx context.Context, e model.Event) error {
		return errors.New("handler error")
	})
	bus.Subscribe(model.EventSessionCancelled, func(ctx context.Context, e model.Event) error {
		siblingRan.Store(true)
		return nil
	})

	require.NoError(t, bus.PublishSync(context.Background(), model.Event{Type: model.EventSessionCancelled}))
	assert.True(t, siblingRan.Load())
}

func TestEventBusRejectsPublishAfterClose(t *testing.T) {
	bus := NewEventBus(nil)
	bus.Close()

	err := bus.Publish(context.Background(), model.Event{Type: model.EventSessionCreated})
	assert.ErrorIs(t, err, ErrBusClosed)
}

// Intake endpoints publish with their request context and return 202
// before handlers run. Cancelling the publisher's context must not cancel
// handlers already dispatched, or every async step downstream would abort
// with context.Canceled.
func TestEventBusHandlersSurvivePublisherContextCancellation(t *testing.T) {
	bus := NewEventBus(nil)
	cancelled := make(chan struct{})
	ctxErr := make(chan error, 1)

	bus.Subscribe(model.EventSessionCreated, func(ctx context.Context, e model.Event) error {
		<-cancelled
		ctxErr <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, model.Event{Type: model.EventSessionCreated}))
	cancel()
	close(cancelled)
	bus.Close()

	assert.NoError(t, <-ctxErr)
}

func TestEventBusNoSubscribersIsNoOp(t *testing.T) {
	bus := NewEventBus(nil)
	require.NoError(t, bus.Publish(context.Background(), model.Event{Type: model.EventMeetingCompleted}))
	bus.Close()
	assert.Equal(t, 0, bus.SubscriberCount(model.EventMeetingCompleted))
}
