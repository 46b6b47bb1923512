package messaging

import (
	"bytes"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

func testDispatcherConfig(bus shared.EventBus) DispatcherConfig {
	cfg := DefaultDispatcherConfig(bus)
	cfg.Logger = slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	cfg.RetryConfig = RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	return cfg
}

func scheduledEvent() shared.Event {
	return shared.NewSessionScheduledEvent(
		"sess-1", "sempro", "stud-1", "2026-09-14", "08:00", "room-1",
		[]string{"lec-1", "lec-2"},
	)
}

func TestDispatcher_SyncHandlerErrorSurfacesToPublisher(t *testing.T) {
	d := NewDispatcher(testDispatcherConfig(nil))

	wantErr := errors.New("audit store unavailable")
	require.NoError(t, d.RegisterHandler(shared.EventSessionScheduled, HandlerRegistration{
		Name:       "audit_log",
		Handler:    func(shared.Event) error { return wantErr },
		MaxRetries: 1,
		Timeout:    time.Second,
	}))

	err := d.Dispatch(scheduledEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestDispatcher_AsyncFailureGoesToDeadLetterQueue(t *testing.T) {
	d := NewDispatcher(testDispatcherConfig(nil))

	var attempts atomic.Int64
	require.NoError(t, d.RegisterHandler(shared.EventSessionScheduled, HandlerRegistration{
		Name: "cache_invalidation",
		Handler: func(shared.Event) error {
			attempts.Add(1)
			return errors.New("redis gone")
		},
		Async:      true,
		MaxRetries: 2,
		Timeout:    time.Second,
	}))

	// Async handler errors never reach the publisher.
	require.NoError(t, d.Dispatch(scheduledEvent()))

	assert.Equal(t, int64(3), attempts.Load(), "expected first attempt plus two retries")

	entries := d.DeadLetterQueue().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "cache_invalidation", entries[0].HandlerName)
	assert.Equal(t, 3, entries[0].Attempts)
	assert.Equal(t, shared.EventSessionScheduled, entries[0].Event.EventType())
}

func TestDispatcher_RetrySucceedsBeforeExhaustion(t *testing.T) {
	d := NewDispatcher(testDispatcherConfig(nil))

	var attempts atomic.Int64
	require.NoError(t, d.RegisterHandler(shared.EventSessionScheduled, HandlerRegistration{
		Name: "flaky",
		Handler: func(shared.Event) error {
			if attempts.Add(1) < 2 {
				return errors.New("transient")
			}
			return nil
		},
		MaxRetries: 2,
		Timeout:    time.Second,
	}))

	require.NoError(t, d.Dispatch(scheduledEvent()))
	assert.Equal(t, int64(2), attempts.Load())
	assert.Equal(t, 0, d.DeadLetterQueue().Size())
}

func TestDispatcher_PanickingHandlerIsContained(t *testing.T) {
	d := NewDispatcher(testDispatcherConfig(nil))

	require.NoError(t, d.RegisterHandler(shared.EventSessionScheduled, HandlerRegistration{
		Name:       "broken",
		Handler:    func(shared.Event) error { panic("nil map write") },
		MaxRetries: 1,
		Timeout:    time.Second,
	}))

	err := d.Dispatch(scheduledEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
	assert.Equal(t, 1, d.DeadLetterQueue().Size())
}

func TestDispatcher_StartRoutesBusPublishes(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode: false,
		Logger:    slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
	})
	d := NewDispatcher(testDispatcherConfig(bus))

	var seen atomic.Int64
	require.NoError(t, d.RegisterSync(shared.EventSessionScheduled, "counter", func(e shared.Event) error {
		seen.Add(1)
		return nil
	}))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(scheduledEvent()))
	assert.Equal(t, int64(1), seen.Load())

	// Events with no registration pass through silently.
	require.NoError(t, bus.Publish(shared.NewStudentEnrolledEvent("stud-2", "20211002", "Test Student")))
	assert.Equal(t, int64(1), seen.Load())

	require.NoError(t, d.Stop())
	require.NoError(t, bus.Close())
}

func TestDispatcher_RejectsAnonymousRegistration(t *testing.T) {
	d := NewDispatcher(testDispatcherConfig(nil))

	err := d.Register(shared.EventSessionScheduled, "", func(shared.Event) error { return nil })
	require.Error(t, err)

	err = d.Register(shared.EventSessionScheduled, "named", nil)
	require.Error(t, err)
}
