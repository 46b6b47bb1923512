package eventhandler

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/messaging"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/redis"
)

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestOnSessionCommitted_NilCacheIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	h := NewOnSessionCommittedHandler(
		redis.NewAvailabilityCache(nil),
		quietLogger(&buf),
		DefaultSessionCommittedConfig(),
	)

	err := h.Handle(shared.NewSessionScheduledEvent(
		"sess-1", "sempro", "stud-1", "2026-09-14", "08:00", "room-1",
		[]string{"lec-1", "lec-2"},
	))
	require.NoError(t, err)
}

func TestOnSessionCommitted_RescheduleCoversBothDates(t *testing.T) {
	var buf bytes.Buffer
	h := NewOnSessionCommittedHandler(
		redis.NewAvailabilityCache(nil),
		quietLogger(&buf),
		DefaultSessionCommittedConfig(),
	)

	err := h.Handle(shared.NewSessionRescheduledEvent(
		"sess-1", "stud-1",
		"2026-09-14", "08:00", "room-1",
		"2026-09-21", "13:00", "room-2",
	))
	require.NoError(t, err)

	// Same-day move: both coordinates on one date.
	err = h.Handle(shared.NewSessionRescheduledEvent(
		"sess-1", "stud-1",
		"2026-09-21", "08:00", "room-1",
		"2026-09-21", "13:00", "room-1",
	))
	require.NoError(t, err)
}

func TestOnSessionCommitted_IgnoresUnrelatedEvents(t *testing.T) {
	var buf bytes.Buffer
	h := NewOnSessionCommittedHandler(
		redis.NewAvailabilityCache(nil),
		quietLogger(&buf),
		DefaultSessionCommittedConfig(),
	)

	err := h.Handle(shared.NewStudentEnrolledEvent("stud-1", "20211001", "Test Student"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "unexpected event type")
}

func TestAuditLog_RecordsTypeAndPayload(t *testing.T) {
	var buf bytes.Buffer
	h := NewAuditLogHandler(quietLogger(&buf), DefaultAuditLogConfig())

	err := h.Handle(shared.NewSessionCancelledEvent("sess-1", "stud-1", "2026-09-14", "student illness"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, string(shared.EventSessionCancelled))
	assert.Contains(t, out, "sess-1")
	assert.Contains(t, out, "student illness")
}

func TestAuditLog_PayloadCanBeDisabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewAuditLogHandler(quietLogger(&buf), AuditLogConfig{IncludePayload: false})

	err := h.Handle(shared.NewSessionCancelledEvent("sess-1", "stud-1", "2026-09-14", "student illness"))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "student illness")
}

func TestRegisterAll_WiresEveryEventType(t *testing.T) {
	var buf bytes.Buffer
	logger := quietLogger(&buf)

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode: false,
		Logger:    logger,
	})
	dispatcher := messaging.NewDispatcher(messaging.DefaultDispatcherConfig(bus))

	committed := NewOnSessionCommittedHandler(
		redis.NewAvailabilityCache(nil), logger, DefaultSessionCommittedConfig())
	audit := NewAuditLogHandler(logger, DefaultAuditLogConfig())

	require.NoError(t, RegisterAll(dispatcher, committed, audit))

	// Dispatched events reach the audit trail, and commit events also
	// run cache invalidation without complaint.
	events := []shared.Event{
		shared.NewStudentEnrolledEvent("stud-1", "20211001", "Test Student"),
		shared.NewSessionScheduledEvent(
			"sess-1", "sempro", "stud-1", "2026-09-14", "08:00", "room-1",
			[]string{"lec-1", "lec-2"}),
		shared.NewSessionCancelledEvent("sess-1", "stud-1", "2026-09-14", ""),
		shared.NewCalendarEventCreatedEvent("cal-1", "sempro", "2026/2027-ganjil"),
	}
	for _, event := range events {
		require.NoError(t, dispatcher.Dispatch(event))
		assert.Contains(t, buf.String(), string(event.EventType()))
	}
}

func TestRegisterAll_NilHandlersAreSkipped(t *testing.T) {
	var buf bytes.Buffer
	logger := quietLogger(&buf)

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode: false,
		Logger:    logger,
	})
	dispatcher := messaging.NewDispatcher(messaging.DefaultDispatcherConfig(bus))

	// Flags can disable either handler; registration must not choke on
	// the nil and dispatch must stay silent for the missing handler.
	require.NoError(t, RegisterAll(dispatcher, nil, nil))

	event := shared.NewSessionScheduledEvent(
		"sess-1", "sempro", "stud-1", "2026-09-14", "08:00", "room-1",
		[]string{"lec-1", "lec-2"})
	require.NoError(t, dispatcher.Dispatch(event))
	assert.NotContains(t, buf.String(), string(shared.EventSessionScheduled))
}
