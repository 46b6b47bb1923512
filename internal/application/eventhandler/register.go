package eventhandler

import (
	"fmt"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/messaging"
)

// allEventTypes lists every event the domain emits. The audit trail
// subscribes to each one; forgetting a new type here means it never
// reaches the log.
var allEventTypes = []shared.EventType{
	shared.EventStudentEnrolled,
	shared.EventStudentArchived,
	shared.EventLifecycleAdvanced,
	shared.EventLifecycleRegressed,
	shared.EventStudentGraduated,
	shared.EventEvaluationRecorded,
	shared.EventSessionScheduled,
	shared.EventSessionRescheduled,
	shared.EventSessionCancelled,
	shared.EventScheduleRejected,
	shared.EventSlotReserved,
	shared.EventSlotReleased,
	shared.EventCalendarEventCreated,
	shared.EventCalendarEventUpdated,
}

// sessionCommitEvents are the booking writes that stale the cache.
var sessionCommitEvents = []shared.EventType{
	shared.EventSessionScheduled,
	shared.EventSessionRescheduled,
	shared.EventSessionCancelled,
}

// RegisterAll wires the standard handlers into the dispatcher. The
// audit handler runs synchronously so the trail is written before any
// async side effect; cache invalidation is async and best effort.
// Either handler may be nil when its feature flag is off, in which
// case its registrations are skipped.
func RegisterAll(
	dispatcher *messaging.Dispatcher,
	committed *OnSessionCommittedHandler,
	audit *AuditLogHandler,
) error {
	if audit != nil {
		for _, eventType := range allEventTypes {
			if err := dispatcher.RegisterSync(eventType, "audit_log", audit.Handle); err != nil {
				return fmt.Errorf("register audit handler for %s: %w", eventType, err)
			}
		}
	}

	if committed != nil {
		for _, eventType := range sessionCommitEvents {
			if err := dispatcher.Register(eventType, "on_session_committed", committed.Handle); err != nil {
				return fmt.Errorf("register cache invalidation for %s: %w", eventType, err)
			}
		}
	}

	return nil
}
