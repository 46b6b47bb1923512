// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the scheduling/lifecycle core; subscribers (notification
// senders, audit logs) react to them without coupling into the engine.
const (
	// Student events
	EventStudentEnrolled EventType = "student.enrolled"
	EventStudentArchived EventType = "student.archived"

	// Lifecycle events
	EventLifecycleAdvanced  EventType = "lifecycle.advanced"
	EventLifecycleRegressed EventType = "lifecycle.regressed"
	EventStudentGraduated   EventType = "lifecycle.graduated"
	EventEvaluationRecorded EventType = "lifecycle.evaluation_recorded"

	// Session events
	EventSessionScheduled   EventType = "session.scheduled"
	EventSessionRescheduled EventType = "session.rescheduled"
	EventSessionCancelled   EventType = "session.cancelled"
	EventScheduleRejected   EventType = "session.schedule_rejected"

	// Availability events
	EventSlotReserved EventType = "availability.slot_reserved"
	EventSlotReleased EventType = "availability.slot_released"

	// Calendar events
	EventCalendarEventCreated EventType = "calendar.event_created"
	EventCalendarEventUpdated EventType = "calendar.event_updated"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Student Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentEnrolledEvent is emitted when a new student record is created.
type StudentEnrolledEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	NIM       string `json:"nim"`
	Name      string `json:"name"`
}

// Payload implements Event interface.
func (e StudentEnrolledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"nim":        e.NIM,
		"name":       e.Name,
	}
}

// NewStudentEnrolledEvent creates a new StudentEnrolledEvent.
func NewStudentEnrolledEvent(studentID, nim, name string) StudentEnrolledEvent {
	return StudentEnrolledEvent{
		BaseEvent: NewBaseEvent(EventStudentEnrolled, studentID),
		StudentID: studentID,
		NIM:       nim,
		Name:      name,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Lifecycle Events
// ═══════════════════════════════════════════════════════════════════════════

// LifecycleAdvancedEvent is emitted when a student moves to the next stage.
type LifecycleAdvancedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	FromStage int    `json:"from_stage"`
	ToStage   int    `json:"to_stage"`
	Trigger   string `json:"trigger"` // e.g., "session_scheduled", "manual"
}

// Payload implements Event interface.
func (e LifecycleAdvancedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"from_stage": e.FromStage,
		"to_stage":   e.ToStage,
		"trigger":    e.Trigger,
	}
}

// NewLifecycleAdvancedEvent creates a new LifecycleAdvancedEvent.
func NewLifecycleAdvancedEvent(studentID string, from, to int, trigger string) LifecycleAdvancedEvent {
	return LifecycleAdvancedEvent{
		BaseEvent: NewBaseEvent(EventLifecycleAdvanced, studentID),
		StudentID: studentID,
		FromStage: from,
		ToStage:   to,
		Trigger:   trigger,
	}
}

// LifecycleRegressedEvent is emitted when a student is sent back for revision.
type LifecycleRegressedEvent struct {
	BaseEvent
	StudentID       string `json:"student_id"`
	FromStage       int    `json:"from_stage"`
	ToStage         int    `json:"to_stage"`
	Reason          string `json:"reason"`
	RevisionAttempt int    `json:"revision_attempt"`
}

// Payload implements Event interface.
func (e LifecycleRegressedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":       e.StudentID,
		"from_stage":       e.FromStage,
		"to_stage":         e.ToStage,
		"reason":           e.Reason,
		"revision_attempt": e.RevisionAttempt,
	}
}

// NewLifecycleRegressedEvent creates a new LifecycleRegressedEvent.
func NewLifecycleRegressedEvent(studentID string, from, to int, reason string, attempt int) LifecycleRegressedEvent {
	return LifecycleRegressedEvent{
		BaseEvent:       NewBaseEvent(EventLifecycleRegressed, studentID),
		StudentID:       studentID,
		FromStage:       from,
		ToStage:         to,
		Reason:          reason,
		RevisionAttempt: attempt,
	}
}

// StudentGraduatedEvent is emitted on a final Pass outcome.
type StudentGraduatedEvent struct {
	BaseEvent
	StudentID   string `json:"student_id"`
	NIM         string `json:"nim"`
	ThesisTitle string `json:"thesis_title"`
}

// Payload implements Event interface.
func (e StudentGraduatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":   e.StudentID,
		"nim":          e.NIM,
		"thesis_title": e.ThesisTitle,
	}
}

// NewStudentGraduatedEvent creates a new StudentGraduatedEvent.
func NewStudentGraduatedEvent(studentID, nim, thesisTitle string) StudentGraduatedEvent {
	return StudentGraduatedEvent{
		BaseEvent:   NewBaseEvent(EventStudentGraduated, studentID),
		StudentID:   studentID,
		NIM:         nim,
		ThesisTitle: thesisTitle,
	}
}

// EvaluationRecordedEvent is emitted when a terminal outcome is recorded.
type EvaluationRecordedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	Outcome   string `json:"outcome"`
}

// Payload implements Event interface.
func (e EvaluationRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"outcome":    e.Outcome,
	}
}

// NewEvaluationRecordedEvent creates a new EvaluationRecordedEvent.
func NewEvaluationRecordedEvent(studentID, outcome string) EvaluationRecordedEvent {
	return EvaluationRecordedEvent{
		BaseEvent: NewBaseEvent(EventEvaluationRecorded, studentID),
		StudentID: studentID,
		Outcome:   outcome,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionScheduledEvent is emitted when a defense session is committed.
type SessionScheduledEvent struct {
	BaseEvent
	SessionID   string   `json:"session_id"`
	Kind        string   `json:"kind"`
	StudentID   string   `json:"student_id"`
	Date        string   `json:"date"`
	Slot        string   `json:"slot"`
	RoomID      string   `json:"room_id"`
	ExaminerIDs []string `json:"examiner_ids"`
}

// Payload implements Event interface.
func (e SessionScheduledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":   e.SessionID,
		"kind":         e.Kind,
		"student_id":   e.StudentID,
		"date":         e.Date,
		"slot":         e.Slot,
		"room_id":      e.RoomID,
		"examiner_ids": e.ExaminerIDs,
	}
}

// NewSessionScheduledEvent creates a new SessionScheduledEvent.
func NewSessionScheduledEvent(sessionID, kind, studentID, date, slot, roomID string, examinerIDs []string) SessionScheduledEvent {
	return SessionScheduledEvent{
		BaseEvent:   NewBaseEvent(EventSessionScheduled, sessionID),
		SessionID:   sessionID,
		Kind:        kind,
		StudentID:   studentID,
		Date:        date,
		Slot:        slot,
		RoomID:      roomID,
		ExaminerIDs: examinerIDs,
	}
}

// SessionRescheduledEvent is emitted when a committed session moves to a new
// date, slot, or room. The examiner panel is unchanged and the student's
// lifecycle stage does not move.
type SessionRescheduledEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	StudentID string `json:"student_id"`
	OldDate   string `json:"old_date"`
	OldSlot   string `json:"old_slot"`
	OldRoomID string `json:"old_room_id"`
	NewDate   string `json:"new_date"`
	NewSlot   string `json:"new_slot"`
	NewRoomID string `json:"new_room_id"`
}

// Payload implements Event interface.
func (e SessionRescheduledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":  e.SessionID,
		"student_id":  e.StudentID,
		"old_date":    e.OldDate,
		"old_slot":    e.OldSlot,
		"old_room_id": e.OldRoomID,
		"new_date":    e.NewDate,
		"new_slot":    e.NewSlot,
		"new_room_id": e.NewRoomID,
	}
}

// NewSessionRescheduledEvent creates a new SessionRescheduledEvent.
func NewSessionRescheduledEvent(sessionID, studentID, oldDate, oldSlot, oldRoomID, newDate, newSlot, newRoomID string) SessionRescheduledEvent {
	return SessionRescheduledEvent{
		BaseEvent: NewBaseEvent(EventSessionRescheduled, sessionID),
		SessionID: sessionID,
		StudentID: studentID,
		OldDate:   oldDate,
		OldSlot:   oldSlot,
		OldRoomID: oldRoomID,
		NewDate:   newDate,
		NewSlot:   newSlot,
		NewRoomID: newRoomID,
	}
}

// SessionCancelledEvent is emitted when a session is cancelled.
// The student's lifecycle stage is intentionally untouched: cancellation is
// a logistics failure, not an academic regression.
type SessionCancelledEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Reason    string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e SessionCancelledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id": e.SessionID,
		"student_id": e.StudentID,
		"date":       e.Date,
		"reason":     e.Reason,
	}
}

// NewSessionCancelledEvent creates a new SessionCancelledEvent.
func NewSessionCancelledEvent(sessionID, studentID, date, reason string) SessionCancelledEvent {
	return SessionCancelledEvent{
		BaseEvent: NewBaseEvent(EventSessionCancelled, sessionID),
		SessionID: sessionID,
		StudentID: studentID,
		Date:      date,
		Reason:    reason,
	}
}

// ScheduleRejectedEvent is emitted when a schedule request fails validation.
type ScheduleRejectedEvent struct {
	BaseEvent
	StudentID  string   `json:"student_id"`
	Kind       string   `json:"kind"`
	Violations []string `json:"violations"`
}

// Payload implements Event interface.
func (e ScheduleRejectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"kind":       e.Kind,
		"violations": e.Violations,
	}
}

// NewScheduleRejectedEvent creates a new ScheduleRejectedEvent.
func NewScheduleRejectedEvent(studentID, kind string, violations []string) ScheduleRejectedEvent {
	return ScheduleRejectedEvent{
		BaseEvent:  NewBaseEvent(EventScheduleRejected, studentID),
		StudentID:  studentID,
		Kind:       kind,
		Violations: violations,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Calendar Events
// ═══════════════════════════════════════════════════════════════════════════

// CalendarEventCreatedEvent is emitted when an academic calendar event is created.
type CalendarEventCreatedEvent struct {
	BaseEvent
	EventID   string `json:"event_id"`
	EventKind string `json:"event_kind"`
	Semester  string `json:"semester"`
}

// Payload implements Event interface.
func (e CalendarEventCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"event_id":   e.EventID,
		"event_kind": e.EventKind,
		"semester":   e.Semester,
	}
}

// NewCalendarEventCreatedEvent creates a new CalendarEventCreatedEvent.
func NewCalendarEventCreatedEvent(eventID, eventKind, semester string) CalendarEventCreatedEvent {
	return CalendarEventCreatedEvent{
		BaseEvent: NewBaseEvent(EventCalendarEventCreated, eventID),
		EventID:   eventID,
		EventKind: eventKind,
		Semester:  semester,
	}
}

// CalendarEventUpdatedEvent is emitted when an academic calendar event is edited.
type CalendarEventUpdatedEvent struct {
	BaseEvent
	EventID   string `json:"event_id"`
	EventKind string `json:"event_kind"`
	Semester  string `json:"semester"`
}

// Payload implements Event interface.
func (e CalendarEventUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"event_id":   e.EventID,
		"event_kind": e.EventKind,
		"semester":   e.Semester,
	}
}

// NewCalendarEventUpdatedEvent creates a new CalendarEventUpdatedEvent.
func NewCalendarEventUpdatedEvent(eventID, eventKind, semester string) CalendarEventUpdatedEvent {
	return CalendarEventUpdatedEvent{
		BaseEvent: NewBaseEvent(EventCalendarEventUpdated, eventID),
		EventID:   eventID,
		EventKind: eventKind,
		Semester:  semester,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
