package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/calendar"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR COMMANDS
// Academic calendar events go through the uniqueness guard: at most one
// event per (kind, semester) pair. A duplicate pair fails with
// ErrDuplicateEvent, never silently overwrites.
// ══════════════════════════════════════════════════════════════════════════════

// CreateCalendarEventCommand contains the data to create a calendar event.
type CreateCalendarEventCommand struct {
	// Name is the display title.
	Name string

	// Kind is the event type.
	Kind calendar.EventKind

	// Semester is the owning semester key, e.g. "2024/2025-ganjil".
	Semester shared.SemesterKey

	// StartDate and EndDate bound the period (inclusive).
	StartDate time.Time
	EndDate   time.Time

	// Description carries free-form remarks.
	Description string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateCalendarEventCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.NewDomainError("command", "CreateCalendarEvent", shared.ErrEmptyValue, "name is required")
	}
	if !c.Kind.IsValid() {
		return shared.NewDomainError("command", "CreateCalendarEvent", shared.ErrInvalidInput,
			fmt.Sprintf("unknown event kind %q", string(c.Kind)))
	}
	if !c.Semester.IsValid() {
		return shared.ErrInvalidSemesterKey
	}
	return nil
}

// CreateCalendarEventResult contains the result of a creation.
type CreateCalendarEventResult struct {
	// Event is the created entry.
	Event *calendar.Event

	// Events contains domain events generated.
	Events []shared.Event
}

// CreateCalendarEventHandler handles the CreateCalendarEventCommand.
type CreateCalendarEventHandler struct {
	guard          *calendar.Guard
	eventPublisher shared.EventPublisher
}

// NewCreateCalendarEventHandler creates a new CreateCalendarEventHandler.
func NewCreateCalendarEventHandler(guard *calendar.Guard, eventPublisher shared.EventPublisher) *CreateCalendarEventHandler {
	return &CreateCalendarEventHandler{guard: guard, eventPublisher: eventPublisher}
}

// Handle executes the create calendar event command.
func (h *CreateCalendarEventHandler) Handle(ctx context.Context, cmd CreateCalendarEventCommand) (*CreateCalendarEventResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	entry, err := calendar.NewEvent(cmd.Name, cmd.Kind, cmd.Semester, cmd.StartDate, cmd.EndDate, cmd.Description)
	if err != nil {
		return nil, err
	}
	if err := h.guard.Create(ctx, entry); err != nil {
		return nil, err
	}

	event := shared.NewCalendarEventCreatedEvent(entry.ID, entry.Kind.String(), entry.Semester.String())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CreateCalendarEventResult{
		Event:  entry,
		Events: []shared.Event{event},
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE CALENDAR EVENT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateCalendarEventCommand contains the data to edit a calendar event.
// Zero-valued fields keep the current value.
type UpdateCalendarEventCommand struct {
	// EventID is the entry to edit.
	EventID string

	// Name replaces the display title when non-empty.
	Name string

	// StartDate and EndDate replace the period when non-zero.
	StartDate time.Time
	EndDate   time.Time

	// Description replaces the remarks when non-empty.
	Description string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c UpdateCalendarEventCommand) Validate() error {
	if c.EventID == "" {
		return shared.NewDomainError("command", "UpdateCalendarEvent", shared.ErrEmptyValue, "event_id is required")
	}
	return nil
}

// UpdateCalendarEventHandler handles the UpdateCalendarEventCommand.
type UpdateCalendarEventHandler struct {
	calendarRepo   calendar.Repository
	guard          *calendar.Guard
	eventPublisher shared.EventPublisher
}

// NewUpdateCalendarEventHandler creates a new UpdateCalendarEventHandler.
func NewUpdateCalendarEventHandler(
	calendarRepo calendar.Repository,
	guard *calendar.Guard,
	eventPublisher shared.EventPublisher,
) *UpdateCalendarEventHandler {
	return &UpdateCalendarEventHandler{
		calendarRepo:   calendarRepo,
		guard:          guard,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the update calendar event command.
func (h *UpdateCalendarEventHandler) Handle(ctx context.Context, cmd UpdateCalendarEventCommand) (*calendar.Event, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	entry, err := h.calendarRepo.GetByID(ctx, cmd.EventID)
	if err != nil {
		return nil, fmt.Errorf("update_calendar_event: load event: %w", err)
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		entry.Name = name
	}
	if !cmd.StartDate.IsZero() {
		entry.StartDate = cmd.StartDate
	}
	if !cmd.EndDate.IsZero() {
		entry.EndDate = cmd.EndDate
	}
	if cmd.Description != "" {
		entry.Description = strings.TrimSpace(cmd.Description)
	}
	if entry.EndDate.Before(entry.StartDate) {
		return nil, shared.NewDomainError("command", "UpdateCalendarEvent", shared.ErrInvalidInput,
			"start must not be after end")
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := h.guard.Update(ctx, entry); err != nil {
		return nil, err
	}

	event := shared.NewCalendarEventUpdatedEvent(entry.ID, entry.Kind.String(), entry.Semester.String())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return entry, nil
}
