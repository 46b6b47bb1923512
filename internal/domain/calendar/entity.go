// Package calendar contains academic calendar events and the
// one-event-per-type-per-semester uniqueness rule.
package calendar

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// EventKind is the academic calendar event type.
type EventKind string

const (
	// KindProposal - thesis proposal submission window.
	KindProposal EventKind = "proposal"
	// KindSeminar - seminar-proposal defense period.
	KindSeminar EventKind = "seminar"
	// KindYudisium - graduation judgement ceremony.
	KindYudisium EventKind = "yudisium"
)

// IsValid checks that the kind is known.
func (k EventKind) IsValid() bool {
	switch k {
	case KindProposal, KindSeminar, KindYudisium:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k EventKind) String() string {
	return string(k)
}

// Event is an academic calendar entry.
// Invariant: at most one event per (kind, semester) pair, enforced by the
// uniqueness guard before creation.
type Event struct {
	// ID is the internal unique identifier (UUID in string form).
	ID string

	// Name is the display title.
	Name string

	// Kind is the event type.
	Kind EventKind

	// StartDate and EndDate bound the period (inclusive).
	StartDate time.Time
	EndDate   time.Time

	// Semester is the owning semester key, e.g. "2024/2025-ganjil".
	Semester shared.SemesterKey

	// Description carries free-form remarks.
	Description string

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// NewEvent creates a calendar event.
func NewEvent(name string, kind EventKind, semester shared.SemesterKey, start, end time.Time, description string) (*Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("calendar", "New", shared.ErrEmptyValue, "name is required")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("calendar", "New", shared.ErrInvalidInput, "unknown event kind")
	}
	if !semester.IsValid() {
		return nil, shared.ErrInvalidSemesterKey
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, shared.NewDomainError("calendar", "New", shared.ErrInvalidInput, "start must not be after end")
	}

	now := time.Now().UTC()
	return &Event{
		ID:          uuid.NewString(),
		Name:        name,
		Kind:        kind,
		StartDate:   start,
		EndDate:     end,
		Semester:    semester,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Contains reports whether the time falls inside the event period.
func (e *Event) Contains(t time.Time) bool {
	return !t.Before(e.StartDate) && !t.After(e.EndDate)
}

// Clone returns a copy, used by in-memory stores to avoid aliasing.
func (e *Event) Clone() *Event {
	cp := *e
	return &cp
}
