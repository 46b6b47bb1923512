// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrImmutable       = errors.New("record is immutable")

	// Scheduling errors
	ErrConflict       = errors.New("scheduling conflict")
	ErrSlotTaken      = errors.New("time slot already booked")
	ErrQuotaExceeded  = errors.New("examiner quota exceeded")
	ErrDuplicateEvent = errors.New("duplicate calendar event")

	// Concurrency errors
	ErrBusy                   = errors.New("resource busy, retry")
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "session", "calendar"
	Op      string // Operation that failed, e.g., "Schedule", "Advance"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student already exists")
	ErrInvalidNIM           = NewDomainError("student", "Validate", ErrInvalidID, "invalid NIM")
	ErrStudentGraduated     = NewDomainError("student", "Mutate", ErrImmutable, "student has graduated")
	ErrStageSkip            = NewDomainError("student", "Advance", ErrStateTransition, "lifecycle stages cannot be skipped")
	ErrRegressNotAllowed    = NewDomainError("student", "Regress", ErrStateTransition, "regression only allowed from result stage")
	ErrRevisionLimit        = NewDomainError("student", "Regress", ErrStateTransition, "revision attempt limit reached")
)

// Lecturer domain errors
var (
	ErrLecturerNotFound   = NewDomainError("lecturer", "Find", ErrNotFound, "lecturer not found")
	ErrLecturerQuotaFull  = NewDomainError("lecturer", "Assign", ErrQuotaExceeded, "lecturer has no remaining examiner quota")
	ErrLecturerBooked     = NewDomainError("lecturer", "Reserve", ErrSlotTaken, "lecturer already booked for this slot")
	ErrLecturerNotFree    = NewDomainError("lecturer", "Check", ErrConflict, "lecturer calendar marks this slot busy")
	ErrNotExaminerCapable = NewDomainError("lecturer", "Assign", ErrInvalidState, "lecturer cannot serve as examiner")
)

// Room domain errors
var (
	ErrRoomNotFound = NewDomainError("room", "Find", ErrNotFound, "room not found")
	ErrRoomBooked   = NewDomainError("room", "Reserve", ErrSlotTaken, "room already booked for this slot")
)

// Session domain errors
var (
	ErrSessionNotFound   = NewDomainError("session", "Find", ErrNotFound, "session not found")
	ErrTooFewExaminers   = NewDomainError("session", "Validate", ErrValueOutOfRange, "too few examiners for session kind")
	ErrTooManyExaminers  = NewDomainError("session", "Validate", ErrValueOutOfRange, "too many examiners for session kind")
	ErrDuplicateExaminer = NewDomainError("session", "Validate", ErrInvalidInput, "examiner listed more than once")
	ErrSupervisorOverlap = NewDomainError("session", "Validate", ErrConflict, "supervisor may not examine this defense")
)

// Calendar domain errors
var (
	ErrCalendarEventNotFound = NewDomainError("calendar", "Find", ErrNotFound, "calendar event not found")
	ErrEventTypeTaken        = NewDomainError("calendar", "Create", ErrDuplicateEvent, "event of this type already exists for the semester")
	ErrInvalidSemesterKey    = NewDomainError("calendar", "Validate", ErrInvalidFormat, "invalid semester key")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConflict checks if the error is a scheduling conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrQuotaExceeded)
}

// IsTransition checks if the error is a lifecycle transition failure.
func IsTransition(err error) bool {
	return errors.Is(err, ErrStateTransition)
}

// IsBusy checks if the operation lost a bounded lock wait and may be retried.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy) || errors.Is(err, ErrConcurrentModification)
}

// IsRetryable checks if the operation can be retried as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBusy) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrTimeout)
}
