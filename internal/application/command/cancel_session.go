package command

import (
	"context"
	"fmt"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/keylock"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANCEL SESSION COMMAND
// Releases a committed session: slot bookings freed, examiner quota returned,
// the session reference detached. The lifecycle stage does not move -
// cancellation is a logistics failure, not an academic regression.
// ══════════════════════════════════════════════════════════════════════════════

// CancelSessionCommand contains the data to cancel a session.
type CancelSessionCommand struct {
	// SessionID is the session to cancel.
	SessionID shared.SessionID

	// Reason is the operator-supplied cancellation cause.
	Reason string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CancelSessionCommand) Validate() error {
	if c.SessionID.IsEmpty() {
		return shared.NewDomainError("command", "CancelSession", shared.ErrEmptyValue, "session_id is required")
	}
	return nil
}

// CancelSessionResult contains the result of a cancellation.
type CancelSessionResult struct {
	// SessionID is the cancelled session.
	SessionID shared.SessionID

	// StudentID is the affected student.
	StudentID shared.StudentID

	// Stage is the student's lifecycle stage, unchanged by the cancel.
	Stage student.Stage

	// Events contains domain events generated.
	Events []shared.Event

	// CancelledAt is when the cancellation happened.
	CancelledAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CancelSessionHandler handles the CancelSessionCommand.
type CancelSessionHandler struct {
	studentRepo    student.Repository
	lecturerRepo   lecturer.Repository
	sessionRepo    session.Repository
	availability   session.AvailabilityIndex
	eventPublisher shared.EventPublisher

	locks *keylock.KeyLock
}

// NewCancelSessionHandler creates a new CancelSessionHandler.
func NewCancelSessionHandler(
	studentRepo student.Repository,
	lecturerRepo lecturer.Repository,
	sessionRepo session.Repository,
	availability session.AvailabilityIndex,
	eventPublisher shared.EventPublisher,
	locks *keylock.KeyLock,
) *CancelSessionHandler {
	return &CancelSessionHandler{
		studentRepo:    studentRepo,
		lecturerRepo:   lecturerRepo,
		sessionRepo:    sessionRepo,
		availability:   availability,
		eventPublisher: eventPublisher,
		locks:          locks,
	}
}

// Handle executes the cancel session command.
func (h *CancelSessionHandler) Handle(ctx context.Context, cmd CancelSessionCommand) (*CancelSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("cancel_session: load session: %w", err)
	}

	unlock, err := h.locks.Lock(ctx, studentLockKey(sess.StudentID))
	if err != nil {
		return nil, shared.WrapError("command", "CancelSession", shared.ErrTimeout,
			"could not acquire student lock", err)
	}
	defer unlock()

	stud, err := h.studentRepo.GetByID(ctx, sess.StudentID)
	if err != nil {
		return nil, fmt.Errorf("cancel_session: load student: %w", err)
	}

	// Returning quota is the same read-modify-write the schedule commit
	// performs, so the panel locks are held here too: a schedule for
	// another student sharing an examiner cannot lose the decrement.
	unlockPanel, err := lockExaminers(ctx, h.locks, sess.ExaminerIDs)
	if err != nil {
		return nil, shared.WrapError("command", "CancelSession", shared.ErrTimeout,
			"could not acquire examiner locks", err)
	}
	defer unlockPanel()

	now := time.Now().UTC()

	// Release order: bookings first so the slots reopen immediately, then
	// quota, then the session row, then the student reference.
	if err := h.availability.Release(ctx, sess.ID); err != nil {
		return nil, fmt.Errorf("cancel_session: release slots: %w", err)
	}

	for _, id := range distinctLecturerIDs(sess.ExaminerIDs) {
		lec, err := h.lecturerRepo.GetByID(ctx, id)
		if err != nil {
			continue // a removed lecturer has no quota to return
		}
		lec.ReleaseAssignment(now)
		_ = h.lecturerRepo.Update(ctx, lec)
	}

	if err := h.sessionRepo.Remove(ctx, sess.ID); err != nil {
		return nil, fmt.Errorf("cancel_session: remove session: %w", err)
	}

	stud.DetachSession(sess.ID, now)
	if err := h.studentRepo.Update(ctx, stud); err != nil {
		return nil, fmt.Errorf("cancel_session: update student: %w", err)
	}

	event := shared.NewSessionCancelledEvent(sess.ID.String(), stud.ID.String(), sess.Date.String(), cmd.Reason)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CancelSessionResult{
		SessionID:   sess.ID,
		StudentID:   stud.ID,
		Stage:       stud.CurrentStage,
		Events:      []shared.Event{event},
		CancelledAt: now,
	}, nil
}

// distinctLecturerIDs deduplicates the panel, preserving order.
func distinctLecturerIDs(ids []shared.LecturerID) []shared.LecturerID {
	seen := make(map[shared.LecturerID]bool, len(ids))
	out := make([]shared.LecturerID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
