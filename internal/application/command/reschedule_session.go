package command

import (
	"context"
	"fmt"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/keylock"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/retry"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESCHEDULE SESSION COMMAND
// Moves a committed session to a new date, slot, or room. The examiner panel
// and the lifecycle stage do not change; quota is already consumed and stays
// consumed. If the new slot cannot be taken, the old booking is restored.
// ══════════════════════════════════════════════════════════════════════════════

// RescheduleSessionCommand contains the data to move a session.
type RescheduleSessionCommand struct {
	// SessionID is the session to move.
	SessionID shared.SessionID

	// Date and Slot locate the new position on the defense grid.
	Date timeutil.DefenseDate
	Slot timeutil.Slot

	// RoomID is the new room. Empty keeps the current room.
	RoomID shared.RoomID

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RescheduleSessionCommand) Validate() error {
	if c.SessionID.IsEmpty() {
		return shared.NewDomainError("command", "RescheduleSession", shared.ErrEmptyValue, "session_id is required")
	}
	if !c.Date.IsValid() {
		return shared.NewDomainError("command", "RescheduleSession", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	if !c.Slot.IsValid() {
		return shared.NewDomainError("command", "RescheduleSession", shared.ErrInvalidFormat, "slot is not on the defense grid")
	}
	return nil
}

// RescheduleSessionResult contains the result of a reschedule.
type RescheduleSessionResult struct {
	// Session is the moved session with its new coordinates.
	Session *session.Session

	// OldDate, OldSlot, OldRoomID record where the session used to be.
	OldDate   timeutil.DefenseDate
	OldSlot   timeutil.Slot
	OldRoomID shared.RoomID

	// Events contains domain events generated.
	Events []shared.Event

	// RescheduledAt is when the move happened.
	RescheduledAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RescheduleSessionHandler handles the RescheduleSessionCommand.
type RescheduleSessionHandler struct {
	studentRepo    student.Repository
	lecturerRepo   lecturer.Repository
	roomRepo       room.Repository
	sessionRepo    session.Repository
	availability   session.AvailabilityIndex
	eventPublisher shared.EventPublisher

	locks   *keylock.KeyLock
	retrier *retry.Retrier
}

// NewRescheduleSessionHandler creates a new RescheduleSessionHandler.
func NewRescheduleSessionHandler(
	studentRepo student.Repository,
	lecturerRepo lecturer.Repository,
	roomRepo room.Repository,
	sessionRepo session.Repository,
	availability session.AvailabilityIndex,
	eventPublisher shared.EventPublisher,
	locks *keylock.KeyLock,
) *RescheduleSessionHandler {
	return &RescheduleSessionHandler{
		studentRepo:    studentRepo,
		lecturerRepo:   lecturerRepo,
		roomRepo:       roomRepo,
		sessionRepo:    sessionRepo,
		availability:   availability,
		eventPublisher: eventPublisher,
		locks:          locks,
		retrier:        retry.BookingLockRetrier(),
	}
}

// Handle executes the reschedule session command. A conflicting target slot
// returns a *session.ConflictError and leaves the old booking in place.
func (h *RescheduleSessionHandler) Handle(ctx context.Context, cmd RescheduleSessionCommand) (*RescheduleSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sess, err := h.sessionRepo.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("reschedule_session: load session: %w", err)
	}

	unlock, err := h.locks.Lock(ctx, studentLockKey(sess.StudentID))
	if err != nil {
		return nil, shared.WrapError("command", "RescheduleSession", shared.ErrTimeout,
			"could not acquire student lock", err)
	}
	defer unlock()

	oldDate, oldSlot, oldRoom := sess.Date, sess.Slot, sess.RoomID
	newRoom := cmd.RoomID
	if newRoom.IsEmpty() {
		newRoom = oldRoom
	}
	if oldDate == cmd.Date && oldSlot == cmd.Slot && oldRoom == newRoom {
		return nil, shared.NewDomainError("command", "RescheduleSession", shared.ErrInvalidInput,
			"new coordinates equal the current ones")
	}

	if newRoom != oldRoom {
		if _, err := h.roomRepo.GetByID(ctx, newRoom); err != nil {
			return nil, shared.WrapError("command", "RescheduleSession", shared.ErrNotFound,
				fmt.Sprintf("room %s", newRoom.String()), err)
		}
	}

	// The old booking is released first so a move within the same day (or to
	// a slot the session itself holds) does not collide with itself. On any
	// later failure the old booking is re-reserved before returning.
	if err := h.availability.Release(ctx, sess.ID); err != nil {
		return nil, fmt.Errorf("reschedule_session: release old booking: %w", err)
	}

	if violations := h.checkTarget(ctx, sess, cmd.Date, cmd.Slot, newRoom); len(violations) > 0 {
		h.restoreOld(ctx, sess, oldDate, oldSlot, oldRoom)
		return nil, session.NewConflictError(violations)
	}

	if err := h.reserveAt(ctx, sess, cmd.Date, cmd.Slot, newRoom); err != nil {
		h.restoreOld(ctx, sess, oldDate, oldSlot, oldRoom)
		if shared.IsConflict(err) {
			return nil, session.NewConflictError([]session.Violation{{
				Code:    session.ViolationRoomUnavailable,
				Message: fmt.Sprintf("slot %s was taken by a concurrent request", timeutil.SlotKey(cmd.Date, cmd.Slot)),
			}})
		}
		return nil, fmt.Errorf("reschedule_session: reserve new slot: %w", err)
	}

	now := time.Now().UTC()
	sess.Date = cmd.Date
	sess.Slot = cmd.Slot
	sess.RoomID = newRoom
	sess.UpdatedAt = now

	if err := h.sessionRepo.Update(ctx, sess); err != nil {
		_ = h.availability.Release(ctx, sess.ID)
		h.restoreOld(ctx, sess, oldDate, oldSlot, oldRoom)
		return nil, fmt.Errorf("reschedule_session: persist session: %w", err)
	}

	event := shared.NewSessionRescheduledEvent(
		sess.ID.String(), sess.StudentID.String(),
		oldDate.String(), oldSlot.String(), oldRoom.String(),
		sess.Date.String(), sess.Slot.String(), sess.RoomID.String(),
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RescheduleSessionResult{
		Session:       sess,
		OldDate:       oldDate,
		OldSlot:       oldSlot,
		OldRoomID:     oldRoom,
		Events:        []shared.Event{event},
		RescheduledAt: now,
	}, nil
}

// checkTarget verifies the panel and room are free at the new coordinates.
// The panel itself is not re-validated: size, duplicates, and quota were
// settled when the session was committed.
func (h *RescheduleSessionHandler) checkTarget(
	ctx context.Context,
	sess *session.Session,
	date timeutil.DefenseDate,
	slot timeutil.Slot,
	roomID shared.RoomID,
) []session.Violation {
	var violations []session.Violation

	for _, id := range distinctLecturerIDs(sess.ExaminerIDs) {
		free, err := h.availability.IsLecturerFree(ctx, id, date, slot)
		if err != nil || !free {
			violations = append(violations, session.Violation{
				Code:       session.ViolationExaminerUnavailable,
				ResourceID: id.String(),
				Message:    fmt.Sprintf("already booked at %s", timeutil.FormatHuman(date, slot)),
			})
			continue
		}
		if lec, err := h.lecturerRepo.GetByID(ctx, id); err == nil && !lec.Availability.Allows(date, slot) {
			violations = append(violations, session.Violation{
				Code:       session.ViolationExaminerUnavailable,
				ResourceID: id.String(),
				Message:    fmt.Sprintf("calendar marks %s busy", timeutil.FormatHuman(date, slot)),
			})
		}
	}

	free, err := h.availability.IsRoomFree(ctx, roomID, date, slot)
	if err != nil || !free {
		violations = append(violations, session.Violation{
			Code:       session.ViolationRoomUnavailable,
			ResourceID: roomID.String(),
			Message:    fmt.Sprintf("already booked at %s", timeutil.FormatHuman(date, slot)),
		})
	}

	return violations
}

// reserveAt books the panel and room at the given coordinates with retry on
// lock contention.
func (h *RescheduleSessionHandler) reserveAt(
	ctx context.Context,
	sess *session.Session,
	date timeutil.DefenseDate,
	slot timeutil.Slot,
	roomID shared.RoomID,
) error {
	return h.retrier.Do(ctx, func(ctx context.Context) error {
		err := h.availability.Reserve(ctx, sess.ID, sess.ExaminerIDs, roomID, date, slot)
		if err == nil {
			return nil
		}
		if shared.IsBusy(err) {
			return retry.Retryable(err)
		}
		return retry.Permanent(err)
	})
}

// restoreOld re-reserves the original coordinates after a failed move. The
// slots were held by this session moments ago; failure here means a racing
// writer grabbed them mid-move, which is surfaced but cannot be undone.
func (h *RescheduleSessionHandler) restoreOld(
	ctx context.Context,
	sess *session.Session,
	date timeutil.DefenseDate,
	slot timeutil.Slot,
	roomID shared.RoomID,
) {
	_ = h.reserveAt(ctx, sess, date, slot, roomID)
}
