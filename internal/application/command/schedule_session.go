// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"sort"
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
// SCHEDULE SESSION COMMAND
// Commits a Sempro or final-defense session: conflict check, atomic slot
// reservation, examiner quota, and the lifecycle advance, as one unit.
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleSessionCommand contains the data to schedule a defense session.
type ScheduleSessionCommand struct {
	// Kind is the session variant ("sempro" or "final_defense").
	Kind session.Kind

	// StudentID is the defending student.
	StudentID shared.StudentID

	// Date and Slot locate the session on the defense grid.
	Date timeutil.DefenseDate
	Slot timeutil.Slot

	// RoomID is the requested room.
	RoomID shared.RoomID

	// ExaminerIDs is the requested examiner panel, in order.
	ExaminerIDs []shared.LecturerID

	// Notes carries free-form scheduling remarks.
	Notes string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates command shape. Resource-state checks happen in the
// conflict checker under the commit lock.
func (c ScheduleSessionCommand) Validate() error {
	if !c.Kind.IsValid() {
		return shared.NewDomainError("command", "ScheduleSession", shared.ErrInvalidInput,
			fmt.Sprintf("unknown session kind %q", string(c.Kind)))
	}
	if c.StudentID.IsEmpty() {
		return shared.NewDomainError("command", "ScheduleSession", shared.ErrEmptyValue, "student_id is required")
	}
	if !c.Date.IsValid() {
		return shared.NewDomainError("command", "ScheduleSession", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	if !c.Slot.IsValid() {
		return shared.NewDomainError("command", "ScheduleSession", shared.ErrInvalidFormat, "slot is not on the defense grid")
	}
	if c.RoomID.IsEmpty() {
		return shared.NewDomainError("command", "ScheduleSession", shared.ErrEmptyValue, "room_id is required")
	}
	if len(c.ExaminerIDs) == 0 {
		return shared.NewDomainError("command", "ScheduleSession", shared.ErrEmptyValue, "at least one examiner is required")
	}
	return nil
}

// ScheduleSessionResult contains the result of a committed schedule.
type ScheduleSessionResult struct {
	// Session is the committed session.
	Session *session.Session

	// FromStage and ToStage record the lifecycle advance.
	FromStage student.Stage
	ToStage   student.Stage

	// Events contains domain events generated.
	Events []shared.Event

	// ScheduledAt is when the commit happened.
	ScheduledAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleSessionHandler handles the ScheduleSessionCommand.
//
// Commit order: snapshot and conflict check under the student lock and the
// panel's examiner locks, then reserve slots (atomic, all-or-nothing), then
// quota, then the session row, then the student aggregate. Any failure
// unwinds everything already done in reverse, so a rejected request leaves
// zero state change.
type ScheduleSessionHandler struct {
	studentRepo    student.Repository
	lecturerRepo   lecturer.Repository
	roomRepo       room.Repository
	sessionRepo    session.Repository
	availability   session.AvailabilityIndex
	eventPublisher shared.EventPublisher

	locks    *keylock.KeyLock
	retrier  *retry.Retrier
	policies session.PolicySet
}

// ScheduleSessionHandlerConfig contains configuration for the handler.
type ScheduleSessionHandlerConfig struct {
	// Policies maps each session kind to its scheduling rules.
	Policies session.PolicySet
}

// DefaultScheduleSessionHandlerConfig returns the faculty-standard configuration.
func DefaultScheduleSessionHandlerConfig() ScheduleSessionHandlerConfig {
	return ScheduleSessionHandlerConfig{Policies: session.DefaultPolicies()}
}

// NewScheduleSessionHandler creates a new ScheduleSessionHandler.
func NewScheduleSessionHandler(
	studentRepo student.Repository,
	lecturerRepo lecturer.Repository,
	roomRepo room.Repository,
	sessionRepo session.Repository,
	availability session.AvailabilityIndex,
	eventPublisher shared.EventPublisher,
	locks *keylock.KeyLock,
	config ScheduleSessionHandlerConfig,
) *ScheduleSessionHandler {
	if len(config.Policies) == 0 {
		config = DefaultScheduleSessionHandlerConfig()
	}

	return &ScheduleSessionHandler{
		studentRepo:    studentRepo,
		lecturerRepo:   lecturerRepo,
		roomRepo:       roomRepo,
		sessionRepo:    sessionRepo,
		availability:   availability,
		eventPublisher: eventPublisher,
		locks:          locks,
		retrier:        retry.BookingLockRetrier(),
		policies:       config.Policies,
	}
}

// Handle executes the schedule session command. A conflicting request
// returns a *session.ConflictError carrying the ordered violation list.
func (h *ScheduleSessionHandler) Handle(ctx context.Context, cmd ScheduleSessionCommand) (*ScheduleSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	pol, ok := h.policies[cmd.Kind]
	if !ok {
		return nil, shared.NewDomainError("command", "ScheduleSession", shared.ErrInvalidInput,
			fmt.Sprintf("no policy for session kind %q", string(cmd.Kind)))
	}

	// All writes to one student's record go through the student's lock.
	unlock, err := h.locks.Lock(ctx, studentLockKey(cmd.StudentID))
	if err != nil {
		return nil, shared.WrapError("command", "ScheduleSession", shared.ErrTimeout,
			"could not acquire student lock", err)
	}
	defer unlock()

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("schedule_session: load student: %w", err)
	}
	if !stud.Status.IsEnrolled() {
		return nil, shared.WrapError("command", "ScheduleSession", shared.ErrInvalidState,
			fmt.Sprintf("student status is %q, scheduling requires an active enrollment", string(stud.Status)),
			shared.ErrStudentGraduated)
	}

	// The schedule commits only from the stage immediately before the
	// milestone it advances to: stage 7 for Sempro, stage 10 for the final
	// defense. Anything else is a lifecycle violation, not a conflict.
	if stud.CurrentStage+1 != pol.AdvanceTo {
		return nil, shared.WrapError("command", "ScheduleSession", shared.ErrStateTransition,
			fmt.Sprintf("%s requires the student at stage %d, currently at %d",
				string(cmd.Kind), int(pol.AdvanceTo)-1, int(stud.CurrentStage)),
			shared.ErrStageSkip)
	}

	req := session.Request{
		Kind:         cmd.Kind,
		StudentID:    cmd.StudentID,
		SupervisorID: stud.SupervisorID,
		Date:         cmd.Date,
		Slot:         cmd.Slot,
		RoomID:       cmd.RoomID,
		ExaminerIDs:  cmd.ExaminerIDs,
		Notes:        cmd.Notes,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Examiner quota is a read-modify-write on each panel member's
	// aggregate, so every distinct examiner stays locked from the snapshot
	// through the commit. Keys are sorted: two requests with overlapping
	// panels always acquire in the same order and cannot deadlock.
	unlockPanel, err := lockExaminers(ctx, h.locks, cmd.ExaminerIDs)
	if err != nil {
		return nil, shared.WrapError("command", "ScheduleSession", shared.ErrTimeout,
			"could not acquire examiner locks", err)
	}
	defer unlockPanel()

	snap, examiners, err := h.buildSnapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	if violations := session.CheckConflicts(req, pol, snap); len(violations) > 0 {
		h.publishRejection(cmd, violations)
		return nil, session.NewConflictError(violations)
	}

	sess := session.NewSession(req)
	now := time.Now().UTC()

	// The conflict check above is advisory; the reservation is the atomic
	// commit point. A racing writer that grabbed the slot in between makes
	// Reserve fail with ErrSlotTaken, and nothing is booked.
	if err := h.reserve(ctx, sess); err != nil {
		if shared.IsConflict(err) {
			violations := []session.Violation{{
				Code:    session.ViolationRoomUnavailable,
				Message: fmt.Sprintf("slot %s was taken by a concurrent request", timeutil.SlotKey(req.Date, req.Slot)),
			}}
			h.publishRejection(cmd, violations)
			return nil, session.NewConflictError(violations)
		}
		return nil, fmt.Errorf("schedule_session: reserve slots: %w", err)
	}

	taken, err := h.takeQuotas(ctx, examiners, now)
	if err != nil {
		h.restoreQuotas(ctx, taken, now)
		_ = h.availability.Release(ctx, sess.ID)
		return nil, fmt.Errorf("schedule_session: examiner quota: %w", err)
	}

	if err := h.sessionRepo.Create(ctx, sess); err != nil {
		h.restoreQuotas(ctx, taken, now)
		_ = h.availability.Release(ctx, sess.ID)
		return nil, fmt.Errorf("schedule_session: persist session: %w", err)
	}

	from, err := stud.Advance(pol.AdvanceTo, "session_scheduled", now)
	if err == nil {
		stud.AttachSession(sess.Ref(), now)
		err = h.studentRepo.Update(ctx, stud)
	}
	if err != nil {
		_ = h.sessionRepo.Remove(ctx, sess.ID)
		h.restoreQuotas(ctx, taken, now)
		_ = h.availability.Release(ctx, sess.ID)
		return nil, fmt.Errorf("schedule_session: advance lifecycle: %w", err)
	}

	result := &ScheduleSessionResult{
		Session:     sess,
		FromStage:   from,
		ToStage:     stud.CurrentStage,
		ScheduledAt: now,
		Events:      make([]shared.Event, 0, 2),
	}

	scheduled := shared.NewSessionScheduledEvent(
		sess.ID.String(), sess.Kind.String(), sess.StudentID.String(),
		sess.Date.String(), sess.Slot.String(), sess.RoomID.String(),
		lecturerIDStrings(sess.ExaminerIDs),
	)
	advanced := shared.NewLifecycleAdvancedEvent(stud.ID.String(), from.Int(), stud.CurrentStage.Int(), "session_scheduled")
	if cmd.CorrelationID != "" {
		scheduled.BaseEvent = scheduled.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		advanced.BaseEvent = advanced.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, scheduled, advanced)

	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}

// buildSnapshot loads every examiner and the room and freezes their state
// for the conflict checker. Duplicate examiner IDs reuse one load.
func (h *ScheduleSessionHandler) buildSnapshot(ctx context.Context, req session.Request) (session.Snapshot, []*lecturer.Lecturer, error) {
	var snap session.Snapshot

	loaded := make(map[shared.LecturerID]*lecturer.Lecturer, len(req.ExaminerIDs))
	examiners := make([]*lecturer.Lecturer, 0, len(req.ExaminerIDs))
	for _, id := range req.ExaminerIDs {
		lec, ok := loaded[id]
		if !ok {
			var err error
			lec, err = h.lecturerRepo.GetByID(ctx, id)
			if err != nil {
				return snap, nil, shared.WrapError("command", "ScheduleSession", shared.ErrNotFound,
					fmt.Sprintf("examiner %s", id.String()), err)
			}
			loaded[id] = lec
			examiners = append(examiners, lec)
		}

		free, err := h.availability.IsLecturerFree(ctx, id, req.Date, req.Slot)
		if err != nil {
			return snap, nil, fmt.Errorf("schedule_session: availability of %s: %w", id.String(), err)
		}
		snap.Examiners = append(snap.Examiners, session.ExaminerState{
			ID:             id,
			IndexFree:      free,
			CalendarAllows: lec.Availability.Allows(req.Date, req.Slot),
			QuotaRemaining: lec.Quota.Remaining(),
		})
	}

	if _, err := h.roomRepo.GetByID(ctx, req.RoomID); err != nil {
		return snap, nil, shared.WrapError("command", "ScheduleSession", shared.ErrNotFound,
			fmt.Sprintf("room %s", req.RoomID.String()), err)
	}
	roomFree, err := h.availability.IsRoomFree(ctx, req.RoomID, req.Date, req.Slot)
	if err != nil {
		return snap, nil, fmt.Errorf("schedule_session: availability of room %s: %w", req.RoomID.String(), err)
	}
	snap.RoomFree = roomFree

	return snap, examiners, nil
}

// reserve books all slots atomically, retrying short lock-contention losses.
func (h *ScheduleSessionHandler) reserve(ctx context.Context, sess *session.Session) error {
	return h.retrier.Do(ctx, func(ctx context.Context) error {
		err := h.availability.Reserve(ctx, sess.ID, sess.ExaminerIDs, sess.RoomID, sess.Date, sess.Slot)
		if err == nil {
			return nil
		}
		if shared.IsBusy(err) {
			return retry.Retryable(err)
		}
		return retry.Permanent(err)
	})
}

// takeQuotas consumes one quota unit per distinct examiner. Returns the
// lecturers whose quota was taken, for unwinding on a later failure.
func (h *ScheduleSessionHandler) takeQuotas(ctx context.Context, examiners []*lecturer.Lecturer, now time.Time) ([]*lecturer.Lecturer, error) {
	taken := make([]*lecturer.Lecturer, 0, len(examiners))
	for _, lec := range examiners {
		if err := lec.TakeAssignment(now); err != nil {
			return taken, err
		}
		if err := h.lecturerRepo.Update(ctx, lec); err != nil {
			lec.ReleaseAssignment(now)
			return taken, err
		}
		taken = append(taken, lec)
	}
	return taken, nil
}

// restoreQuotas returns quota units taken during a failed commit.
func (h *ScheduleSessionHandler) restoreQuotas(ctx context.Context, taken []*lecturer.Lecturer, now time.Time) {
	for _, lec := range taken {
		lec.ReleaseAssignment(now)
		_ = h.lecturerRepo.Update(ctx, lec)
	}
}

// publishRejection emits the rejection event with the violation codes.
func (h *ScheduleSessionHandler) publishRejection(cmd ScheduleSessionCommand, violations []session.Violation) {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.String()
	}
	event := shared.NewScheduleRejectedEvent(cmd.StudentID.String(), cmd.Kind.String(), msgs)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)
}

// Helper functions shared across the command handlers.

func studentLockKey(id shared.StudentID) string {
	return "student:" + id.String()
}

func lecturerLockKey(id shared.LecturerID) string {
	return "lecturer:" + id.String()
}

// lockExaminers acquires the lock of every distinct examiner, in sorted key
// order. The returned func releases them all in reverse.
func lockExaminers(ctx context.Context, locks *keylock.KeyLock, ids []shared.LecturerID) (func(), error) {
	distinct := distinctLecturerIDs(ids)
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	unlocks := make([]func(), 0, len(distinct))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, id := range distinct {
		unlock, err := locks.Lock(ctx, lecturerLockKey(id))
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

func lecturerIDStrings(ids []shared.LecturerID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
