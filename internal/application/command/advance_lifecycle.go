package command

import (
	"context"
	"fmt"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/keylock"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADVANCE LIFECYCLE COMMAND
// Moves a student one milestone forward. The scheduled stages (8 and 11) are
// reached only by committing a session; the manual advance refuses them.
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceLifecycleCommand contains the data to advance a student.
type AdvanceLifecycleCommand struct {
	// StudentID is the student to move.
	StudentID shared.StudentID

	// ToStage is the target milestone. Zero means "the next stage".
	ToStage student.Stage

	// Trigger names what caused the transition, defaulting to "manual".
	Trigger string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AdvanceLifecycleCommand) Validate() error {
	if c.StudentID.IsEmpty() {
		return shared.NewDomainError("command", "AdvanceLifecycle", shared.ErrEmptyValue, "student_id is required")
	}
	if c.ToStage != 0 && !c.ToStage.IsValid() {
		return shared.NewDomainError("command", "AdvanceLifecycle", shared.ErrValueOutOfRange,
			fmt.Sprintf("stage %d outside 1..%d", int(c.ToStage), student.StageCount))
	}
	return nil
}

// AdvanceLifecycleResult contains the result of an advance.
type AdvanceLifecycleResult struct {
	// StudentID is the moved student.
	StudentID shared.StudentID

	// FromStage and ToStage record the transition.
	FromStage student.Stage
	ToStage   student.Stage

	// ProgressPercent is the derived progress after the move.
	ProgressPercent int

	// Events contains domain events generated.
	Events []shared.Event

	// AdvancedAt is when the move happened.
	AdvancedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceLifecycleHandler handles the AdvanceLifecycleCommand.
type AdvanceLifecycleHandler struct {
	studentRepo    student.Repository
	eventPublisher shared.EventPublisher

	locks *keylock.KeyLock
}

// NewAdvanceLifecycleHandler creates a new AdvanceLifecycleHandler.
func NewAdvanceLifecycleHandler(
	studentRepo student.Repository,
	eventPublisher shared.EventPublisher,
	locks *keylock.KeyLock,
) *AdvanceLifecycleHandler {
	return &AdvanceLifecycleHandler{
		studentRepo:    studentRepo,
		eventPublisher: eventPublisher,
		locks:          locks,
	}
}

// Handle executes the advance lifecycle command.
func (h *AdvanceLifecycleHandler) Handle(ctx context.Context, cmd AdvanceLifecycleCommand) (*AdvanceLifecycleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, err := h.locks.Lock(ctx, studentLockKey(cmd.StudentID))
	if err != nil {
		return nil, shared.WrapError("command", "AdvanceLifecycle", shared.ErrTimeout,
			"could not acquire student lock", err)
	}
	defer unlock()

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("advance_lifecycle: load student: %w", err)
	}

	to := cmd.ToStage
	if to == 0 {
		to = stud.CurrentStage + 1
	}
	if to == student.StageSemproScheduled || to == student.StageFinalScheduled {
		return nil, shared.WrapError("command", "AdvanceLifecycle", shared.ErrStateTransition,
			fmt.Sprintf("stage %d is reached only by committing a defense session", int(to)),
			shared.ErrStageSkip)
	}

	trigger := cmd.Trigger
	if trigger == "" {
		trigger = "manual"
	}

	now := time.Now().UTC()
	from, err := stud.Advance(to, trigger, now)
	if err != nil {
		return nil, err
	}
	if err := h.studentRepo.Update(ctx, stud); err != nil {
		return nil, fmt.Errorf("advance_lifecycle: update student: %w", err)
	}

	event := shared.NewLifecycleAdvancedEvent(stud.ID.String(), from.Int(), to.Int(), trigger)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &AdvanceLifecycleResult{
		StudentID:       stud.ID,
		FromStage:       from,
		ToStage:         stud.CurrentStage,
		ProgressPercent: stud.ProgressPercent(),
		Events:          []shared.Event{event},
		AdvancedAt:      now,
	}, nil
}
