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
// RECORD EVALUATION COMMAND
// Records the terminal defense result. Pass graduates and archives the
// student; Fail and Pass-with-Revision send the student back into the
// revision loop at chapter upload, bounded by the revision cap.
// ══════════════════════════════════════════════════════════════════════════════

// RecordEvaluationCommand contains the data to record an outcome.
type RecordEvaluationCommand struct {
	// StudentID is the evaluated student.
	StudentID shared.StudentID

	// Outcome is the recorded result.
	Outcome student.Outcome

	// Reason carries the examiner board's remarks, kept in the stage history
	// for revision outcomes.
	Reason string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordEvaluationCommand) Validate() error {
	if c.StudentID.IsEmpty() {
		return shared.NewDomainError("command", "RecordEvaluation", shared.ErrEmptyValue, "student_id is required")
	}
	if !c.Outcome.IsValid() {
		return shared.NewDomainError("command", "RecordEvaluation", shared.ErrInvalidInput,
			fmt.Sprintf("unknown outcome %q", string(c.Outcome)))
	}
	return nil
}

// RecordEvaluationResult contains the result of recording an outcome.
type RecordEvaluationResult struct {
	// StudentID is the evaluated student.
	StudentID shared.StudentID

	// Outcome is the recorded result.
	Outcome student.Outcome

	// Graduated reports whether the student is now archived.
	Graduated bool

	// Stage is the resulting lifecycle stage: 13 for Pass, 5 for revision
	// outcomes.
	Stage student.Stage

	// RevisionAttempt is the revision count after a regress, zero on Pass.
	RevisionAttempt int

	// Events contains domain events generated.
	Events []shared.Event

	// RecordedAt is when the outcome was recorded.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordEvaluationHandler handles the RecordEvaluationCommand.
type RecordEvaluationHandler struct {
	studentRepo    student.Repository
	eventPublisher shared.EventPublisher

	locks        *keylock.KeyLock
	maxRevisions int
}

// RecordEvaluationHandlerConfig contains configuration for the handler.
type RecordEvaluationHandlerConfig struct {
	// MaxRevisions bounds the Fail / Pass-with-Revision loop.
	MaxRevisions int
}

// DefaultRecordEvaluationHandlerConfig returns default configuration.
func DefaultRecordEvaluationHandlerConfig() RecordEvaluationHandlerConfig {
	return RecordEvaluationHandlerConfig{MaxRevisions: student.DefaultMaxRevisions}
}

// NewRecordEvaluationHandler creates a new RecordEvaluationHandler.
func NewRecordEvaluationHandler(
	studentRepo student.Repository,
	eventPublisher shared.EventPublisher,
	locks *keylock.KeyLock,
	config RecordEvaluationHandlerConfig,
) *RecordEvaluationHandler {
	if config.MaxRevisions <= 0 {
		config = DefaultRecordEvaluationHandlerConfig()
	}

	return &RecordEvaluationHandler{
		studentRepo:    studentRepo,
		eventPublisher: eventPublisher,
		locks:          locks,
		maxRevisions:   config.MaxRevisions,
	}
}

// Handle executes the record evaluation command. A revision outcome past the
// revision cap fails without any state change.
func (h *RecordEvaluationHandler) Handle(ctx context.Context, cmd RecordEvaluationCommand) (*RecordEvaluationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, err := h.locks.Lock(ctx, studentLockKey(cmd.StudentID))
	if err != nil {
		return nil, shared.WrapError("command", "RecordEvaluation", shared.ErrTimeout,
			"could not acquire student lock", err)
	}
	defer unlock()

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("record_evaluation: load student: %w", err)
	}

	now := time.Now().UTC()
	if err := stud.RecordOutcome(cmd.Outcome, now); err != nil {
		return nil, err
	}

	result := &RecordEvaluationResult{
		StudentID:  stud.ID,
		Outcome:    cmd.Outcome,
		RecordedAt: now,
		Events:     make([]shared.Event, 0, 2),
	}

	recorded := shared.NewEvaluationRecordedEvent(stud.ID.String(), string(cmd.Outcome))
	if cmd.CorrelationID != "" {
		recorded.BaseEvent = recorded.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, recorded)

	if cmd.Outcome.RequiresRevision() {
		from, err := stud.Regress(student.StageChapterUpload, cmd.Reason, h.maxRevisions, now)
		if err != nil {
			// Revision cap reached: the outcome stays unrecorded, the student
			// keeps stage 13, and the board escalates outside the system.
			return nil, err
		}
		regressed := shared.NewLifecycleRegressedEvent(
			stud.ID.String(), from.Int(), stud.CurrentStage.Int(), cmd.Reason, stud.RevisionCount)
		if cmd.CorrelationID != "" {
			regressed.BaseEvent = regressed.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		result.Events = append(result.Events, regressed)
		result.RevisionAttempt = stud.RevisionCount
	} else {
		graduated := shared.NewStudentGraduatedEvent(stud.ID.String(), stud.NIM.String(), stud.ThesisTitle)
		if cmd.CorrelationID != "" {
			graduated.BaseEvent = graduated.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		result.Events = append(result.Events, graduated)
		result.Graduated = true
	}

	if err := h.studentRepo.Update(ctx, stud); err != nil {
		return nil, fmt.Errorf("record_evaluation: update student: %w", err)
	}

	result.Stage = stud.CurrentStage
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}
