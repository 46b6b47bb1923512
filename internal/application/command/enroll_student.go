package command

import (
	"context"
	"fmt"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/keylock"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL STUDENT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// EnrollStudentCommand contains the data to enroll a new student.
type EnrollStudentCommand struct {
	// NIM is the registrar-issued registration number.
	NIM shared.NIM

	// Name is the student's display name.
	Name string

	// ThesisTitle is the proposed thesis title, optional at enrollment.
	ThesisTitle string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EnrollStudentCommand) Validate() error {
	if !c.NIM.IsValid() {
		return shared.ErrInvalidNIM
	}
	if c.Name == "" {
		return shared.NewDomainError("command", "EnrollStudent", shared.ErrEmptyValue, "name is required")
	}
	return nil
}

// EnrollStudentResult contains the result of an enrollment.
type EnrollStudentResult struct {
	// Student is the created record, at the first lifecycle stage.
	Student *student.Student

	// Events contains domain events generated.
	Events []shared.Event

	// EnrolledAt is when the record was created.
	EnrolledAt time.Time
}

// EnrollStudentHandler handles the EnrollStudentCommand.
type EnrollStudentHandler struct {
	studentRepo    student.Repository
	eventPublisher shared.EventPublisher
}

// NewEnrollStudentHandler creates a new EnrollStudentHandler.
func NewEnrollStudentHandler(studentRepo student.Repository, eventPublisher shared.EventPublisher) *EnrollStudentHandler {
	return &EnrollStudentHandler{studentRepo: studentRepo, eventPublisher: eventPublisher}
}

// Handle executes the enroll student command. A NIM collision fails with
// ErrAlreadyExists.
func (h *EnrollStudentHandler) Handle(ctx context.Context, cmd EnrollStudentCommand) (*EnrollStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	stud, err := student.NewStudent(cmd.NIM, cmd.Name, cmd.ThesisTitle)
	if err != nil {
		return nil, err
	}
	if err := h.studentRepo.Create(ctx, stud); err != nil {
		return nil, fmt.Errorf("enroll_student: persist student: %w", err)
	}

	event := shared.NewStudentEnrolledEvent(stud.ID.String(), stud.NIM.String(), stud.Name)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &EnrollStudentResult{
		Student:    stud,
		Events:     []shared.Event{event},
		EnrolledAt: stud.CreatedAt,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGN SUPERVISOR COMMAND
// Assigns the supervising lecturer and, when the student sits at stage 1,
// completes the supervisor-assignment milestone.
// ══════════════════════════════════════════════════════════════════════════════

// AssignSupervisorCommand contains the data to assign a supervisor.
type AssignSupervisorCommand struct {
	// StudentID is the student being assigned.
	StudentID shared.StudentID

	// SupervisorID is the supervising lecturer.
	SupervisorID shared.LecturerID

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AssignSupervisorCommand) Validate() error {
	if c.StudentID.IsEmpty() {
		return shared.NewDomainError("command", "AssignSupervisor", shared.ErrEmptyValue, "student_id is required")
	}
	if c.SupervisorID.IsEmpty() {
		return shared.NewDomainError("command", "AssignSupervisor", shared.ErrEmptyValue, "supervisor_id is required")
	}
	return nil
}

// AssignSupervisorResult contains the result of an assignment.
type AssignSupervisorResult struct {
	// StudentID is the assigned student.
	StudentID shared.StudentID

	// SupervisorID is the assigned lecturer.
	SupervisorID shared.LecturerID

	// Stage is the student's lifecycle stage after the assignment.
	Stage student.Stage

	// Events contains domain events generated.
	Events []shared.Event

	// AssignedAt is when the assignment happened.
	AssignedAt time.Time
}

// AssignSupervisorHandler handles the AssignSupervisorCommand.
type AssignSupervisorHandler struct {
	studentRepo    student.Repository
	lecturerRepo   lecturer.Repository
	eventPublisher shared.EventPublisher

	locks *keylock.KeyLock
}

// NewAssignSupervisorHandler creates a new AssignSupervisorHandler.
func NewAssignSupervisorHandler(
	studentRepo student.Repository,
	lecturerRepo lecturer.Repository,
	eventPublisher shared.EventPublisher,
	locks *keylock.KeyLock,
) *AssignSupervisorHandler {
	return &AssignSupervisorHandler{
		studentRepo:    studentRepo,
		lecturerRepo:   lecturerRepo,
		eventPublisher: eventPublisher,
		locks:          locks,
	}
}

// Handle executes the assign supervisor command.
func (h *AssignSupervisorHandler) Handle(ctx context.Context, cmd AssignSupervisorCommand) (*AssignSupervisorResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	lec, err := h.lecturerRepo.GetByID(ctx, cmd.SupervisorID)
	if err != nil {
		return nil, fmt.Errorf("assign_supervisor: load lecturer: %w", err)
	}
	if !lec.Role.CanSupervise() {
		return nil, shared.NewDomainError("command", "AssignSupervisor", shared.ErrInvalidState,
			fmt.Sprintf("lecturer role %q cannot supervise", string(lec.Role)))
	}

	unlock, err := h.locks.Lock(ctx, studentLockKey(cmd.StudentID))
	if err != nil {
		return nil, shared.WrapError("command", "AssignSupervisor", shared.ErrTimeout,
			"could not acquire student lock", err)
	}
	defer unlock()

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("assign_supervisor: load student: %w", err)
	}

	now := time.Now().UTC()
	if err := stud.AssignSupervisor(cmd.SupervisorID, now); err != nil {
		return nil, err
	}

	result := &AssignSupervisorResult{
		StudentID:    stud.ID,
		SupervisorID: cmd.SupervisorID,
		AssignedAt:   now,
		Events:       make([]shared.Event, 0, 1),
	}

	// A first-time assignment at stage 1 completes the milestone.
	if stud.CurrentStage == student.StageTitleSubmission {
		from, err := stud.Advance(student.StageSupervisorAssignment, "supervisor_assigned", now)
		if err == nil {
			advanced := shared.NewLifecycleAdvancedEvent(
				stud.ID.String(), from.Int(), stud.CurrentStage.Int(), "supervisor_assigned")
			if cmd.CorrelationID != "" {
				advanced.BaseEvent = advanced.BaseEvent.WithCorrelationID(cmd.CorrelationID)
			}
			result.Events = append(result.Events, advanced)
		}
	}

	if err := h.studentRepo.Update(ctx, stud); err != nil {
		return nil, fmt.Errorf("assign_supervisor: update student: %w", err)
	}

	result.Stage = stud.CurrentStage
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}
