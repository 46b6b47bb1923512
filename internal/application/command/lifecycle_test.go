package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/calendar"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/memory"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/keylock"
)

func TestEnrollStudent(t *testing.T) {
	students := memory.NewStudentStore()
	bus := &recordingPublisher{}
	h := NewEnrollStudentHandler(students, bus)
	ctx := context.Background()

	result, err := h.Handle(ctx, EnrollStudentCommand{
		NIM:         "20210101",
		Name:        "Siti Rahma",
		ThesisTitle: "Slot Allocation Under Quota Constraints",
	})
	require.NoError(t, err)
	assert.Equal(t, student.StageTitleSubmission, result.Student.CurrentStage)
	assert.Equal(t, student.StatusActive, result.Student.Status)
	assert.Len(t, bus.byType(shared.EventStudentEnrolled), 1)

	// Same NIM again is rejected.
	_, err = h.Handle(ctx, EnrollStudentCommand{NIM: "20210101", Name: "Someone Else"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestAssignSupervisor_CompletesFirstMilestone(t *testing.T) {
	students := memory.NewStudentStore()
	lecturers := memory.NewLecturerStore()
	bus := &recordingPublisher{}
	locks := keylock.New()
	ctx := context.Background()

	enroll := NewEnrollStudentHandler(students, bus)
	enrolled, err := enroll.Handle(ctx, EnrollStudentCommand{NIM: "20210102", Name: "Budi"})
	require.NoError(t, err)

	sup, err := lecturer.NewLecturer("Dr. Supervisor", "0098765432", lecturer.RoleSupervisor, 5)
	require.NoError(t, err)
	require.NoError(t, lecturers.Create(ctx, sup))

	h := NewAssignSupervisorHandler(students, lecturers, bus, locks)
	result, err := h.Handle(ctx, AssignSupervisorCommand{
		StudentID:    enrolled.Student.ID,
		SupervisorID: sup.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, student.StageSupervisorAssignment, result.Stage)

	stored, err := students.GetByID(ctx, enrolled.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, sup.ID, stored.SupervisorID)
}

func TestAssignSupervisor_ExaminerOnlyRoleRejected(t *testing.T) {
	students := memory.NewStudentStore()
	lecturers := memory.NewLecturerStore()
	bus := &recordingPublisher{}
	ctx := context.Background()

	enroll := NewEnrollStudentHandler(students, bus)
	enrolled, err := enroll.Handle(ctx, EnrollStudentCommand{NIM: "20210103", Name: "Budi"})
	require.NoError(t, err)

	examinerOnly, err := lecturer.NewLecturer("Dr. Examiner", "0011223344", lecturer.RoleExaminer, 5)
	require.NoError(t, err)
	require.NoError(t, lecturers.Create(ctx, examinerOnly))

	h := NewAssignSupervisorHandler(students, lecturers, bus, keylock.New())
	_, err = h.Handle(ctx, AssignSupervisorCommand{
		StudentID:    enrolled.Student.ID,
		SupervisorID: examinerOnly.ID,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestAdvanceLifecycle_OneStepOnly(t *testing.T) {
	students := memory.NewStudentStore()
	bus := &recordingPublisher{}
	h := NewAdvanceLifecycleHandler(students, bus, keylock.New())
	ctx := context.Background()

	stud, err := student.NewStudent("20210104", "Budi", "")
	require.NoError(t, err)
	stud.CurrentStage = student.StageTitleValidation
	require.NoError(t, students.Create(ctx, stud))

	result, err := h.Handle(ctx, AdvanceLifecycleCommand{StudentID: stud.ID})
	require.NoError(t, err)
	assert.Equal(t, student.StageTitleValidation, result.FromStage)
	assert.Equal(t, student.StageFirstMentoring, result.ToStage)
	assert.Equal(t, 31, result.ProgressPercent)

	// Skipping ahead is refused.
	_, err = h.Handle(ctx, AdvanceLifecycleCommand{
		StudentID: stud.ID,
		ToStage:   student.StageSemproApplication,
	})
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}

func TestAdvanceLifecycle_ScheduledStagesRequireSession(t *testing.T) {
	students := memory.NewStudentStore()
	bus := &recordingPublisher{}
	h := NewAdvanceLifecycleHandler(students, bus, keylock.New())
	ctx := context.Background()

	stud, err := student.NewStudent("20210105", "Budi", "")
	require.NoError(t, err)
	stud.CurrentStage = student.StageSemproApplication
	require.NoError(t, students.Create(ctx, stud))

	_, err = h.Handle(ctx, AdvanceLifecycleCommand{StudentID: stud.ID})
	require.ErrorIs(t, err, shared.ErrStateTransition)

	stored, err := students.GetByID(ctx, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StageSemproApplication, stored.CurrentStage)
}

func TestRecordEvaluation_PassGraduates(t *testing.T) {
	students := memory.NewStudentStore()
	bus := &recordingPublisher{}
	h := NewRecordEvaluationHandler(students, bus, keylock.New(), DefaultRecordEvaluationHandlerConfig())
	ctx := context.Background()

	stud, err := student.NewStudent("20210106", "Budi", "A Thesis")
	require.NoError(t, err)
	stud.CurrentStage = student.StageResultRevision
	require.NoError(t, students.Create(ctx, stud))

	result, err := h.Handle(ctx, RecordEvaluationCommand{
		StudentID: stud.ID,
		Outcome:   student.OutcomePass,
	})
	require.NoError(t, err)
	assert.True(t, result.Graduated)
	assert.Equal(t, student.StageResultRevision, result.Stage)

	stored, err := students.GetByID(ctx, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StatusGraduated, stored.Status)
	assert.False(t, stored.GraduatedAt.IsZero())

	assert.Len(t, bus.byType(shared.EventEvaluationRecorded), 1)
	assert.Len(t, bus.byType(shared.EventStudentGraduated), 1)

	// The record is immutable from here.
	_, err = h.Handle(ctx, RecordEvaluationCommand{StudentID: stud.ID, Outcome: student.OutcomeFail})
	assert.ErrorIs(t, err, shared.ErrImmutable)
}

func TestRecordEvaluation_FailRegressesToChapterUpload(t *testing.T) {
	students := memory.NewStudentStore()
	bus := &recordingPublisher{}
	h := NewRecordEvaluationHandler(students, bus, keylock.New(), DefaultRecordEvaluationHandlerConfig())
	ctx := context.Background()

	stud, err := student.NewStudent("20210107", "Budi", "A Thesis")
	require.NoError(t, err)
	stud.CurrentStage = student.StageResultRevision
	require.NoError(t, students.Create(ctx, stud))

	result, err := h.Handle(ctx, RecordEvaluationCommand{
		StudentID: stud.ID,
		Outcome:   student.OutcomeFail,
		Reason:    "methodology chapter incomplete",
	})
	require.NoError(t, err)
	assert.False(t, result.Graduated)
	assert.Equal(t, student.StageChapterUpload, result.Stage)
	assert.Equal(t, 1, result.RevisionAttempt)

	stored, err := students.GetByID(ctx, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StageChapterUpload, stored.CurrentStage)
	assert.Equal(t, student.OutcomeNone, stored.Outcome)
	assert.Equal(t, student.StatusActive, stored.Status)

	assert.Len(t, bus.byType(shared.EventLifecycleRegressed), 1)
}

func TestRecordEvaluation_RevisionCapBlocksFurtherLoops(t *testing.T) {
	students := memory.NewStudentStore()
	bus := &recordingPublisher{}
	h := NewRecordEvaluationHandler(students, bus, keylock.New(), RecordEvaluationHandlerConfig{MaxRevisions: 2})
	ctx := context.Background()

	stud, err := student.NewStudent("20210108", "Budi", "A Thesis")
	require.NoError(t, err)
	stud.CurrentStage = student.StageResultRevision
	stud.RevisionCount = 2
	require.NoError(t, students.Create(ctx, stud))

	_, err = h.Handle(ctx, RecordEvaluationCommand{
		StudentID: stud.ID,
		Outcome:   student.OutcomePassRevision,
		Reason:    "figures still wrong",
	})
	require.ErrorIs(t, err, shared.ErrStateTransition)

	// Nothing persisted: stage and outcome unchanged.
	stored, err := students.GetByID(ctx, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StageResultRevision, stored.CurrentStage)
	assert.Equal(t, student.OutcomeNone, stored.Outcome)
	assert.Equal(t, 2, stored.RevisionCount)
}

func TestCalendarCommands_UniquePairPerSemester(t *testing.T) {
	store := memory.NewCalendarStore()
	guard := calendar.NewGuard(store)
	bus := &recordingPublisher{}
	create := NewCreateCalendarEventHandler(guard, bus)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	first, err := create.Handle(ctx, CreateCalendarEventCommand{
		Name:      "Seminar Period",
		Kind:      calendar.KindSeminar,
		Semester:  "2026/2027-ganjil",
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	assert.Len(t, bus.byType(shared.EventCalendarEventCreated), 1)

	// A second seminar event in the same semester is refused.
	_, err = create.Handle(ctx, CreateCalendarEventCommand{
		Name:      "Another Seminar Period",
		Kind:      calendar.KindSeminar,
		Semester:  "2026/2027-ganjil",
		StartDate: start,
		EndDate:   end,
	})
	require.ErrorIs(t, err, shared.ErrDuplicateEvent)

	// The same kind in a different semester is fine.
	_, err = create.Handle(ctx, CreateCalendarEventCommand{
		Name:      "Seminar Period",
		Kind:      calendar.KindSeminar,
		Semester:  "2026/2027-genap",
		StartDate: start.AddDate(0, 5, 0),
		EndDate:   end.AddDate(0, 5, 0),
	})
	require.NoError(t, err)

	// Editing the existing event does not collide with itself.
	update := NewUpdateCalendarEventHandler(store, guard, bus)
	edited, err := update.Handle(ctx, UpdateCalendarEventCommand{
		EventID: first.Event.ID,
		Name:    "Seminar Period (extended)",
		EndDate: end.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	assert.Equal(t, "Seminar Period (extended)", edited.Name)
	assert.Len(t, bus.byType(shared.EventCalendarEventUpdated), 1)
}
