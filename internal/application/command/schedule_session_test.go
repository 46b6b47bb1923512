package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/memory"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/keylock"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// recordingPublisher collects published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires the command handlers over the in-memory stores.
type testEnv struct {
	students  *memory.StudentStore
	lecturers *memory.LecturerStore
	rooms     *memory.RoomStore
	sessions  *memory.SessionStore
	avail     *memory.AvailabilityIndex
	bus       *recordingPublisher
	locks     *keylock.KeyLock

	schedule   *ScheduleSessionHandler
	cancel     *CancelSessionHandler
	reschedule *RescheduleSessionHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		students:  memory.NewStudentStore(),
		lecturers: memory.NewLecturerStore(),
		rooms:     memory.NewRoomStore(),
		sessions:  memory.NewSessionStore(),
		avail:     memory.NewAvailabilityIndex(),
		bus:       &recordingPublisher{},
		locks:     keylock.New(),
	}
	e.schedule = NewScheduleSessionHandler(
		e.students, e.lecturers, e.rooms, e.sessions, e.avail, e.bus, e.locks,
		DefaultScheduleSessionHandlerConfig(),
	)
	e.cancel = NewCancelSessionHandler(e.students, e.lecturers, e.sessions, e.avail, e.bus, e.locks)
	e.reschedule = NewRescheduleSessionHandler(
		e.students, e.lecturers, e.rooms, e.sessions, e.avail, e.bus, e.locks)
	return e
}

func (e *testEnv) addExaminer(t *testing.T, quota int) *lecturer.Lecturer {
	t.Helper()
	lec, err := lecturer.NewLecturer("Dr. Examiner", "0012345678", lecturer.RoleBoth, quota)
	require.NoError(t, err)
	require.NoError(t, e.lecturers.Create(context.Background(), lec))
	return lec
}

func (e *testEnv) addRoom(t *testing.T) *room.Room {
	t.Helper()
	r, err := room.NewRoom("Ruang Sidang A-301", 20, []string{"projector"})
	require.NoError(t, err)
	require.NoError(t, e.rooms.Create(context.Background(), r))
	return r
}

// addStudentAt seeds an enrolled student parked at the given stage with a
// supervisor assigned.
func (e *testEnv) addStudentAt(t *testing.T, stage student.Stage, supervisor shared.LecturerID, nim shared.NIM) *student.Student {
	t.Helper()
	stud, err := student.NewStudent(nim, "Budi Santoso", "Graph-Based Thesis Matching")
	require.NoError(t, err)
	stud.SupervisorID = supervisor
	stud.CurrentStage = stage
	require.NoError(t, e.students.Create(context.Background(), stud))
	return stud
}

func examinerIDs(lecs ...*lecturer.Lecturer) []shared.LecturerID {
	out := make([]shared.LecturerID, len(lecs))
	for i, l := range lecs {
		out[i] = l.ID
	}
	return out
}

const (
	testDate = timeutil.DefenseDate("2026-09-14")
	testSlot = timeutil.Slot0800
)

func TestScheduleSession_SemproSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	ex1 := env.addExaminer(t, 5)
	ex2 := env.addExaminer(t, 5)
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210001")

	result, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   stud.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Session)

	assert.Equal(t, student.StageSemproApplication, result.FromStage)
	assert.Equal(t, student.StageSemproScheduled, result.ToStage)

	// The student advanced and carries the session reference.
	updated, err := env.students.GetByID(ctx, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StageSemproScheduled, updated.CurrentStage)
	assert.True(t, updated.IsScheduled)
	require.Len(t, updated.ScheduledSessions, 1)
	assert.Equal(t, result.Session.ID, updated.ScheduledSessions[0].SessionID)

	// Each examiner's quota incremented by one.
	for _, id := range []shared.LecturerID{ex1.ID, ex2.ID} {
		lec, err := env.lecturers.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, lec.Quota.Used)
	}

	// Slots are booked for the panel and the room.
	free, err := env.avail.IsLecturerFree(ctx, ex1.ID, testDate, testSlot)
	require.NoError(t, err)
	assert.False(t, free)
	free, err = env.avail.IsRoomFree(ctx, rm.ID, testDate, testSlot)
	require.NoError(t, err)
	assert.False(t, free)

	assert.Len(t, env.bus.byType(shared.EventSessionScheduled), 1)
	assert.Len(t, env.bus.byType(shared.EventLifecycleAdvanced), 1)
}

func TestScheduleSession_QuotaExhaustedLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	ex1 := env.addExaminer(t, 5)
	full := env.addExaminer(t, 1)
	full.Quota.Used = 1
	require.NoError(t, env.lecturers.Update(ctx, full))
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210002")

	_, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   stud.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, full),
	})
	require.Error(t, err)

	ce, ok := session.AsConflictError(err)
	require.True(t, ok, "expected a conflict error, got %v", err)
	require.Len(t, ce.Violations, 1)
	assert.Equal(t, session.ViolationQuotaExceeded, ce.Violations[0].Code)
	assert.Equal(t, full.ID.String(), ce.Violations[0].ResourceID)

	// Zero state change: stage, quota, and availability untouched.
	unchanged, err := env.students.GetByID(ctx, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StageSemproApplication, unchanged.CurrentStage)
	assert.False(t, unchanged.IsScheduled)

	lec, err := env.lecturers.GetByID(ctx, ex1.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, lec.Quota.Used)

	free, err := env.avail.IsRoomFree(ctx, rm.ID, testDate, testSlot)
	require.NoError(t, err)
	assert.True(t, free)

	sessions, err := env.sessions.List(ctx, session.Filter{StudentID: stud.ID})
	require.NoError(t, err)
	assert.Empty(t, sessions)

	assert.Len(t, env.bus.byType(shared.EventScheduleRejected), 1)
}

func TestScheduleSession_FinalDefenseNeedsThreeExaminers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	ex1 := env.addExaminer(t, 5)
	ex2 := env.addExaminer(t, 5)
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageFinalApplication, sup.ID, "20210003")

	_, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindFinalDefense,
		StudentID:   stud.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2),
	})
	require.Error(t, err)

	ce, ok := session.AsConflictError(err)
	require.True(t, ok)
	require.Len(t, ce.Violations, 1)
	assert.Equal(t, session.ViolationExaminerCount, ce.Violations[0].Code)
}

func TestScheduleSession_SupervisorBarredFromFinalPanel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	ex1 := env.addExaminer(t, 5)
	ex2 := env.addExaminer(t, 5)
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageFinalApplication, sup.ID, "20210004")

	_, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindFinalDefense,
		StudentID:   stud.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2, sup),
	})
	require.Error(t, err)

	ce, ok := session.AsConflictError(err)
	require.True(t, ok)
	require.Len(t, ce.Violations, 1)
	assert.Equal(t, session.ViolationSupervisorOverlap, ce.Violations[0].Code)
}

func TestScheduleSession_RoomConflictAcrossStudents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 10)
	ex1 := env.addExaminer(t, 10)
	ex2 := env.addExaminer(t, 10)
	ex3 := env.addExaminer(t, 10)
	ex4 := env.addExaminer(t, 10)
	rm := env.addRoom(t)

	first := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210005")
	_, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   first.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2),
	})
	require.NoError(t, err)

	second := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210006")
	_, err = env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   second.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex3, ex4),
	})
	require.Error(t, err)

	ce, ok := session.AsConflictError(err)
	require.True(t, ok)
	require.Len(t, ce.Violations, 1)
	assert.Equal(t, session.ViolationRoomUnavailable, ce.Violations[0].Code)
}

func TestScheduleSession_WrongStageIsNotAConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	ex1 := env.addExaminer(t, 5)
	ex2 := env.addExaminer(t, 5)
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageChapterUpload, sup.ID, "20210007")

	_, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   stud.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2),
	})
	require.Error(t, err)
	assert.True(t, shared.IsTransition(err), "expected a lifecycle transition error, got %v", err)

	_, isConflict := session.AsConflictError(err)
	assert.False(t, isConflict)
}

func TestCancelSession_FreesEverythingKeepsStage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	ex1 := env.addExaminer(t, 5)
	ex2 := env.addExaminer(t, 5)
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210008")

	scheduled, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   stud.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2),
	})
	require.NoError(t, err)

	result, err := env.cancel.Handle(ctx, CancelSessionCommand{
		SessionID: scheduled.Session.ID,
		Reason:    "examiner called in sick",
	})
	require.NoError(t, err)

	// Stage stays at 8: cancellation does not regress the lifecycle.
	assert.Equal(t, student.StageSemproScheduled, result.Stage)

	updated, err := env.students.GetByID(ctx, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, student.StageSemproScheduled, updated.CurrentStage)
	assert.False(t, updated.IsScheduled)
	assert.Empty(t, updated.ScheduledSessions)

	// Quota and slots returned.
	lec, err := env.lecturers.GetByID(ctx, ex1.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, lec.Quota.Used)

	free, err := env.avail.IsRoomFree(ctx, rm.ID, testDate, testSlot)
	require.NoError(t, err)
	assert.True(t, free)

	_, err = env.sessions.GetByID(ctx, scheduled.Session.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Len(t, env.bus.byType(shared.EventSessionCancelled), 1)
}

func TestRescheduleSession_MovesBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	ex1 := env.addExaminer(t, 5)
	ex2 := env.addExaminer(t, 5)
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210009")

	scheduled, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   stud.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2),
	})
	require.NoError(t, err)

	newSlot := timeutil.Slot1300
	result, err := env.reschedule.Handle(ctx, RescheduleSessionCommand{
		SessionID: scheduled.Session.ID,
		Date:      testDate,
		Slot:      newSlot,
	})
	require.NoError(t, err)
	assert.Equal(t, testSlot, result.OldSlot)
	assert.Equal(t, newSlot, result.Session.Slot)

	// Old slot reopened, new slot booked, panel and quota untouched.
	free, err := env.avail.IsRoomFree(ctx, rm.ID, testDate, testSlot)
	require.NoError(t, err)
	assert.True(t, free)
	free, err = env.avail.IsRoomFree(ctx, rm.ID, testDate, newSlot)
	require.NoError(t, err)
	assert.False(t, free)

	lec, err := env.lecturers.GetByID(ctx, ex1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, lec.Quota.Used)

	stored, err := env.sessions.GetByID(ctx, scheduled.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, newSlot, stored.Slot)
	assert.Equal(t, scheduled.Session.ExaminerIDs, stored.ExaminerIDs)

	assert.Len(t, env.bus.byType(shared.EventSessionRescheduled), 1)
}

func TestRescheduleSession_ConflictRestoresOldBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 10)
	ex1 := env.addExaminer(t, 10)
	ex2 := env.addExaminer(t, 10)
	ex3 := env.addExaminer(t, 10)
	ex4 := env.addExaminer(t, 10)
	rm := env.addRoom(t)

	first := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210010")
	_, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   first.ID,
		Date:        testDate,
		Slot:        timeutil.Slot1300,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2),
	})
	require.NoError(t, err)

	second := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210011")
	moved, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   second.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex3, ex4),
	})
	require.NoError(t, err)

	// Moving onto the blocker's slot conflicts on the room.
	_, err = env.reschedule.Handle(ctx, RescheduleSessionCommand{
		SessionID: moved.Session.ID,
		Date:      testDate,
		Slot:      timeutil.Slot1300,
	})
	require.Error(t, err)
	_, ok := session.AsConflictError(err)
	require.True(t, ok)

	// The original booking is back in place.
	free, err := env.avail.IsRoomFree(ctx, rm.ID, testDate, testSlot)
	require.NoError(t, err)
	assert.False(t, free)

	stored, err := env.sessions.GetByID(ctx, moved.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, testSlot, stored.Slot)
}

func TestScheduleSession_LecturerDeclaredBusyBlocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	ex1 := env.addExaminer(t, 5)
	ex2 := env.addExaminer(t, 5)
	ex1.Availability.Mark(testDate, testSlot, lecturer.SlotBusy)
	require.NoError(t, env.lecturers.Update(ctx, ex1))
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210012")

	_, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
		Kind:        session.KindSempro,
		StudentID:   stud.ID,
		Date:        testDate,
		Slot:        testSlot,
		RoomID:      rm.ID,
		ExaminerIDs: examinerIDs(ex1, ex2),
	})
	require.Error(t, err)

	ce, ok := session.AsConflictError(err)
	require.True(t, ok)
	require.Len(t, ce.Violations, 1)
	assert.Equal(t, session.ViolationExaminerUnavailable, ce.Violations[0].Code)
	assert.Equal(t, ex1.ID.String(), ce.Violations[0].ResourceID)
}

func TestScheduleSession_ConcurrentRequestsOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 50)
	shared1 := env.addExaminer(t, 50)
	shared2 := env.addExaminer(t, 50)
	rm := env.addRoom(t)

	const n = 8
	students := make([]*student.Student, n)
	for i := 0; i < n; i++ {
		students[i] = env.addStudentAt(t, student.StageSemproApplication, sup.ID,
			shared.NIM("2021100"+string(rune('0'+i))))
	}

	var wg sync.WaitGroup
	wins := make(chan shared.SessionID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(stud *student.Student) {
			defer wg.Done()
			result, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
				Kind:        session.KindSempro,
				StudentID:   stud.ID,
				Date:        testDate,
				Slot:        testSlot,
				RoomID:      rm.ID,
				ExaminerIDs: examinerIDs(shared1, shared2),
			})
			if err == nil {
				wins <- result.Session.ID
			}
		}(students[i])
	}
	wg.Wait()
	close(wins)

	var winners []shared.SessionID
	for id := range wins {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1, "exactly one racing request may book the shared panel and room")

	lec, err := env.lecturers.GetByID(ctx, shared1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, lec.Quota.Used, "losers must not leak quota")
}

func TestScheduleSession_ConcurrentQuotaContention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 50)
	other := env.addExaminer(t, 50)
	scarce := env.addExaminer(t, 1)
	rm := env.addRoom(t)

	// Different slots: the only contended resource is the scarce
	// examiner's single quota unit.
	slots := []timeutil.Slot{timeutil.Slot0800, timeutil.Slot1030, timeutil.Slot1300, timeutil.Slot1430}
	students := make([]*student.Student, len(slots))
	for i := range slots {
		students[i] = env.addStudentAt(t, student.StageSemproApplication, sup.ID,
			shared.NIM("2021200"+string(rune('0'+i))))
	}

	var wg sync.WaitGroup
	wins := make(chan shared.SessionID, len(slots))
	quotaLosses := make(chan struct{}, len(slots))
	for i := range slots {
		wg.Add(1)
		go func(stud *student.Student, slot timeutil.Slot) {
			defer wg.Done()
			result, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
				Kind:        session.KindSempro,
				StudentID:   stud.ID,
				Date:        testDate,
				Slot:        slot,
				RoomID:      rm.ID,
				ExaminerIDs: examinerIDs(other, scarce),
			})
			if err == nil {
				wins <- result.Session.ID
				return
			}
			if ce, ok := session.AsConflictError(err); ok {
				for _, v := range ce.Violations {
					if v.Code == session.ViolationQuotaExceeded {
						quotaLosses <- struct{}{}
						return
					}
				}
			}
			t.Errorf("unexpected error for %s: %v", stud.ID, err)
		}(students[i], slots[i])
	}
	wg.Wait()
	close(wins)
	close(quotaLosses)

	require.Len(t, wins, 1, "a single quota unit admits exactly one commit")
	assert.Len(t, quotaLosses, len(slots)-1)

	// The stored aggregate agrees with the committed sessions: one unit
	// used, one session referencing the examiner.
	lec, err := env.lecturers.GetByID(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, lec.Quota.Used)

	committed, err := env.sessions.List(ctx, session.Filter{ExaminerID: scarce.ID})
	require.NoError(t, err)
	assert.Len(t, committed, 1)
}

func TestCancelSession_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.cancel.Handle(context.Background(), CancelSessionCommand{
		SessionID: shared.SessionID("11111111-1111-1111-1111-111111111111"),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestScheduleSession_ViolationOrderIsStable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sup := env.addExaminer(t, 5)
	full := env.addExaminer(t, 1)
	full.Quota.Used = 1
	full.Availability.Mark(testDate, testSlot, lecturer.SlotBusy)
	require.NoError(t, env.lecturers.Update(ctx, full))
	rm := env.addRoom(t)
	stud := env.addStudentAt(t, student.StageSemproApplication, sup.ID, "20210013")

	for i := 0; i < 3; i++ {
		_, err := env.schedule.Handle(ctx, ScheduleSessionCommand{
			Kind:        session.KindSempro,
			StudentID:   stud.ID,
			Date:        testDate,
			Slot:        testSlot,
			RoomID:      rm.ID,
			ExaminerIDs: []shared.LecturerID{full.ID},
		})
		require.Error(t, err)

		ce, ok := session.AsConflictError(err)
		require.True(t, ok)
		require.Len(t, ce.Violations, 3)
		assert.Equal(t, session.ViolationExaminerCount, ce.Violations[0].Code)
		assert.Equal(t, session.ViolationExaminerUnavailable, ce.Violations[1].Code)
		assert.Equal(t, session.ViolationQuotaExceeded, ce.Violations[2].Code)
	}
}
