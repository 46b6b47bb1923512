package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/memory"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

const (
	queryDate = timeutil.DefenseDate("2026-09-21")
	querySlot = timeutil.Slot0900
)

func TestGetAvailability_GridReflectsBookingsAndCalendars(t *testing.T) {
	ctx := context.Background()
	lecturers := memory.NewLecturerStore()
	rooms := memory.NewRoomStore()
	avail := memory.NewAvailabilityIndex()

	booked, err := lecturer.NewLecturer("Dr. Booked", "0011111111", lecturer.RoleBoth, 5)
	require.NoError(t, err)
	declared, err := lecturer.NewLecturer("Dr. Declared", "0022222222", lecturer.RoleBoth, 5)
	require.NoError(t, err)
	declared.Availability.Mark(queryDate, querySlot, lecturer.SlotBusy)
	supervisorOnly, err := lecturer.NewLecturer("Dr. Supervisor", "0033333333", lecturer.RoleSupervisor, 5)
	require.NoError(t, err)
	for _, lec := range []*lecturer.Lecturer{booked, declared, supervisorOnly} {
		require.NoError(t, lecturers.Create(ctx, lec))
	}

	rm, err := room.NewRoom("Ruang Sidang B-102", 15, nil)
	require.NoError(t, err)
	require.NoError(t, rooms.Create(ctx, rm))

	sessionID := shared.SessionID("22222222-2222-2222-2222-222222222222")
	require.NoError(t, avail.Reserve(ctx, sessionID,
		[]shared.LecturerID{booked.ID}, rm.ID, queryDate, querySlot))

	h := NewGetAvailabilityHandler(lecturers, rooms, avail, nil)
	result, err := h.Handle(ctx, GetAvailabilityQuery{DateFrom: queryDate})
	require.NoError(t, err)
	require.Len(t, result.Days, 1)
	require.Len(t, result.Days[0].Slots, len(timeutil.AllSlots()))

	var row *SlotGridDTO
	for i := range result.Days[0].Slots {
		if result.Days[0].Slots[i].Slot == querySlot.String() {
			row = &result.Days[0].Slots[i]
		}
	}
	require.NotNil(t, row)

	assert.False(t, row.Lecturers[booked.ID.String()], "index booking must show busy")
	assert.False(t, row.Lecturers[declared.ID.String()], "declared-busy mark must show busy")
	assert.False(t, row.Rooms[rm.ID.String()], "room booking must show busy")

	// Supervisor-only lecturers are not on the examiner grid.
	_, onGrid := row.Lecturers[supervisorOnly.ID.String()]
	assert.False(t, onGrid)

	// Other slots on the same day stay free.
	for i := range result.Days[0].Slots {
		other := result.Days[0].Slots[i]
		if other.Slot == querySlot.String() {
			continue
		}
		assert.True(t, other.Lecturers[booked.ID.String()], "slot %s should be free", other.Slot)
		assert.True(t, other.Rooms[rm.ID.String()], "slot %s should be free", other.Slot)
	}
}

func TestGetAvailability_WindowValidation(t *testing.T) {
	h := NewGetAvailabilityHandler(memory.NewLecturerStore(), memory.NewRoomStore(), memory.NewAvailabilityIndex(), nil)

	_, err := h.Handle(context.Background(), GetAvailabilityQuery{DateFrom: "not-a-date"})
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = h.Handle(context.Background(), GetAvailabilityQuery{
		DateFrom: "2026-09-01",
		DateTo:   "2026-12-01",
	})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = h.Handle(context.Background(), GetAvailabilityQuery{
		DateFrom: "2026-09-10",
		DateTo:   "2026-09-01",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestGetAvailability_FilterProjectsGrid(t *testing.T) {
	ctx := context.Background()
	lecturers := memory.NewLecturerStore()
	rooms := memory.NewRoomStore()

	a, err := lecturer.NewLecturer("Dr. A", "0044444444", lecturer.RoleExaminer, 5)
	require.NoError(t, err)
	b, err := lecturer.NewLecturer("Dr. B", "0055555555", lecturer.RoleExaminer, 5)
	require.NoError(t, err)
	require.NoError(t, lecturers.Create(ctx, a))
	require.NoError(t, lecturers.Create(ctx, b))

	h := NewGetAvailabilityHandler(lecturers, rooms, memory.NewAvailabilityIndex(), nil)
	result, err := h.Handle(ctx, GetAvailabilityQuery{
		DateFrom:    queryDate,
		LecturerIDs: []shared.LecturerID{a.ID},
	})
	require.NoError(t, err)

	row := result.Days[0].Slots[0]
	assert.Contains(t, row.Lecturers, a.ID.String())
	assert.NotContains(t, row.Lecturers, b.ID.String())
}

func TestGetLifecycle_ByNIM(t *testing.T) {
	ctx := context.Background()
	students := memory.NewStudentStore()

	stud, err := student.NewStudent("20210201", "Siti Rahma", "Queue Models for Lab Scheduling")
	require.NoError(t, err)
	now := time.Now().UTC()
	for _, to := range []student.Stage{
		student.StageSupervisorAssignment,
		student.StageTitleValidation,
		student.StageFirstMentoring,
	} {
		_, err := stud.Advance(to, "manual", now)
		require.NoError(t, err)
	}
	require.NoError(t, students.Create(ctx, stud))

	h := NewGetLifecycleHandler(students, nil)
	dto, err := h.Handle(ctx, GetLifecycleQuery{NIM: "20210201"})
	require.NoError(t, err)

	assert.Equal(t, stud.ID.String(), dto.StudentID)
	assert.Equal(t, 4, dto.CurrentStage)
	assert.Equal(t, "First Mentoring", dto.StageName)
	assert.Equal(t, 31, dto.ProgressPercent)
	require.Len(t, dto.History, 3)
	assert.Equal(t, 1, dto.History[0].Stage)
	assert.Nil(t, dto.GraduatedAt)

	_, err = h.Handle(ctx, GetLifecycleQuery{NIM: "99999999"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = h.Handle(ctx, GetLifecycleQuery{})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestListSessions_FiltersAndEnriches(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionStore()
	students := memory.NewStudentStore()
	rooms := memory.NewRoomStore()

	stud, err := student.NewStudent("20210202", "Budi Santoso", "")
	require.NoError(t, err)
	require.NoError(t, students.Create(ctx, stud))

	rm, err := room.NewRoom("Ruang Sidang C-201", 12, nil)
	require.NoError(t, err)
	require.NoError(t, rooms.Create(ctx, rm))

	examiner := shared.LecturerID("33333333-3333-3333-3333-333333333333")
	sempro := session.NewSession(session.Request{
		Kind:        session.KindSempro,
		StudentID:   stud.ID,
		Date:        queryDate,
		Slot:        querySlot,
		RoomID:      rm.ID,
		ExaminerIDs: []shared.LecturerID{examiner},
	})
	require.NoError(t, sessions.Create(ctx, sempro))

	other := session.NewSession(session.Request{
		Kind:        session.KindFinalDefense,
		StudentID:   shared.StudentID("44444444-4444-4444-4444-444444444444"),
		Date:        queryDate,
		Slot:        timeutil.Slot1430,
		RoomID:      rm.ID,
		ExaminerIDs: []shared.LecturerID{examiner},
	})
	require.NoError(t, sessions.Create(ctx, other))

	h := NewListSessionsHandler(sessions, students, rooms)

	result, err := h.Handle(ctx, ListSessionsQuery{Kind: session.KindSempro})
	require.NoError(t, err)
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, sempro.ID.String(), result.Sessions[0].SessionID)
	assert.Equal(t, "Budi Santoso", result.Sessions[0].StudentName)
	assert.Equal(t, "20210202", result.Sessions[0].StudentNIM)
	assert.Equal(t, "Ruang Sidang C-201", result.Sessions[0].RoomName)

	// The unknown student on the other session leaves the name empty.
	result, err = h.Handle(ctx, ListSessionsQuery{Kind: session.KindFinalDefense})
	require.NoError(t, err)
	require.Len(t, result.Sessions, 1)
	assert.Empty(t, result.Sessions[0].StudentName)

	result, err = h.Handle(ctx, ListSessionsQuery{ExaminerID: examiner})
	require.NoError(t, err)
	assert.Len(t, result.Sessions, 2)

	_, err = h.Handle(ctx, ListSessionsQuery{Kind: "workshop"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
