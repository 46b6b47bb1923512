package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

func newIDs(t *testing.T) (shared.SessionID, []shared.LecturerID, shared.RoomID) {
	t.Helper()
	return shared.SessionID(uuid.NewString()),
		[]shared.LecturerID{
			shared.LecturerID(uuid.NewString()),
			shared.LecturerID(uuid.NewString()),
		},
		shared.RoomID(uuid.NewString())
}

func TestAvailabilityIndex_ReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	idx := NewAvailabilityIndex()
	sid, lecturers, roomID := newIDs(t)
	date := timeutil.DefenseDate("2026-10-05")

	free, err := idx.IsLecturerFree(ctx, lecturers[0], date, timeutil.Slot0800)
	require.NoError(t, err)
	assert.True(t, free)

	require.NoError(t, idx.Reserve(ctx, sid, lecturers, roomID, date, timeutil.Slot0800))

	for _, id := range lecturers {
		free, err := idx.IsLecturerFree(ctx, id, date, timeutil.Slot0800)
		require.NoError(t, err)
		assert.False(t, free)
	}
	free, err = idx.IsRoomFree(ctx, roomID, date, timeutil.Slot0800)
	require.NoError(t, err)
	assert.False(t, free)

	// A different slot on the same date stays free.
	free, err = idx.IsLecturerFree(ctx, lecturers[0], date, timeutil.Slot1030)
	require.NoError(t, err)
	assert.True(t, free)

	require.NoError(t, idx.Release(ctx, sid))

	free, err = idx.IsLecturerFree(ctx, lecturers[0], date, timeutil.Slot0800)
	require.NoError(t, err)
	assert.True(t, free)
	free, err = idx.IsRoomFree(ctx, roomID, date, timeutil.Slot0800)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestAvailabilityIndex_ReserveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	idx := NewAvailabilityIndex()
	date := timeutil.DefenseDate("2026-10-05")

	firstSession, firstLecturers, firstRoom := newIDs(t)
	require.NoError(t, idx.Reserve(ctx, firstSession, firstLecturers, firstRoom, date, timeutil.Slot0900))

	before := idx.Dump()

	// Second reservation shares one lecturer with the first; it must fail
	// without booking anything, including its otherwise-free room.
	secondSession, _, secondRoom := newIDs(t)
	overlapping := []shared.LecturerID{firstLecturers[1], shared.LecturerID(uuid.NewString())}

	err := idx.Reserve(ctx, secondSession, overlapping, secondRoom, date, timeutil.Slot0900)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrSlotTaken)

	assert.Equal(t, before, idx.Dump())

	free, err := idx.IsRoomFree(ctx, secondRoom, date, timeutil.Slot0900)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestAvailabilityIndex_RoomConflict(t *testing.T) {
	ctx := context.Background()
	idx := NewAvailabilityIndex()
	date := timeutil.DefenseDate("2026-10-06")

	firstSession, firstLecturers, room := newIDs(t)
	require.NoError(t, idx.Reserve(ctx, firstSession, firstLecturers, room, date, timeutil.Slot1300))

	secondSession, secondLecturers, _ := newIDs(t)
	err := idx.Reserve(ctx, secondSession, secondLecturers, room, date, timeutil.Slot1300)
	assert.ErrorIs(t, err, shared.ErrSlotTaken)

	// Same room, different slot: no conflict.
	require.NoError(t, idx.Reserve(ctx, secondSession, secondLecturers, room, date, timeutil.Slot1430))
}

func TestAvailabilityIndex_ReleaseUnknownSessionIsNoop(t *testing.T) {
	idx := NewAvailabilityIndex()
	require.NoError(t, idx.Release(context.Background(), shared.SessionID(uuid.NewString())))
}

func TestAvailabilityIndex_ConcurrentReserveSingleWinner(t *testing.T) {
	ctx := context.Background()
	idx := NewAvailabilityIndex()
	date := timeutil.DefenseDate("2026-10-07")
	roomID := shared.RoomID(uuid.NewString())
	lecturer := shared.LecturerID(uuid.NewString())

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan shared.SessionID, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sid := shared.SessionID(uuid.NewString())
			if err := idx.Reserve(ctx, sid, []shared.LecturerID{lecturer}, roomID, date, timeutil.Slot1600); err == nil {
				wins <- sid
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []shared.SessionID
	for sid := range wins {
		winners = append(winners, sid)
	}
	require.Len(t, winners, 1)

	free, err := idx.IsLecturerFree(ctx, lecturer, date, timeutil.Slot1600)
	require.NoError(t, err)
	assert.False(t, free)
}

func TestAvailabilityIndex_ContendedPartitionReturnsBusy(t *testing.T) {
	ctx := context.Background()
	idx := NewAvailabilityIndexWithWait(20 * time.Millisecond)
	date := timeutil.DefenseDate("2026-10-08")

	// Hold the partition gate directly so every caller times out.
	p := idx.partition(date)
	p.gate <- struct{}{}
	defer p.release()

	_, err := idx.IsLecturerFree(ctx, shared.LecturerID(uuid.NewString()), date, timeutil.Slot0800)
	assert.ErrorIs(t, err, shared.ErrBusy)

	sid, lecturers, roomID := newIDs(t)
	err = idx.Reserve(ctx, sid, lecturers, roomID, date, timeutil.Slot0800)
	assert.ErrorIs(t, err, shared.ErrBusy)
}

func TestAvailabilityIndex_ContextCancellationWinsOverWait(t *testing.T) {
	idx := NewAvailabilityIndexWithWait(5 * time.Second)
	date := timeutil.DefenseDate("2026-10-09")

	p := idx.partition(date)
	p.gate <- struct{}{}
	defer p.release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := idx.IsRoomFree(ctx, shared.RoomID(uuid.NewString()), date, timeutil.Slot0900)
	assert.ErrorIs(t, err, shared.ErrTimeout)
}
