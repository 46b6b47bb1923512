package session

import (
	"context"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// AvailabilityIndex answers slot-availability questions and records
// bookings. Slots are atomic enumerated units: two sessions at the same
// date+slot for the same lecturer or room conflict, regardless of any
// duration nuance.
//
// Implementations must make validate-then-reserve one atomic unit: no
// caller may observe a free slot and then lose the booking to a racing
// writer between check and commit. Lock waits are bounded; contention
// surfaces as ErrBusy, never as a deadlock.
type AvailabilityIndex interface {
	// IsLecturerFree reports whether the lecturer has no booking at the slot.
	IsLecturerFree(ctx context.Context, id shared.LecturerID, date timeutil.DefenseDate, slot timeutil.Slot) (bool, error)

	// IsRoomFree reports whether the room has no booking at the slot.
	IsRoomFree(ctx context.Context, id shared.RoomID, date timeutil.DefenseDate, slot timeutil.Slot) (bool, error)

	// Reserve atomically books the room and every lecturer for the slot
	// under the session ID. Fails with ErrSlotTaken if any target is
	// already booked, leaving nothing reserved.
	Reserve(ctx context.Context, sessionID shared.SessionID, lecturerIDs []shared.LecturerID, roomID shared.RoomID, date timeutil.DefenseDate, slot timeutil.Slot) error

	// Release frees all bookings tied to the session. Releasing a session
	// with no bookings is a no-op.
	Release(ctx context.Context, sessionID shared.SessionID) error
}
