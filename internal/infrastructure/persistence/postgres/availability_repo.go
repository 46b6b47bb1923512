package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// AVAILABILITY INDEX IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AvailabilityIndex implements session.AvailabilityIndex on top of the
// slot_bookings ledger. Atomicity comes from the database: all inserts
// for one reservation run in a single transaction, and the unique
// constraint on (resource_type, resource_id, defense_date, slot) makes
// the losing writer fail with ErrSlotTaken instead of double-booking.
type AvailabilityIndex struct {
	conn *Connection
}

// NewAvailabilityIndex creates a ledger-backed availability index.
func NewAvailabilityIndex(conn *Connection) *AvailabilityIndex {
	return &AvailabilityIndex{conn: conn}
}

// IsLecturerFree reports whether the lecturer has no booking at the slot.
func (a *AvailabilityIndex) IsLecturerFree(ctx context.Context, id shared.LecturerID, date timeutil.DefenseDate, slot timeutil.Slot) (bool, error) {
	return a.isFree(ctx, "lecturer", id.String(), date, slot)
}

// IsRoomFree reports whether the room has no booking at the slot.
func (a *AvailabilityIndex) IsRoomFree(ctx context.Context, id shared.RoomID, date timeutil.DefenseDate, slot timeutil.Slot) (bool, error) {
	return a.isFree(ctx, "room", id.String(), date, slot)
}

func (a *AvailabilityIndex) isFree(ctx context.Context, resourceType, resourceID string, date timeutil.DefenseDate, slot timeutil.Slot) (bool, error) {
	var exists bool
	err := a.conn.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM slot_bookings
			WHERE resource_type = $1 AND resource_id = $2 AND defense_date = $3 AND slot = $4
		)
	`, resourceType, resourceID, string(date), string(slot)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slot availability: %w", err)
	}
	return !exists, nil
}

// Reserve books the room and every lecturer for the slot in one
// transaction. A unique violation on any insert rolls back all of them
// and surfaces as ErrSlotTaken.
func (a *AvailabilityIndex) Reserve(ctx context.Context, sessionID shared.SessionID, lecturerIDs []shared.LecturerID, roomID shared.RoomID, date timeutil.DefenseDate, slot timeutil.Slot) error {
	err := a.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		insert := `
			INSERT INTO slot_bookings (resource_type, resource_id, defense_date, slot, session_id)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, id := range lecturerIDs {
			if _, err := tx.Exec(ctx, insert, "lecturer", id.String(), string(date), string(slot), sessionID.String()); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, insert, "room", roomID.String(), string(date), string(slot), sessionID.String()); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("availability", "Reserve", shared.ErrSlotTaken,
				"slot "+timeutil.SlotKey(date, slot)+" is already booked", err)
		}
		return fmt.Errorf("failed to reserve slot: %w", err)
	}
	return nil
}

// Release frees all bookings tied to the session. Unknown sessions are
// a no-op.
func (a *AvailabilityIndex) Release(ctx context.Context, sessionID shared.SessionID) error {
	_, err := a.conn.Exec(ctx, "DELETE FROM slot_bookings WHERE session_id = $1", sessionID.String())
	if err != nil {
		return fmt.Errorf("failed to release slot bookings: %w", err)
	}
	return nil
}
