package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROOM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RoomRepository implements room.Repository for PostgreSQL. Room bookings
// are not stored on the row; they are derived from the slot_bookings
// ledger so there is a single source of truth for occupancy.
type RoomRepository struct {
	conn *Connection
}

// NewRoomRepository creates a new RoomRepository.
func NewRoomRepository(conn *Connection) *RoomRepository {
	return &RoomRepository{conn: conn}
}

// Create creates a new room.
func (r *RoomRepository) Create(ctx context.Context, rm *room.Room) error {
	query := `
		INSERT INTO rooms (id, name, capacity, facilities, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		rm.ID.String(),
		rm.Name,
		rm.Capacity,
		rm.Facilities,
		rm.CreatedAt,
		rm.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("room", "Create", shared.ErrAlreadyExists, "room already exists", err)
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

// GetByID returns a room with its bookings loaded from the ledger.
func (r *RoomRepository) GetByID(ctx context.Context, id shared.RoomID) (*room.Room, error) {
	query := `SELECT id, name, capacity, facilities, created_at, updated_at FROM rooms WHERE id = $1`
	row := r.conn.QueryRow(ctx, query, id.String())

	rm, err := scanRoom(row)
	if err != nil {
		return nil, err
	}

	bookings, err := r.loadBookings(ctx, id)
	if err != nil {
		return nil, err
	}
	rm.Bookings = bookings

	return rm, nil
}

// List returns rooms matching the filter. Bookings are not loaded; use
// GetByID for occupancy.
func (r *RoomRepository) List(ctx context.Context, f room.Filter) ([]*room.Room, error) {
	var conditions []string
	var args []interface{}

	if f.MinCapacity > 0 {
		args = append(args, f.MinCapacity)
		conditions = append(conditions, "capacity >= $"+strconv.Itoa(len(args)))
	}
	if f.Facility != "" {
		args = append(args, f.Facility)
		conditions = append(conditions, "$"+strconv.Itoa(len(args))+" = ANY(facilities)")
	}

	query := `SELECT id, name, capacity, facilities, created_at, updated_at FROM rooms`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC"

	args = append(args, f.Pagination.Limit())
	query += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, f.Pagination.Offset())
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*room.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

// Update updates a room.
func (r *RoomRepository) Update(ctx context.Context, rm *room.Room) error {
	query := `
		UPDATE rooms SET name = $1, capacity = $2, facilities = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.conn.Exec(ctx, query,
		rm.Name,
		rm.Capacity,
		rm.Facilities,
		time.Now().UTC(),
		rm.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrRoomNotFound
	}

	return nil
}

// Remove deletes a room record.
func (r *RoomRepository) Remove(ctx context.Context, id shared.RoomID) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM rooms WHERE id = $1", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrRoomNotFound
	}
	return nil
}

// loadBookings reads the room's occupancy from the booking ledger.
func (r *RoomRepository) loadBookings(ctx context.Context, id shared.RoomID) ([]room.Booking, error) {
	query := `
		SELECT defense_date::text, slot, session_id
		FROM slot_bookings
		WHERE resource_type = 'room' AND resource_id = $1
		ORDER BY defense_date, slot
	`

	rows, err := r.conn.Query(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query room bookings: %w", err)
	}
	defer rows.Close()

	var bookings []room.Booking
	for rows.Next() {
		var date, slot, sessionID string
		if err := rows.Scan(&date, &slot, &sessionID); err != nil {
			return nil, fmt.Errorf("failed to scan room booking: %w", err)
		}
		bookings = append(bookings, room.Booking{
			Date:      timeutil.DefenseDate(date),
			Slot:      timeutil.Slot(slot),
			SessionID: shared.SessionID(sessionID),
		})
	}
	return bookings, rows.Err()
}

// scanRoom scans a single room from a row.
func scanRoom(row pgx.Row) (*room.Room, error) {
	var rm room.Room
	var id string

	err := row.Scan(&id, &rm.Name, &rm.Capacity, &rm.Facilities, &rm.CreatedAt, &rm.UpdatedAt)

	if IsNoRows(err) {
		return nil, shared.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan room: %w", err)
	}

	rm.ID = shared.RoomID(id)
	return &rm, nil
}
