package room

import (
	"context"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	// MinCapacity keeps rooms seating at least this many.
	MinCapacity int

	// Facility keeps rooms carrying the equipment tag.
	Facility string

	// Pagination bounds the result set.
	Pagination shared.Pagination
}

// Repository is the persistence contract for rooms.
type Repository interface {
	// Create persists a new room.
	Create(ctx context.Context, r *Room) error

	// GetByID returns a room by internal ID, or ErrNotFound.
	GetByID(ctx context.Context, id shared.RoomID) (*Room, error)

	// List returns rooms matching the filter.
	List(ctx context.Context, f Filter) ([]*Room, error)

	// Update persists the aggregate state, bookings included.
	Update(ctx context.Context, r *Room) error

	// Remove deletes a room record.
	Remove(ctx context.Context, id shared.RoomID) error
}
