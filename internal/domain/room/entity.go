// Package room contains the defense room aggregate.
package room

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// Booking ties a date+slot to the session occupying the room.
type Booking struct {
	Date      timeutil.DefenseDate `json:"date"`
	Slot      timeutil.Slot        `json:"slot"`
	SessionID shared.SessionID     `json:"session_id"`
}

// Room represents a defense room.
// Invariant: no two bookings share the same (date, slot).
type Room struct {
	// ID is the internal unique identifier (UUID in string form).
	ID shared.RoomID

	// Name is the room label, e.g. "Ruang Sidang A-301".
	Name string

	// Capacity is the seat count.
	Capacity int

	// Facilities lists equipment tags ("projector", "video_conference").
	Facilities []string

	// Bookings are the committed reservations for this room.
	Bookings []Booking

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// NewRoom creates a room.
func NewRoom(name string, capacity int, facilities []string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("room", "New", shared.ErrEmptyValue, "name is required")
	}
	if capacity <= 0 {
		return nil, shared.NewDomainError("room", "New", shared.ErrValueOutOfRange, "capacity must be positive")
	}

	now := time.Now().UTC()
	return &Room{
		ID:         shared.RoomID(uuid.NewString()),
		Name:       name,
		Capacity:   capacity,
		Facilities: append([]string(nil), facilities...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsFree reports whether the room has no booking at the given date+slot.
func (r *Room) IsFree(date timeutil.DefenseDate, slot timeutil.Slot) bool {
	for _, b := range r.Bookings {
		if b.Date == date && b.Slot == slot {
			return false
		}
	}
	return true
}

// Book records a reservation. Fails if the slot is already taken.
func (r *Room) Book(date timeutil.DefenseDate, slot timeutil.Slot, sessionID shared.SessionID, now time.Time) error {
	if !r.IsFree(date, slot) {
		return shared.ErrRoomBooked
	}
	r.Bookings = append(r.Bookings, Booking{Date: date, Slot: slot, SessionID: sessionID})
	r.UpdatedAt = now
	return nil
}

// ReleaseSession drops every booking held by the given session.
func (r *Room) ReleaseSession(sessionID shared.SessionID, now time.Time) {
	kept := r.Bookings[:0]
	for _, b := range r.Bookings {
		if b.SessionID != sessionID {
			kept = append(kept, b)
		}
	}
	r.Bookings = kept
	r.UpdatedAt = now
}

// HasFacility reports whether the room carries the given equipment tag.
func (r *Room) HasFacility(tag string) bool {
	for _, f := range r.Facilities {
		if strings.EqualFold(f, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, used by in-memory stores to avoid aliasing.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Facilities = append([]string(nil), r.Facilities...)
	cp.Bookings = append([]Booking(nil), r.Bookings...)
	return &cp
}
