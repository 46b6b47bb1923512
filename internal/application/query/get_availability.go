// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/redis"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET AVAILABILITY QUERY
// Renders the defense grid: for each date in the range, every slot with the
// free/busy state of each examiner-capable lecturer and each room. This is
// the screen admins stare at while packing a defense week.
// ══════════════════════════════════════════════════════════════════════════════

// MaxAvailabilityRangeDays bounds the queried window.
const MaxAvailabilityRangeDays = 31

// GetAvailabilityQuery contains the parameters for an availability lookup.
type GetAvailabilityQuery struct {
	// DateFrom is the first day of the window (required).
	DateFrom timeutil.DefenseDate

	// DateTo is the last day, inclusive. Empty means DateFrom only.
	DateTo timeutil.DefenseDate

	// LecturerIDs narrows the grid to these lecturers. Empty means all
	// examiner-capable lecturers.
	LecturerIDs []shared.LecturerID

	// RoomIDs narrows the grid to these rooms. Empty means all rooms.
	RoomIDs []shared.RoomID
}

// Validate checks the parameters and applies defaults.
func (q *GetAvailabilityQuery) Validate() error {
	if !q.DateFrom.IsValid() {
		return shared.NewDomainError("query", "GetAvailability", shared.ErrInvalidFormat, "date_from must be YYYY-MM-DD")
	}
	if q.DateTo == "" {
		q.DateTo = q.DateFrom
	}
	if !q.DateTo.IsValid() {
		return shared.NewDomainError("query", "GetAvailability", shared.ErrInvalidFormat, "date_to must be YYYY-MM-DD")
	}
	if q.DateTo.Before(q.DateFrom) {
		return shared.NewDomainError("query", "GetAvailability", shared.ErrInvalidInput, "date_to before date_from")
	}
	days := int(q.DateTo.Time().Sub(q.DateFrom.Time()).Hours()/24) + 1
	if days > MaxAvailabilityRangeDays {
		return shared.NewDomainError("query", "GetAvailability", shared.ErrValueOutOfRange,
			fmt.Sprintf("window of %d days exceeds the %d-day maximum", days, MaxAvailabilityRangeDays))
	}
	return nil
}

// SlotGridDTO is one slot row in a day grid.
type SlotGridDTO struct {
	// Slot is the grid slot.
	Slot string `json:"slot"`

	// Lecturers maps lecturer ID to free (true) or busy (false). Busy means
	// either a committed booking or a declared-busy calendar mark.
	Lecturers map[string]bool `json:"lecturers"`

	// Rooms maps room ID to free or busy.
	Rooms map[string]bool `json:"rooms"`
}

// DayGridDTO is the full grid for one defense date.
type DayGridDTO struct {
	// Date is the defense date.
	Date string `json:"date"`

	// Slots holds one row per grid slot, in grid order.
	Slots []SlotGridDTO `json:"slots"`
}

// AvailabilityDTO is the query result.
type AvailabilityDTO struct {
	// Days holds one grid per date, in ascending date order.
	Days []DayGridDTO `json:"days"`

	// FromCache reports how many day grids were served from cache.
	FromCache int `json:"from_cache"`

	// GeneratedAt is when the result was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetAvailabilityHandler handles the GetAvailabilityQuery.
type GetAvailabilityHandler struct {
	lecturerRepo lecturer.Repository
	roomRepo     room.Repository
	availability session.AvailabilityIndex
	cache        *redis.AvailabilityCache
}

// NewGetAvailabilityHandler creates a new GetAvailabilityHandler. A nil
// cache disables caching.
func NewGetAvailabilityHandler(
	lecturerRepo lecturer.Repository,
	roomRepo room.Repository,
	availability session.AvailabilityIndex,
	cache *redis.AvailabilityCache,
) *GetAvailabilityHandler {
	return &GetAvailabilityHandler{
		lecturerRepo: lecturerRepo,
		roomRepo:     roomRepo,
		availability: availability,
		cache:        cache,
	}
}

// Handle executes the availability query. Full-day grids (no resource
// filter) are cached per date; filtered requests project from the full grid.
func (h *GetAvailabilityHandler) Handle(ctx context.Context, q GetAvailabilityQuery) (*AvailabilityDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	lecturers, rooms, err := h.resolveResources(ctx)
	if err != nil {
		return nil, err
	}

	result := &AvailabilityDTO{GeneratedAt: time.Now().UTC()}
	for d := q.DateFrom.Time(); ; d = d.AddDate(0, 0, 1) {
		date := timeutil.NewDefenseDate(d)
		if q.DateTo.Before(date) {
			break
		}

		var grid DayGridDTO
		if err := h.cache.GetDayGrid(ctx, date.String(), &grid); err == nil {
			result.FromCache++
		} else {
			grid, err = h.buildDayGrid(ctx, date, lecturers, rooms)
			if err != nil {
				return nil, err
			}
			_ = h.cache.SetDayGrid(ctx, date.String(), grid)
		}

		result.Days = append(result.Days, filterGrid(grid, q.LecturerIDs, q.RoomIDs))
	}

	return result, nil
}

// resolveResources loads the examiner-capable lecturers and all rooms the
// grid covers.
func (h *GetAvailabilityHandler) resolveResources(ctx context.Context) ([]*lecturer.Lecturer, []*room.Room, error) {
	pagination := shared.Pagination{Page: 1, PageSize: shared.MaxPageSize}

	lecturers, err := h.lecturerRepo.List(ctx, lecturer.Filter{Pagination: pagination})
	if err != nil {
		return nil, nil, fmt.Errorf("get_availability: list lecturers: %w", err)
	}
	capable := lecturers[:0]
	for _, lec := range lecturers {
		if lec.Role.CanExamine() {
			capable = append(capable, lec)
		}
	}

	rooms, err := h.roomRepo.List(ctx, room.Filter{Pagination: pagination})
	if err != nil {
		return nil, nil, fmt.Errorf("get_availability: list rooms: %w", err)
	}
	return capable, rooms, nil
}

// buildDayGrid assembles one date's grid from the availability index and the
// lecturers' declared calendars.
func (h *GetAvailabilityHandler) buildDayGrid(
	ctx context.Context,
	date timeutil.DefenseDate,
	lecturers []*lecturer.Lecturer,
	rooms []*room.Room,
) (DayGridDTO, error) {
	grid := DayGridDTO{Date: date.String()}

	for _, slot := range timeutil.AllSlots() {
		row := SlotGridDTO{
			Slot:      slot.String(),
			Lecturers: make(map[string]bool, len(lecturers)),
			Rooms:     make(map[string]bool, len(rooms)),
		}

		for _, lec := range lecturers {
			free, err := h.availability.IsLecturerFree(ctx, lec.ID, date, slot)
			if err != nil {
				return grid, fmt.Errorf("get_availability: lecturer %s at %s: %w",
					lec.ID.String(), timeutil.SlotKey(date, slot), err)
			}
			row.Lecturers[lec.ID.String()] = free && lec.Availability.Allows(date, slot)
		}
		for _, rm := range rooms {
			free, err := h.availability.IsRoomFree(ctx, rm.ID, date, slot)
			if err != nil {
				return grid, fmt.Errorf("get_availability: room %s at %s: %w",
					rm.ID.String(), timeutil.SlotKey(date, slot), err)
			}
			row.Rooms[rm.ID.String()] = free
		}

		grid.Slots = append(grid.Slots, row)
	}

	return grid, nil
}

// filterGrid projects a full-day grid down to the requested resources.
func filterGrid(grid DayGridDTO, lecturerIDs []shared.LecturerID, roomIDs []shared.RoomID) DayGridDTO {
	if len(lecturerIDs) == 0 && len(roomIDs) == 0 {
		return grid
	}

	out := DayGridDTO{Date: grid.Date, Slots: make([]SlotGridDTO, 0, len(grid.Slots))}
	for _, row := range grid.Slots {
		filtered := SlotGridDTO{Slot: row.Slot, Lecturers: row.Lecturers, Rooms: row.Rooms}
		if len(lecturerIDs) > 0 {
			filtered.Lecturers = make(map[string]bool, len(lecturerIDs))
			for _, id := range lecturerIDs {
				if free, ok := row.Lecturers[id.String()]; ok {
					filtered.Lecturers[id.String()] = free
				}
			}
		}
		if len(roomIDs) > 0 {
			filtered.Rooms = make(map[string]bool, len(roomIDs))
			for _, id := range roomIDs {
				if free, ok := row.Rooms[id.String()]; ok {
					filtered.Rooms[id.String()] = free
				}
			}
		}
		out.Slots = append(out.Slots, filtered)
	}
	return out
}
