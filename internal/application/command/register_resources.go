package command

import (
	"context"
	"fmt"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LECTURER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLecturerCommand contains the data to register a lecturer.
type RegisterLecturerCommand struct {
	// Name is the lecturer's display name.
	Name string

	// NIDN is the national lecturer registration number.
	NIDN string

	// Role is the scheduling capability.
	Role lecturer.Role

	// ExpertiseTags describe research areas for examiner matching.
	ExpertiseTags []string

	// MaxQuota is the examiner assignment budget.
	MaxQuota int
}

// Validate validates the command.
func (c RegisterLecturerCommand) Validate() error {
	if c.Name == "" {
		return shared.NewDomainError("command", "RegisterLecturer", shared.ErrEmptyValue, "name is required")
	}
	if !c.Role.IsValid() {
		return shared.NewDomainError("command", "RegisterLecturer", shared.ErrInvalidInput,
			fmt.Sprintf("unknown role %q", string(c.Role)))
	}
	if c.MaxQuota <= 0 {
		return shared.NewDomainError("command", "RegisterLecturer", shared.ErrValueOutOfRange, "max_quota must be positive")
	}
	return nil
}

// RegisterLecturerHandler handles the RegisterLecturerCommand.
type RegisterLecturerHandler struct {
	lecturerRepo lecturer.Repository
}

// NewRegisterLecturerHandler creates a new RegisterLecturerHandler.
func NewRegisterLecturerHandler(lecturerRepo lecturer.Repository) *RegisterLecturerHandler {
	return &RegisterLecturerHandler{lecturerRepo: lecturerRepo}
}

// Handle executes the register lecturer command.
func (h *RegisterLecturerHandler) Handle(ctx context.Context, cmd RegisterLecturerCommand) (*lecturer.Lecturer, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	lec, err := lecturer.NewLecturer(cmd.Name, cmd.NIDN, cmd.Role, cmd.MaxQuota)
	if err != nil {
		return nil, err
	}
	lec.ExpertiseTags = append([]string(nil), cmd.ExpertiseTags...)

	if err := h.lecturerRepo.Create(ctx, lec); err != nil {
		return nil, fmt.Errorf("register_lecturer: persist lecturer: %w", err)
	}
	return lec, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER ROOM COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RegisterRoomCommand contains the data to register a defense room.
type RegisterRoomCommand struct {
	// Name is the room label.
	Name string

	// Capacity is the seat count.
	Capacity int

	// Facilities lists equipment tags.
	Facilities []string
}

// Validate validates the command.
func (c RegisterRoomCommand) Validate() error {
	if c.Name == "" {
		return shared.NewDomainError("command", "RegisterRoom", shared.ErrEmptyValue, "name is required")
	}
	if c.Capacity <= 0 {
		return shared.NewDomainError("command", "RegisterRoom", shared.ErrValueOutOfRange, "capacity must be positive")
	}
	return nil
}

// RegisterRoomHandler handles the RegisterRoomCommand.
type RegisterRoomHandler struct {
	roomRepo room.Repository
}

// NewRegisterRoomHandler creates a new RegisterRoomHandler.
func NewRegisterRoomHandler(roomRepo room.Repository) *RegisterRoomHandler {
	return &RegisterRoomHandler{roomRepo: roomRepo}
}

// Handle executes the register room command.
func (h *RegisterRoomHandler) Handle(ctx context.Context, cmd RegisterRoomCommand) (*room.Room, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	r, err := room.NewRoom(cmd.Name, cmd.Capacity, cmd.Facilities)
	if err != nil {
		return nil, err
	}
	if err := h.roomRepo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("register_room: persist room: %w", err)
	}
	return r, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE AVAILABILITY COMMAND
// Lecturers declare their own free/busy slots; an undeclared slot counts as
// free, so only explicit busy marks ever block scheduling.
// ══════════════════════════════════════════════════════════════════════════════

// SlotMark is one date+slot declaration in an availability update.
type SlotMark struct {
	Date  timeutil.DefenseDate
	Slot  timeutil.Slot
	State lecturer.SlotState
}

// UpdateAvailabilityCommand contains the data to update a lecturer's calendar.
type UpdateAvailabilityCommand struct {
	// LecturerID is the declaring lecturer.
	LecturerID shared.LecturerID

	// Marks are the declarations to apply, in order.
	Marks []SlotMark
}

// Validate validates the command.
func (c UpdateAvailabilityCommand) Validate() error {
	if c.LecturerID.IsEmpty() {
		return shared.NewDomainError("command", "UpdateAvailability", shared.ErrEmptyValue, "lecturer_id is required")
	}
	if len(c.Marks) == 0 {
		return shared.NewDomainError("command", "UpdateAvailability", shared.ErrEmptyValue, "at least one mark is required")
	}
	for _, m := range c.Marks {
		if !m.Date.IsValid() {
			return shared.NewDomainError("command", "UpdateAvailability", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
		}
		if !m.Slot.IsValid() {
			return shared.NewDomainError("command", "UpdateAvailability", shared.ErrInvalidFormat, "slot is not on the defense grid")
		}
		if m.State != lecturer.SlotFree && m.State != lecturer.SlotBusy {
			return shared.NewDomainError("command", "UpdateAvailability", shared.ErrInvalidInput,
				fmt.Sprintf("unknown slot state %q", string(m.State)))
		}
	}
	return nil
}

// UpdateAvailabilityHandler handles the UpdateAvailabilityCommand.
type UpdateAvailabilityHandler struct {
	lecturerRepo lecturer.Repository
}

// NewUpdateAvailabilityHandler creates a new UpdateAvailabilityHandler.
func NewUpdateAvailabilityHandler(lecturerRepo lecturer.Repository) *UpdateAvailabilityHandler {
	return &UpdateAvailabilityHandler{lecturerRepo: lecturerRepo}
}

// Handle executes the update availability command. Declarations only affect
// future conflict checks; committed bookings stay committed.
func (h *UpdateAvailabilityHandler) Handle(ctx context.Context, cmd UpdateAvailabilityCommand) (*lecturer.Lecturer, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	lec, err := h.lecturerRepo.GetByID(ctx, cmd.LecturerID)
	if err != nil {
		return nil, fmt.Errorf("update_availability: load lecturer: %w", err)
	}

	for _, m := range cmd.Marks {
		lec.Availability.Mark(m.Date, m.Slot, m.State)
	}
	lec.UpdatedAt = time.Now().UTC()

	if err := h.lecturerRepo.Update(ctx, lec); err != nil {
		return nil, fmt.Errorf("update_availability: update lecturer: %w", err)
	}
	return lec, nil
}
