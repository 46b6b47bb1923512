// Package lecturer contains the lecturer aggregate: expertise, examiner
// quota, and the per-lecturer availability calendar consulted by the
// conflict checker.
package lecturer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// ENUMS
// ═══════════════════════════════════════════════════════════════════════════

// Role is the lecturer's capability in defense sessions.
type Role string

const (
	// RoleSupervisor - may only supervise theses.
	RoleSupervisor Role = "supervisor"
	// RoleExaminer - may only sit as examiner.
	RoleExaminer Role = "examiner"
	// RoleBoth - full capability.
	RoleBoth Role = "both"
)

// IsValid checks that the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleSupervisor, RoleExaminer, RoleBoth:
		return true
	default:
		return false
	}
}

// CanExamine reports whether the lecturer may sit as examiner.
func (r Role) CanExamine() bool {
	return r == RoleExaminer || r == RoleBoth
}

// CanSupervise reports whether the lecturer may supervise.
func (r Role) CanSupervise() bool {
	return r == RoleSupervisor || r == RoleBoth
}

// ═══════════════════════════════════════════════════════════════════════════
// AVAILABILITY CALENDAR
// ═══════════════════════════════════════════════════════════════════════════

// SlotState marks a calendar entry as free or busy.
type SlotState string

const (
	SlotFree SlotState = "free"
	SlotBusy SlotState = "busy"
)

// Calendar is the lecturer-maintained availability declaration, keyed by
// date@slot. An empty calendar means "no declaration": the conflict checker
// treats undeclared slots as free and relies on the availability index
// alone. Only an explicit busy mark blocks scheduling.
type Calendar map[string]SlotState

// Mark sets the state for a date+slot pair.
func (c Calendar) Mark(date timeutil.DefenseDate, slot timeutil.Slot, state SlotState) {
	c[timeutil.SlotKey(date, slot)] = state
}

// Allows reports whether the calendar permits the slot. Undeclared slots
// are permitted.
func (c Calendar) Allows(date timeutil.DefenseDate, slot timeutil.Slot) bool {
	state, declared := c[timeutil.SlotKey(date, slot)]
	return !declared || state == SlotFree
}

// IsEmpty reports whether the lecturer maintains any declaration at all.
func (c Calendar) IsEmpty() bool {
	return len(c) == 0
}

// ═══════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LECTURER
// ═══════════════════════════════════════════════════════════════════════════

// Lecturer represents a faculty member who supervises and/or examines.
// Invariant: Quota.Used <= Quota.Max at all times; any commit that would
// break it is rejected before reservation.
type Lecturer struct {
	// ID is the internal unique identifier (UUID in string form).
	ID shared.LecturerID

	// Name is the lecturer's display name.
	Name string

	// NIDN is the national lecturer registration number.
	NIDN string

	// ExpertiseTags describe research areas for examiner matching.
	ExpertiseTags []string

	// Role is the scheduling capability.
	Role Role

	// Quota is the examiner assignment budget.
	Quota shared.Quota

	// Availability is the self-declared calendar.
	Availability Calendar

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// NewLecturer creates a lecturer with an empty availability calendar.
func NewLecturer(name, nidn string, role Role, maxQuota int) (*Lecturer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("lecturer", "New", shared.ErrEmptyValue, "name is required")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("lecturer", "New", shared.ErrInvalidInput, "unknown role")
	}
	quota, err := shared.NewQuota(maxQuota)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Lecturer{
		ID:           shared.LecturerID(uuid.NewString()),
		Name:         name,
		NIDN:         strings.TrimSpace(nidn),
		Role:         role,
		Quota:        quota,
		Availability: Calendar{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasExpertise reports whether the lecturer carries the given tag.
func (l *Lecturer) HasExpertise(tag string) bool {
	for _, t := range l.ExpertiseTags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// TakeAssignment consumes one examiner quota unit. Called inside the
// scheduler's commit scope, never speculatively.
func (l *Lecturer) TakeAssignment(now time.Time) error {
	if !l.Role.CanExamine() {
		return shared.ErrNotExaminerCapable
	}
	if !l.Quota.HasRoom() {
		return shared.ErrLecturerQuotaFull
	}
	l.Quota.Used++
	l.UpdatedAt = now
	return nil
}

// ReleaseAssignment returns one quota unit after cancellation.
func (l *Lecturer) ReleaseAssignment(now time.Time) {
	if l.Quota.Used > 0 {
		l.Quota.Used--
	}
	l.UpdatedAt = now
}

// Clone returns a deep copy, used by in-memory stores to avoid aliasing.
func (l *Lecturer) Clone() *Lecturer {
	cp := *l
	cp.ExpertiseTags = append([]string(nil), l.ExpertiseTags...)
	cp.Availability = make(Calendar, len(l.Availability))
	for k, v := range l.Availability {
		cp.Availability[k] = v
	}
	return &cp
}
