package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// VIOLATIONS
// ═══════════════════════════════════════════════════════════════════════════

// ViolationCode is a machine-readable conflict reason. Callers surface
// human-readable text themselves; the engine returns enumerable reasons,
// never prose.
type ViolationCode string

const (
	ViolationExaminerCount       ViolationCode = "examiner_count"
	ViolationDuplicateExaminer   ViolationCode = "duplicate_examiner"
	ViolationExaminerUnavailable ViolationCode = "examiner_unavailable"
	ViolationQuotaExceeded       ViolationCode = "quota_exceeded"
	ViolationRoomUnavailable     ViolationCode = "room_unavailable"
	ViolationSupervisorOverlap   ViolationCode = "supervisor_overlap"
)

// Violation is one conflict found by the checker.
type Violation struct {
	// Code identifies the constraint that failed.
	Code ViolationCode `json:"code"`

	// ResourceID names the offending lecturer/room, when applicable.
	ResourceID string `json:"resource_id,omitempty"`

	// Message is a short diagnostic, stable for a given input.
	Message string `json:"message"`
}

// String renders the violation for logs.
func (v Violation) String() string {
	if v.ResourceID != "" {
		return fmt.Sprintf("%s(%s): %s", v.Code, v.ResourceID, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// ConflictError carries the ordered violation list for a rejected request.
type ConflictError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "scheduling conflict: " + strings.Join(msgs, "; ")
}

// Is matches the shared conflict sentinel.
func (e *ConflictError) Is(target error) bool {
	return target == shared.ErrConflict
}

// NewConflictError wraps violations into an error.
func NewConflictError(violations []Violation) *ConflictError {
	return &ConflictError{Violations: violations}
}

// AsConflictError extracts a ConflictError if present.
func AsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}

// ═══════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ═══════════════════════════════════════════════════════════════════════════

// ExaminerState is the frozen view of one requested examiner at check time.
type ExaminerState struct {
	// ID is the lecturer.
	ID shared.LecturerID

	// IndexFree reports the availability index for the requested slot.
	IndexFree bool

	// CalendarAllows reports the lecturer's declared calendar. True when no
	// calendar is maintained.
	CalendarAllows bool

	// QuotaRemaining is the unused examiner quota.
	QuotaRemaining int
}

// Snapshot is everything the conflict checker may look at. The scheduler
// builds it inside the same lock scope that later commits the reservation,
// so a pass can never be invalidated by a racing writer.
type Snapshot struct {
	// Examiners holds per-examiner state in request order.
	Examiners []ExaminerState

	// RoomFree reports the room's availability for the requested slot.
	RoomFree bool
}

// ═══════════════════════════════════════════════════════════════════════════
// CHECKER
// ═══════════════════════════════════════════════════════════════════════════

// CheckConflicts runs every constraint against the candidate request and
// returns the ordered violation list; empty means valid. Pure function, no
// mutation. The check order is fixed so identical inputs always produce the
// same violation sequence:
//
//  1. examiner panel size within the kind policy bounds
//  2. duplicate examiner IDs
//  3. per-examiner slot availability (index and declared calendar)
//  4. per-examiner quota headroom
//  5. room availability
//  6. supervisor on the examiner panel where policy forbids it
func CheckConflicts(req Request, pol KindPolicy, snap Snapshot) []Violation {
	var violations []Violation

	// 1. Panel size.
	n := len(req.ExaminerIDs)
	if n < pol.MinExaminers {
		violations = append(violations, Violation{
			Code:    ViolationExaminerCount,
			Message: fmt.Sprintf("minimum %d examiners required, got %d", pol.MinExaminers, n),
		})
	} else if n > pol.MaxExaminers {
		violations = append(violations, Violation{
			Code:    ViolationExaminerCount,
			Message: fmt.Sprintf("maximum %d examiners allowed, got %d", pol.MaxExaminers, n),
		})
	}

	// 2. Duplicates, reported once per repeated ID, in first-occurrence order.
	seen := make(map[shared.LecturerID]int, n)
	for _, id := range req.ExaminerIDs {
		seen[id]++
	}
	reported := make(map[shared.LecturerID]bool, n)
	for _, id := range req.ExaminerIDs {
		if seen[id] > 1 && !reported[id] {
			reported[id] = true
			violations = append(violations, Violation{
				Code:       ViolationDuplicateExaminer,
				ResourceID: id.String(),
				Message:    "examiner listed more than once",
			})
		}
	}

	// 3. Examiner availability, in request order.
	for _, ex := range snap.Examiners {
		if !ex.IndexFree {
			violations = append(violations, Violation{
				Code:       ViolationExaminerUnavailable,
				ResourceID: ex.ID.String(),
				Message:    fmt.Sprintf("already booked at %s", timeutil.FormatHuman(req.Date, req.Slot)),
			})
		} else if !ex.CalendarAllows {
			violations = append(violations, Violation{
				Code:       ViolationExaminerUnavailable,
				ResourceID: ex.ID.String(),
				Message:    fmt.Sprintf("calendar marks %s busy", timeutil.FormatHuman(req.Date, req.Slot)),
			})
		}
	}

	// 4. Quota.
	for _, ex := range snap.Examiners {
		if ex.QuotaRemaining <= 0 {
			violations = append(violations, Violation{
				Code:       ViolationQuotaExceeded,
				ResourceID: ex.ID.String(),
				Message:    "no remaining examiner quota",
			})
		}
	}

	// 5. Room.
	if !snap.RoomFree {
		violations = append(violations, Violation{
			Code:       ViolationRoomUnavailable,
			ResourceID: req.RoomID.String(),
			Message:    fmt.Sprintf("already booked at %s", timeutil.FormatHuman(req.Date, req.Slot)),
		})
	}

	// 6. Supervisor overlap. The legacy examiner-selection screens never
	// prevented this; the policy flag makes the decision explicit per kind.
	if !pol.AllowSupervisorExaminer && !req.SupervisorID.IsEmpty() {
		for _, id := range req.ExaminerIDs {
			if id == req.SupervisorID {
				violations = append(violations, Violation{
					Code:       ViolationSupervisorOverlap,
					ResourceID: req.SupervisorID.String(),
					Message:    "supervisor may not sit on this examiner panel",
				})
				break
			}
		}
	}

	return violations
}
