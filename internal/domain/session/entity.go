// Package session contains the defense session aggregate, the per-kind
// scheduling policies, and the pure conflict checker. The five near-identical
// inline copies of this logic in the legacy screens collapse here into one
// engine parameterized by session kind.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// KINDS & POLICIES
// ═══════════════════════════════════════════════════════════════════════════

// Kind distinguishes the two defense session variants.
type Kind string

const (
	// KindSempro - seminar-proposal defense.
	KindSempro Kind = "sempro"
	// KindFinalDefense - terminal oral examination.
	KindFinalDefense Kind = "final_defense"
)

// IsValid checks that the kind is known.
func (k Kind) IsValid() bool {
	return k == KindSempro || k == KindFinalDefense
}

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// KindPolicy holds the kind-specific scheduling rules. Values are injected
// as configuration, not hard-coded control flow.
type KindPolicy struct {
	// MinExaminers is the minimum examiner panel size.
	MinExaminers int

	// MaxExaminers is the maximum examiner panel size.
	MaxExaminers int

	// AllowSupervisorExaminer permits the supervisor to also sit on the
	// examiner panel. Formative sempro allows it; the final defense does
	// not, so grading stays independent of the supervising lecturer.
	AllowSupervisorExaminer bool

	// AdvanceTo is the lifecycle milestone a committed session moves the
	// student to.
	AdvanceTo student.Stage
}

// PolicySet maps each kind to its policy.
type PolicySet map[Kind]KindPolicy

// DefaultPolicies returns the faculty-standard policy set:
// Sempro needs 2-5 examiners, final defense 3-5.
func DefaultPolicies() PolicySet {
	return PolicySet{
		KindSempro: {
			MinExaminers:            2,
			MaxExaminers:            5,
			AllowSupervisorExaminer: true,
			AdvanceTo:               student.StageSemproScheduled,
		},
		KindFinalDefense: {
			MinExaminers:            3,
			MaxExaminers:            5,
			AllowSupervisorExaminer: false,
			AdvanceTo:               student.StageFinalScheduled,
		},
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// REQUESTS
// ═══════════════════════════════════════════════════════════════════════════

// Request is a candidate session submitted for scheduling. It is inert data;
// validation and conflict checking happen elsewhere.
type Request struct {
	Kind         Kind
	StudentID    shared.StudentID
	SupervisorID shared.LecturerID
	Date         timeutil.DefenseDate
	Slot         timeutil.Slot
	RoomID       shared.RoomID
	ExaminerIDs  []shared.LecturerID
	Notes        string
}

// Validate checks request shape only: required fields present and parseable.
// Resource-state checks (availability, quota) belong to the conflict
// checker, not here.
func (r Request) Validate() error {
	if !r.Kind.IsValid() {
		return shared.NewDomainError("session", "Validate", shared.ErrInvalidInput, "unknown session kind")
	}
	if r.StudentID.IsEmpty() {
		return shared.NewDomainError("session", "Validate", shared.ErrEmptyValue, "student_id is required")
	}
	if r.RoomID.IsEmpty() {
		return shared.NewDomainError("session", "Validate", shared.ErrEmptyValue, "room_id is required")
	}
	if !r.Date.IsValid() {
		return shared.NewDomainError("session", "Validate", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	if !r.Slot.IsValid() {
		return shared.NewDomainError("session", "Validate", shared.ErrInvalidFormat, "slot is not on the defense grid")
	}
	if len(r.ExaminerIDs) == 0 {
		return shared.NewDomainError("session", "Validate", shared.ErrEmptyValue, "at least one examiner is required")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SESSION
// ═══════════════════════════════════════════════════════════════════════════

// Session is a committed, time-boxed evaluation session.
// Invariants: examiner panel size within the kind policy bounds, no examiner
// listed twice, supervisor on the panel only where policy allows.
type Session struct {
	// ID is the internal unique identifier (UUID in string form).
	ID shared.SessionID

	// Kind is the session variant.
	Kind Kind

	// StudentID is the defending student.
	StudentID shared.StudentID

	// Date and Slot locate the session on the defense grid.
	Date timeutil.DefenseDate
	Slot timeutil.Slot

	// RoomID is the booked room.
	RoomID shared.RoomID

	// ExaminerIDs is the examiner panel, in assignment order.
	ExaminerIDs []shared.LecturerID

	// SupervisorID is the student's supervisor at commit time.
	SupervisorID shared.LecturerID

	// Notes carries free-form scheduling remarks.
	Notes string

	// CreatedAt is when the session was committed.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// NewSession builds a session from a validated request. The caller is
// responsible for having run the conflict checker first.
func NewSession(req Request) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           shared.SessionID(uuid.NewString()),
		Kind:         req.Kind,
		StudentID:    req.StudentID,
		Date:         req.Date,
		Slot:         req.Slot,
		RoomID:       req.RoomID,
		ExaminerIDs:  append([]shared.LecturerID(nil), req.ExaminerIDs...),
		SupervisorID: req.SupervisorID,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Ref returns the student-side reference for this session.
func (s *Session) Ref() student.SessionRef {
	return student.SessionRef{SessionID: s.ID, Kind: string(s.Kind)}
}

// HasExaminer reports whether the lecturer sits on the panel.
func (s *Session) HasExaminer(id shared.LecturerID) bool {
	for _, e := range s.ExaminerIDs {
		if e == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, used by in-memory stores to avoid aliasing.
func (s *Session) Clone() *Session {
	cp := *s
	cp.ExaminerIDs = append([]shared.LecturerID(nil), s.ExaminerIDs...)
	return &cp
}
