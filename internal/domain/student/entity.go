package student

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ENUMS
// ═══════════════════════════════════════════════════════════════════════════

// Status is the student's enrollment status.
type Status string

const (
	// StatusActive - the student is working on the thesis.
	StatusActive Status = "active"
	// StatusGraduated - terminal Pass recorded; the record is archived,
	// never deleted.
	StatusGraduated Status = "graduated"
	// StatusWithdrawn - the student left the program.
	StatusWithdrawn Status = "withdrawn"
)

// IsValid checks that the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusGraduated, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// IsEnrolled reports whether the student can still be scheduled.
func (s Status) IsEnrolled() bool {
	return s == StatusActive
}

// ═══════════════════════════════════════════════════════════════════════════
// SESSION REFERENCES
// ═══════════════════════════════════════════════════════════════════════════

// SessionRef links the student to a committed defense session.
type SessionRef struct {
	// SessionID is the session's internal ID.
	SessionID shared.SessionID `json:"session_id"`

	// Kind is the session kind ("sempro" or "final_defense").
	Kind string `json:"kind"`
}

// ═══════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ═══════════════════════════════════════════════════════════════════════════

// Student is the central aggregate of the lifecycle engine. CurrentStage is
// mutated only through the lifecycle methods in lifecycle.go.
type Student struct {
	// ID is the internal unique identifier (UUID in string form).
	ID shared.StudentID

	// NIM is the external registration number issued by the registrar.
	NIM shared.NIM

	// Name is the student's display name.
	Name string

	// ThesisTitle is the (validated) thesis title.
	ThesisTitle string

	// SupervisorID is the assigned supervising lecturer.
	SupervisorID shared.LecturerID

	// CurrentStage is the lifecycle position (1..13).
	CurrentStage Stage

	// StageHistory is the ordered list of completed milestones.
	StageHistory []StageRecord

	// ScheduledSessions are the committed defense sessions for this student.
	ScheduledSessions []SessionRef

	// IsScheduled mirrors whether an upcoming session exists; maintained by
	// the scheduler on commit and cancel.
	IsScheduled bool

	// Outcome is the recorded terminal result, empty before stage 13.
	Outcome Outcome

	// RevisionCount counts re-entries into the revision loop.
	RevisionCount int

	// Status is the enrollment status.
	Status Status

	// GraduatedAt is set when a terminal Pass is recorded.
	GraduatedAt time.Time

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// NewStudent enrolls a new student at the first lifecycle stage.
func NewStudent(nim shared.NIM, name, thesisTitle string) (*Student, error) {
	if !nim.IsValid() {
		return nil, shared.ErrInvalidNIM
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("student", "New", shared.ErrEmptyValue, "name is required")
	}

	now := time.Now().UTC()
	return &Student{
		ID:           shared.StudentID(uuid.NewString()),
		NIM:          nim,
		Name:         name,
		ThesisTitle:  strings.TrimSpace(thesisTitle),
		CurrentStage: StageTitleSubmission,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsGraduated reports whether the lifecycle is terminally closed.
func (s *Student) IsGraduated() bool {
	return s.Status == StatusGraduated
}

// AssignSupervisor sets the supervising lecturer.
func (s *Student) AssignSupervisor(id shared.LecturerID, now time.Time) error {
	if id.IsEmpty() {
		return shared.NewDomainError("student", "AssignSupervisor", shared.ErrEmptyValue, "supervisor id is required")
	}
	if s.IsGraduated() {
		return shared.ErrStudentGraduated
	}
	s.SupervisorID = id
	s.UpdatedAt = now
	return nil
}

// AttachSession records a committed session reference and flips the
// scheduled flag. Idempotent per session ID.
func (s *Student) AttachSession(ref SessionRef, now time.Time) {
	for _, existing := range s.ScheduledSessions {
		if existing.SessionID == ref.SessionID {
			return
		}
	}
	s.ScheduledSessions = append(s.ScheduledSessions, ref)
	s.IsScheduled = true
	s.UpdatedAt = now
}

// DetachSession removes a session reference after cancellation. The
// lifecycle stage stays where it is.
func (s *Student) DetachSession(id shared.SessionID, now time.Time) {
	kept := s.ScheduledSessions[:0]
	for _, ref := range s.ScheduledSessions {
		if ref.SessionID != id {
			kept = append(kept, ref)
		}
	}
	s.ScheduledSessions = kept
	s.IsScheduled = len(kept) > 0
	s.UpdatedAt = now
}

// Clone returns a deep copy, used by in-memory stores to avoid aliasing.
func (s *Student) Clone() *Student {
	cp := *s
	cp.StageHistory = append([]StageRecord(nil), s.StageHistory...)
	cp.ScheduledSessions = append([]SessionRef(nil), s.ScheduledSessions...)
	return &cp
}
