package session

import (
	"context"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	// Kind filters by session variant.
	Kind Kind

	// StudentID filters by defending student.
	StudentID shared.StudentID

	// ExaminerID filters to sessions with the lecturer on the panel.
	ExaminerID shared.LecturerID

	// Date filters by defense day.
	Date timeutil.DefenseDate

	// Pagination bounds the result set.
	Pagination shared.Pagination
}

// Repository is the persistence contract for committed sessions.
type Repository interface {
	// Create persists a committed session.
	Create(ctx context.Context, s *Session) error

	// GetByID returns a session by internal ID, or ErrNotFound.
	GetByID(ctx context.Context, id shared.SessionID) (*Session, error)

	// List returns sessions matching the filter.
	List(ctx context.Context, f Filter) ([]*Session, error)

	// Update persists changes to a committed session, used by reschedules.
	Update(ctx context.Context, s *Session) error

	// Remove deletes a cancelled session.
	Remove(ctx context.Context, id shared.SessionID) error
}
