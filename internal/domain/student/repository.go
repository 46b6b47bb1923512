package student

import (
	"context"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	// Status filters by enrollment status.
	Status Status

	// Stage filters by current lifecycle stage.
	Stage Stage

	// SupervisorID filters by assigned supervisor.
	SupervisorID shared.LecturerID

	// Pagination bounds the result set.
	Pagination shared.Pagination
}

// Repository is the persistence contract for the student aggregate.
// Implementations do no validation beyond shape; all invariants live in the
// aggregate itself. Students are never deleted - graduation archives them.
type Repository interface {
	// Create persists a new student. Fails with ErrAlreadyExists on an ID
	// or NIM collision.
	Create(ctx context.Context, s *Student) error

	// GetByID returns a student by internal ID, or ErrNotFound.
	GetByID(ctx context.Context, id shared.StudentID) (*Student, error)

	// GetByNIM returns a student by registration number, or ErrNotFound.
	GetByNIM(ctx context.Context, nim shared.NIM) (*Student, error)

	// List returns students matching the filter.
	List(ctx context.Context, f Filter) ([]*Student, error)

	// Update persists the aggregate state, including stage, history, and
	// session references, as one unit.
	Update(ctx context.Context, s *Student) error
}
