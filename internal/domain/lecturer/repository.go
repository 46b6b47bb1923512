package lecturer

import (
	"context"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	// Role filters by capability.
	Role Role

	// ExpertiseTag filters to lecturers carrying the tag.
	ExpertiseTag string

	// OnlyWithQuota keeps lecturers with remaining examiner quota.
	OnlyWithQuota bool

	// Pagination bounds the result set.
	Pagination shared.Pagination
}

// Repository is the persistence contract for lecturers.
type Repository interface {
	// Create persists a new lecturer. Fails with ErrAlreadyExists on an ID
	// or NIDN collision.
	Create(ctx context.Context, l *Lecturer) error

	// GetByID returns a lecturer by internal ID, or ErrNotFound.
	GetByID(ctx context.Context, id shared.LecturerID) (*Lecturer, error)

	// List returns lecturers matching the filter.
	List(ctx context.Context, f Filter) ([]*Lecturer, error)

	// Update persists the aggregate state, quota and calendar included.
	Update(ctx context.Context, l *Lecturer) error

	// Remove deletes a lecturer record.
	Remove(ctx context.Context, id shared.LecturerID) error
}
