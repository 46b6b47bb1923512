package calendar

import (
	"context"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// Repository is the persistence contract for calendar events.
type Repository interface {
	// Create persists a new event.
	Create(ctx context.Context, e *Event) error

	// GetByID returns an event by internal ID, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Event, error)

	// FindByKindAndSemester returns the event for the pair, or ErrNotFound.
	FindByKindAndSemester(ctx context.Context, kind EventKind, semester shared.SemesterKey) (*Event, error)

	// ListBySemester returns all events for the semester.
	ListBySemester(ctx context.Context, semester shared.SemesterKey) ([]*Event, error)

	// Update persists event changes.
	Update(ctx context.Context, e *Event) error

	// Remove deletes an event.
	Remove(ctx context.Context, id string) error
}

// Guard enforces the one-event-per-type-per-semester rule.
type Guard struct {
	repo Repository
}

// NewGuard creates a uniqueness guard over the repository.
func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// CanCreate reports whether no event occupies the (kind, semester) pair.
func (g *Guard) CanCreate(ctx context.Context, kind EventKind, semester shared.SemesterKey) (bool, error) {
	_, err := g.repo.FindByKindAndSemester(ctx, kind, semester)
	if err == nil {
		return false, nil
	}
	if shared.IsNotFound(err) {
		return true, nil
	}
	return false, err
}

// Create persists the event after the uniqueness check. Fails with
// ErrDuplicateEvent when the pair is taken.
func (g *Guard) Create(ctx context.Context, e *Event) error {
	ok, err := g.CanCreate(ctx, e.Kind, e.Semester)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrEventTypeTaken
	}
	return g.repo.Create(ctx, e)
}

// Update persists changes to an existing event. The duplicate check is
// skipped when the occupying event is the one being edited: by identity an
// event never conflicts with itself.
func (g *Guard) Update(ctx context.Context, e *Event) error {
	existing, err := g.repo.FindByKindAndSemester(ctx, e.Kind, e.Semester)
	if err != nil && !shared.IsNotFound(err) {
		return err
	}
	if existing != nil && existing.ID != e.ID {
		return shared.ErrEventTypeTaken
	}
	return g.repo.Update(ctx, e)
}
