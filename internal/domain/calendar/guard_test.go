package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// fakeRepo is a minimal map-backed Repository for guard tests.
type fakeRepo struct {
	events map[string]*Event
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{events: make(map[string]*Event)}
}

func (r *fakeRepo) Create(_ context.Context, e *Event) error {
	r.events[e.ID] = e.Clone()
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Event, error) {
	if e, ok := r.events[id]; ok {
		return e.Clone(), nil
	}
	return nil, shared.ErrCalendarEventNotFound
}

func (r *fakeRepo) FindByKindAndSemester(_ context.Context, kind EventKind, semester shared.SemesterKey) (*Event, error) {
	for _, e := range r.events {
		if e.Kind == kind && e.Semester == semester {
			return e.Clone(), nil
		}
	}
	return nil, shared.ErrCalendarEventNotFound
}

func (r *fakeRepo) ListBySemester(_ context.Context, semester shared.SemesterKey) ([]*Event, error) {
	var out []*Event
	for _, e := range r.events {
		if e.Semester == semester {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, e *Event) error {
	if _, ok := r.events[e.ID]; !ok {
		return shared.ErrCalendarEventNotFound
	}
	r.events[e.ID] = e.Clone()
	return nil
}

func (r *fakeRepo) Remove(_ context.Context, id string) error {
	delete(r.events, id)
	return nil
}

func mustEvent(t *testing.T, name string, kind EventKind, semester string) *Event {
	t.Helper()
	key, err := shared.NewSemesterKey(semester)
	require.NoError(t, err)
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	e, err := NewEvent(name, kind, key, start, start.AddDate(0, 0, 14), "")
	require.NoError(t, err)
	return e
}

func TestGuard_DuplicatePairRejected(t *testing.T) {
	guard := NewGuard(newFakeRepo())
	ctx := context.Background()

	first := mustEvent(t, "Periode Seminar Proposal", KindSeminar, "2024/2025-ganjil")
	require.NoError(t, guard.Create(ctx, first))

	second := mustEvent(t, "Seminar Proposal (susulan)", KindSeminar, "2024/2025-ganjil")
	err := guard.Create(ctx, second)
	assert.ErrorIs(t, err, shared.ErrDuplicateEvent)
}

func TestGuard_DifferentKindOrSemesterAllowed(t *testing.T) {
	guard := NewGuard(newFakeRepo())
	ctx := context.Background()

	require.NoError(t, guard.Create(ctx, mustEvent(t, "Seminar", KindSeminar, "2024/2025-ganjil")))
	assert.NoError(t, guard.Create(ctx, mustEvent(t, "Yudisium", KindYudisium, "2024/2025-ganjil")))
	assert.NoError(t, guard.Create(ctx, mustEvent(t, "Seminar", KindSeminar, "2024/2025-genap")))
}

func TestGuard_CanCreate(t *testing.T) {
	guard := NewGuard(newFakeRepo())
	ctx := context.Background()
	key, _ := shared.NewSemesterKey("2024/2025-ganjil")

	ok, err := guard.CanCreate(ctx, KindProposal, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, guard.Create(ctx, mustEvent(t, "Proposal", KindProposal, "2024/2025-ganjil")))

	ok, err = guard.CanCreate(ctx, KindProposal, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuard_EditDoesNotConflictWithItself(t *testing.T) {
	repo := newFakeRepo()
	guard := NewGuard(repo)
	ctx := context.Background()

	e := mustEvent(t, "Seminar", KindSeminar, "2024/2025-ganjil")
	require.NoError(t, guard.Create(ctx, e))

	e.Name = "Periode Seminar Proposal Ganjil"
	assert.NoError(t, guard.Update(ctx, e))

	// A different event moving onto the occupied pair still conflicts.
	other := mustEvent(t, "Another seminar window", KindSeminar, "2024/2025-genap")
	require.NoError(t, guard.Create(ctx, other))
	other.Semester = e.Semester
	assert.ErrorIs(t, guard.Update(ctx, other), shared.ErrDuplicateEvent)
}
