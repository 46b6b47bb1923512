package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
)

func TestStudentStore_NIMIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStudentStore()

	first, err := student.NewStudent("11223344", "Andi Wijaya", "Stream processing for sensor data")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, first))

	dup, err := student.NewStudent("11223344", "Sari Putri", "Graph-based recommendation")
	require.NoError(t, err)
	err = store.Create(ctx, dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	got, err := store.GetByNIM(ctx, shared.NIM("11223344"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestStudentStore_UpdateRequiresExisting(t *testing.T) {
	ctx := context.Background()
	store := NewStudentStore()

	ghost, err := student.NewStudent("99887766", "Budi Santoso", "Edge caching strategies")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Update(ctx, ghost), shared.ErrNotFound)
}

func TestStudentStore_ClonesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStudentStore()

	st, err := student.NewStudent("12345678", "Dewi Lestari", "Consensus under churn")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, st))

	// Mutating the caller's copy must not leak into the store.
	st.Name = "changed"
	got, err := store.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dewi Lestari", got.Name)
}

func TestLecturerStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewLecturerStore()

	examiner, err := lecturer.NewLecturer("Dr. Rahma", "0011223344", lecturer.RoleExaminer, 2)
	require.NoError(t, err)
	examiner.ExpertiseTags = []string{"distributed-systems"}
	require.NoError(t, store.Create(ctx, examiner))

	supervisor, err := lecturer.NewLecturer("Dr. Hartono", "0055667788", lecturer.RoleSupervisor, 2)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, supervisor))

	examiners, err := store.List(ctx, lecturer.Filter{Role: lecturer.RoleExaminer})
	require.NoError(t, err)
	require.Len(t, examiners, 1)
	assert.Equal(t, examiner.ID, examiners[0].ID)

	tagged, err := store.List(ctx, lecturer.Filter{ExpertiseTag: "distributed-systems"})
	require.NoError(t, err)
	assert.Len(t, tagged, 1)

	// Exhaust the examiner's quota and filter on remaining capacity.
	full, err := store.GetByID(ctx, examiner.ID)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, full.TakeAssignment(now))
	require.NoError(t, full.TakeAssignment(now))
	require.NoError(t, store.Update(ctx, full))

	withQuota, err := store.List(ctx, lecturer.Filter{OnlyWithQuota: true})
	require.NoError(t, err)
	for _, l := range withQuota {
		assert.NotEqual(t, examiner.ID, l.ID)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, items, paginate(items, shared.Pagination{}))
	assert.Equal(t, []int{1, 2}, paginate(items, shared.Pagination{Page: 1, PageSize: 2}))
	assert.Equal(t, []int{3, 4}, paginate(items, shared.Pagination{Page: 2, PageSize: 2}))
	assert.Equal(t, []int{5}, paginate(items, shared.Pagination{Page: 3, PageSize: 2}))
	assert.Nil(t, paginate(items, shared.Pagination{Page: 4, PageSize: 2}))
}
