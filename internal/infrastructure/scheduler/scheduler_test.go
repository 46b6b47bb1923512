package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ═══════════════════════════════════════════════════════════════════════════
// Test fixtures
// ═══════════════════════════════════════════════════════════════════════════

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

// ═══════════════════════════════════════════════════════════════════════════
// Schedules
// ═══════════════════════════════════════════════════════════════════════════

func TestIntervalSchedule_Next(t *testing.T) {
	s := Every(15 * time.Minute)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(15*time.Minute), s.Next(now))
	assert.Equal(t, "@every 15m0s", s.String())
}

func TestDailySchedule_Next(t *testing.T) {
	s := DailyAt(5, 30, time.UTC)

	t.Run("before the slot runs today", func(t *testing.T) {
		now := time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 2, 5, 30, 0, 0, time.UTC), s.Next(now))
	})

	t.Run("after the slot runs tomorrow", func(t *testing.T) {
		now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 3, 5, 30, 0, 0, time.UTC), s.Next(now))
	})

	t.Run("exactly at the slot runs tomorrow", func(t *testing.T) {
		now := time.Date(2026, 3, 2, 5, 30, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 3, 5, 30, 0, 0, time.UTC), s.Next(now))
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// Scheduler
// ═══════════════════════════════════════════════════════════════════════════

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := New(Config{})

	require.NoError(t, s.Register(&countingJob{name: "warm"}, Every(time.Hour)))

	err := s.Register(&countingJob{name: "warm"}, Every(time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RegisterRejectsNil(t *testing.T) {
	s := New(Config{})

	assert.ErrorIs(t, s.Register(nil, Every(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "warm"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "warm"}
	require.NoError(t, s.Register(job, Every(time.Hour)))

	require.NoError(t, s.RunNow(context.Background(), "warm"))
	assert.Equal(t, int64(1), job.runs.Load())

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].RunCount)
	assert.Equal(t, int64(0), infos[0].FailCount)
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "stalled", err: errors.New("store down")}
	require.NoError(t, s.Register(job, Every(time.Hour)))

	require.Error(t, s.RunNow(context.Background(), "stalled"))

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].FailCount)
	assert.EqualError(t, infos[0].LastError, "store down")
}

func TestScheduler_RunNowUnknownJob(t *testing.T) {
	s := New(Config{})

	err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Register(&countingJob{name: "warm"}, Every(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
