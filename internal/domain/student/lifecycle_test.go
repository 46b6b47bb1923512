package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

func newTestStudent(t *testing.T, stage Stage) *Student {
	t.Helper()
	nim, err := shared.NewNIM("2110512345")
	require.NoError(t, err)

	s, err := NewStudent(nim, "Siti Rahmawati", "Anomaly detection in campus networks")
	require.NoError(t, err)

	now := time.Now()
	for s.CurrentStage < stage {
		_, err := s.Advance(s.CurrentStage+1, "test", now)
		require.NoError(t, err)
	}
	return s
}

func TestAdvance_StepByStep(t *testing.T) {
	s := newTestStudent(t, StageTitleSubmission)
	now := time.Now()

	for next := StageSupervisorAssignment; next <= StageResultRevision; next++ {
		from, err := s.Advance(next, "test", now)
		assert.NoError(t, err)
		assert.Equal(t, next-1, from)
		assert.Equal(t, next, s.CurrentStage)
	}

	assert.Len(t, s.StageHistory, StageCount-1)
	assert.Equal(t, 100, s.ProgressPercent())
}

func TestAdvance_SkippingFails(t *testing.T) {
	s := newTestStudent(t, StageChapterUpload)

	_, err := s.Advance(StageSemproApplication, "test", time.Now())
	assert.ErrorIs(t, err, shared.ErrStateTransition)
	assert.Equal(t, StageChapterUpload, s.CurrentStage, "failed advance must not move the stage")
}

func TestAdvance_RepeatIsNotANoOp(t *testing.T) {
	s := newTestStudent(t, StageSemproScheduled)

	_, err := s.Advance(StageSemproScheduled, "test", time.Now())
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}

func TestAdvance_OutOfRangeStage(t *testing.T) {
	s := newTestStudent(t, StageTitleSubmission)

	_, err := s.Advance(Stage(14), "test", time.Now())
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = s.Advance(Stage(0), "test", time.Now())
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestRecordOutcome_PassIsTerminal(t *testing.T) {
	s := newTestStudent(t, StageResultRevision)
	now := time.Now()

	require.NoError(t, s.RecordOutcome(OutcomePass, now))
	assert.Equal(t, StatusGraduated, s.Status)
	assert.True(t, s.IsGraduated())

	// Graduated students are immutable either direction.
	_, err := s.Advance(StageResultRevision+1, "test", now)
	assert.ErrorIs(t, err, shared.ErrImmutable)

	_, err = s.Regress(StageChapterUpload, "late revision", DefaultMaxRevisions, now)
	assert.ErrorIs(t, err, shared.ErrImmutable)
}

func TestRecordOutcome_BeforeTerminalStageFails(t *testing.T) {
	s := newTestStudent(t, StageFinalExamination)

	err := s.RecordOutcome(OutcomeFail, time.Now())
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}

func TestRegress_RevisionLoop(t *testing.T) {
	s := newTestStudent(t, StageResultRevision)
	now := time.Now()
	require.NoError(t, s.RecordOutcome(OutcomeFail, now))

	from, err := s.Regress(StageChapterUpload, "major rework required", DefaultMaxRevisions, now)
	require.NoError(t, err)
	assert.Equal(t, StageResultRevision, from)
	assert.Equal(t, StageChapterUpload, s.CurrentStage)
	assert.Equal(t, 1, s.RevisionCount)
	assert.Equal(t, OutcomeNone, s.Outcome, "outcome resets when re-entering the loop")
}

func TestRegress_OnlyFromTerminalStage(t *testing.T) {
	s := newTestStudent(t, StageContinuedMentoring)

	_, err := s.Regress(StageChapterUpload, "nope", DefaultMaxRevisions, time.Now())
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}

func TestRegress_OnlyToChapterUpload(t *testing.T) {
	s := newTestStudent(t, StageResultRevision)
	now := time.Now()
	require.NoError(t, s.RecordOutcome(OutcomePassRevision, now))

	_, err := s.Regress(StageFirstMentoring, "wrong target", DefaultMaxRevisions, now)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
	assert.Equal(t, StageResultRevision, s.CurrentStage)
}

func TestRegress_RevisionCap(t *testing.T) {
	s := newTestStudent(t, StageResultRevision)
	now := time.Now()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.RecordOutcome(OutcomeFail, now))
		_, err := s.Regress(StageChapterUpload, "rework", 2, now)
		require.NoError(t, err)

		// Walk back up to the terminal stage for the next attempt.
		for s.CurrentStage < StageResultRevision {
			_, err := s.Advance(s.CurrentStage+1, "test", now)
			require.NoError(t, err)
		}
	}

	require.NoError(t, s.RecordOutcome(OutcomeFail, now))
	_, err := s.Regress(StageChapterUpload, "one too many", 2, now)
	assert.ErrorIs(t, err, shared.ErrRevisionLimit)
	assert.Equal(t, 2, s.RevisionCount)
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		stage Stage
		want  int
	}{
		{StageTitleSubmission, 8},
		{StageChapterUpload, 38},
		{StageSemproApplication, 54},
		{StageSemproScheduled, 62},
		{StageResultRevision, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.stage.ProgressPercent(), "stage %d", int(tt.stage))
	}
}

func TestSessionRefBookkeeping(t *testing.T) {
	s := newTestStudent(t, StageSemproApplication)
	now := time.Now()
	ref := SessionRef{SessionID: "a3c7e5d0-0000-4000-8000-000000000001", Kind: "sempro"}

	s.AttachSession(ref, now)
	s.AttachSession(ref, now) // idempotent
	assert.Len(t, s.ScheduledSessions, 1)
	assert.True(t, s.IsScheduled)

	s.DetachSession(ref.SessionID, now)
	assert.Empty(t, s.ScheduledSessions)
	assert.False(t, s.IsScheduled)
}
