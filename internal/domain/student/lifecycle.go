package student

import (
	"fmt"
	"math"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// STAGES
// ═══════════════════════════════════════════════════════════════════════════

// Stage is one of the 13 ordered thesis milestones. Stages are totally
// ordered; the zero value is not a valid stage.
type Stage int

const (
	// StageTitleSubmission - student submits a thesis title proposal.
	StageTitleSubmission Stage = iota + 1
	// StageSupervisorAssignment - faculty assigns a supervising lecturer.
	StageSupervisorAssignment
	// StageTitleValidation - the title is validated and locked.
	StageTitleValidation
	// StageFirstMentoring - first supervision meeting held.
	StageFirstMentoring
	// StageChapterUpload - thesis chapters uploaded for review. The revision
	// loop re-enters here.
	StageChapterUpload
	// StageMentoringSessions - the mandatory run of supervision sessions.
	StageMentoringSessions
	// StageSemproApplication - student applies for the seminar-proposal
	// defense (Sempro).
	StageSemproApplication
	// StageSemproScheduled - a Sempro session is committed.
	StageSemproScheduled
	// StageContinuedMentoring - post-seminar supervision.
	StageContinuedMentoring
	// StageFinalApplication - student applies for the final defense.
	StageFinalApplication
	// StageFinalScheduled - a final-defense session is committed.
	StageFinalScheduled
	// StageFinalExamination - the defense itself takes place.
	StageFinalExamination
	// StageResultRevision - result recorded; terminal on Pass, loops back
	// on Fail or Pass-with-Revision.
	StageResultRevision
)

// StageCount is the number of lifecycle milestones.
const StageCount = 13

// stageNames maps stages to their display names.
var stageNames = map[Stage]string{
	StageTitleSubmission:      "Title Submission",
	StageSupervisorAssignment: "Supervisor Assignment",
	StageTitleValidation:      "Title Validation",
	StageFirstMentoring:       "First Mentoring",
	StageChapterUpload:        "Chapter Upload",
	StageMentoringSessions:    "Mentoring Sessions",
	StageSemproApplication:    "Seminar Proposal Application",
	StageSemproScheduled:      "Seminar Proposal Scheduled",
	StageContinuedMentoring:   "Continued Mentoring",
	StageFinalApplication:     "Final Defense Application",
	StageFinalScheduled:       "Final Defense Scheduled",
	StageFinalExamination:     "Final Examination",
	StageResultRevision:       "Result & Revision",
}

// IsValid reports whether the stage is within [1, StageCount].
func (s Stage) IsValid() bool {
	return s >= StageTitleSubmission && s <= StageResultRevision
}

// Int returns the underlying int value.
func (s Stage) Int() int {
	return int(s)
}

// String returns the display name of the stage.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Next returns the following stage, or the stage itself if terminal.
func (s Stage) Next() Stage {
	if s >= StageResultRevision {
		return StageResultRevision
	}
	return s + 1
}

// IsTerminal reports whether the stage is the last milestone.
func (s Stage) IsTerminal() bool {
	return s == StageResultRevision
}

// ProgressPercent returns the derived progress projection for a stage.
func (s Stage) ProgressPercent() int {
	if !s.IsValid() {
		return 0
	}
	return int(math.Round(100 * float64(s) / float64(StageCount)))
}

// ═══════════════════════════════════════════════════════════════════════════
// OUTCOMES
// ═══════════════════════════════════════════════════════════════════════════

// Outcome is the recorded result of the terminal stage.
type Outcome string

const (
	// OutcomeNone - no result recorded yet.
	OutcomeNone Outcome = ""
	// OutcomePass - graduated; the lifecycle is immutable from here.
	OutcomePass Outcome = "pass"
	// OutcomePassRevision - passed conditional on revisions; re-enters the
	// revision loop at chapter upload.
	OutcomePassRevision Outcome = "pass_with_revision"
	// OutcomeFail - failed; re-enters the revision loop at chapter upload.
	OutcomeFail Outcome = "fail"
)

// IsValid reports whether the outcome is a recordable value.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomePass, OutcomePassRevision, OutcomeFail:
		return true
	default:
		return false
	}
}

// RequiresRevision reports whether the outcome sends the student back.
func (o Outcome) RequiresRevision() bool {
	return o == OutcomePassRevision || o == OutcomeFail
}

// ═══════════════════════════════════════════════════════════════════════════
// STAGE HISTORY
// ═══════════════════════════════════════════════════════════════════════════

// StageRecord is one completed milestone in the student's history.
type StageRecord struct {
	// Stage is the milestone that was completed.
	Stage Stage `json:"stage"`

	// CompletedAt is when the milestone was reached.
	CompletedAt time.Time `json:"completed_at"`

	// Trigger names what caused the transition ("session_scheduled",
	// "evaluation", "manual", "revision").
	Trigger string `json:"trigger,omitempty"`
}

// ═══════════════════════════════════════════════════════════════════════════
// TRANSITIONS
// ═══════════════════════════════════════════════════════════════════════════

// DefaultMaxRevisions bounds the Fail / Pass-with-Revision loop. The legacy
// process had no bound; an explicit cap keeps a student from cycling through
// stage 13 indefinitely. Overridable via config.
const DefaultMaxRevisions = 3

// Advance moves the student to the given stage. The only permitted target is
// currentStage+1; anything else fails with a transition error. Returns the
// stage the student was at before the move.
func (s *Student) Advance(to Stage, trigger string, now time.Time) (Stage, error) {
	if !to.IsValid() {
		return s.CurrentStage, shared.NewDomainError("student", "Advance", shared.ErrValueOutOfRange,
			fmt.Sprintf("stage %d outside 1..%d", int(to), StageCount))
	}
	if s.IsGraduated() {
		return s.CurrentStage, shared.ErrStudentGraduated
	}
	if to != s.CurrentStage+1 {
		return s.CurrentStage, shared.WrapError("student", "Advance", shared.ErrStateTransition,
			fmt.Sprintf("cannot move from stage %d to %d", int(s.CurrentStage), int(to)),
			shared.ErrStageSkip)
	}

	from := s.CurrentStage
	s.StageHistory = append(s.StageHistory, StageRecord{
		Stage:       from,
		CompletedAt: now,
		Trigger:     trigger,
	})
	s.CurrentStage = to
	s.UpdatedAt = now
	return from, nil
}

// Regress sends the student back into the revision loop. Only the terminal
// stage with a Fail or Pass-with-Revision outcome permits it, and only
// toward the chapter-upload milestone. Attempts beyond maxRevisions fail;
// maxRevisions <= 0 applies DefaultMaxRevisions.
func (s *Student) Regress(to Stage, reason string, maxRevisions int, now time.Time) (Stage, error) {
	if maxRevisions <= 0 {
		maxRevisions = DefaultMaxRevisions
	}
	if s.IsGraduated() {
		return s.CurrentStage, shared.ErrStudentGraduated
	}
	if s.CurrentStage != StageResultRevision || !s.Outcome.RequiresRevision() {
		return s.CurrentStage, shared.ErrRegressNotAllowed
	}
	if to != StageChapterUpload {
		return s.CurrentStage, shared.WrapError("student", "Regress", shared.ErrStateTransition,
			fmt.Sprintf("revision loop targets stage %d, got %d", int(StageChapterUpload), int(to)),
			shared.ErrRegressNotAllowed)
	}
	if s.RevisionCount >= maxRevisions {
		return s.CurrentStage, shared.ErrRevisionLimit
	}

	from := s.CurrentStage
	s.RevisionCount++
	s.StageHistory = append(s.StageHistory, StageRecord{
		Stage:       from,
		CompletedAt: now,
		Trigger:     "revision: " + reason,
	})
	s.CurrentStage = to
	s.Outcome = OutcomeNone
	s.UpdatedAt = now
	return from, nil
}

// RecordOutcome records the terminal evaluation result. Pass graduates and
// archives the student, making the lifecycle immutable.
func (s *Student) RecordOutcome(o Outcome, now time.Time) error {
	if !o.IsValid() {
		return shared.NewDomainError("student", "RecordOutcome", shared.ErrInvalidInput,
			fmt.Sprintf("unknown outcome %q", string(o)))
	}
	if s.IsGraduated() {
		return shared.ErrStudentGraduated
	}
	if s.CurrentStage != StageResultRevision {
		return shared.WrapError("student", "RecordOutcome", shared.ErrStateTransition,
			fmt.Sprintf("outcome recordable only at stage %d, student at %d",
				int(StageResultRevision), int(s.CurrentStage)),
			shared.ErrInvalidState)
	}

	s.Outcome = o
	s.UpdatedAt = now
	if o == OutcomePass {
		s.Status = StatusGraduated
		s.GraduatedAt = now
	}
	return nil
}

// ProgressPercent returns the derived read-only progress projection:
// round(100 * currentStage / 13).
func (s *Student) ProgressPercent() int {
	return s.CurrentStage.ProgressPercent()
}
