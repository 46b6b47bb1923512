package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
)

// DetectStalledStudentsJob flags active thesis records that have not moved
// for longer than the threshold. The report goes to the log; program
// coordinators pick it up from there. No state changes and no messages to
// students, so a false positive costs nothing.
type DetectStalledStudentsJob struct {
	students  student.Repository
	threshold time.Duration
	logger    *slog.Logger
}

// NewDetectStalledStudentsJob creates the job. threshold is how long a
// record may sit unchanged before it is reported.
func NewDetectStalledStudentsJob(students student.Repository, threshold time.Duration, logger *slog.Logger) *DetectStalledStudentsJob {
	if threshold <= 0 {
		threshold = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectStalledStudentsJob{
		students:  students,
		threshold: threshold,
		logger:    logger.With("job", "detect_stalled_students"),
	}
}

// Name returns the unique job name.
func (j *DetectStalledStudentsJob) Name() string {
	return "detect_stalled_students"
}

// Description returns a human-readable description.
func (j *DetectStalledStudentsJob) Description() string {
	return fmt.Sprintf("report active students unchanged for more than %s", j.threshold)
}

// Run pages through active students and reports the stalled ones.
func (j *DetectStalledStudentsJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.threshold)

	var scanned, stalled int
	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := j.students.List(ctx, student.Filter{
			Status: student.StatusActive,
			Pagination: shared.Pagination{
				Page:     page,
				PageSize: shared.MaxPageSize,
			},
		})
		if err != nil {
			return fmt.Errorf("detect stalled students: list page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, st := range batch {
			scanned++
			if st.CurrentStage.IsTerminal() || !st.UpdatedAt.Before(cutoff) {
				continue
			}
			stalled++
			j.logger.Warn("student lifecycle stalled",
				"student_id", st.ID.String(),
				"nim", st.NIM.String(),
				"stage", st.CurrentStage.String(),
				"last_change", st.UpdatedAt.Format(time.RFC3339),
			)
		}

		if len(batch) < shared.MaxPageSize {
			break
		}
	}

	j.logger.Info("stalled lifecycle scan completed", "scanned", scanned, "stalled", stalled)
	return nil
}
