// Package jobs contains the maintenance jobs run by the worker process.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/application/query"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// WarmAvailabilityJob precomputes the full-day availability grids for the
// upcoming booking window. The availability query caches every full-day grid
// it computes, so running the query is the warm-up: the first coordinator to
// open the grid in the morning hits Redis instead of the registry.
type WarmAvailabilityJob struct {
	availability *query.GetAvailabilityHandler
	days         int
	logger       *slog.Logger
}

// NewWarmAvailabilityJob creates the job. days bounds how far ahead grids
// are computed.
func NewWarmAvailabilityJob(availability *query.GetAvailabilityHandler, days int, logger *slog.Logger) *WarmAvailabilityJob {
	if days <= 0 {
		days = 14
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WarmAvailabilityJob{
		availability: availability,
		days:         days,
		logger:       logger.With("job", "warm_availability"),
	}
}

// Name returns the unique job name.
func (j *WarmAvailabilityJob) Name() string {
	return "warm_availability"
}

// Description returns a human-readable description.
func (j *WarmAvailabilityJob) Description() string {
	return fmt.Sprintf("precompute availability grids for the next %d days", j.days)
}

// Run computes one grid per day. A failing day is logged and skipped; the
// job only fails when every day fails, which points at the store rather
// than at a single bad date.
func (j *WarmAvailabilityJob) Run(ctx context.Context) error {
	now := time.Now()

	var warmed, failed int
	for i := 0; i < j.days; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		date := timeutil.NewDefenseDate(now.AddDate(0, 0, i))
		_, err := j.availability.Handle(ctx, query.GetAvailabilityQuery{
			DateFrom: date,
			DateTo:   date,
		})
		if err != nil {
			failed++
			j.logger.Warn("failed to warm availability grid", "date", date.String(), "error", err)
			continue
		}
		warmed++
	}

	j.logger.Info("availability grids warmed", "warmed", warmed, "failed", failed)

	if warmed == 0 && failed > 0 {
		return fmt.Errorf("warm availability: all %d days failed", failed)
	}
	return nil
}
