// Package eventhandler contains domain event handlers.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/redis"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON SESSION COMMITTED HANDLER
// Keeps the availability cache honest after scheduling writes.
//
// Every committed booking change (schedule, reschedule, cancel) makes the
// cached day grid for the touched date stale, and the student's cached
// lifecycle view stale with it. This handler drops both so the next read
// rebuilds from the registry. Invalidation is idempotent and best effort:
// a failed delete only means one grid lives until its TTL expires.
// ═══════════════════════════════════════════════════════════════════════════

// OnSessionCommittedHandler invalidates cached availability grids and
// student views when a session is scheduled, rescheduled, or cancelled.
type OnSessionCommittedHandler struct {
	cache  *redis.AvailabilityCache
	logger *slog.Logger
	config SessionCommittedConfig
}

// SessionCommittedConfig contains handler configuration.
type SessionCommittedConfig struct {
	// InvalidateStudentView also drops the student's cached lifecycle
	// view, which embeds session references.
	InvalidateStudentView bool
}

// DefaultSessionCommittedConfig returns the default configuration.
func DefaultSessionCommittedConfig() SessionCommittedConfig {
	return SessionCommittedConfig{
		InvalidateStudentView: true,
	}
}

// NewOnSessionCommittedHandler creates the cache invalidation handler.
func NewOnSessionCommittedHandler(
	cache *redis.AvailabilityCache,
	logger *slog.Logger,
	config SessionCommittedConfig,
) *OnSessionCommittedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnSessionCommittedHandler{
		cache:  cache,
		logger: logger.With("handler", "on_session_committed"),
		config: config,
	}
}

// Handle processes a session lifecycle event.
// Implements shared.EventHandler.
func (h *OnSessionCommittedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	var dates []string
	var studentID string

	switch e := event.(type) {
	case shared.SessionScheduledEvent:
		dates = []string{e.Date}
		studentID = e.StudentID
	case shared.SessionRescheduledEvent:
		// A same-day move still needs one invalidation; dedupe below.
		dates = []string{e.OldDate, e.NewDate}
		studentID = e.StudentID
	case shared.SessionCancelledEvent:
		dates = []string{e.Date}
		studentID = e.StudentID
	default:
		h.logger.Warn("received unexpected event type",
			"event_type", event.EventType(),
		)
		return nil
	}

	for _, date := range dedupe(dates) {
		if date == "" {
			continue
		}
		if err := h.cache.InvalidateDate(ctx, date); err != nil {
			h.logger.Error("failed to invalidate day grid",
				"date", date,
				"event_type", event.EventType(),
				"error", err,
			)
			// Stale entries age out via TTL; no retry.
		}
	}

	if h.config.InvalidateStudentView && studentID != "" {
		if err := h.cache.InvalidateStudent(ctx, studentID); err != nil {
			h.logger.Error("failed to invalidate student view",
				"student_id", studentID,
				"error", err,
			)
		}
	}

	h.logger.Debug("cache invalidated",
		"event_type", event.EventType(),
		"dates", dates,
		"student_id", studentID,
	)

	return nil
}

func dedupe(dates []string) []string {
	if len(dates) < 2 {
		return dates
	}
	seen := make(map[string]struct{}, len(dates))
	out := dates[:0]
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
