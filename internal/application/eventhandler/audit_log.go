package eventhandler

import (
	"log/slog"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// AUDIT LOG HANDLER
// Writes one structured log line per domain event.
//
// Scheduling decisions are contested: a student who lost a slot or a
// lecturer whose quota ran out will ask why. The audit trail answers
// from the log alone, so it runs synchronously, before any async
// handler, and never filters by type.
// ═══════════════════════════════════════════════════════════════════════════

// AuditLogHandler records every domain event to the structured log.
type AuditLogHandler struct {
	logger *slog.Logger
	config AuditLogConfig
}

// AuditLogConfig contains handler configuration.
type AuditLogConfig struct {
	// IncludePayload logs the full event payload. Disable in
	// environments where log volume matters more than forensics.
	IncludePayload bool
}

// DefaultAuditLogConfig returns the default configuration.
func DefaultAuditLogConfig() AuditLogConfig {
	return AuditLogConfig{
		IncludePayload: true,
	}
}

// NewAuditLogHandler creates a new audit log handler.
func NewAuditLogHandler(logger *slog.Logger, config AuditLogConfig) *AuditLogHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuditLogHandler{
		logger: logger.With("handler", "audit_log"),
		config: config,
	}
}

// Handle logs the event.
// Implements shared.EventHandler.
func (h *AuditLogHandler) Handle(event shared.Event) error {
	attrs := []any{
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
	}
	if h.config.IncludePayload {
		attrs = append(attrs, "payload", event.Payload())
	}

	h.logger.Info("domain event", attrs...)
	return nil
}
