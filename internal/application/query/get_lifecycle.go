package query

import (
	"context"
	"fmt"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LIFECYCLE QUERY
// The student-facing progress view: current milestone, derived progress
// percentage, completed-stage history, and scheduled sessions.
// ══════════════════════════════════════════════════════════════════════════════

// GetLifecycleQuery contains the parameters for a lifecycle lookup.
type GetLifecycleQuery struct {
	// StudentID is the internal ID. Takes precedence when set.
	StudentID shared.StudentID

	// NIM is the alternative lookup by registration number.
	NIM shared.NIM
}

// Validate checks that one identifier is present.
func (q GetLifecycleQuery) Validate() error {
	if q.StudentID.IsEmpty() && q.NIM == "" {
		return shared.NewDomainError("query", "GetLifecycle", shared.ErrEmptyValue,
			"either student_id or nim is required")
	}
	return nil
}

// StageRecordDTO is one completed milestone.
type StageRecordDTO struct {
	Stage       int       `json:"stage"`
	StageName   string    `json:"stage_name"`
	CompletedAt time.Time `json:"completed_at"`
	Trigger     string    `json:"trigger,omitempty"`
}

// SessionRefDTO is one scheduled session reference.
type SessionRefDTO struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

// LifecycleDTO is the query result.
type LifecycleDTO struct {
	StudentID       string           `json:"student_id"`
	NIM             string           `json:"nim"`
	Name            string           `json:"name"`
	ThesisTitle     string           `json:"thesis_title,omitempty"`
	Status          string           `json:"status"`
	CurrentStage    int              `json:"current_stage"`
	StageName       string           `json:"stage_name"`
	ProgressPercent int              `json:"progress_percent"`
	RevisionCount   int              `json:"revision_count"`
	Outcome         string           `json:"outcome,omitempty"`
	IsScheduled     bool             `json:"is_scheduled"`
	History         []StageRecordDTO `json:"history"`
	Sessions        []SessionRefDTO  `json:"sessions"`
	GraduatedAt     *time.Time       `json:"graduated_at,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetLifecycleHandler handles the GetLifecycleQuery.
type GetLifecycleHandler struct {
	studentRepo student.Repository
	cache       *redis.AvailabilityCache
}

// NewGetLifecycleHandler creates a new GetLifecycleHandler. A nil cache
// disables caching.
func NewGetLifecycleHandler(studentRepo student.Repository, cache *redis.AvailabilityCache) *GetLifecycleHandler {
	return &GetLifecycleHandler{studentRepo: studentRepo, cache: cache}
}

// Handle executes the lifecycle query. ID lookups are served from the
// student-view cache when warm; NIM lookups always hit the repository.
func (h *GetLifecycleHandler) Handle(ctx context.Context, q GetLifecycleQuery) (*LifecycleDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if !q.StudentID.IsEmpty() {
		var cached LifecycleDTO
		if err := h.cache.GetStudentView(ctx, q.StudentID.String(), &cached); err == nil {
			return &cached, nil
		}
	}

	var stud *student.Student
	var err error
	if !q.StudentID.IsEmpty() {
		stud, err = h.studentRepo.GetByID(ctx, q.StudentID)
	} else {
		stud, err = h.studentRepo.GetByNIM(ctx, q.NIM)
	}
	if err != nil {
		return nil, fmt.Errorf("get_lifecycle: load student: %w", err)
	}

	dto := buildLifecycleDTO(stud)
	_ = h.cache.SetStudentView(ctx, stud.ID.String(), dto)
	return dto, nil
}

// buildLifecycleDTO projects the aggregate into the read model.
func buildLifecycleDTO(stud *student.Student) *LifecycleDTO {
	dto := &LifecycleDTO{
		StudentID:       stud.ID.String(),
		NIM:             stud.NIM.String(),
		Name:            stud.Name,
		ThesisTitle:     stud.ThesisTitle,
		Status:          string(stud.Status),
		CurrentStage:    stud.CurrentStage.Int(),
		StageName:       stud.CurrentStage.String(),
		ProgressPercent: stud.ProgressPercent(),
		RevisionCount:   stud.RevisionCount,
		Outcome:         string(stud.Outcome),
		IsScheduled:     stud.IsScheduled,
		History:         make([]StageRecordDTO, 0, len(stud.StageHistory)),
		Sessions:        make([]SessionRefDTO, 0, len(stud.ScheduledSessions)),
	}
	for _, rec := range stud.StageHistory {
		dto.History = append(dto.History, StageRecordDTO{
			Stage:       rec.Stage.Int(),
			StageName:   rec.Stage.String(),
			CompletedAt: rec.CompletedAt,
			Trigger:     rec.Trigger,
		})
	}
	for _, ref := range stud.ScheduledSessions {
		dto.Sessions = append(dto.Sessions, SessionRefDTO{
			SessionID: ref.SessionID.String(),
			Kind:      ref.Kind,
		})
	}
	if !stud.GraduatedAt.IsZero() {
		t := stud.GraduatedAt
		dto.GraduatedAt = &t
	}
	return dto
}
