package query

import (
	"context"
	"fmt"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST SESSIONS QUERY
// The committed schedule, filterable by kind, student, examiner, and date,
// enriched with student and room names for display.
// ══════════════════════════════════════════════════════════════════════════════

// ListSessionsQuery contains the filter parameters.
type ListSessionsQuery struct {
	// Kind filters by session variant. Empty means both.
	Kind session.Kind

	// StudentID filters by defending student.
	StudentID shared.StudentID

	// ExaminerID filters to sessions with the lecturer on the panel.
	ExaminerID shared.LecturerID

	// Date filters by defense day.
	Date timeutil.DefenseDate

	// Page and PageSize bound the result set.
	Page     int
	PageSize int
}

// Validate checks the filter parameters.
func (q ListSessionsQuery) Validate() error {
	if q.Kind != "" && !q.Kind.IsValid() {
		return shared.NewDomainError("query", "ListSessions", shared.ErrInvalidInput,
			fmt.Sprintf("unknown session kind %q", string(q.Kind)))
	}
	if q.Date != "" && !q.Date.IsValid() {
		return shared.NewDomainError("query", "ListSessions", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	return nil
}

// SessionDTO is one committed session in the listing.
type SessionDTO struct {
	SessionID    string    `json:"session_id"`
	Kind         string    `json:"kind"`
	StudentID    string    `json:"student_id"`
	StudentName  string    `json:"student_name,omitempty"`
	StudentNIM   string    `json:"student_nim,omitempty"`
	Date         string    `json:"date"`
	Slot         string    `json:"slot"`
	RoomID       string    `json:"room_id"`
	RoomName     string    `json:"room_name,omitempty"`
	ExaminerIDs  []string  `json:"examiner_ids"`
	SupervisorID string    `json:"supervisor_id,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionListDTO is the query result.
type SessionListDTO struct {
	Sessions []SessionDTO `json:"sessions"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ListSessionsHandler handles the ListSessionsQuery.
type ListSessionsHandler struct {
	sessionRepo session.Repository
	studentRepo student.Repository
	roomRepo    room.Repository
}

// NewListSessionsHandler creates a new ListSessionsHandler.
func NewListSessionsHandler(
	sessionRepo session.Repository,
	studentRepo student.Repository,
	roomRepo room.Repository,
) *ListSessionsHandler {
	return &ListSessionsHandler{
		sessionRepo: sessionRepo,
		studentRepo: studentRepo,
		roomRepo:    roomRepo,
	}
}

// Handle executes the list sessions query. Name enrichment is best-effort: a
// missing student or room leaves the name empty rather than failing the list.
func (h *ListSessionsHandler) Handle(ctx context.Context, q ListSessionsQuery) (*SessionListDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	pagination := shared.NewPagination(q.Page, q.PageSize)
	sessions, err := h.sessionRepo.List(ctx, session.Filter{
		Kind:       q.Kind,
		StudentID:  q.StudentID,
		ExaminerID: q.ExaminerID,
		Date:       q.Date,
		Pagination: pagination,
	})
	if err != nil {
		return nil, fmt.Errorf("list_sessions: %w", err)
	}

	result := &SessionListDTO{
		Sessions: make([]SessionDTO, 0, len(sessions)),
		Page:     pagination.Page,
		PageSize: pagination.Limit(),
	}

	studentNames := make(map[shared.StudentID]*student.Student)
	roomNames := make(map[shared.RoomID]string)
	for _, sess := range sessions {
		dto := SessionDTO{
			SessionID:    sess.ID.String(),
			Kind:         sess.Kind.String(),
			StudentID:    sess.StudentID.String(),
			Date:         sess.Date.String(),
			Slot:         sess.Slot.String(),
			RoomID:       sess.RoomID.String(),
			ExaminerIDs:  lecturerIDStrings(sess.ExaminerIDs),
			SupervisorID: sess.SupervisorID.String(),
			Notes:        sess.Notes,
			CreatedAt:    sess.CreatedAt,
		}

		stud, ok := studentNames[sess.StudentID]
		if !ok {
			stud, _ = h.studentRepo.GetByID(ctx, sess.StudentID)
			studentNames[sess.StudentID] = stud
		}
		if stud != nil {
			dto.StudentName = stud.Name
			dto.StudentNIM = stud.NIM.String()
		}

		name, ok := roomNames[sess.RoomID]
		if !ok {
			if rm, err := h.roomRepo.GetByID(ctx, sess.RoomID); err == nil {
				name = rm.Name
			}
			roomNames[sess.RoomID] = name
		}
		dto.RoomName = name

		result.Sessions = append(result.Sessions, dto)
	}

	return result, nil
}

func lecturerIDStrings(ids []shared.LecturerID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
