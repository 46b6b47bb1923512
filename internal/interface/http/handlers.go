package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/application/command"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/application/query"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/calendar"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Thesis Scheduling Hub API",
		"version":     "v1",
		"description": "REST API for thesis defense scheduling and lifecycle tracking",
		"endpoints": map[string]string{
			"health":       "/health",
			"availability": "/api/v1/availability",
			"sessions":     "/api/v1/sessions",
			"lifecycle":    "/api/v1/students/{id}/lifecycle",
			"calendar":     "/api/v1/calendar",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError translates a domain error into an HTTP status. Conflict
// reports carry the structured violation list so clients can show the
// coordinator exactly which constraints failed.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	if ce, ok := session.AsConflictError(err); ok {
		writeJSONErrorWithViolations(w, http.StatusConflict,
			"scheduling_conflict", "the requested session violates scheduling constraints", ce.Violations)
		return
	}

	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, shared.ErrDuplicateEvent):
		writeJSONError(w, http.StatusConflict, "duplicate_event", err.Error())
	case errors.Is(err, shared.ErrImmutable):
		writeJSONError(w, http.StatusConflict, "immutable", err.Error())
	case shared.IsTransition(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsBusy(err):
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, http.StatusServiceUnavailable, "busy", "the record is being modified, retry shortly")
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed_body", "request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type scheduleSessionRequest struct {
	Kind        string   `json:"kind"`
	StudentID   string   `json:"student_id"`
	Date        string   `json:"date"`
	Slot        string   `json:"slot"`
	RoomID      string   `json:"room_id"`
	ExaminerIDs []string `json:"examiner_ids"`
	Notes       string   `json:"notes,omitempty"`
}

// sessionBody is the wire shape of a committed session.
type sessionBody struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	StudentID   string   `json:"student_id"`
	Date        string   `json:"date"`
	Slot        string   `json:"slot"`
	RoomID      string   `json:"room_id"`
	ExaminerIDs []string `json:"examiner_ids"`
	Notes       string   `json:"notes,omitempty"`
}

func sessionToBody(sess *session.Session) sessionBody {
	examiners := make([]string, len(sess.ExaminerIDs))
	for i, id := range sess.ExaminerIDs {
		examiners[i] = id.String()
	}
	return sessionBody{
		ID:          sess.ID.String(),
		Kind:        sess.Kind.String(),
		StudentID:   sess.StudentID.String(),
		Date:        sess.Date.String(),
		Slot:        sess.Slot.String(),
		RoomID:      sess.RoomID.String(),
		ExaminerIDs: examiners,
		Notes:       sess.Notes,
	}
}

// handleScheduleSession handles POST /api/v1/sessions
func (s *Server) handleScheduleSession(w http.ResponseWriter, r *http.Request) {
	var req scheduleSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	studentID, err := shared.NewStudentID(req.StudentID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	date, err := timeutil.ParseDefenseDate(req.Date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	slot, err := timeutil.ParseSlot(req.Slot)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	roomID, err := shared.NewRoomID(req.RoomID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	examiners := make([]shared.LecturerID, 0, len(req.ExaminerIDs))
	for _, raw := range req.ExaminerIDs {
		id, err := shared.NewLecturerID(raw)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		examiners = append(examiners, id)
	}

	cmd := command.ScheduleSessionCommand{
		Kind:          session.Kind(req.Kind),
		StudentID:     studentID,
		Date:          date,
		Slot:          slot,
		RoomID:        roomID,
		ExaminerIDs:   examiners,
		Notes:         req.Notes,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.ScheduleSession.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session":    sessionToBody(result.Session),
		"from_stage": int(result.FromStage),
		"to_stage":   int(result.ToStage),
	})
}

type rescheduleSessionRequest struct {
	Date   string `json:"date"`
	Slot   string `json:"slot"`
	RoomID string `json:"room_id,omitempty"`
}

// handleRescheduleSession handles POST /api/v1/sessions/{id}/reschedule
func (s *Server) handleRescheduleSession(w http.ResponseWriter, r *http.Request) {
	var req rescheduleSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date, err := timeutil.ParseDefenseDate(req.Date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	slot, err := timeutil.ParseSlot(req.Slot)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	cmd := command.RescheduleSessionCommand{
		SessionID:     shared.SessionID(r.PathValue("id")),
		Date:          date,
		Slot:          slot,
		CorrelationID: getRequestID(r.Context()),
	}
	if req.RoomID != "" {
		roomID, err := shared.NewRoomID(req.RoomID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		cmd.RoomID = roomID
	}

	result, err := s.deps.RescheduleSession.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":  sessionToBody(result.Session),
		"old_date": result.OldDate.String(),
		"old_slot": result.OldSlot.String(),
		"old_room": result.OldRoomID.String(),
	})
}

type cancelSessionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// handleCancelSession handles DELETE /api/v1/sessions/{id}
func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	var req cancelSessionRequest
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	cmd := command.CancelSessionCommand{
		SessionID:     shared.SessionID(r.PathValue("id")),
		Reason:        req.Reason,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.CancelSession.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": result.SessionID.String(),
		"student_id": result.StudentID.String(),
		"stage":      int(result.Stage),
	})
}

// handleListSessions handles GET /api/v1/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := query.ListSessionsQuery{
		Kind:     session.Kind(getQueryParam(r, "kind", "")),
		Page:     getQueryParamInt(r, "page", 1),
		PageSize: getQueryParamInt(r, "page_size", 20),
	}
	if v := r.URL.Query().Get("student_id"); v != "" {
		q.StudentID = shared.StudentID(v)
	}
	if v := r.URL.Query().Get("examiner_id"); v != "" {
		q.ExaminerID = shared.LecturerID(v)
	}
	if v := r.URL.Query().Get("date"); v != "" {
		date, err := timeutil.ParseDefenseDate(v)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		q.Date = date
	}

	result, err := s.deps.ListSessions.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// AVAILABILITY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetAvailability handles GET /api/v1/availability
func (s *Server) handleGetAvailability(w http.ResponseWriter, r *http.Request) {
	from, err := timeutil.ParseDefenseDate(getQueryParam(r, "from", ""))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	q := query.GetAvailabilityQuery{DateFrom: from}

	if v := r.URL.Query().Get("to"); v != "" {
		to, err := timeutil.ParseDefenseDate(v)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		q.DateTo = to
	}
	for _, raw := range splitIDs(r.URL.Query().Get("lecturer_ids")) {
		q.LecturerIDs = append(q.LecturerIDs, shared.LecturerID(raw))
	}
	for _, raw := range splitIDs(r.URL.Query().Get("room_ids")) {
		q.RoomIDs = append(q.RoomIDs, shared.RoomID(raw))
	}

	result, err := s.deps.GetAvailability.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// splitIDs splits a comma-separated ID list, dropping empty entries.
func splitIDs(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT & LIFECYCLE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type enrollStudentRequest struct {
	NIM         string `json:"nim"`
	Name        string `json:"name"`
	ThesisTitle string `json:"thesis_title"`
}

// handleEnrollStudent handles POST /api/v1/students
func (s *Server) handleEnrollStudent(w http.ResponseWriter, r *http.Request) {
	var req enrollStudentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := command.EnrollStudentCommand{
		NIM:           shared.NIM(req.NIM),
		Name:          req.Name,
		ThesisTitle:   req.ThesisTitle,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.EnrollStudent.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"student_id": result.Student.ID.String(),
		"nim":        result.Student.NIM.String(),
		"name":       result.Student.Name,
		"stage":      int(result.Student.CurrentStage),
	})
}

type assignSupervisorRequest struct {
	SupervisorID string `json:"supervisor_id"`
}

// handleAssignSupervisor handles PUT /api/v1/students/{id}/supervisor
func (s *Server) handleAssignSupervisor(w http.ResponseWriter, r *http.Request) {
	var req assignSupervisorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	supervisorID, err := shared.NewLecturerID(req.SupervisorID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	cmd := command.AssignSupervisorCommand{
		StudentID:     shared.StudentID(r.PathValue("id")),
		SupervisorID:  supervisorID,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.AssignSupervisor.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student_id":    result.StudentID.String(),
		"supervisor_id": result.SupervisorID.String(),
		"stage":         int(result.Stage),
	})
}

type advanceLifecycleRequest struct {
	ToStage int    `json:"to_stage,omitempty"`
	Trigger string `json:"trigger,omitempty"`
}

// handleAdvanceLifecycle handles POST /api/v1/students/{id}/advance
func (s *Server) handleAdvanceLifecycle(w http.ResponseWriter, r *http.Request) {
	var req advanceLifecycleRequest
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	cmd := command.AdvanceLifecycleCommand{
		StudentID:     shared.StudentID(r.PathValue("id")),
		ToStage:       student.Stage(req.ToStage),
		Trigger:       req.Trigger,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.AdvanceLifecycle.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student_id":       result.StudentID.String(),
		"from_stage":       int(result.FromStage),
		"to_stage":         int(result.ToStage),
		"progress_percent": result.ProgressPercent,
	})
}

type recordEvaluationRequest struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// handleRecordEvaluation handles POST /api/v1/students/{id}/evaluation
func (s *Server) handleRecordEvaluation(w http.ResponseWriter, r *http.Request) {
	var req recordEvaluationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := command.RecordEvaluationCommand{
		StudentID:     shared.StudentID(r.PathValue("id")),
		Outcome:       student.Outcome(req.Outcome),
		Reason:        req.Reason,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RecordEvaluation.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student_id": result.StudentID.String(),
		"outcome":    string(result.Outcome),
		"graduated":  result.Graduated,
		"stage":      int(result.Stage),
	})
}

// handleGetLifecycle handles GET /api/v1/students/{id}/lifecycle
func (s *Server) handleGetLifecycle(w http.ResponseWriter, r *http.Request) {
	q := query.GetLifecycleQuery{
		StudentID: shared.StudentID(r.PathValue("id")),
	}

	result, err := s.deps.GetLifecycle.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLifecycleByNIM handles GET /api/v1/lifecycle?nim=...
func (s *Server) handleGetLifecycleByNIM(w http.ResponseWriter, r *http.Request) {
	q := query.GetLifecycleQuery{
		NIM: shared.NIM(r.URL.Query().Get("nim")),
	}

	result, err := s.deps.GetLifecycle.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOURCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerLecturerRequest struct {
	Name          string   `json:"name"`
	NIDN          string   `json:"nidn"`
	Role          string   `json:"role"`
	ExpertiseTags []string `json:"expertise_tags,omitempty"`
	MaxQuota      int      `json:"max_quota"`
}

// handleRegisterLecturer handles POST /api/v1/lecturers
func (s *Server) handleRegisterLecturer(w http.ResponseWriter, r *http.Request) {
	var req registerLecturerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := command.RegisterLecturerCommand{
		Name:          req.Name,
		NIDN:          req.NIDN,
		Role:          lecturer.Role(req.Role),
		ExpertiseTags: req.ExpertiseTags,
		MaxQuota:      req.MaxQuota,
	}

	lec, err := s.deps.RegisterLecturer.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"lecturer_id": lec.ID.String(),
		"name":        lec.Name,
		"role":        string(lec.Role),
		"max_quota":   lec.Quota.Max,
	})
}

type slotMarkRequest struct {
	Date  string `json:"date"`
	Slot  string `json:"slot"`
	State string `json:"state"`
}

type updateAvailabilityRequest struct {
	Marks []slotMarkRequest `json:"marks"`
}

// handleUpdateAvailability handles PUT /api/v1/lecturers/{id}/availability
func (s *Server) handleUpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req updateAvailabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := command.UpdateAvailabilityCommand{
		LecturerID: shared.LecturerID(r.PathValue("id")),
	}
	for _, m := range req.Marks {
		date, err := timeutil.ParseDefenseDate(m.Date)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		slot, err := timeutil.ParseSlot(m.Slot)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		cmd.Marks = append(cmd.Marks, command.SlotMark{
			Date:  date,
			Slot:  slot,
			State: lecturer.SlotState(m.State),
		})
	}

	lec, err := s.deps.UpdateAvailability.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lecturer_id":   lec.ID.String(),
		"marks_applied": len(req.Marks),
	})
}

type registerRoomRequest struct {
	Name       string   `json:"name"`
	Capacity   int      `json:"capacity"`
	Facilities []string `json:"facilities,omitempty"`
}

// handleRegisterRoom handles POST /api/v1/rooms
func (s *Server) handleRegisterRoom(w http.ResponseWriter, r *http.Request) {
	var req registerRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := command.RegisterRoomCommand{
		Name:       req.Name,
		Capacity:   req.Capacity,
		Facilities: req.Facilities,
	}

	rm, err := s.deps.RegisterRoom.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"room_id":  rm.ID.String(),
		"name":     rm.Name,
		"capacity": rm.Capacity,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createCalendarEventRequest struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Semester    string `json:"semester"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description,omitempty"`
}

// calendarEventBody is the wire shape of a calendar event.
type calendarEventBody struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Semester    string    `json:"semester"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Description string    `json:"description,omitempty"`
}

func calendarEventToBody(ev *calendar.Event) calendarEventBody {
	return calendarEventBody{
		ID:          ev.ID,
		Name:        ev.Name,
		Kind:        string(ev.Kind),
		Semester:    ev.Semester.String(),
		StartDate:   ev.StartDate,
		EndDate:     ev.EndDate,
		Description: ev.Description,
	}
}

// parseDateOnly parses a YYYY-MM-DD calendar bound.
func parseDateOnly(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, shared.NewDomainError("http", "parseDateOnly", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	return t, nil
}

// handleCreateCalendarEvent handles POST /api/v1/calendar
func (s *Server) handleCreateCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var req createCalendarEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start, err := parseDateOnly(req.StartDate)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	end, err := parseDateOnly(req.EndDate)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	cmd := command.CreateCalendarEventCommand{
		Name:          req.Name,
		Kind:          calendar.EventKind(req.Kind),
		Semester:      shared.SemesterKey(req.Semester),
		StartDate:     start,
		EndDate:       end,
		Description:   req.Description,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.CreateCalendarEvent.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, calendarEventToBody(result.Event))
}

type updateCalendarEventRequest struct {
	Name        string `json:"name,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// handleUpdateCalendarEvent handles PATCH /api/v1/calendar/{id}
func (s *Server) handleUpdateCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var req updateCalendarEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := command.UpdateCalendarEventCommand{
		EventID:       r.PathValue("id"),
		Name:          req.Name,
		Description:   req.Description,
		CorrelationID: getRequestID(r.Context()),
	}
	if req.StartDate != "" {
		start, err := parseDateOnly(req.StartDate)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		cmd.StartDate = start
	}
	if req.EndDate != "" {
		end, err := parseDateOnly(req.EndDate)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		cmd.EndDate = end
	}

	ev, err := s.deps.UpdateCalendarEvent.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, calendarEventToBody(ev))
}
