package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `
	id, nim, name, thesis_title, supervisor_id, current_stage,
	stage_history, scheduled_sessions, is_scheduled, outcome,
	revision_count, status, graduated_at, created_at, updated_at
`

// Create creates a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (
			id, nim, name, thesis_title, supervisor_id, current_stage,
			stage_history, scheduled_sessions, is_scheduled, outcome,
			revision_count, status, graduated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	historyJSON, sessionsJSON, err := marshalStudentState(s)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		s.ID.String(),
		string(s.NIM),
		s.Name,
		s.ThesisTitle,
		nullableID(s.SupervisorID.String()),
		int(s.CurrentStage),
		historyJSON,
		sessionsJSON,
		s.IsScheduled,
		string(s.Outcome),
		s.RevisionCount,
		string(s.Status),
		nullableTime(s.GraduatedAt),
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrStudentAlreadyExists
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID returns a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id shared.StudentID) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	row := r.conn.QueryRow(ctx, query, id.String())
	return scanStudent(row)
}

// GetByNIM returns a student by registration number.
func (r *StudentRepository) GetByNIM(ctx context.Context, nim shared.NIM) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE nim = $1`
	row := r.conn.QueryRow(ctx, query, string(nim))
	return scanStudent(row)
}

// List returns students matching the filter.
func (r *StudentRepository) List(ctx context.Context, f student.Filter) ([]*student.Student, error) {
	var conditions []string
	var args []interface{}

	if f.Status != "" {
		args = append(args, string(f.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if f.Stage != 0 {
		args = append(args, int(f.Stage))
		conditions = append(conditions, "current_stage = $"+strconv.Itoa(len(args)))
	}
	if !f.SupervisorID.IsEmpty() {
		args = append(args, f.SupervisorID.String())
		conditions = append(conditions, "supervisor_id = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + studentColumns + ` FROM students`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY nim ASC"

	args = append(args, f.Pagination.Limit())
	query += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, f.Pagination.Offset())
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []*student.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Update updates a student.
func (r *StudentRepository) Update(ctx context.Context, s *student.Student) error {
	query := `
		UPDATE students SET
			name = $1,
			thesis_title = $2,
			supervisor_id = $3,
			current_stage = $4,
			stage_history = $5,
			scheduled_sessions = $6,
			is_scheduled = $7,
			outcome = $8,
			revision_count = $9,
			status = $10,
			graduated_at = $11,
			updated_at = $12
		WHERE id = $13
	`

	historyJSON, sessionsJSON, err := marshalStudentState(s)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		s.Name,
		s.ThesisTitle,
		nullableID(s.SupervisorID.String()),
		int(s.CurrentStage),
		historyJSON,
		sessionsJSON,
		s.IsScheduled,
		string(s.Outcome),
		s.RevisionCount,
		string(s.Status),
		nullableTime(s.GraduatedAt),
		time.Now().UTC(),
		s.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrStudentNotFound
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// stageRecordRow is the JSONB shape for one completed milestone.
type stageRecordRow struct {
	Stage       int       `json:"stage"`
	CompletedAt time.Time `json:"completed_at"`
	Trigger     string    `json:"trigger"`
}

// sessionRefRow is the JSONB shape for one attached session.
type sessionRefRow struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

func marshalStudentState(s *student.Student) ([]byte, []byte, error) {
	history := make([]stageRecordRow, len(s.StageHistory))
	for i, rec := range s.StageHistory {
		history[i] = stageRecordRow{
			Stage:       int(rec.Stage),
			CompletedAt: rec.CompletedAt,
			Trigger:     rec.Trigger,
		}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal stage history: %w", err)
	}

	refs := make([]sessionRefRow, len(s.ScheduledSessions))
	for i, ref := range s.ScheduledSessions {
		refs[i] = sessionRefRow{SessionID: ref.SessionID.String(), Kind: ref.Kind}
	}
	sessionsJSON, err := json.Marshal(refs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal session refs: %w", err)
	}

	return historyJSON, sessionsJSON, nil
}

// scanStudent scans a single student from a row.
func scanStudent(row pgx.Row) (*student.Student, error) {
	var s student.Student
	var id, nim, outcome, status string
	var supervisorID *string
	var currentStage int
	var historyJSON, sessionsJSON []byte
	var graduatedAt *time.Time

	err := row.Scan(
		&id,
		&nim,
		&s.Name,
		&s.ThesisTitle,
		&supervisorID,
		&currentStage,
		&historyJSON,
		&sessionsJSON,
		&s.IsScheduled,
		&outcome,
		&s.RevisionCount,
		&status,
		&graduatedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.ID = shared.StudentID(id)
	s.NIM = shared.NIM(nim)
	if supervisorID != nil {
		s.SupervisorID = shared.LecturerID(*supervisorID)
	}
	s.CurrentStage = student.Stage(currentStage)
	s.Outcome = student.Outcome(outcome)
	s.Status = student.Status(status)
	if graduatedAt != nil {
		s.GraduatedAt = *graduatedAt
	}

	var history []stageRecordRow
	if err := json.Unmarshal(historyJSON, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stage history: %w", err)
	}
	for _, rec := range history {
		s.StageHistory = append(s.StageHistory, student.StageRecord{
			Stage:       student.Stage(rec.Stage),
			CompletedAt: rec.CompletedAt,
			Trigger:     rec.Trigger,
		})
	}

	var refs []sessionRefRow
	if err := json.Unmarshal(sessionsJSON, &refs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session refs: %w", err)
	}
	for _, ref := range refs {
		s.ScheduledSessions = append(s.ScheduledSessions, student.SessionRef{
			SessionID: shared.SessionID(ref.SessionID),
			Kind:      ref.Kind,
		})
	}

	return &s, nil
}

// nullableID maps an empty ID string to SQL NULL.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// nullableTime maps a zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
