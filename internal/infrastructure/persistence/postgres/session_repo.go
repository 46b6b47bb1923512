package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository for PostgreSQL.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

const sessionColumns = `
	id, kind, student_id, supervisor_id, defense_date::text, slot, room_id,
	examiner_ids, notes, created_at, updated_at
`

// Create persists a committed session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, kind, student_id, supervisor_id, defense_date, slot, room_id,
			examiner_ids, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	examiners := make([]string, len(s.ExaminerIDs))
	for i, id := range s.ExaminerIDs {
		examiners[i] = id.String()
	}

	_, err := r.conn.Exec(ctx, query,
		s.ID.String(),
		string(s.Kind),
		s.StudentID.String(),
		nullableID(s.SupervisorID.String()),
		string(s.Date),
		string(s.Slot),
		s.RoomID.String(),
		examiners,
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("session", "Create", shared.ErrAlreadyExists, "session already exists", err)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID returns a session by internal ID.
func (r *SessionRepository) GetByID(ctx context.Context, id shared.SessionID) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	row := r.conn.QueryRow(ctx, query, id.String())
	return scanSession(row)
}

// List returns sessions matching the filter.
func (r *SessionRepository) List(ctx context.Context, f session.Filter) ([]*session.Session, error) {
	var conditions []string
	var args []interface{}

	if f.Kind != "" {
		args = append(args, string(f.Kind))
		conditions = append(conditions, "kind = $"+strconv.Itoa(len(args)))
	}
	if !f.StudentID.IsEmpty() {
		args = append(args, f.StudentID.String())
		conditions = append(conditions, "student_id = $"+strconv.Itoa(len(args)))
	}
	if !f.ExaminerID.IsEmpty() {
		args = append(args, f.ExaminerID.String())
		conditions = append(conditions, "$"+strconv.Itoa(len(args))+" = ANY(examiner_ids)")
	}
	if f.Date != "" {
		args = append(args, string(f.Date))
		conditions = append(conditions, "defense_date = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY defense_date, slot"

	args = append(args, f.Pagination.Limit())
	query += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, f.Pagination.Offset())
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Update persists changes to a committed session.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	query := `
		UPDATE sessions SET
			defense_date = $2, slot = $3, room_id = $4, notes = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.conn.Exec(ctx, query,
		s.ID.String(),
		string(s.Date),
		string(s.Slot),
		s.RoomID.String(),
		s.Notes,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrSessionNotFound
	}
	return nil
}

// Remove deletes a cancelled session.
func (r *SessionRepository) Remove(ctx context.Context, id shared.SessionID) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrSessionNotFound
	}
	return nil
}

// scanSession scans a single session from a row.
func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	var id, kind, studentID, date, slot, roomID string
	var supervisorID *string
	var examiners []string

	err := row.Scan(
		&id,
		&kind,
		&studentID,
		&supervisorID,
		&date,
		&slot,
		&roomID,
		&examiners,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	s.ID = shared.SessionID(id)
	s.Kind = session.Kind(kind)
	s.StudentID = shared.StudentID(studentID)
	if supervisorID != nil {
		s.SupervisorID = shared.LecturerID(*supervisorID)
	}
	s.Date = timeutil.DefenseDate(date)
	s.Slot = timeutil.Slot(slot)
	s.RoomID = shared.RoomID(roomID)
	for _, e := range examiners {
		s.ExaminerIDs = append(s.ExaminerIDs, shared.LecturerID(e))
	}

	return &s, nil
}
