package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LECTURER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LecturerRepository implements lecturer.Repository for PostgreSQL.
type LecturerRepository struct {
	conn *Connection
}

// NewLecturerRepository creates a new LecturerRepository.
func NewLecturerRepository(conn *Connection) *LecturerRepository {
	return &LecturerRepository{conn: conn}
}

const lecturerColumns = `
	id, name, nidn, expertise_tags, role, quota_max, quota_used,
	availability, created_at, updated_at
`

// Create creates a new lecturer.
func (r *LecturerRepository) Create(ctx context.Context, l *lecturer.Lecturer) error {
	query := `
		INSERT INTO lecturers (
			id, name, nidn, expertise_tags, role, quota_max, quota_used,
			availability, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	availJSON, err := json.Marshal(l.Availability)
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		l.ID.String(),
		l.Name,
		l.NIDN,
		l.ExpertiseTags,
		string(l.Role),
		l.Quota.Max,
		l.Quota.Used,
		availJSON,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("lecturer", "Create", shared.ErrAlreadyExists, "lecturer already exists", err)
		}
		return fmt.Errorf("failed to create lecturer: %w", err)
	}

	return nil
}

// GetByID returns a lecturer by internal ID.
func (r *LecturerRepository) GetByID(ctx context.Context, id shared.LecturerID) (*lecturer.Lecturer, error) {
	query := `SELECT ` + lecturerColumns + ` FROM lecturers WHERE id = $1`
	row := r.conn.QueryRow(ctx, query, id.String())
	return scanLecturer(row)
}

// List returns lecturers matching the filter.
func (r *LecturerRepository) List(ctx context.Context, f lecturer.Filter) ([]*lecturer.Lecturer, error) {
	var conditions []string
	var args []interface{}

	if f.Role != "" {
		args = append(args, string(f.Role))
		conditions = append(conditions, "role = $"+strconv.Itoa(len(args)))
	}
	if f.ExpertiseTag != "" {
		args = append(args, f.ExpertiseTag)
		conditions = append(conditions, "$"+strconv.Itoa(len(args))+" = ANY(expertise_tags)")
	}
	if f.OnlyWithQuota {
		conditions = append(conditions, "quota_used < quota_max")
	}

	query := `SELECT ` + lecturerColumns + ` FROM lecturers`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC"

	args = append(args, f.Pagination.Limit())
	query += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, f.Pagination.Offset())
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lecturers: %w", err)
	}
	defer rows.Close()

	var lecturers []*lecturer.Lecturer
	for rows.Next() {
		l, err := scanLecturer(rows)
		if err != nil {
			return nil, err
		}
		lecturers = append(lecturers, l)
	}
	return lecturers, rows.Err()
}

// Update updates a lecturer.
func (r *LecturerRepository) Update(ctx context.Context, l *lecturer.Lecturer) error {
	query := `
		UPDATE lecturers SET
			name = $1,
			nidn = $2,
			expertise_tags = $3,
			role = $4,
			quota_max = $5,
			quota_used = $6,
			availability = $7,
			updated_at = $8
		WHERE id = $9
	`

	availJSON, err := json.Marshal(l.Availability)
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}

	result, err := r.conn.Exec(ctx, query,
		l.Name,
		l.NIDN,
		l.ExpertiseTags,
		string(l.Role),
		l.Quota.Max,
		l.Quota.Used,
		availJSON,
		time.Now().UTC(),
		l.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update lecturer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrLecturerNotFound
	}

	return nil
}

// Remove deletes a lecturer record.
func (r *LecturerRepository) Remove(ctx context.Context, id shared.LecturerID) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM lecturers WHERE id = $1", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete lecturer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrLecturerNotFound
	}
	return nil
}

// scanLecturer scans a single lecturer from a row.
func scanLecturer(row pgx.Row) (*lecturer.Lecturer, error) {
	var l lecturer.Lecturer
	var id, role string
	var availJSON []byte

	err := row.Scan(
		&id,
		&l.Name,
		&l.NIDN,
		&l.ExpertiseTags,
		&role,
		&l.Quota.Max,
		&l.Quota.Used,
		&availJSON,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrLecturerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lecturer: %w", err)
	}

	l.ID = shared.LecturerID(id)
	l.Role = lecturer.Role(role)
	l.Availability = lecturer.Calendar{}
	if len(availJSON) > 0 {
		if err := json.Unmarshal(availJSON, &l.Availability); err != nil {
			return nil, fmt.Errorf("failed to unmarshal availability: %w", err)
		}
	}

	return &l, nil
}
