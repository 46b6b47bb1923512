package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/calendar"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CalendarRepository implements calendar.Repository for PostgreSQL. The
// unique constraint on (kind, semester) backs the calendar guard at the
// storage layer as well.
type CalendarRepository struct {
	conn *Connection
}

// NewCalendarRepository creates a new CalendarRepository.
func NewCalendarRepository(conn *Connection) *CalendarRepository {
	return &CalendarRepository{conn: conn}
}

const calendarColumns = `
	id, name, kind, start_date, end_date, semester, description, created_at, updated_at
`

// Create persists a new event.
func (r *CalendarRepository) Create(ctx context.Context, e *calendar.Event) error {
	query := `
		INSERT INTO calendar_events (
			id, name, kind, start_date, end_date, semester, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		e.ID,
		e.Name,
		string(e.Kind),
		e.StartDate,
		e.EndDate,
		string(e.Semester),
		e.Description,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrEventTypeTaken
		}
		return fmt.Errorf("failed to create calendar event: %w", err)
	}

	return nil
}

// GetByID returns an event by internal ID.
func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*calendar.Event, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_events WHERE id = $1`
	row := r.conn.QueryRow(ctx, query, id)
	return scanCalendarEvent(row)
}

// FindByKindAndSemester returns the event occupying the pair.
func (r *CalendarRepository) FindByKindAndSemester(ctx context.Context, kind calendar.EventKind, semester shared.SemesterKey) (*calendar.Event, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_events WHERE kind = $1 AND semester = $2`
	row := r.conn.QueryRow(ctx, query, string(kind), string(semester))
	return scanCalendarEvent(row)
}

// ListBySemester returns all events for the semester.
func (r *CalendarRepository) ListBySemester(ctx context.Context, semester shared.SemesterKey) ([]*calendar.Event, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_events WHERE semester = $1 ORDER BY start_date`

	rows, err := r.conn.Query(ctx, query, string(semester))
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	var events []*calendar.Event
	for rows.Next() {
		e, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update persists event changes.
func (r *CalendarRepository) Update(ctx context.Context, e *calendar.Event) error {
	query := `
		UPDATE calendar_events SET
			name = $1, kind = $2, start_date = $3, end_date = $4,
			semester = $5, description = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.conn.Exec(ctx, query,
		e.Name,
		string(e.Kind),
		e.StartDate,
		e.EndDate,
		string(e.Semester),
		e.Description,
		time.Now().UTC(),
		e.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrEventTypeTaken
		}
		return fmt.Errorf("failed to update calendar event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrCalendarEventNotFound
	}

	return nil
}

// Remove deletes an event.
func (r *CalendarRepository) Remove(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM calendar_events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrCalendarEventNotFound
	}
	return nil
}

// scanCalendarEvent scans a single event from a row.
func scanCalendarEvent(row pgx.Row) (*calendar.Event, error) {
	var e calendar.Event
	var kind, semester string

	err := row.Scan(
		&e.ID,
		&e.Name,
		&kind,
		&e.StartDate,
		&e.EndDate,
		&semester,
		&e.Description,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrCalendarEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan calendar event: %w", err)
	}

	e.Kind = calendar.EventKind(kind)
	e.Semester = shared.SemesterKey(semester)
	return &e, nil
}
