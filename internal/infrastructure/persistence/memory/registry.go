// Package memory implements the persistence contracts with map-backed
// stores. It is the reference registry the engine and its tests run
// against; the postgres package implements the same contracts for
// deployments that need durability.
package memory

import (
	"context"
	"sync"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/calendar"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/lecturer"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/room"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/session"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/student"
)

// ═══════════════════════════════════════════════════════════════════════════
// STUDENT STORE
// ═══════════════════════════════════════════════════════════════════════════

// StudentStore implements student.Repository in memory.
type StudentStore struct {
	mu    sync.RWMutex
	byID  map[shared.StudentID]*student.Student
	byNIM map[shared.NIM]shared.StudentID
}

// NewStudentStore creates an empty student store.
func NewStudentStore() *StudentStore {
	return &StudentStore{
		byID:  make(map[shared.StudentID]*student.Student),
		byNIM: make(map[shared.NIM]shared.StudentID),
	}
}

// Create persists a new student.
func (s *StudentStore) Create(_ context.Context, st *student.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[st.ID]; ok {
		return shared.ErrStudentAlreadyExists
	}
	if _, ok := s.byNIM[st.NIM]; ok {
		return shared.ErrStudentAlreadyExists
	}
	s.byID[st.ID] = st.Clone()
	s.byNIM[st.NIM] = st.ID
	return nil
}

// GetByID returns a student by internal ID.
func (s *StudentStore) GetByID(_ context.Context, id shared.StudentID) (*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return st.Clone(), nil
}

// GetByNIM returns a student by registration number.
func (s *StudentStore) GetByNIM(_ context.Context, nim shared.NIM) (*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNIM[nim]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return s.byID[id].Clone(), nil
}

// List returns students matching the filter.
func (s *StudentStore) List(_ context.Context, f student.Filter) ([]*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*student.Student
	for _, st := range s.byID {
		if f.Status != "" && st.Status != f.Status {
			continue
		}
		if f.Stage != 0 && st.CurrentStage != f.Stage {
			continue
		}
		if !f.SupervisorID.IsEmpty() && st.SupervisorID != f.SupervisorID {
			continue
		}
		out = append(out, st.Clone())
	}
	return paginate(out, f.Pagination), nil
}

// Update persists the aggregate state.
func (s *StudentStore) Update(_ context.Context, st *student.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[st.ID]; !ok {
		return shared.ErrStudentNotFound
	}
	s.byID[st.ID] = st.Clone()
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// LECTURER STORE
// ═══════════════════════════════════════════════════════════════════════════

// LecturerStore implements lecturer.Repository in memory.
type LecturerStore struct {
	mu   sync.RWMutex
	byID map[shared.LecturerID]*lecturer.Lecturer
}

// NewLecturerStore creates an empty lecturer store.
func NewLecturerStore() *LecturerStore {
	return &LecturerStore{byID: make(map[shared.LecturerID]*lecturer.Lecturer)}
}

// Create persists a new lecturer.
func (s *LecturerStore) Create(_ context.Context, l *lecturer.Lecturer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[l.ID]; ok {
		return shared.WrapError("lecturer", "Create", shared.ErrAlreadyExists, "lecturer already exists", nil)
	}
	s.byID[l.ID] = l.Clone()
	return nil
}

// GetByID returns a lecturer by internal ID.
func (s *LecturerStore) GetByID(_ context.Context, id shared.LecturerID) (*lecturer.Lecturer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrLecturerNotFound
	}
	return l.Clone(), nil
}

// List returns lecturers matching the filter.
func (s *LecturerStore) List(_ context.Context, f lecturer.Filter) ([]*lecturer.Lecturer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*lecturer.Lecturer
	for _, l := range s.byID {
		if f.Role != "" && l.Role != f.Role {
			continue
		}
		if f.ExpertiseTag != "" && !l.HasExpertise(f.ExpertiseTag) {
			continue
		}
		if f.OnlyWithQuota && !l.Quota.HasRoom() {
			continue
		}
		out = append(out, l.Clone())
	}
	return paginate(out, f.Pagination), nil
}

// Update persists the aggregate state.
func (s *LecturerStore) Update(_ context.Context, l *lecturer.Lecturer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[l.ID]; !ok {
		return shared.ErrLecturerNotFound
	}
	s.byID[l.ID] = l.Clone()
	return nil
}

// Remove deletes a lecturer record.
func (s *LecturerStore) Remove(_ context.Context, id shared.LecturerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return shared.ErrLecturerNotFound
	}
	delete(s.byID, id)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ROOM STORE
// ═══════════════════════════════════════════════════════════════════════════

// RoomStore implements room.Repository in memory.
type RoomStore struct {
	mu   sync.RWMutex
	byID map[shared.RoomID]*room.Room
}

// NewRoomStore creates an empty room store.
func NewRoomStore() *RoomStore {
	return &RoomStore{byID: make(map[shared.RoomID]*room.Room)}
}

// Create persists a new room.
func (s *RoomStore) Create(_ context.Context, r *room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; ok {
		return shared.WrapError("room", "Create", shared.ErrAlreadyExists, "room already exists", nil)
	}
	s.byID[r.ID] = r.Clone()
	return nil
}

// GetByID returns a room by internal ID.
func (s *RoomStore) GetByID(_ context.Context, id shared.RoomID) (*room.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrRoomNotFound
	}
	return r.Clone(), nil
}

// List returns rooms matching the filter.
func (s *RoomStore) List(_ context.Context, f room.Filter) ([]*room.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*room.Room
	for _, r := range s.byID {
		if f.MinCapacity > 0 && r.Capacity < f.MinCapacity {
			continue
		}
		if f.Facility != "" && !r.HasFacility(f.Facility) {
			continue
		}
		out = append(out, r.Clone())
	}
	return paginate(out, f.Pagination), nil
}

// Update persists the aggregate state.
func (s *RoomStore) Update(_ context.Context, r *room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; !ok {
		return shared.ErrRoomNotFound
	}
	s.byID[r.ID] = r.Clone()
	return nil
}

// Remove deletes a room record.
func (s *RoomStore) Remove(_ context.Context, id shared.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return shared.ErrRoomNotFound
	}
	delete(s.byID, id)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ═══════════════════════════════════════════════════════════════════════════

// SessionStore implements session.Repository in memory.
type SessionStore struct {
	mu   sync.RWMutex
	byID map[shared.SessionID]*session.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{byID: make(map[shared.SessionID]*session.Session)}
}

// Create persists a committed session.
func (s *SessionStore) Create(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[sess.ID]; ok {
		return shared.WrapError("session", "Create", shared.ErrAlreadyExists, "session already exists", nil)
	}
	s.byID[sess.ID] = sess.Clone()
	return nil
}

// GetByID returns a session by internal ID.
func (s *SessionStore) GetByID(_ context.Context, id shared.SessionID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// List returns sessions matching the filter.
func (s *SessionStore) List(_ context.Context, f session.Filter) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*session.Session
	for _, sess := range s.byID {
		if f.Kind != "" && sess.Kind != f.Kind {
			continue
		}
		if !f.StudentID.IsEmpty() && sess.StudentID != f.StudentID {
			continue
		}
		if !f.ExaminerID.IsEmpty() && !sess.HasExaminer(f.ExaminerID) {
			continue
		}
		if f.Date != "" && sess.Date != f.Date {
			continue
		}
		out = append(out, sess.Clone())
	}
	return paginate(out, f.Pagination), nil
}

// Update persists changes to a committed session.
func (s *SessionStore) Update(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[sess.ID]; !ok {
		return shared.ErrSessionNotFound
	}
	s.byID[sess.ID] = sess.Clone()
	return nil
}

// Remove deletes a cancelled session.
func (s *SessionStore) Remove(_ context.Context, id shared.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return shared.ErrSessionNotFound
	}
	delete(s.byID, id)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// CALENDAR STORE
// ═══════════════════════════════════════════════════════════════════════════

// CalendarStore implements calendar.Repository in memory.
type CalendarStore struct {
	mu   sync.RWMutex
	byID map[string]*calendar.Event
}

// NewCalendarStore creates an empty calendar store.
func NewCalendarStore() *CalendarStore {
	return &CalendarStore{byID: make(map[string]*calendar.Event)}
}

// Create persists a new event.
func (s *CalendarStore) Create(_ context.Context, e *calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[e.ID]; ok {
		return shared.WrapError("calendar", "Create", shared.ErrAlreadyExists, "event already exists", nil)
	}
	s.byID[e.ID] = e.Clone()
	return nil
}

// GetByID returns an event by internal ID.
func (s *CalendarStore) GetByID(_ context.Context, id string) (*calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrCalendarEventNotFound
	}
	return e.Clone(), nil
}

// FindByKindAndSemester returns the event for the pair.
func (s *CalendarStore) FindByKindAndSemester(_ context.Context, kind calendar.EventKind, semester shared.SemesterKey) (*calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.byID {
		if e.Kind == kind && e.Semester == semester {
			return e.Clone(), nil
		}
	}
	return nil, shared.ErrCalendarEventNotFound
}

// ListBySemester returns all events for the semester.
func (s *CalendarStore) ListBySemester(_ context.Context, semester shared.SemesterKey) ([]*calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*calendar.Event
	for _, e := range s.byID {
		if e.Semester == semester {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// Update persists event changes.
func (s *CalendarStore) Update(_ context.Context, e *calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[e.ID]; !ok {
		return shared.ErrCalendarEventNotFound
	}
	s.byID[e.ID] = e.Clone()
	return nil
}

// Remove deletes an event.
func (s *CalendarStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return shared.ErrCalendarEventNotFound
	}
	delete(s.byID, id)
	return nil
}

// paginate applies pagination to a result slice.
func paginate[T any](items []T, p shared.Pagination) []T {
	if p.Page == 0 && p.PageSize == 0 {
		return items
	}
	offset := p.Offset()
	if offset >= len(items) {
		return nil
	}
	end := offset + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
