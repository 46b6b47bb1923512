// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// StudentID represents a unique student identifier (UUID format).
type StudentID string

// IsValid checks if the student ID is a valid UUID.
func (s StudentID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s StudentID) IsEmpty() bool {
	return s == ""
}

// NewStudentID creates a new StudentID with validation.
func NewStudentID(id string) (StudentID, error) {
	sid := StudentID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewStudentID", ErrInvalidID, "invalid student ID format")
	}
	return sid, nil
}

// LecturerID represents a unique lecturer identifier (UUID format).
type LecturerID string

// IsValid checks if the lecturer ID is a valid UUID.
func (l LecturerID) IsValid() bool {
	return uuidRegex.MatchString(string(l))
}

// String returns the string representation.
func (l LecturerID) String() string {
	return string(l)
}

// IsEmpty checks if the ID is empty.
func (l LecturerID) IsEmpty() bool {
	return l == ""
}

// NewLecturerID creates a new LecturerID with validation.
func NewLecturerID(id string) (LecturerID, error) {
	lid := LecturerID(strings.ToLower(strings.TrimSpace(id)))
	if !lid.IsValid() {
		return "", NewDomainError("shared", "NewLecturerID", ErrInvalidID, "invalid lecturer ID format")
	}
	return lid, nil
}

// RoomID represents a unique room identifier (UUID format).
type RoomID string

// IsValid checks if the room ID is a valid UUID.
func (r RoomID) IsValid() bool {
	return uuidRegex.MatchString(string(r))
}

// String returns the string representation.
func (r RoomID) String() string {
	return string(r)
}

// IsEmpty checks if the ID is empty.
func (r RoomID) IsEmpty() bool {
	return r == ""
}

// NewRoomID creates a new RoomID with validation.
func NewRoomID(id string) (RoomID, error) {
	rid := RoomID(strings.ToLower(strings.TrimSpace(id)))
	if !rid.IsValid() {
		return "", NewDomainError("shared", "NewRoomID", ErrInvalidID, "invalid room ID format")
	}
	return rid, nil
}

// SessionID represents a unique defense session identifier (UUID format).
type SessionID string

// IsValid checks if the session ID is a valid UUID.
func (s SessionID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s SessionID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s SessionID) IsEmpty() bool {
	return s == ""
}

// ═══════════════════════════════════════════════════════════════════════════
// NIM Value Object (student registration number)
// ═══════════════════════════════════════════════════════════════════════════

// NIM is the student's external registration number (Nomor Induk Mahasiswa).
type NIM string

// NIM format: 8-12 digits as issued by the faculty registrar.
var nimRegex = regexp.MustCompile(`^\d{8,12}$`)

// IsValid checks the NIM format.
func (n NIM) IsValid() bool {
	return nimRegex.MatchString(string(n))
}

// String returns the string representation.
func (n NIM) String() string {
	return string(n)
}

// NewNIM creates a NIM with validation.
func NewNIM(v string) (NIM, error) {
	n := NIM(strings.TrimSpace(v))
	if !n.IsValid() {
		return "", ErrInvalidNIM
	}
	return n, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// SemesterKey Value Object
// ═══════════════════════════════════════════════════════════════════════════

// SemesterKey identifies an academic semester, e.g. "2024/2025-ganjil".
type SemesterKey string

var semesterRegex = regexp.MustCompile(`^\d{4}/\d{4}-(ganjil|genap)$`)

// IsValid checks the semester key format.
func (k SemesterKey) IsValid() bool {
	return semesterRegex.MatchString(string(k))
}

// String returns the string representation.
func (k SemesterKey) String() string {
	return string(k)
}

// NewSemesterKey creates a SemesterKey with validation.
func NewSemesterKey(v string) (SemesterKey, error) {
	k := SemesterKey(strings.ToLower(strings.TrimSpace(v)))
	if !k.IsValid() {
		return "", ErrInvalidSemesterKey
	}
	return k, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Quota Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Quota represents an examiner assignment budget for a lecturer.
type Quota struct {
	// Max is the maximum number of concurrent examiner assignments.
	Max int

	// Used is the number of committed assignments. Derived: must equal the
	// count of committed sessions referencing the lecturer as examiner.
	Used int
}

// Remaining returns the unused quota (never negative).
func (q Quota) Remaining() int {
	if q.Used >= q.Max {
		return 0
	}
	return q.Max - q.Used
}

// HasRoom reports whether one more assignment fits.
func (q Quota) HasRoom() bool {
	return q.Used < q.Max
}

// NewQuota creates a Quota with validation.
func NewQuota(max int) (Quota, error) {
	if max <= 0 {
		return Quota{}, NewDomainError("shared", "NewQuota", ErrValueOutOfRange, "quota must be positive")
	}
	return Quota{Max: max}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}
