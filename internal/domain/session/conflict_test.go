package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

const (
	exA = shared.LecturerID("aaaaaaaa-1111-4111-8111-111111111111")
	exB = shared.LecturerID("bbbbbbbb-2222-4222-8222-222222222222")
	exC = shared.LecturerID("cccccccc-3333-4333-8333-333333333333")
	sup = shared.LecturerID("dddddddd-4444-4444-8444-444444444444")
)

func cleanRequest(kind Kind, examiners ...shared.LecturerID) Request {
	return Request{
		Kind:         kind,
		StudentID:    "eeeeeeee-5555-4555-8555-555555555555",
		SupervisorID: sup,
		Date:         "2024-05-20",
		Slot:         timeutil.Slot0900,
		RoomID:       "ffffffff-6666-4666-8666-666666666666",
		ExaminerIDs:  examiners,
	}
}

func cleanSnapshot(examiners ...shared.LecturerID) Snapshot {
	snap := Snapshot{RoomFree: true}
	for _, id := range examiners {
		snap.Examiners = append(snap.Examiners, ExaminerState{
			ID:             id,
			IndexFree:      true,
			CalendarAllows: true,
			QuotaRemaining: 5,
		})
	}
	return snap
}

func TestCheckConflicts_ValidRequest(t *testing.T) {
	pol := DefaultPolicies()[KindSempro]
	req := cleanRequest(KindSempro, exA, exB)

	violations := CheckConflicts(req, pol, cleanSnapshot(exA, exB))
	assert.Empty(t, violations)
}

func TestCheckConflicts_TooFewExaminers(t *testing.T) {
	pol := DefaultPolicies()[KindFinalDefense]
	req := cleanRequest(KindFinalDefense, exA, exB)

	violations := CheckConflicts(req, pol, cleanSnapshot(exA, exB))
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationExaminerCount, violations[0].Code)
	assert.Equal(t, "minimum 3 examiners required, got 2", violations[0].Message)
}

func TestCheckConflicts_TooManyExaminers(t *testing.T) {
	pol := DefaultPolicies()[KindSempro]
	ids := []shared.LecturerID{exA, exB, exC, sup,
		"99999999-aaaa-4aaa-8aaa-999999999999",
		"88888888-aaaa-4aaa-8aaa-888888888888"}
	req := cleanRequest(KindSempro, ids...)

	violations := CheckConflicts(req, pol, cleanSnapshot(ids...))
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationExaminerCount, violations[0].Code)
}

func TestCheckConflicts_DuplicateExaminer(t *testing.T) {
	pol := DefaultPolicies()[KindSempro]
	req := cleanRequest(KindSempro, exA, exA)

	violations := CheckConflicts(req, pol, cleanSnapshot(exA, exA))
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationDuplicateExaminer, violations[0].Code)
	assert.Equal(t, exA.String(), violations[0].ResourceID)
}

func TestCheckConflicts_ExaminerBooked(t *testing.T) {
	pol := DefaultPolicies()[KindSempro]
	req := cleanRequest(KindSempro, exA, exB)
	snap := cleanSnapshot(exA, exB)
	snap.Examiners[1].IndexFree = false

	violations := CheckConflicts(req, pol, snap)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationExaminerUnavailable, violations[0].Code)
	assert.Equal(t, exB.String(), violations[0].ResourceID)
}

func TestCheckConflicts_CalendarBusy(t *testing.T) {
	pol := DefaultPolicies()[KindSempro]
	req := cleanRequest(KindSempro, exA, exB)
	snap := cleanSnapshot(exA, exB)
	snap.Examiners[0].CalendarAllows = false

	violations := CheckConflicts(req, pol, snap)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationExaminerUnavailable, violations[0].Code)
	assert.Equal(t, exA.String(), violations[0].ResourceID)
	assert.Contains(t, violations[0].Message, "calendar")
}

func TestCheckConflicts_QuotaExhausted(t *testing.T) {
	pol := DefaultPolicies()[KindSempro]
	req := cleanRequest(KindSempro, exA, exB)
	snap := cleanSnapshot(exA, exB)
	snap.Examiners[0].QuotaRemaining = 0

	violations := CheckConflicts(req, pol, snap)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationQuotaExceeded, violations[0].Code)
	assert.Equal(t, exA.String(), violations[0].ResourceID)
}

func TestCheckConflicts_RoomBooked(t *testing.T) {
	pol := DefaultPolicies()[KindSempro]
	req := cleanRequest(KindSempro, exA, exB)
	snap := cleanSnapshot(exA, exB)
	snap.RoomFree = false

	violations := CheckConflicts(req, pol, snap)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationRoomUnavailable, violations[0].Code)
	assert.Equal(t, req.RoomID.String(), violations[0].ResourceID)
}

func TestCheckConflicts_SupervisorOverlap(t *testing.T) {
	// Final defense forbids the supervisor on the panel.
	pol := DefaultPolicies()[KindFinalDefense]
	req := cleanRequest(KindFinalDefense, exA, exB, sup)

	violations := CheckConflicts(req, pol, cleanSnapshot(exA, exB, sup))
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationSupervisorOverlap, violations[0].Code)
	assert.Equal(t, sup.String(), violations[0].ResourceID)

	// Sempro allows it.
	semproPol := DefaultPolicies()[KindSempro]
	semproReq := cleanRequest(KindSempro, exA, sup)
	assert.Empty(t, CheckConflicts(semproReq, semproPol, cleanSnapshot(exA, sup)))
}

func TestCheckConflicts_StableOrdering(t *testing.T) {
	// Panel too small AND duplicate AND room taken: violations come back in
	// check order, deterministically.
	pol := DefaultPolicies()[KindFinalDefense]
	req := cleanRequest(KindFinalDefense, exA, exA)
	snap := cleanSnapshot(exA, exA)
	snap.RoomFree = false

	violations := CheckConflicts(req, pol, snap)
	require.Len(t, violations, 3)
	assert.Equal(t, ViolationExaminerCount, violations[0].Code)
	assert.Equal(t, ViolationDuplicateExaminer, violations[1].Code)
	assert.Equal(t, ViolationRoomUnavailable, violations[2].Code)
}

func TestConflictError_MatchesSentinel(t *testing.T) {
	err := NewConflictError([]Violation{{Code: ViolationRoomUnavailable, Message: "taken"}})
	assert.ErrorIs(t, err, shared.ErrConflict)

	ce, ok := AsConflictError(err)
	require.True(t, ok)
	assert.Len(t, ce.Violations, 1)
}

func TestRequestValidate(t *testing.T) {
	valid := cleanRequest(KindSempro, exA, exB)
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"unknown kind", func(r *Request) { r.Kind = "colloquium" }},
		{"missing student", func(r *Request) { r.StudentID = "" }},
		{"missing room", func(r *Request) { r.RoomID = "" }},
		{"bad date", func(r *Request) { r.Date = "20-05-2024" }},
		{"off-grid slot", func(r *Request) { r.Slot = "09:15" }},
		{"no examiners", func(r *Request) { r.ExaminerIDs = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := cleanRequest(KindSempro, exA, exB)
			tt.mutate(&req)
			err := req.Validate()
			assert.Error(t, err)
			assert.True(t, shared.IsValidation(err), "want validation class, got %v", err)
		})
	}
}
