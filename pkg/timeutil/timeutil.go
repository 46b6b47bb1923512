// Package timeutil provides timezone and time-slot utilities for the
// thesis scheduling engine. All defense sessions are scheduled in WIB
// (Waktu Indonesia Barat, UTC+7, no DST), the campus timezone.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// JakartaTZ is the Western Indonesia timezone (UTC+7, no DST).
var JakartaTZ = time.FixedZone("Asia/Jakarta", 7*60*60)

// Now returns the current time in campus timezone.
func Now() time.Time {
	return time.Now().In(JakartaTZ)
}

// ToCampus converts a time to campus timezone.
func ToCampus(t time.Time) time.Time {
	return t.In(JakartaTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in campus timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, JakartaTZ)
}

// StartOfDay returns the start of the day (00:00:00) in campus timezone.
func StartOfDay(t time.Time) time.Time {
	campus := ToCampus(t)
	return time.Date(campus.Year(), campus.Month(), campus.Day(), 0, 0, 0, 0, JakartaTZ)
}

// ═══════════════════════════════════════════════════════════════════════════
// Defense Dates
// ═══════════════════════════════════════════════════════════════════════════

// DateLayout is the canonical wire format for defense dates.
const DateLayout = "2006-01-02"

// DefenseDate is a calendar day on which defense sessions may be held.
// It carries no time-of-day component; combine with a Slot to get a
// bookable unit.
type DefenseDate string

// NewDefenseDate creates a DefenseDate from a time value.
func NewDefenseDate(t time.Time) DefenseDate {
	return DefenseDate(ToCampus(t).Format(DateLayout))
}

// ParseDefenseDate parses a YYYY-MM-DD string into a DefenseDate.
func ParseDefenseDate(s string) (DefenseDate, error) {
	s = strings.TrimSpace(s)
	if _, err := time.ParseInLocation(DateLayout, s, JakartaTZ); err != nil {
		return "", fmt.Errorf("timeutil: invalid defense date %q: %w", s, err)
	}
	return DefenseDate(s), nil
}

// IsValid reports whether the date parses as YYYY-MM-DD.
func (d DefenseDate) IsValid() bool {
	_, err := time.ParseInLocation(DateLayout, string(d), JakartaTZ)
	return err == nil
}

// Time returns the start of the day in campus timezone.
func (d DefenseDate) Time() time.Time {
	t, _ := time.ParseInLocation(DateLayout, string(d), JakartaTZ)
	return t
}

// String returns the canonical string form.
func (d DefenseDate) String() string {
	return string(d)
}

// Before reports whether d is earlier than other.
func (d DefenseDate) Before(other DefenseDate) bool {
	return string(d) < string(other)
}

// ═══════════════════════════════════════════════════════════════════════════
// Time Slots
// ═══════════════════════════════════════════════════════════════════════════

// Slot is a fixed, enumerated defense time block identified by its start
// time ("HH:MM"). Slots are atomic, non-overlapping units: two bookings
// conflict when their date and slot compare string-equal, and only then.
// True interval-overlap detection is deliberately out of scope; the
// faculty timetable is defined in terms of these blocks.
type Slot string

// The standard defense-day slot grid. Each block is 90 minutes with a
// buffer before the next, which is why the grid, not a duration, defines
// adjacency.
const (
	Slot0800 Slot = "08:00"
	Slot0900 Slot = "09:00"
	Slot1030 Slot = "10:30"
	Slot1300 Slot = "13:00"
	Slot1430 Slot = "14:30"
	Slot1600 Slot = "16:00"
)

// AllSlots returns the slot grid in chronological order.
func AllSlots() []Slot {
	return []Slot{Slot0800, Slot0900, Slot1030, Slot1300, Slot1430, Slot1600}
}

// IsValid reports whether the slot belongs to the defense grid.
func (s Slot) IsValid() bool {
	for _, known := range AllSlots() {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the slot's start time.
func (s Slot) String() string {
	return string(s)
}

// ParseSlot validates a slot string against the grid.
func ParseSlot(v string) (Slot, error) {
	s := Slot(strings.TrimSpace(v))
	if !s.IsValid() {
		return "", fmt.Errorf("timeutil: %q is not a defense time slot", v)
	}
	return s, nil
}

// SlotKey builds the composite booking key for a date and slot.
// Used as the conflict-detection unit across the availability index.
func SlotKey(date DefenseDate, slot Slot) string {
	return string(date) + "@" + string(slot)
}

// SortSlots sorts a slice of slots chronologically in place.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
}

// ═══════════════════════════════════════════════════════════════════════════
// Semesters
// ═══════════════════════════════════════════════════════════════════════════

// Semester key format: "2024/2025-ganjil" (odd semester, Aug-Jan) or
// "2024/2025-genap" (even semester, Feb-Jul).
const (
	SemesterOdd  = "ganjil"
	SemesterEven = "genap"
)

// SemesterOf returns the semester key the given time falls into.
func SemesterOf(t time.Time) string {
	campus := ToCampus(t)
	year := campus.Year()
	month := int(campus.Month())
	if month >= 8 {
		return fmt.Sprintf("%d/%d-%s", year, year+1, SemesterOdd)
	}
	if month <= 1 {
		return fmt.Sprintf("%d/%d-%s", year-1, year, SemesterOdd)
	}
	return fmt.Sprintf("%d/%d-%s", year-1, year, SemesterEven)
}

// CurrentSemester returns the semester key for the current date.
func CurrentSemester() string {
	return SemesterOf(Now())
}

// IsValidSemester reports whether the key matches "YYYY/YYYY-ganjil|genap".
func IsValidSemester(key string) bool {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return false
	}
	if parts[1] != SemesterOdd && parts[1] != SemesterEven {
		return false
	}
	var from, to int
	if _, err := fmt.Sscanf(parts[0], "%d/%d", &from, &to); err != nil {
		return false
	}
	return to == from+1 && from >= 2000 && from <= 2999
}

// FormatHuman renders a date+slot pair for log output.
func FormatHuman(date DefenseDate, slot Slot) string {
	return fmt.Sprintf("%s %s WIB", date, slot)
}
