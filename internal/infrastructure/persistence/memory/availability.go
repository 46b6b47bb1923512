package memory

import (
	"context"
	"sync"
	"time"

	"github.com/thesis-hub/thesis-scheduling-hub/internal/domain/shared"
	"github.com/thesis-hub/thesis-scheduling-hub/pkg/timeutil"
)

// DefaultLockWait bounds how long a writer waits for a contended date
// partition before giving up with ErrBusy.
const DefaultLockWait = 200 * time.Millisecond

// AvailabilityIndex is the in-memory booking ledger. Bookings are
// partitioned by defense date and each partition has a single-writer
// lock, so two requests for the same date serialize while requests for
// different dates proceed in parallel.
type AvailabilityIndex struct {
	mu         sync.Mutex
	partitions map[timeutil.DefenseDate]*datePartition
	sessions   map[shared.SessionID]timeutil.DefenseDate
	lockWait   time.Duration
}

// datePartition holds every booking for one defense date. All reads and
// writes to the maps happen while holding the partition gate.
type datePartition struct {
	gate      chan struct{}
	lecturers map[string]shared.SessionID // lecturerID@slot -> holder
	rooms     map[string]shared.SessionID // roomID@slot -> holder
}

// NewAvailabilityIndex creates an empty index with the default lock wait.
func NewAvailabilityIndex() *AvailabilityIndex {
	return NewAvailabilityIndexWithWait(DefaultLockWait)
}

// NewAvailabilityIndexWithWait creates an empty index with a custom
// bound on partition lock waits.
func NewAvailabilityIndexWithWait(wait time.Duration) *AvailabilityIndex {
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &AvailabilityIndex{
		partitions: make(map[timeutil.DefenseDate]*datePartition),
		sessions:   make(map[shared.SessionID]timeutil.DefenseDate),
		lockWait:   wait,
	}
}

func (a *AvailabilityIndex) partition(date timeutil.DefenseDate) *datePartition {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.partitions[date]
	if !ok {
		p = &datePartition{
			gate:      make(chan struct{}, 1),
			lecturers: make(map[string]shared.SessionID),
			rooms:     make(map[string]shared.SessionID),
		}
		a.partitions[date] = p
	}
	return p
}

// acquire takes the partition gate, waiting at most the configured
// bound. Context cancellation wins over the wait bound.
func (a *AvailabilityIndex) acquire(ctx context.Context, p *datePartition) error {
	timer := time.NewTimer(a.lockWait)
	defer timer.Stop()

	select {
	case p.gate <- struct{}{}:
		return nil
	case <-timer.C:
		return shared.WrapError("availability", "acquire", shared.ErrBusy, "booking partition is contended", nil)
	case <-ctx.Done():
		return shared.WrapError("availability", "acquire", shared.ErrTimeout, "context cancelled while waiting for partition", ctx.Err())
	}
}

func (p *datePartition) release() {
	<-p.gate
}

func lecturerKey(id shared.LecturerID, slot timeutil.Slot) string {
	return id.String() + "@" + string(slot)
}

func roomKey(id shared.RoomID, slot timeutil.Slot) string {
	return id.String() + "@" + string(slot)
}

// IsLecturerFree reports whether the lecturer has no booking at the slot.
func (a *AvailabilityIndex) IsLecturerFree(ctx context.Context, id shared.LecturerID, date timeutil.DefenseDate, slot timeutil.Slot) (bool, error) {
	p := a.partition(date)
	if err := a.acquire(ctx, p); err != nil {
		return false, err
	}
	defer p.release()

	_, booked := p.lecturers[lecturerKey(id, slot)]
	return !booked, nil
}

// IsRoomFree reports whether the room has no booking at the slot.
func (a *AvailabilityIndex) IsRoomFree(ctx context.Context, id shared.RoomID, date timeutil.DefenseDate, slot timeutil.Slot) (bool, error) {
	p := a.partition(date)
	if err := a.acquire(ctx, p); err != nil {
		return false, err
	}
	defer p.release()

	_, booked := p.rooms[roomKey(id, slot)]
	return !booked, nil
}

// Reserve atomically books the room and every lecturer for the slot.
// The re-check and the writes happen under one partition gate, so a
// racing writer either sees all of the bookings or none of them. On any
// taken target nothing is written and ErrSlotTaken is returned.
func (a *AvailabilityIndex) Reserve(ctx context.Context, sessionID shared.SessionID, lecturerIDs []shared.LecturerID, roomID shared.RoomID, date timeutil.DefenseDate, slot timeutil.Slot) error {
	p := a.partition(date)
	if err := a.acquire(ctx, p); err != nil {
		return err
	}
	defer p.release()

	for _, id := range lecturerIDs {
		if holder, booked := p.lecturers[lecturerKey(id, slot)]; booked && holder != sessionID {
			return shared.WrapError("availability", "Reserve", shared.ErrSlotTaken,
				"lecturer "+id.String()+" is already booked at "+timeutil.SlotKey(date, slot), nil)
		}
	}
	if holder, booked := p.rooms[roomKey(roomID, slot)]; booked && holder != sessionID {
		return shared.WrapError("availability", "Reserve", shared.ErrSlotTaken,
			"room "+roomID.String()+" is already booked at "+timeutil.SlotKey(date, slot), nil)
	}

	for _, id := range lecturerIDs {
		p.lecturers[lecturerKey(id, slot)] = sessionID
	}
	p.rooms[roomKey(roomID, slot)] = sessionID

	a.mu.Lock()
	a.sessions[sessionID] = date
	a.mu.Unlock()
	return nil
}

// Release frees all bookings tied to the session. Unknown sessions are
// a no-op.
func (a *AvailabilityIndex) Release(ctx context.Context, sessionID shared.SessionID) error {
	a.mu.Lock()
	date, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return nil
	}

	p := a.partition(date)
	if err := a.acquire(ctx, p); err != nil {
		return err
	}
	defer p.release()

	for key, holder := range p.lecturers {
		if holder == sessionID {
			delete(p.lecturers, key)
		}
	}
	for key, holder := range p.rooms {
		if holder == sessionID {
			delete(p.rooms, key)
		}
	}

	a.mu.Lock()
	delete(a.sessions, sessionID)
	a.mu.Unlock()
	return nil
}

// Dump returns a copy of every booking keyed by "resource@date@slot".
// Intended for diagnostics and tests.
func (a *AvailabilityIndex) Dump() map[string]shared.SessionID {
	a.mu.Lock()
	dates := make([]timeutil.DefenseDate, 0, len(a.partitions))
	for d := range a.partitions {
		dates = append(dates, d)
	}
	a.mu.Unlock()

	out := make(map[string]shared.SessionID)
	for _, d := range dates {
		p := a.partition(d)
		p.gate <- struct{}{}
		for key, holder := range p.lecturers {
			out["lecturer:"+key+"@"+string(d)] = holder
		}
		for key, holder := range p.rooms {
			out["room:"+key+"@"+string(d)] = holder
		}
		p.release()
	}
	return out
}
