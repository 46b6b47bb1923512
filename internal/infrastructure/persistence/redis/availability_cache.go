package redis

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// AVAILABILITY CACHE
// ══════════════════════════════════════════════════════════════════════════════

// AvailabilityCache serves hot availability reads. The grid for one
// defense date is cached as a JSON blob; booked slots per resource are
// tracked in sets so a cancel can surgically invalidate one date. A nil
// receiver or nil client disables caching entirely: every method
// becomes a no-op and reads report a miss, so callers fall through to
// the registry.
type AvailabilityCache struct {
	cache *Cache
}

// NewAvailabilityCache creates a cache wrapper. Passing nil disables
// caching.
func NewAvailabilityCache(cache *Cache) *AvailabilityCache {
	return &AvailabilityCache{cache: cache}
}

// Enabled reports whether a backing Redis client is configured.
func (c *AvailabilityCache) Enabled() bool {
	return c != nil && c.cache != nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Day Grids
// ─────────────────────────────────────────────────────────────────────────────

// GetDayGrid loads the cached grid for a date into dest. Returns
// ErrCacheMiss when absent or when caching is disabled.
func (c *AvailabilityCache) GetDayGrid(ctx context.Context, date string, dest interface{}) error {
	if !c.Enabled() {
		return ErrCacheMiss
	}
	return c.cache.Get(ctx, AvailabilityKey(date), dest)
}

// SetDayGrid caches the grid for a date.
func (c *AvailabilityCache) SetDayGrid(ctx context.Context, date string, grid interface{}) error {
	if !c.Enabled() {
		return nil
	}
	return c.cache.Set(ctx, AvailabilityKey(date), grid, TTLAvailabilityGrid)
}

// InvalidateDate drops the grid and every booked-slot set for the date.
// Called after every commit, reschedule, and cancel touching the date.
func (c *AvailabilityCache) InvalidateDate(ctx context.Context, date string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.cache.Delete(ctx, AvailabilityKey(date)); err != nil {
		return err
	}
	return c.cache.DeleteByPattern(ctx, PrefixBookedSlots+"*:"+date)
}

// ─────────────────────────────────────────────────────────────────────────────
// Booked-Slot Sets
// ─────────────────────────────────────────────────────────────────────────────

// AddBookedSlots records booked slots for a resource on a date.
func (c *AvailabilityCache) AddBookedSlots(ctx context.Context, resourceType, resourceID, date string, slots ...string) error {
	if !c.Enabled() || len(slots) == 0 {
		return nil
	}
	members := make([]interface{}, len(slots))
	for i, s := range slots {
		members[i] = s
	}
	key := BookedSlotsKey(resourceType, resourceID, date)
	if err := c.cache.SAdd(ctx, key, members...); err != nil {
		return err
	}
	return c.cache.Expire(ctx, key, TTLAvailabilityGrid)
}

// RemoveBookedSlot drops one booked slot for a resource on a date.
func (c *AvailabilityCache) RemoveBookedSlot(ctx context.Context, resourceType, resourceID, date, slot string) error {
	if !c.Enabled() {
		return nil
	}
	return c.cache.SRem(ctx, BookedSlotsKey(resourceType, resourceID, date), slot)
}

// BookedSlots returns the cached booked slots for a resource on a date.
// An empty result is indistinguishable from a miss; callers treat both
// as "consult the registry".
func (c *AvailabilityCache) BookedSlots(ctx context.Context, resourceType, resourceID, date string) ([]string, error) {
	if !c.Enabled() {
		return nil, ErrCacheMiss
	}
	return c.cache.SMembers(ctx, BookedSlotsKey(resourceType, resourceID, date))
}

// ─────────────────────────────────────────────────────────────────────────────
// Student Lifecycle Views
// ─────────────────────────────────────────────────────────────────────────────

// GetStudentView loads the cached lifecycle view for a student.
func (c *AvailabilityCache) GetStudentView(ctx context.Context, studentID string, dest interface{}) error {
	if !c.Enabled() {
		return ErrCacheMiss
	}
	return c.cache.Get(ctx, StudentKey(studentID), dest)
}

// SetStudentView caches the lifecycle view for a student.
func (c *AvailabilityCache) SetStudentView(ctx context.Context, studentID string, view interface{}) error {
	if !c.Enabled() {
		return nil
	}
	return c.cache.Set(ctx, StudentKey(studentID), view, TTLStudentView)
}

// InvalidateStudent drops the cached lifecycle view after a stage
// change or outcome record.
func (c *AvailabilityCache) InvalidateStudent(ctx context.Context, studentID string) error {
	if !c.Enabled() {
		return nil
	}
	return c.cache.Delete(ctx, StudentKey(studentID))
}
