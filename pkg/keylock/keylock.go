// Package keylock provides per-key mutual exclusion with context-aware
// acquisition. The scheduler serializes all writes to one student's record
// behind the student's key, so a schedule, cancel, and lifecycle advance for
// the same student never interleave. No external dependencies - uses only
// standard library.
package keylock

import (
	"context"
	"sync"
	"time"
)

// entry is one key's gate plus a reference count so idle entries can be
// reclaimed once the last waiter leaves.
type entry struct {
	gate chan struct{}
	refs int
}

// KeyLock is a dynamic set of named mutexes. The zero value is not usable;
// construct with New or NewWithWait.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxWait time.Duration
}

// New creates an empty KeyLock. Lock waits are bounded only by the caller's
// context.
func New() *KeyLock {
	return &KeyLock{entries: make(map[string]*entry)}
}

// NewWithWait creates a KeyLock whose Lock calls wait at most maxWait for a
// contended key, independent of the caller's context deadline. A maxWait of
// zero behaves like New.
func NewWithWait(maxWait time.Duration) *KeyLock {
	return &KeyLock{entries: make(map[string]*entry), maxWait: maxWait}
}

// Lock acquires the mutex for the key, blocking until it is free, the
// context is done, or the configured wait bound expires. On success the
// returned func releases the lock and must be called exactly once.
func (k *KeyLock) Lock(ctx context.Context, key string) (func(), error) {
	if k.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.maxWait)
		defer cancel()
	}

	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{gate: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.gate <- struct{}{}:
		return func() { k.release(key, e) }, nil
	case <-ctx.Done():
		k.drop(key, e)
		return nil, ctx.Err()
	}
}

// TryLock acquires the mutex for the key without blocking. The second return
// reports whether the lock was obtained.
func (k *KeyLock) TryLock(key string) (func(), bool) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{gate: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.gate <- struct{}{}:
		return func() { k.release(key, e) }, true
	default:
		k.drop(key, e)
		return nil, false
	}
}

// release frees the gate and drops the holder's reference.
func (k *KeyLock) release(key string, e *entry) {
	<-e.gate
	k.drop(key, e)
}

// drop decrements the reference count and deletes the entry when nobody
// holds or waits on it anymore.
func (k *KeyLock) drop(key string, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}

// Len returns the number of live keys, for diagnostics.
func (k *KeyLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
