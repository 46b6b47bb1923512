package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLock_MutualExclusionPerKey(t *testing.T) {
	kl := New()
	ctx := context.Background()

	var mu sync.Mutex
	max, current := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := kl.Lock(ctx, "student-a")
			require.NoError(t, err)
			mu.Lock()
			current++
			if current > max {
				max = current
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "two holders observed inside the same key's critical section")
	assert.Equal(t, 0, kl.Len(), "entries should be reclaimed after the last release")
}

func TestKeyLock_DistinctKeysDoNotBlock(t *testing.T) {
	kl := New()
	ctx := context.Background()

	unlockA, err := kl.Lock(ctx, "student-a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := kl.Lock(ctx, "student-b")
		require.NoError(t, err)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked behind an unrelated holder")
	}
}

func TestKeyLock_ContextCancellation(t *testing.T) {
	kl := New()

	unlock, err := kl.Lock(context.Background(), "student-a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = kl.Lock(ctx, "student-a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, kl.Len())
}

func TestKeyLock_BoundedWait(t *testing.T) {
	kl := NewWithWait(30 * time.Millisecond)

	unlock, err := kl.Lock(context.Background(), "student-a")
	require.NoError(t, err)

	// The caller has no deadline of its own, so only the configured
	// bound can end the wait.
	start := time.Now()
	_, err = kl.Lock(context.Background(), "student-a")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "wait was not bounded")

	unlock()

	unlock2, err := kl.Lock(context.Background(), "student-a")
	require.NoError(t, err)
	unlock2()
	assert.Equal(t, 0, kl.Len())
}

func TestKeyLock_TryLock(t *testing.T) {
	kl := New()

	unlock, ok := kl.TryLock("student-a")
	require.True(t, ok)

	_, ok = kl.TryLock("student-a")
	assert.False(t, ok, "second TryLock on a held key must fail")

	unlock()

	unlock2, ok := kl.TryLock("student-a")
	require.True(t, ok)
	unlock2()
}
