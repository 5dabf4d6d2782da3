package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockManager_ExclusiveUntilReleased(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	lock, held, err := m.TryAcquire(ctx, "product_bid:a1", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	started := time.Now()
	_, held, err = m.TryAcquire(ctx, "product_bid:a1", 30*time.Millisecond, time.Minute)
	require.NoError(t, err)
	require.False(t, held)
	require.GreaterOrEqual(t, time.Since(started), 30*time.Millisecond)

	// Other keys are independent.
	_, held, err = m.TryAcquire(ctx, "product_bid:a2", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Release(ctx))

	_, held, err = m.TryAcquire(ctx, "product_bid:a1", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, held)
}

func TestLockManager_ReleaseWakesWaiter(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	lock, held, err := m.TryAcquire(ctx, "k", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = lock.Release(ctx)
	}()

	started := time.Now()
	_, held, err = m.TryAcquire(ctx, "k", 5*time.Second, time.Minute)
	require.NoError(t, err)
	require.True(t, held)
	require.Less(t, time.Since(started), 5*time.Second)
}

func TestLockManager_ExpiredHolderCannotReleaseSuccessor(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	stale, held, err := m.TryAcquire(ctx, "k", 0, 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, held)

	// The waiter takes over once the lease passes.
	successor, held, err := m.TryAcquire(ctx, "k", time.Second, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	require.NoError(t, stale.Release(ctx))

	_, held, err = m.TryAcquire(ctx, "k", 0, time.Minute)
	require.NoError(t, err)
	require.False(t, held)

	require.NoError(t, successor.Release(ctx))
	_, held, err = m.TryAcquire(ctx, "k", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, held)
}

func TestLockManager_ContextCancelled(t *testing.T) {
	m := NewLockManager()
	_, held, err := m.TryAcquire(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, held, err = m.TryAcquire(ctx, "k", time.Minute, time.Minute)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, held)
}
