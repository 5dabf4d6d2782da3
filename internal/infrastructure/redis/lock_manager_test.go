package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedisLockManager_AcquireAndRelease(t *testing.T) {
	mr, client := newTestClient(t)
	m := NewRedisLockManager(client, 5*time.Millisecond)
	ctx := context.Background()

	lock, held, err := m.TryAcquire(ctx, "product_bid:a1", 0, 5*time.Second)
	require.NoError(t, err)
	require.True(t, held)
	require.Equal(t, 5*time.Second, mr.TTL("product_bid:a1"))

	_, held, err = m.TryAcquire(ctx, "product_bid:a1", 20*time.Millisecond, 5*time.Second)
	require.NoError(t, err)
	require.False(t, held)

	require.NoError(t, lock.Release(ctx))
	require.False(t, mr.Exists("product_bid:a1"))

	_, held, err = m.TryAcquire(ctx, "product_bid:a1", 0, 5*time.Second)
	require.NoError(t, err)
	require.True(t, held)
}

func TestRedisLockManager_ExpiredHolderCannotReleaseSuccessor(t *testing.T) {
	mr, client := newTestClient(t)
	m := NewRedisLockManager(client, 5*time.Millisecond)
	ctx := context.Background()

	stale, held, err := m.TryAcquire(ctx, "k", 0, time.Second)
	require.NoError(t, err)
	require.True(t, held)

	mr.FastForward(2 * time.Second)

	_, held, err = m.TryAcquire(ctx, "k", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	require.NoError(t, stale.Release(ctx))
	require.True(t, mr.Exists("k"))
}

func TestRedisLockManager_WaitsForRelease(t *testing.T) {
	_, client := newTestClient(t)
	m := NewRedisLockManager(client, 5*time.Millisecond)
	ctx := context.Background()

	lock, held, err := m.TryAcquire(ctx, "k", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = lock.Release(ctx)
	}()

	_, held, err = m.TryAcquire(ctx, "k", 2*time.Second, time.Minute)
	require.NoError(t, err)
	require.True(t, held)
}

func TestRedisLockManager_UnavailableServer(t *testing.T) {
	mr, client := newTestClient(t)
	m := NewRedisLockManager(client, 0)
	mr.Close()

	_, held, err := m.TryAcquire(context.Background(), "k", 0, time.Second)
	require.Error(t, err)
	require.False(t, held)
}
