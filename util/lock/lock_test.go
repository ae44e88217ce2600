package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLocalExcludesUntilUnlocked(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	unlock()
	_, ok, err = l.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLocalExpires(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()
	_, ok, _ := l.TryLock(ctx, "k", time.Millisecond)
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)
	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	require.True(t, ok)
}

func TestRedisLockerOwnsKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	l := NewRedis(rdb)
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "sweep:expire-leases", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, mr.Exists("sweep:expire-leases"))

	_, ok, err = l.TryLock(ctx, "sweep:expire-leases", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	unlock()
	require.False(t, mr.Exists("sweep:expire-leases"))
}

func TestRedisLockerExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	l := NewRedis(rdb)
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	mr.FastForward(2 * time.Second)

	// another owner takes over; the stale unlock must not release it
	_, ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	unlock()
	require.True(t, mr.Exists("k"))
}
