package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave/lock/redis"
)

func newLock(t *testing.T) (*redis.Lock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.New(client, redis.WithRetryInterval(5*time.Millisecond)), mr
}

func TestAcquireRelease(t *testing.T) {
	l, mr := newLock(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "sub-1", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists(redis.DefaultPrefix+"sub-1"))

	release()
	assert.False(t, mr.Exists(redis.DefaultPrefix+"sub-1"))

	release2, err := l.Acquire(ctx, "sub-1", time.Second)
	require.NoError(t, err)
	release2()
}

func TestAcquireHeldTimesOut(t *testing.T) {
	l, _ := newLock(t)

	release, err := l.Acquire(context.Background(), "sub-1", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "sub-1", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireAfterExpiry(t *testing.T) {
	l, mr := newLock(t)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "sub-1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := l.Acquire(ctx, "sub-1", time.Second)
	require.NoError(t, err)

	// The stale holder's release must not drop the new owner's lock.
	stale()
	assert.True(t, mr.Exists(redis.DefaultPrefix+"sub-1"))
	release()
}

func TestAcquireWaitsForRelease(t *testing.T) {
	l, _ := newLock(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "sub-1", time.Second)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	release2, err := l.Acquire(waitCtx, "sub-1", time.Second)
	require.NoError(t, err)
	release2()
}
