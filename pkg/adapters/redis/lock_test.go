package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s8r-framework/s8r/pkg/adapters/redis"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "s8r:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "machine-1", 5*time.Second)
	require.NoError(t, err)

	// A second acquisition must block until release.
	blockedCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blockedCtx, "machine-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "machine-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_IndependentKeys(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "s8r:")
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "machine-a", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlockA(ctx) }()

	unlockB, err := locker.Lock(ctx, "machine-b", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlockB(ctx))
}
