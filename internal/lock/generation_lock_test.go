package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLock(t *testing.T, ttl time.Duration) (GenerationLock, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisGenerationLock(client, ttl, zap.NewNop()), mr
}

func TestRedisGenerationLock(t *testing.T) {
	ctx := context.Background()
	characterID := uuid.New()
	otherID := uuid.New()

	t.Run("acquire and release", func(t *testing.T) {
		l, _ := newTestLock(t, time.Minute)

		ok, err := l.Acquire(ctx, characterID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = l.Acquire(ctx, characterID)
		require.NoError(t, err)
		assert.False(t, ok, "second acquire for the same character must fail")

		require.NoError(t, l.Release(ctx, characterID))

		ok, err = l.Acquire(ctx, characterID)
		require.NoError(t, err)
		assert.True(t, ok, "lock must be free after release")
	})

	t.Run("locks are per character", func(t *testing.T) {
		l, _ := newTestLock(t, time.Minute)

		ok, err := l.Acquire(ctx, characterID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = l.Acquire(ctx, otherID)
		require.NoError(t, err)
		assert.True(t, ok, "a different character must not be blocked")
	})

	t.Run("ttl frees an abandoned lock", func(t *testing.T) {
		l, mr := newTestLock(t, time.Second)

		ok, err := l.Acquire(ctx, characterID)
		require.NoError(t, err)
		require.True(t, ok)

		mr.FastForward(2 * time.Second)

		ok, err = l.Acquire(ctx, characterID)
		require.NoError(t, err)
		assert.True(t, ok, "lock must expire after its ttl")
	})

	t.Run("release of unheld lock is a no-op", func(t *testing.T) {
		l, _ := newTestLock(t, time.Minute)
		assert.NoError(t, l.Release(ctx, characterID))
	})
}
