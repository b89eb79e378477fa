package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLimiterAllowsWithinBudget(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := New(client, "test:limit", 3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(context.Background(), "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i+1)
	}

	allowed, err := limiter.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := New(client, "test:limit", 1, time.Minute)

	allowed, err := limiter.Allow(context.Background(), "ip:1.1.1.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "ip:2.2.2.2")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "ip:1.1.1.1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLimiterWindowExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := New(client, "test:limit", 1, time.Minute)

	allowed, err := limiter.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(61 * time.Second)

	allowed, err = limiter.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var limiter *Limiter

	allowed, err := limiter.Allow(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, allowed)

	disabled := New(nil, "x", 5, time.Minute)
	allowed, err = disabled.Allow(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}
