package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dealer-users/internal/config"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestInitServer_Unreachable(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	}
	_, err := InitServer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestDailyGuard_Key(t *testing.T) {
	cache, _ := setupTestCache(t)
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	guard := NewDailyGuard(cache, "decrement", berlin)
	// 23:30 UTC, а в Берлине уже следующий день.
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "decrement:2026-03-02", guard.Key(now))

	assert.Equal(t, "decrement:2026-03-01", NewDailyGuard(cache, "decrement", nil).Key(now))
}

func TestDailyGuard_AcquireOncePerDay(t *testing.T) {
	cache, mr := setupTestCache(t)
	guard := NewDailyGuard(cache, "decrement", time.UTC)
	ctx := context.Background()
	day := time.Date(2026, 10, 18, 0, 0, 5, 0, time.UTC)

	ok, err := guard.Acquire(ctx, day)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Acquire(ctx, day.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "second run on the same day must be rejected")

	ok, err = guard.Acquire(ctx, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok, "next day is a new key")

	ttl := mr.TTL("decrement:2026-10-18")
	assert.Equal(t, 25*time.Hour, ttl)
}

func TestDailyGuard_Release(t *testing.T) {
	cache, _ := setupTestCache(t)
	guard := NewDailyGuard(cache, "decrement", time.UTC)
	ctx := context.Background()
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	ok, err := guard.Acquire(ctx, day)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(ctx, day))

	ok, err = guard.Acquire(ctx, day)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDailyGuard_RedisDown(t *testing.T) {
	cache, mr := setupTestCache(t)
	guard := NewDailyGuard(cache, "decrement", time.UTC)
	mr.Close()

	_, err := guard.Acquire(context.Background(), time.Now())
	assert.Error(t, err)
}
