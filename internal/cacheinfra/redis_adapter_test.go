package cacheinfra

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRedisTestManager connects to STOREFRONT_TEST_REDIS_ADDR. Each test gets
// its own key prefix so runs do not see each other's entries.
func newRedisTestManager(t *testing.T) *Manager {
	t.Helper()

	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	cfg := cache.DefaultConfig()
	cfg.Backend = cache.BackendRedis
	cfg.Redis.Addr = addr
	cfg.KeyPrefix = fmt.Sprintf("storefront-test-%d", time.Now().UnixNano())

	client, err := NewRedisClient(ctx, cfg.Redis)
	require.NoError(t, err)

	m, err := NewManager(ctx, cfg, WithRedisClient(client), WithLogger(testLogger(t)))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = m.Clear(context.Background())
		_ = client.Close()
	})
	return m
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), cache.RedisConfig{
		Addr: "127.0.0.1:1",
		TTL:  time.Minute,
	})
	require.Error(t, err)
}

func TestRedisManager_CloseReleasesDialedClient(t *testing.T) {
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	cfg := cache.DefaultConfig()
	cfg.Backend = cache.BackendRedis
	cfg.Redis.Addr = addr
	cfg.KeyPrefix = fmt.Sprintf("storefront-test-%d", time.Now().UnixNano())

	m, err := NewManager(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	key, err := m.PrepareKeyForDefaultCache(countryByID, 1)
	require.NoError(t, err)
	_, err = m.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) { return 1, nil })
	assert.Error(t, err, "the dialed client is closed")
}

func TestRedisManager_CloseKeepsSuppliedClient(t *testing.T) {
	m := newRedisTestManager(t)
	require.NoError(t, m.Close())

	rs, ok := m.store.(*redisStore)
	require.True(t, ok)
	assert.NoError(t, rs.client.Ping(context.Background()).Err())
}

func TestRedisManager_Roundtrip(t *testing.T) {
	m := newRedisTestManager(t)
	ctx := context.Background()

	type country struct {
		Name string
		Code string
	}

	key, err := m.PrepareKeyForDefaultCache(allCountries, true, 0)
	require.NoError(t, err)

	calls := 0
	fetch := func(ctx context.Context) ([]country, error) {
		calls++
		return []country{{Name: "Italy", Code: "IT"}}, nil
	}

	first, err := cache.Get(ctx, m, key, fetch)
	require.NoError(t, err)
	second, err := cache.Get(ctx, m, key, fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	require.NoError(t, m.RemoveByPrefix(ctx, "country.all."))

	_, err = cache.Get(ctx, m, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	require.NoError(t, m.Clear(ctx))

	_, err = cache.Get(ctx, m, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRedisStore_TagSetsExpire(t *testing.T) {
	m := newRedisTestManager(t)
	ctx := context.Background()

	key, err := m.PrepareKeyForShortTermCache(allCountries, false, 1)
	require.NoError(t, err)

	_, err = m.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) { return "x", nil })
	require.NoError(t, err)

	rs := m.store.(*redisStore)
	client := rs.client.(*redis.Client)

	ttl, err := client.TTL(ctx, rs.tagKey(key.Prefixes()[0])).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	ttl, err = client.TTL(ctx, key.Key()).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 3*time.Minute)
}
