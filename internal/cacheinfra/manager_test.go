package cacheinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	allCountries   = cache.NewKeyTemplate("country.all.{0}-{1}", "country.all.")
	countryByID    = cache.NewKeyTemplate("country.byid.{0}")
	commentsNumber = cache.NewKeyTemplate("newsitem.comments.number.{0}-{1}", "newsitem.comments.number.", "newsitem.comments.number.{0}")
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), cache.DefaultConfig())
	require.NoError(t, err)
	return m
}

// counter returns a fetch function that counts its calls and returns the count.
func counter() (func(ctx context.Context) (any, error), *int) {
	n := 0
	return func(ctx context.Context) (any, error) {
		n++
		return n, nil
	}, &n
}

func getInt(t *testing.T, m *Manager, tpl cache.KeyTemplate, fetch func(ctx context.Context) (any, error), parts ...any) int {
	t.Helper()
	key, err := m.PrepareKeyForDefaultCache(tpl, parts...)
	require.NoError(t, err)
	v, err := m.GetOrFetch(context.Background(), key, fetch)
	require.NoError(t, err)
	return v.(int)
}

func TestNewManager_InvalidConfig(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.Backend = "memcached"

	_, err := NewManager(context.Background(), cfg)
	require.Error(t, err)
}

func TestManager_FetchesOnce(t *testing.T) {
	m := newTestManager(t)
	fetch, calls := counter()

	assert.Equal(t, 1, getInt(t, m, allCountries, fetch, true, 0))
	assert.Equal(t, 1, getInt(t, m, allCountries, fetch, true, 0))
	assert.Equal(t, 1, *calls)

	// different parts are a different entry
	assert.Equal(t, 2, getInt(t, m, allCountries, fetch, false, 0))
}

func TestManager_FetchErrorIsNotCached(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	key, err := m.PrepareKeyForDefaultCache(countryByID, 7)
	require.NoError(t, err)

	want := errors.New("database unavailable")
	_, err = m.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) { return nil, want })
	require.ErrorIs(t, err, want)

	v, err := m.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestManager_FetchErrorKeepsCategory(t *testing.T) {
	m := newTestManager(t)
	key, err := m.PrepareKeyForDefaultCache(allCountries, true, 0)
	require.NoError(t, err)

	want := goerrors.New("no such table: countries", goerrors.CategoryExternal)
	_, err = m.GetOrFetch(context.Background(), key, func(ctx context.Context) (any, error) { return nil, want })
	require.Error(t, err)
	assert.ErrorIs(t, err, want)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))
	assert.Equal(t, 0, m.watches.Size())
}

func TestManager_ReleasesWatches(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	fetch, _ := counter()

	for i := 0; i < 100; i++ {
		getInt(t, m, commentsNumber, fetch, i, 0)
		getInt(t, m, commentsNumber, fetch, i, 0)
		require.NoError(t, m.Remove(ctx, commentsNumber, i, 0))
		require.NoError(t, m.RemoveByPrefix(ctx, "newsitem.comments.number.{0}", i))
	}
	require.NoError(t, m.Clear(ctx))

	assert.Equal(t, 0, m.watches.Size(), "invalidations outside a fetch leave nothing behind")
}

func TestManager_Close(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Close(), "the memory backend holds no connection")

	closed := 0
	m.closer = func() error {
		closed++
		return nil
	}
	require.NoError(t, m.Close())
	assert.Equal(t, 1, closed)
}

func TestManager_RejectsUnpreparedKey(t *testing.T) {
	m := newTestManager(t)

	_, err := m.GetOrFetch(context.Background(), cache.CacheKey{}, func(ctx context.Context) (any, error) { return 1, nil })
	require.Error(t, err)
	assert.True(t, cache.IsInvalidKey(err))

	key, err := m.PrepareKey(countryByID, 1)
	require.NoError(t, err)
	_, err = m.GetOrFetch(context.Background(), key, nil)
	assert.True(t, cache.IsInvalidKey(err))
}

func TestManager_Remove(t *testing.T) {
	m := newTestManager(t)
	fetch, calls := counter()

	getInt(t, m, countryByID, fetch, 1)
	getInt(t, m, countryByID, fetch, 2)

	require.NoError(t, m.Remove(context.Background(), countryByID, 1))

	assert.Equal(t, 3, getInt(t, m, countryByID, fetch, 1))
	assert.Equal(t, 2, getInt(t, m, countryByID, fetch, 2), "other keys are untouched")
	assert.Equal(t, 3, *calls)

	// absent keys are not an error
	require.NoError(t, m.Remove(context.Background(), countryByID, 999))
}

func TestManager_RemoveByPrefix(t *testing.T) {
	m := newTestManager(t)
	fetch, calls := counter()

	getInt(t, m, allCountries, fetch, true, 0)
	getInt(t, m, allCountries, fetch, false, 0)
	getInt(t, m, countryByID, fetch, 1)
	require.Equal(t, 3, *calls)

	require.NoError(t, m.RemoveByPrefix(context.Background(), "country.all."))

	assert.Equal(t, 4, getInt(t, m, allCountries, fetch, true, 0))
	assert.Equal(t, 5, getInt(t, m, allCountries, fetch, false, 0))
	assert.Equal(t, 3, getInt(t, m, countryByID, fetch, 1), "untagged keys survive")
}

func TestManager_RemoveByPrefixWithParts(t *testing.T) {
	m := newTestManager(t)
	fetch, _ := counter()

	getInt(t, m, commentsNumber, fetch, 10, 1)
	getInt(t, m, commentsNumber, fetch, 20, 1)

	require.NoError(t, m.RemoveByPrefix(context.Background(), "newsitem.comments.number.{0}", 10))

	assert.Equal(t, 3, getInt(t, m, commentsNumber, fetch, 10, 1))
	assert.Equal(t, 2, getInt(t, m, commentsNumber, fetch, 20, 1))
}

func TestManager_RemoveByPrefixMissingPart(t *testing.T) {
	m := newTestManager(t)

	err := m.RemoveByPrefix(context.Background(), "newsitem.comments.number.{0}")
	require.Error(t, err)
	assert.True(t, cache.IsInvalidKey(err))
}

func TestManager_Clear(t *testing.T) {
	m := newTestManager(t)
	fetch, calls := counter()

	getInt(t, m, allCountries, fetch, true, 0)
	getInt(t, m, countryByID, fetch, 1)

	require.NoError(t, m.Clear(context.Background()))

	assert.Equal(t, 3, getInt(t, m, allCountries, fetch, true, 0))
	assert.Equal(t, 4, getInt(t, m, countryByID, fetch, 1))
	assert.Equal(t, 4, *calls)
}

func TestManager_ShortTermEntriesExpire(t *testing.T) {
	m := newTestManager(t)
	store := m.store.(*sturdycStore)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	fetch, calls := counter()
	key, err := m.PrepareKeyForShortTermCache(cache.NewKeyTemplate("widget.model.{0}"), "home")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, key.CacheTime())

	ctx := context.Background()
	_, err = m.GetOrFetch(ctx, key, fetch)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	v, _ := m.GetOrFetch(ctx, key, fetch)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	v, _ = m.GetOrFetch(ctx, key, fetch)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, *calls)
}

func TestManager_InvalidationDuringFetchDropsValue(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(ctx context.Context, m *Manager) error
	}{
		{
			name: "prefix",
			invalidate: func(ctx context.Context, m *Manager) error {
				return m.RemoveByPrefix(ctx, "country.all.")
			},
		},
		{
			name: "exact key",
			invalidate: func(ctx context.Context, m *Manager) error {
				return m.Remove(ctx, allCountries, true, 0)
			},
		},
		{
			name: "clear",
			invalidate: func(ctx context.Context, m *Manager) error {
				return m.Clear(ctx)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			calls := 0

			fetch := func(ctx context.Context) (any, error) {
				calls++
				if calls == 1 {
					// a write lands while the stale read is in flight
					assert.NoError(t, tt.invalidate(ctx, m))
				}
				return calls, nil
			}

			assert.Equal(t, 1, getInt(t, m, allCountries, fetch, true, 0))
			assert.Equal(t, 2, getInt(t, m, allCountries, fetch, true, 0), "the stale value must not be served")
			assert.Equal(t, 2, getInt(t, m, allCountries, fetch, true, 0))
			assert.Equal(t, 0, m.watches.Size())
		})
	}
}

func testLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

type failingTags struct{ TagIndex }

func (failingTags) Tag(ctx context.Context, key string, tags []string, ttl time.Duration) error {
	return errors.New("tag index unavailable")
}

func TestManager_UntaggableEntryIsNotKept(t *testing.T) {
	store, err := NewSturdycStore(testMemoryConfig())
	require.NoError(t, err)

	m := New(cache.NewKeyBuilder(cache.DefaultConfig(), nil), store, failingTags{newMemoryTagIndex()}, testLogger(t))
	fetch, calls := counter()

	assert.Equal(t, 1, getInt(t, m, allCountries, fetch, true, 0))
	assert.Equal(t, 2, getInt(t, m, allCountries, fetch, true, 0))
	assert.Equal(t, 2, *calls)
	assert.Equal(t, 0, store.Size())
}

func TestGet_OverManager(t *testing.T) {
	m := newTestManager(t)
	key, err := m.PrepareKeyForDefaultCache(countryByID, 3)
	require.NoError(t, err)

	type country struct{ Name string }

	got, err := cache.Get(context.Background(), m, key, func(ctx context.Context) (*country, error) {
		return &country{Name: "Greece"}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Greece", got.Name)

	again, err := cache.Get(context.Background(), m, key, func(ctx context.Context) (*country, error) {
		t.Fatal("should be served from cache")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Same(t, got, again)
}
