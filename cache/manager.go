package cache

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
)

// FetchFn is the function signature Manager expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Encoded is returned by backends that keep values serialized (redis).
// Get decodes it into the requested type.
type Encoded []byte

// KeyPreparer builds cache keys from templates.
type KeyPreparer interface {
	PrepareKey(template KeyTemplate, parts ...any) (CacheKey, error)
	PrepareKeyForDefaultCache(template KeyTemplate, parts ...any) (CacheKey, error)
	PrepareKeyForShortTermCache(template KeyTemplate, parts ...any) (CacheKey, error)
}

// Manager is the static cache: a cache-aside store with exact key and
// prefix invalidation.
type Manager interface {
	KeyPreparer

	// GetOrFetch returns the value stored under key, calling fetch on a miss
	// and storing its result. Errors from fetch are returned and nothing is stored.
	GetOrFetch(ctx context.Context, key CacheKey, fetch func(ctx context.Context) (any, error)) (any, error)

	// Remove deletes the entry for template resolved with parts. Absent keys are not an error.
	Remove(ctx context.Context, template KeyTemplate, parts ...any) error

	// RemoveKey deletes a prepared key.
	RemoveKey(ctx context.Context, key CacheKey) error

	// RemoveByPrefix deletes every entry tagged with prefix resolved with parts.
	RemoveByPrefix(ctx context.Context, prefix string, parts ...any) error

	// Clear empties the cache.
	Clear(ctx context.Context) error
}

// Get is the type-safe read path over a Manager.
func Get[T any](ctx context.Context, m Manager, key CacheKey, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := m.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		return zero, err
	}

	switch v := result.(type) {
	case nil:
		return zero, nil
	case T:
		return v, nil
	case Encoded:
		var out T
		if err := msgpack.Unmarshal(v, &out); err != nil {
			return zero, BackendError(err, "decode "+key.Key())
		}
		return out, nil
	}

	return zero, invalidKeyError("cached value for %q has type %T, want %T", key.Key(), result, zero)
}
