package cacheinfra

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// TagIndex maps prefix tags to the keys stored under them.
type TagIndex interface {
	Tag(ctx context.Context, key string, tags []string, ttl time.Duration) error
	Keys(ctx context.Context, tag string) ([]string, error)
	DropTag(ctx context.Context, tag string) error
	Reset(ctx context.Context) error
}

// memoryTagIndex keeps tag membership in process.
// Keys evicted by the store stay in their tag sets until the tag is dropped;
// deleting an absent key is a no-op so this only costs memory.
type memoryTagIndex struct {
	tags *xsync.MapOf[string, *xsync.MapOf[string, struct{}]]
}

func newMemoryTagIndex() *memoryTagIndex {
	return &memoryTagIndex{tags: xsync.NewMapOf[string, *xsync.MapOf[string, struct{}]]()}
}

func (i *memoryTagIndex) Tag(ctx context.Context, key string, tags []string, ttl time.Duration) error {
	for _, tag := range tags {
		set, _ := i.tags.LoadOrCompute(tag, func() *xsync.MapOf[string, struct{}] {
			return xsync.NewMapOf[string, struct{}]()
		})
		set.Store(key, struct{}{})
	}
	return nil
}

func (i *memoryTagIndex) Keys(ctx context.Context, tag string) ([]string, error) {
	set, ok := i.tags.Load(tag)
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, set.Size())
	set.Range(func(key string, _ struct{}) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

func (i *memoryTagIndex) DropTag(ctx context.Context, tag string) error {
	i.tags.Delete(tag)
	return nil
}

func (i *memoryTagIndex) Reset(ctx context.Context) error {
	i.tags.Clear()
	return nil
}
