package domain

import (
	"context"
	"testing"

	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntities_ImplementIdentifier(t *testing.T) {
	for _, m := range Models() {
		_, ok := m.(cache.Identifier)
		assert.True(t, ok, "%T must implement cache.Identifier", m)

		_, ok = m.(Entity)
		assert.True(t, ok, "%T must implement Entity", m)
	}
}

func TestEntity_CacheKeyIDMatchesUUIDPart(t *testing.T) {
	b := cache.NewKeyBuilder(cache.DefaultConfig(), nil)
	tpl := cache.NewKeyTemplate("country.byid.{0}")
	id := uuid.New()

	byEntity, err := b.ResolveKey(tpl, &Country{ID: id})
	require.NoError(t, err)
	byID, err := b.ResolveKey(tpl, id)
	require.NoError(t, err)

	assert.Equal(t, byID, byEntity)
}

func TestContextStoreContext(t *testing.T) {
	def := &Store{ID: uuid.New(), Name: "default"}
	other := &Store{ID: uuid.New(), Name: "other"}
	sc := ContextStoreContext{Default: def}

	s, err := sc.CurrentStore(context.Background())
	require.NoError(t, err)
	assert.Same(t, def, s)

	s, err = sc.CurrentStore(WithStore(context.Background(), other))
	require.NoError(t, err)
	assert.Same(t, other, s)

	_, err = ContextStoreContext{}.CurrentStore(context.Background())
	assert.ErrorIs(t, err, ErrNoCurrentStore)
}
