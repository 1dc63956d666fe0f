package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store is a storefront served by the application.
type Store struct {
	bun.BaseModel `bun:"table:stores,alias:s"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	URL          string    `bun:"url" json:"url"`
	DisplayOrder int       `bun:"display_order" json:"display_order"`
}

func (s *Store) GetID() uuid.UUID   { return s.ID }
func (s *Store) SetID(id uuid.UUID) { s.ID = id }
func (s *Store) CacheKeyID() string { return cacheKeyID(s.ID) }

// StoreMapping limits an entity to a store. EntityName is the Go type name of
// the mapped entity, e.g. "Country".
type StoreMapping struct {
	bun.BaseModel `bun:"table:store_mappings,alias:sm"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	EntityID   uuid.UUID `bun:"entity_id,type:uuid,notnull" json:"entity_id"`
	EntityName string    `bun:"entity_name,notnull" json:"entity_name"`
	StoreID    uuid.UUID `bun:"store_id,type:uuid,notnull" json:"store_id"`
}

func (m *StoreMapping) GetID() uuid.UUID   { return m.ID }
func (m *StoreMapping) SetID(id uuid.UUID) { m.ID = id }
func (m *StoreMapping) CacheKeyID() string { return cacheKeyID(m.ID) }

// StoreContext resolves the store serving the current request.
type StoreContext interface {
	CurrentStore(ctx context.Context) (*Store, error)
}

type storeContextKey struct{}

// WithStore returns a context carrying store as the current store.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// ContextStoreContext reads the current store from the request context and
// falls back to Default.
type ContextStoreContext struct {
	Default *Store
}

func (c ContextStoreContext) CurrentStore(ctx context.Context) (*Store, error) {
	if s, ok := ctx.Value(storeContextKey{}).(*Store); ok && s != nil {
		return s, nil
	}
	if c.Default == nil {
		return nil, ErrNoCurrentStore
	}
	return c.Default, nil
}
