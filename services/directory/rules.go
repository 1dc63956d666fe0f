package directory

import (
	"context"

	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/repositorycache"
)

// RegisterCacheRules subscribes the directory invalidation rules to d.
func RegisterCacheRules(d *repositorycache.Dispatcher) {
	repositorycache.On(d, func(ctx context.Context, m cache.Manager, c *domain.Country, kind repositorycache.EventKind) error {
		// a lookup that missed before the insert cached nil
		if kind == repositorycache.EventInsert {
			if err := m.Remove(ctx, countryDefaults.ByID, c); err != nil {
				return err
			}
		}
		return m.RemoveByPrefix(ctx, CountriesByCodePrefix)
	})

	// criteria deletes of mappings carry no entity, so they may have touched
	// countries too
	d.Register(repositorycache.EntityType[*domain.StoreMapping](), []repositorycache.Rule{
		func(ctx context.Context, m cache.Manager, change repositorycache.EntityChange) error {
			if sm, ok := change.Entity.(*domain.StoreMapping); ok && sm != nil && sm.EntityName != "Country" {
				return nil
			}
			return m.RemoveByPrefix(ctx, countryDefaults.AllPrefix)
		},
	})
}
