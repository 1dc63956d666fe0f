package catalog

import (
	"context"

	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/repositorycache"
)

// RegisterCacheRules subscribes the catalog invalidation rules to d.
func RegisterCacheRules(d *repositorycache.Dispatcher) {
	repositorycache.Track[*domain.SpecificationAttributeGroup](d)
	repositorycache.Track[*domain.ProductSpecificationAttribute](d)

	repositorycache.On(d, func(ctx context.Context, m cache.Manager, a *domain.SpecificationAttribute, kind repositorycache.EventKind) error {
		if err := removeAttributeListings(ctx, m); err != nil {
			return err
		}
		if kind == repositorycache.EventDelete {
			return m.Remove(ctx, OptionsByAttributeKey, a.ID)
		}
		return nil
	})

	repositorycache.On(d, func(ctx context.Context, m cache.Manager, o *domain.SpecificationAttributeOption, _ repositorycache.EventKind) error {
		if err := removeAttributeListings(ctx, m); err != nil {
			return err
		}
		return m.Remove(ctx, OptionsByAttributeKey, o.SpecificationAttributeID)
	})
}

func removeAttributeListings(ctx context.Context, m cache.Manager) error {
	if err := m.RemoveByPrefix(ctx, AttributesWithOptionsPrefix); err != nil {
		return err
	}
	return m.RemoveByPrefix(ctx, AttributesByGroupPrefix)
}
