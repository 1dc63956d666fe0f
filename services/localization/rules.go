package localization

import (
	"context"

	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/repositorycache"
)

// RegisterCacheRules subscribes the localization invalidation rules to d.
// The family default rule drops the full property list.
func RegisterCacheRules(d *repositorycache.Dispatcher) {
	repositorycache.On(d, func(ctx context.Context, m cache.Manager, p *domain.LocalizedProperty, _ repositorycache.EventKind) error {
		return m.Remove(ctx, LocalizedValueKey, p.LanguageID, p.EntityID, p.LocaleKeyGroup, p.LocaleKey)
	})
}
