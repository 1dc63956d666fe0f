// Package factories prepares the view models of the storefront.
package factories

import (
	"context"

	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WidgetModelKey is keyed by customer role ids, store, widget zone and theme.
var WidgetModelKey = cache.NewKeyTemplate("widget.model.{0}-{1}-{2}-{3}", "widget.")

// WidgetModelPrefix drops every cached widget listing.
const WidgetModelPrefix = "widget."

// WorkContext describes the customer of the current request.
type WorkContext interface {
	CurrentCustomerRoleIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ThemeContext resolves the theme used to render the current request.
type ThemeContext interface {
	WorkingThemeName(ctx context.Context) (string, error)
}

// Widget is an active widget plugin.
type Widget interface {
	WidgetViewComponentName(widgetZone string) string
}

// WidgetPluginManager loads the widgets visible to a set of customer roles
// in a store.
type WidgetPluginManager interface {
	LoadActivePlugins(ctx context.Context, roleIDs []uuid.UUID, storeID uuid.UUID, widgetZone string) ([]Widget, error)
}

// RenderWidgetModel is a view component to render in a widget zone.
type RenderWidgetModel struct {
	WidgetViewComponentName      string         `json:"widget_view_component_name" msgpack:"widget_view_component_name"`
	WidgetViewComponentArguments map[string]any `json:"widget_view_component_arguments" msgpack:"widget_view_component_arguments"`
}

type WidgetModelFactory struct {
	manager cache.Manager
	work    WorkContext
	stores  domain.StoreContext
	themes  ThemeContext
	widgets WidgetPluginManager
	logger  zerolog.Logger
}

func NewWidgetModelFactory(manager cache.Manager, work WorkContext, stores domain.StoreContext, themes ThemeContext, widgets WidgetPluginManager, logger zerolog.Logger) *WidgetModelFactory {
	return &WidgetModelFactory{
		manager: manager,
		work:    work,
		stores:  stores,
		themes:  themes,
		widgets: widgets,
		logger:  logger.With().Str("component", "WidgetModelFactory").Logger(),
	}
}

// PrepareRenderWidgetModel returns the widgets of widgetZone for the current
// customer, store and theme. The models are fresh copies carrying
// additionalData, so callers may modify them.
func (f *WidgetModelFactory) PrepareRenderWidgetModel(ctx context.Context, widgetZone string, additionalData any) ([]*RenderWidgetModel, error) {
	roles, err := f.work.CurrentCustomerRoleIDs(ctx)
	if err != nil {
		return nil, err
	}
	store, err := f.stores.CurrentStore(ctx)
	if err != nil {
		return nil, err
	}
	theme, err := f.themes.WorkingThemeName(ctx)
	if err != nil {
		return nil, err
	}

	key, err := f.manager.PrepareKeyForShortTermCache(WidgetModelKey, roles, store, widgetZone, theme)
	if err != nil {
		return nil, err
	}

	cached, err := cache.Get(ctx, f.manager, key, func(ctx context.Context) ([]RenderWidgetModel, error) {
		widgets, err := f.widgets.LoadActivePlugins(ctx, roles, store.ID, widgetZone)
		if err != nil {
			return nil, err
		}

		models := make([]RenderWidgetModel, 0, len(widgets))
		for _, w := range widgets {
			models = append(models, RenderWidgetModel{
				WidgetViewComponentName:      w.WidgetViewComponentName(widgetZone),
				WidgetViewComponentArguments: map[string]any{"widgetZone": widgetZone},
			})
		}

		f.logger.Debug().
			Str("widget_zone", widgetZone).
			Str("theme", theme).
			Int("widgets", len(models)).
			Msg("Widget models loaded.")

		return models, nil
	})
	if err != nil {
		return nil, err
	}

	// the cached models stay untouched, additionalData only goes on the copies
	models := make([]*RenderWidgetModel, 0, len(cached))
	for _, m := range cached {
		models = append(models, &RenderWidgetModel{
			WidgetViewComponentName: m.WidgetViewComponentName,
			WidgetViewComponentArguments: map[string]any{
				"widgetZone":     widgetZone,
				"additionalData": additionalData,
			},
		})
	}
	return models, nil
}
