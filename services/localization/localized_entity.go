// Package localization stores and serves localized entity properties.
package localization

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/internal/storage"
	"github.com/goliatone/go-storefront-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

var (
	propertyFamily   = repositorycache.FamilyOf[*domain.LocalizedProperty]()
	propertyDefaults = repositorycache.EntityDefaults(string(propertyFamily))

	// LocalizedValueKey is keyed by language, entity, locale key group and locale key.
	LocalizedValueKey = propertyFamily.Template("value.{0}-{1}-{2}-{3}")

	// LocalizedPropertiesAllKey holds every localized property when they are
	// loaded on startup.
	LocalizedPropertiesAllKey = propertyDefaults.All("")
)

// Settings are the localization options.
type Settings struct {
	// LoadAllLocalizedPropertiesOnStartup answers lookups from one cached
	// list of every property instead of a query per value.
	LoadAllLocalizedPropertiesOnStartup bool `mapstructure:"load_all_localized_properties_on_startup"`
}

// LocalizedEntityService reads localized values through the static cache.
type LocalizedEntityService struct {
	settings   Settings
	manager    cache.Manager
	properties repository.Repository[*domain.LocalizedProperty]
	logger     zerolog.Logger
}

func NewLocalizedEntityService(settings Settings, manager cache.Manager, properties repository.Repository[*domain.LocalizedProperty], logger zerolog.Logger) *LocalizedEntityService {
	return &LocalizedEntityService{
		settings:   settings,
		manager:    manager,
		properties: properties,
		logger:     logger.With().Str("component", "LocalizedEntityService").Logger(),
	}
}

// GetLocalizedValue returns the value of the property, or "" when there is
// none. Missing values are cached too.
func (s *LocalizedEntityService) GetLocalizedValue(ctx context.Context, languageID, entityID uuid.UUID, localeKeyGroup, localeKey string) (string, error) {
	key, err := s.manager.PrepareKeyForDefaultCache(LocalizedValueKey, languageID, entityID, localeKeyGroup, localeKey)
	if err != nil {
		return "", err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) (string, error) {
		if s.settings.LoadAllLocalizedPropertiesOnStartup {
			all, err := s.allProperties(ctx)
			if err != nil {
				return "", err
			}
			for _, p := range all {
				if p.LanguageID == languageID && p.EntityID == entityID &&
					p.LocaleKeyGroup == localeKeyGroup && p.LocaleKey == localeKey {
					return p.LocaleValue, nil
				}
			}
			return "", nil
		}

		p, err := storage.First(ctx, s.properties, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.language_id = ?", languageID).
				Where("?TableAlias.entity_id = ?", entityID).
				Where("?TableAlias.locale_key_group = ?", localeKeyGroup).
				Where("?TableAlias.locale_key = ?", localeKey)
		})
		if err != nil || p == nil {
			return "", err
		}
		return p.LocaleValue, nil
	})
}

func (s *LocalizedEntityService) allProperties(ctx context.Context) ([]*domain.LocalizedProperty, error) {
	key, err := s.manager.PrepareKeyForDefaultCache(LocalizedPropertiesAllKey)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) ([]*domain.LocalizedProperty, error) {
		all, err := storage.ListAll(ctx, s.properties)
		if err != nil {
			return nil, err
		}
		s.logger.Debug().Int("count", len(all)).Msg("Localized properties loaded.")
		return all, nil
	})
}

// WarmUp loads every localized property into the cache when
// LoadAllLocalizedPropertiesOnStartup is set.
func (s *LocalizedEntityService) WarmUp(ctx context.Context) error {
	if !s.settings.LoadAllLocalizedPropertiesOnStartup {
		return nil
	}
	_, err := s.allProperties(ctx)
	return err
}

// GetLocalized returns the localized value of localeKey for entity, or
// fallback when languageID is nil or no value is stored.
func (s *LocalizedEntityService) GetLocalized(ctx context.Context, entity domain.Localizable, localeKey, fallback string, languageID uuid.UUID) (string, error) {
	if entity == nil || languageID == uuid.Nil {
		return fallback, nil
	}

	value, err := s.GetLocalizedValue(ctx, languageID, entity.GetID(), entity.LocaleKeyGroup(), localeKey)
	if err != nil {
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// GetLocalizedPropertyByID returns nil for unknown ids.
func (s *LocalizedEntityService) GetLocalizedPropertyByID(ctx context.Context, id uuid.UUID) (*domain.LocalizedProperty, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return storage.First(ctx, s.properties, storage.WhereID(id))
}

// GetLocalizedProperties lists the properties of one entity.
func (s *LocalizedEntityService) GetLocalizedProperties(ctx context.Context, entityID uuid.UUID, localeKeyGroup string) ([]*domain.LocalizedProperty, error) {
	if entityID == uuid.Nil || localeKeyGroup == "" {
		return []*domain.LocalizedProperty{}, nil
	}

	props, err := storage.ListAll(ctx, s.properties,
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.entity_id = ?", entityID).
				Where("?TableAlias.locale_key_group = ?", localeKeyGroup)
		},
		storage.OrderBy("?TableAlias.id ASC"),
	)
	return props, err
}

func (s *LocalizedEntityService) InsertLocalizedProperty(ctx context.Context, p *domain.LocalizedProperty) (*domain.LocalizedProperty, error) {
	if p == nil {
		return nil, errNilProperty()
	}
	storage.EnsureID(p)
	return s.properties.Create(ctx, p)
}

func (s *LocalizedEntityService) UpdateLocalizedProperty(ctx context.Context, p *domain.LocalizedProperty) (*domain.LocalizedProperty, error) {
	if p == nil {
		return nil, errNilProperty()
	}
	return s.properties.Update(ctx, p)
}

func (s *LocalizedEntityService) DeleteLocalizedProperty(ctx context.Context, p *domain.LocalizedProperty) error {
	if p == nil {
		return errNilProperty()
	}
	return s.properties.Delete(ctx, p)
}

// SaveLocalizedValue stores value as the localeKey translation of entity in
// languageID. A blank value deletes the stored translation. Locale keys match
// case-insensitively.
func (s *LocalizedEntityService) SaveLocalizedValue(ctx context.Context, entity domain.Localizable, localeKey, value string, languageID uuid.UUID) error {
	if entity == nil {
		return errors.New("entity is nil", errors.CategoryBadInput)
	}
	if languageID == uuid.Nil {
		return errors.New("language id must not be nil", errors.CategoryBadInput).
			WithTextCode("LANGUAGE_REQUIRED")
	}
	if localeKey == "" {
		return errors.New("locale key is empty", errors.CategoryBadInput)
	}

	props, err := s.GetLocalizedProperties(ctx, entity.GetID(), entity.LocaleKeyGroup())
	if err != nil {
		return err
	}

	var prop *domain.LocalizedProperty
	for _, p := range props {
		if p.LanguageID == languageID && strings.EqualFold(p.LocaleKey, localeKey) {
			prop = p
			break
		}
	}

	blank := strings.TrimSpace(value) == ""

	switch {
	case prop != nil && blank:
		return s.DeleteLocalizedProperty(ctx, prop)
	case prop != nil:
		if prop.LocaleValue == value {
			return nil
		}
		prop.LocaleValue = value
		_, err = s.UpdateLocalizedProperty(ctx, prop)
		return err
	case blank:
		return nil
	}

	_, err = s.InsertLocalizedProperty(ctx, &domain.LocalizedProperty{
		EntityID:       entity.GetID(),
		LanguageID:     languageID,
		LocaleKeyGroup: entity.LocaleKeyGroup(),
		LocaleKey:      localeKey,
		LocaleValue:    value,
	})
	return err
}

func errNilProperty() error {
	return errors.New("localized property is nil", errors.CategoryBadInput)
}
