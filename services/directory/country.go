// Package directory serves countries to the storefront.
package directory

import (
	"context"
	"slices"

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
	countryFamily   = repositorycache.FamilyOf[*domain.Country]()
	countryDefaults = repositorycache.EntityDefaults(string(countryFamily))

	// CountriesAllKey is keyed by language, showHidden and current store.
	CountriesAllKey = countryDefaults.All("{0}-{1}-{2}")

	// CountriesByCodePrefix tags every ISO code lookup.
	CountriesByCodePrefix = countryFamily.Prefix() + "bycode."

	CountriesByTwoLetterCodeKey   = countryFamily.Template("bycode.two.{0}", "bycode.")
	CountriesByThreeLetterCodeKey = countryFamily.Template("bycode.three.{0}", "bycode.")
)

// CatalogSettings are the catalog options the directory honours.
type CatalogSettings struct {
	// IgnoreStoreLimitations shows countries limited to other stores.
	IgnoreStoreLimitations bool `mapstructure:"ignore_store_limitations"`
}

// Localizer resolves the localized value of an entity property.
type Localizer interface {
	GetLocalized(ctx context.Context, entity domain.Localizable, localeKey, fallback string, languageID uuid.UUID) (string, error)
}

// CountryService reads countries through the static cache and writes them
// through an event raising repository.
type CountryService struct {
	settings     CatalogSettings
	manager      cache.Manager
	localizer    Localizer
	countries    repository.Repository[*domain.Country]
	storeContext domain.StoreContext
	logger       zerolog.Logger
}

func NewCountryService(
	settings CatalogSettings,
	manager cache.Manager,
	localizer Localizer,
	countries repository.Repository[*domain.Country],
	storeContext domain.StoreContext,
	logger zerolog.Logger,
) *CountryService {
	return &CountryService{
		settings:     settings,
		manager:      manager,
		localizer:    localizer,
		countries:    countries,
		storeContext: storeContext,
		logger:       logger.With().Str("component", "CountryService").Logger(),
	}
}

// GetAllCountries returns the countries visible in the current store ordered
// by display order then name. languageID, when set, orders countries sharing
// a display order by their localized name.
func (s *CountryService) GetAllCountries(ctx context.Context, languageID uuid.UUID, showHidden bool) ([]*domain.Country, error) {
	store, err := s.currentStore(ctx)
	if err != nil {
		return nil, err
	}

	key, err := s.manager.PrepareKeyForDefaultCache(CountriesAllKey, languageID, showHidden, store)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) ([]*domain.Country, error) {
		countries, err := storage.ListAll(ctx, s.countries, func(q *bun.SelectQuery) *bun.SelectQuery {
			if !showHidden {
				q = q.Where("?TableAlias.published = ?", true)
			}
			if !showHidden && !s.settings.IgnoreStoreLimitations {
				q = q.Where(
					"(?TableAlias.limited_to_stores = ? OR EXISTS (SELECT 1 FROM store_mappings AS sm WHERE sm.entity_id = ?TableAlias.id AND sm.entity_name = ? AND sm.store_id = ?))",
					false, "Country", store.ID,
				)
			}
			return q.OrderExpr("?TableAlias.display_order ASC, ?TableAlias.name ASC")
		})
		if err != nil {
			return nil, err
		}

		if languageID != uuid.Nil && s.localizer != nil {
			if err := s.sortByLocalizedName(ctx, countries, languageID); err != nil {
				return nil, err
			}
		}

		s.logger.Debug().
			Int("count", len(countries)).
			Stringer("store_id", store.ID).
			Bool("show_hidden", showHidden).
			Msg("Countries loaded.")

		return countries, nil
	})
}

func (s *CountryService) sortByLocalizedName(ctx context.Context, countries []*domain.Country, languageID uuid.UUID) error {
	names := make(map[uuid.UUID]string, len(countries))
	for _, c := range countries {
		name, err := s.localizer.GetLocalized(ctx, c, "Name", c.Name, languageID)
		if err != nil {
			return err
		}
		names[c.ID] = name
	}

	slices.SortStableFunc(countries, func(a, b *domain.Country) int {
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		switch na, nb := names[a.ID], names[b.ID]; {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	})
	return nil
}

// currentStore returns the store the listing is scoped to. Without a store
// context every listing is scoped to the nil store.
func (s *CountryService) currentStore(ctx context.Context) (*domain.Store, error) {
	if s.storeContext == nil {
		return &domain.Store{}, nil
	}
	return s.storeContext.CurrentStore(ctx)
}

// GetAllCountriesForBilling returns the countries of GetAllCountries that allow billing.
func (s *CountryService) GetAllCountriesForBilling(ctx context.Context, languageID uuid.UUID, showHidden bool) ([]*domain.Country, error) {
	return s.filter(ctx, languageID, showHidden, func(c *domain.Country) bool { return c.AllowsBilling })
}

// GetAllCountriesForShipping returns the countries of GetAllCountries that allow shipping.
func (s *CountryService) GetAllCountriesForShipping(ctx context.Context, languageID uuid.UUID, showHidden bool) ([]*domain.Country, error) {
	return s.filter(ctx, languageID, showHidden, func(c *domain.Country) bool { return c.AllowsShipping })
}

func (s *CountryService) filter(ctx context.Context, languageID uuid.UUID, showHidden bool, keep func(*domain.Country) bool) ([]*domain.Country, error) {
	countries, err := s.GetAllCountries(ctx, languageID, showHidden)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Country, 0, len(countries))
	for _, c := range countries {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetCountryByID returns nil for uuid.Nil and for unknown ids.
func (s *CountryService) GetCountryByID(ctx context.Context, id uuid.UUID) (*domain.Country, error) {
	if id == uuid.Nil {
		return nil, nil
	}

	key, err := s.manager.PrepareKeyForDefaultCache(countryDefaults.ByID, id)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) (*domain.Country, error) {
		return storage.First(ctx, s.countries, storage.WhereID(id))
	})
}

// GetCountryByAddress returns the country of address, or nil when it has none.
func (s *CountryService) GetCountryByAddress(ctx context.Context, address *domain.Address) (*domain.Country, error) {
	if address == nil || address.CountryID == nil {
		return nil, nil
	}
	return s.GetCountryByID(ctx, *address.CountryID)
}

// GetCountriesByIDs returns the countries with the given ids in the order of
// ids. Unknown ids are skipped.
func (s *CountryService) GetCountriesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Country, error) {
	if len(ids) == 0 {
		return []*domain.Country{}, nil
	}

	key, err := s.manager.PrepareKeyForDefaultCache(countryDefaults.ByIDs, ids)
	if err != nil {
		return nil, err
	}

	found, err := cache.Get(ctx, s.manager, key, func(ctx context.Context) ([]*domain.Country, error) {
		countries, err := storage.ListAll(ctx, s.countries, storage.WhereIDs(ids))
		return countries, err
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*domain.Country, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	out := make([]*domain.Country, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetCountryByTwoLetterISOCode returns nil for an empty or unknown code.
func (s *CountryService) GetCountryByTwoLetterISOCode(ctx context.Context, code string) (*domain.Country, error) {
	return s.byCode(ctx, CountriesByTwoLetterCodeKey, "two_letter_iso_code", code)
}

// GetCountryByThreeLetterISOCode returns nil for an empty or unknown code.
func (s *CountryService) GetCountryByThreeLetterISOCode(ctx context.Context, code string) (*domain.Country, error) {
	return s.byCode(ctx, CountriesByThreeLetterCodeKey, "three_letter_iso_code", code)
}

func (s *CountryService) byCode(ctx context.Context, tpl cache.KeyTemplate, column, code string) (*domain.Country, error) {
	if code == "" {
		return nil, nil
	}

	key, err := s.manager.PrepareKeyForDefaultCache(tpl, code)
	if err != nil {
		return nil, err
	}

	return cache.Get(ctx, s.manager, key, func(ctx context.Context) (*domain.Country, error) {
		return storage.First(ctx, s.countries, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.? = ?", bun.Ident(column), code)
		})
	})
}

func (s *CountryService) InsertCountry(ctx context.Context, country *domain.Country) (*domain.Country, error) {
	if country == nil {
		return nil, errNilCountry()
	}
	storage.EnsureID(country)
	return s.countries.Create(ctx, country)
}

func (s *CountryService) UpdateCountry(ctx context.Context, country *domain.Country) (*domain.Country, error) {
	if country == nil {
		return nil, errNilCountry()
	}
	return s.countries.Update(ctx, country)
}

func (s *CountryService) DeleteCountry(ctx context.Context, country *domain.Country) error {
	if country == nil {
		return errNilCountry()
	}
	return s.countries.Delete(ctx, country)
}

func errNilCountry() error {
	return errors.New("country is nil", errors.CategoryBadInput)
}
