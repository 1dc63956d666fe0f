package directory

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/pkg/testsupport"
	"github.com/goliatone/go-storefront-cache/services/stores"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type mapLocalizer map[string]string

func (l mapLocalizer) GetLocalized(_ context.Context, entity domain.Localizable, localeKey, fallback string, languageID uuid.UUID) (string, error) {
	if v, ok := l[entity.GetID().String()+"/"+languageID.String()+"/"+localeKey]; ok {
		return v, nil
	}
	return fallback, nil
}

type testEnv struct {
	h         *testsupport.Harness
	countries *CountryService
	mappings  *stores.StoreMappingService
	storeA    *domain.Store
	storeB    *domain.Store
	byCode    map[string]*domain.Country
}

func newTestEnv(t *testing.T, settings CatalogSettings, localizer Localizer) *testEnv {
	t.Helper()

	h := testsupport.NewHarness(t)
	RegisterCacheRules(h.Dispatcher)

	env := &testEnv{
		h:      h,
		storeA: &domain.Store{Name: "A"},
		storeB: &domain.Store{Name: "B"},
		byCode: map[string]*domain.Country{},
	}
	testsupport.Seed(t, h.DB, env.storeA, env.storeB)

	countries := testsupport.Records[domain.Country](t, testsupport.FixturePath("countries.json"))
	testsupport.SeedAll(t, h.DB, countries)
	for _, c := range countries {
		env.byCode[c.TwoLetterISOCode] = c
	}

	logger := testsupport.Logger(t)
	env.countries = NewCountryService(
		settings,
		h.Manager,
		localizer,
		testsupport.Repository[domain.Country](h),
		domain.ContextStoreContext{Default: env.storeA},
		logger,
	)
	env.mappings = stores.NewStoreMappingService(h.Manager, testsupport.Repository[domain.StoreMapping](h), logger)

	// Canada is only sold in store A
	_, err := env.mappings.InsertStoreMapping(context.Background(), "Country", env.byCode["CA"].ID, env.storeA.ID)
	require.NoError(t, err)

	return env
}

func codes(countries []*domain.Country) []string {
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		out = append(out, c.TwoLetterISOCode)
	}
	return out
}

func TestGetAllCountries_ScopedPerStore(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctxA := domain.WithStore(context.Background(), env.storeA)
	ctxB := domain.WithStore(context.Background(), env.storeB)

	inA, err := env.countries.GetAllCountries(ctxA, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA", "FR"}, codes(inA))

	inB, err := env.countries.GetAllCountries(ctxB, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "FR"}, codes(inB))

	keyA, err := env.h.Manager.PrepareKeyForDefaultCache(CountriesAllKey, uuid.Nil, false, env.storeA)
	require.NoError(t, err)
	keyB, err := env.h.Manager.PrepareKeyForDefaultCache(CountriesAllKey, uuid.Nil, false, env.storeB)
	require.NoError(t, err)
	assert.NotEqual(t, keyA.Key(), keyB.Key())

	// rows written around the repositories are not seen until invalidation
	testsupport.Seed(t, env.h.DB, &domain.Country{Name: "Spain", TwoLetterISOCode: "ES", Published: true, DisplayOrder: 4})

	inB, err = env.countries.GetAllCountries(ctxB, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "FR"}, codes(inB))

	_, err = env.mappings.InsertStoreMapping(context.Background(), "Country", env.byCode["CA"].ID, env.storeB.ID)
	require.NoError(t, err)

	inB, err = env.countries.GetAllCountries(ctxB, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA", "FR", "ES"}, codes(inB))
}

func TestGetAllCountries_ShowHidden(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctxB := domain.WithStore(context.Background(), env.storeB)

	all, err := env.countries.GetAllCountries(ctxB, uuid.Nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA", "FR", "DE"}, codes(all))
}

func TestGetAllCountries_ReturnsEveryCountry(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctxB := domain.WithStore(context.Background(), env.storeB)

	for i := 0; i < 40; i++ {
		testsupport.Seed(t, env.h.DB, &domain.Country{
			Name:         fmt.Sprintf("Country %02d", i),
			Published:    true,
			DisplayOrder: 10 + i,
		})
	}

	all, err := env.countries.GetAllCountries(ctxB, uuid.Nil, true)
	require.NoError(t, err)
	require.Len(t, all, 44)
	assert.Equal(t, "Country 39", all[len(all)-1].Name)

	published, err := env.countries.GetAllCountries(ctxB, uuid.Nil, false)
	require.NoError(t, err)
	assert.Len(t, published, 42)
}

func TestGetAllCountries_StorageErrorIsReturned(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := domain.WithStore(context.Background(), env.storeA)

	_, err := env.h.DB.NewDropTable().Model((*domain.Country)(nil)).Exec(ctx)
	require.NoError(t, err)

	_, err = env.countries.GetAllCountries(ctx, uuid.Nil, true)
	require.Error(t, err)

	// the failure was not cached
	_, err = env.h.DB.NewCreateTable().Model((*domain.Country)(nil)).Exec(ctx)
	require.NoError(t, err)
	testsupport.Seed(t, env.h.DB, &domain.Country{Name: "Chile", TwoLetterISOCode: "CL", Published: true})

	all, err := env.countries.GetAllCountries(ctx, uuid.Nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"CL"}, codes(all))
}

func TestGetAllCountries_IgnoreStoreLimitations(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{IgnoreStoreLimitations: true}, nil)
	ctxB := domain.WithStore(context.Background(), env.storeB)

	inB, err := env.countries.GetAllCountries(ctxB, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA", "FR"}, codes(inB))
}

func TestGetAllCountries_SortsByLocalizedName(t *testing.T) {
	language := uuid.New()
	localizer := mapLocalizer{}
	env := newTestEnv(t, CatalogSettings{}, localizer)
	localizer[env.byCode["CA"].ID.String()+"/"+language.String()+"/Name"] = "Kanada"

	ctx := context.Background()

	plain, err := env.countries.GetAllCountries(ctx, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA", "FR"}, codes(plain))

	localized, err := env.countries.GetAllCountries(ctx, language, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "FR", "CA"}, codes(localized))
}

func TestGetAllCountries_WritesInvalidate(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := context.Background()

	_, err := env.countries.GetAllCountries(ctx, uuid.Nil, false)
	require.NoError(t, err)

	_, err = env.countries.InsertCountry(ctx, &domain.Country{Name: "Italy", TwoLetterISOCode: "IT", Published: true, DisplayOrder: 5})
	require.NoError(t, err)

	all, err := env.countries.GetAllCountries(ctx, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA", "FR", "IT"}, codes(all))

	us := *env.byCode["US"]
	us.DisplayOrder = 9
	_, err = env.countries.UpdateCountry(ctx, &us)
	require.NoError(t, err)

	all, err = env.countries.GetAllCountries(ctx, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "FR", "IT", "US"}, codes(all))

	require.NoError(t, env.countries.DeleteCountry(ctx, env.byCode["FR"]))

	all, err = env.countries.GetAllCountries(ctx, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "IT", "US"}, codes(all))
}

func TestGetAllCountries_CriteriaDeleteOfMappings(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctxA := domain.WithStore(context.Background(), env.storeA)

	inA, err := env.countries.GetAllCountries(ctxA, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA", "FR"}, codes(inA))

	mappings := testsupport.Repository[domain.StoreMapping](env.h)
	canada := env.byCode["CA"].ID
	require.NoError(t, mappings.DeleteWhere(ctxA, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("entity_id = ?", canada)
	}))

	inA, err = env.countries.GetAllCountries(ctxA, uuid.Nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "FR"}, codes(inA))
}

func TestGetAllCountriesForBillingAndShipping(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := context.Background()

	billing, err := env.countries.GetAllCountriesForBilling(ctx, uuid.Nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA", "DE"}, codes(billing))

	shipping, err := env.countries.GetAllCountriesForShipping(ctx, uuid.Nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "FR", "DE"}, codes(shipping))

	// filtering must not touch the cached listing
	all, err := env.countries.GetAllCountries(ctx, uuid.Nil, true)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGetCountryByID(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := context.Background()

	c, err := env.countries.GetCountryByID(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	us := env.byCode["US"]
	c, err = env.countries.GetCountryByID(ctx, us.ID)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "United States", c.Name)

	updated := *us
	updated.Name = "United States of America"
	_, err = env.countries.UpdateCountry(ctx, &updated)
	require.NoError(t, err)

	c, err = env.countries.GetCountryByID(ctx, us.ID)
	require.NoError(t, err)
	assert.Equal(t, "United States of America", c.Name)

	require.NoError(t, env.countries.DeleteCountry(ctx, &updated))

	c, err = env.countries.GetCountryByID(ctx, us.ID)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestGetCountryByID_MissThenInsert(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := context.Background()
	id := uuid.New()

	c, err := env.countries.GetCountryByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = env.countries.InsertCountry(ctx, &domain.Country{ID: id, Name: "Japan", TwoLetterISOCode: "JP"})
	require.NoError(t, err)

	c, err = env.countries.GetCountryByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Japan", c.Name)
}

func TestGetCountryByAddress(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := context.Background()

	c, err := env.countries.GetCountryByAddress(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = env.countries.GetCountryByAddress(ctx, &domain.Address{})
	require.NoError(t, err)
	assert.Nil(t, c)

	id := env.byCode["FR"].ID
	c, err = env.countries.GetCountryByAddress(ctx, &domain.Address{CountryID: &id})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "FR", c.TwoLetterISOCode)
}

func TestGetCountriesByIDs(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := context.Background()

	got, err := env.countries.GetCountriesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	unknown := uuid.New()
	ids := []uuid.UUID{env.byCode["FR"].ID, unknown, env.byCode["US"].ID}
	got, err = env.countries.GetCountriesByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"FR", "US"}, codes(got))

	// the cached set is shared by every order of the same ids
	reversed := []uuid.UUID{env.byCode["US"].ID, unknown, env.byCode["FR"].ID}
	got, err = env.countries.GetCountriesByIDs(ctx, reversed)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "FR"}, codes(got))
}

func TestGetCountryByISOCode(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := context.Background()

	c, err := env.countries.GetCountryByTwoLetterISOCode(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = env.countries.GetCountryByThreeLetterISOCode(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = env.countries.GetCountryByTwoLetterISOCode(ctx, "CA")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Canada", c.Name)

	c, err = env.countries.GetCountryByThreeLetterISOCode(ctx, "DEU")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Germany", c.Name)

	c, err = env.countries.GetCountryByTwoLetterISOCode(ctx, "NL")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = env.countries.InsertCountry(ctx, &domain.Country{Name: "Netherlands", TwoLetterISOCode: "NL", ThreeLetterISOCode: "NLD"})
	require.NoError(t, err)

	c, err = env.countries.GetCountryByTwoLetterISOCode(ctx, "NL")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Netherlands", c.Name)
}

func TestCountryWrites_RejectNil(t *testing.T) {
	env := newTestEnv(t, CatalogSettings{}, nil)
	ctx := context.Background()

	_, err := env.countries.InsertCountry(ctx, nil)
	assert.True(t, errors.IsCategory(err, errors.CategoryBadInput))

	_, err = env.countries.UpdateCountry(ctx, nil)
	assert.True(t, errors.IsCategory(err, errors.CategoryBadInput))

	err = env.countries.DeleteCountry(ctx, nil)
	assert.True(t, errors.IsCategory(err, errors.CategoryBadInput))
}
