package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	cfg := Config{
		Driver:       DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, CreateSchema(context.Background(), db))
	return db
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "postgres", cfg: Config{Driver: DriverPostgres, DSN: "postgres://localhost/storefront"}},
		{name: "unknown driver", cfg: Config{Driver: "oracle", DSN: "x"}, wantErr: true},
		{name: "missing dsn", cfg: Config{Driver: DriverSQLite}, wantErr: true},
		{name: "negative pool", cfg: Config{Driver: DriverSQLite, DSN: "x", MaxOpenConns: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateSchema_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, CreateSchema(context.Background(), db))
}

func TestRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[domain.Country](openTestDB(t))

	c := &domain.Country{Name: "Portugal", TwoLetterISOCode: "PT", Published: true}
	EnsureID(c)
	require.NotEqual(t, uuid.Nil, c.ID)

	_, err := repo.Create(ctx, c)
	require.NoError(t, err)

	got, err := First(ctx, repo, WhereID(c.ID))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "PT", got.TwoLetterISOCode)

	got.Name = "Portuguese Republic"
	_, err = repo.Update(ctx, got)
	require.NoError(t, err)

	got, err = First(ctx, repo, WhereID(c.ID))
	require.NoError(t, err)
	assert.Equal(t, "Portuguese Republic", got.Name)

	require.NoError(t, repo.Delete(ctx, got))

	got, err = First(ctx, repo, WhereID(c.ID))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEnsureID_KeepsExisting(t *testing.T) {
	id := uuid.New()
	c := &domain.Country{ID: id}
	EnsureID(c)
	assert.Equal(t, id, c.ID)
}

func TestPaged(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewRepository[domain.SpecificationAttributeGroup](db)

	for i := 0; i < 5; i++ {
		g := &domain.SpecificationAttributeGroup{Name: fmt.Sprintf("group %d", i), DisplayOrder: i}
		EnsureID(g)
		_, err := repo.Create(ctx, g)
		require.NoError(t, err)
	}

	order := OrderBy("?TableAlias.display_order ASC")

	page, err := Paged(ctx, repo, 1, 2, order)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, "group 2", page.Items[0].Name)
	assert.True(t, page.HasPreviousPage())
	assert.True(t, page.HasNextPage())

	all, err := Paged(ctx, repo, 3, 0, order)
	require.NoError(t, err)
	assert.Len(t, all.Items, 5)
	assert.Equal(t, 0, all.PageIndex)
	assert.Equal(t, 1, all.TotalPages())
	assert.False(t, all.HasNextPage())
}

func TestWhereIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[domain.Language](openTestDB(t))

	var ids []uuid.UUID
	for _, name := range []string{"English", "French", "German"} {
		l := &domain.Language{Name: name}
		EnsureID(l)
		_, err := repo.Create(ctx, l)
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	found, _, err := repo.List(ctx, WhereIDs(ids[:2]), OrderBy("?TableAlias.name ASC"))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "English", found[0].Name)
	assert.Equal(t, "French", found[1].Name)
}

func TestListAll_ReturnsEveryRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[domain.Country](openTestDB(t))

	const total = 40
	for i := 0; i < total; i++ {
		c := &domain.Country{Name: fmt.Sprintf("Country %02d", i), DisplayOrder: i}
		EnsureID(c)
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	all, err := ListAll(ctx, repo, OrderBy("?TableAlias.display_order ASC"))
	require.NoError(t, err)
	require.Len(t, all, total)
	assert.Equal(t, "Country 39", all[total-1].Name)

	page, err := Paged(ctx, repo, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, total)
	assert.Equal(t, total, page.TotalCount)

	page, err = Paged(ctx, repo, 1, 30, OrderBy("?TableAlias.display_order ASC"))
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
}
