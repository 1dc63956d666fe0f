package testsupport

import (
	"context"
	"fmt"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/internal/cacheinfra"
	"github.com/goliatone/go-storefront-cache/internal/storage"
	"github.com/goliatone/go-storefront-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Logger writes through t.Log so output shows up only for failing tests.
func Logger(t testing.TB) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NewDB opens a private in-memory sqlite database with the storefront schema.
// The database is closed when the test ends.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	cfg := storage.Config{
		Driver:       storage.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}

	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

// NewManager returns an in-memory cache manager with default settings.
func NewManager(t testing.TB) *cacheinfra.Manager {
	t.Helper()

	m, err := cacheinfra.NewManager(context.Background(), cache.DefaultConfig(), cacheinfra.WithLogger(Logger(t)))
	if err != nil {
		t.Fatalf("failed to create cache manager: %v", err)
	}
	return m
}

// Harness bundles what a service test needs: a database, a cache manager and
// a dispatcher invalidating that cache.
type Harness struct {
	DB         *bun.DB
	Manager    *cacheinfra.Manager
	Dispatcher *repositorycache.Dispatcher
}

func NewHarness(t testing.TB) *Harness {
	t.Helper()

	m := NewManager(t)
	return &Harness{
		DB:         NewDB(t),
		Manager:    m,
		Dispatcher: repositorycache.NewDispatcher(m, repositorycache.WithDispatcherLogger(Logger(t))),
	}
}

// Repository returns an event raising repository for E bound to h.
func Repository[E any, T interface {
	*E
	domain.Entity
}](h *Harness) repository.Repository[T] {
	return repositorycache.NewEventSource[T](storage.NewRepository[E, T](h.DB), h.Dispatcher)
}

// Seed inserts records straight into the database, bypassing repositories
// and therefore the cache. Records without an id get one.
func Seed(t testing.TB, db bun.IDB, records ...domain.Entity) {
	t.Helper()

	for _, r := range records {
		storage.EnsureID(r)
		if _, err := db.NewInsert().Model(r).Exec(context.Background()); err != nil {
			t.Fatalf("failed to seed %T: %v", r, err)
		}
	}
}

// SeedAll is Seed for a typed slice, such as the result of Records.
func SeedAll[T domain.Entity](t testing.TB, db bun.IDB, records []T) {
	t.Helper()

	for _, r := range records {
		Seed(t, db, r)
	}
}
