package di

import (
	"context"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storefront-cache/admin"
	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/internal/cacheinfra"
	"github.com/goliatone/go-storefront-cache/internal/storage"
	"github.com/goliatone/go-storefront-cache/repositorycache"
	"github.com/goliatone/go-storefront-cache/services/catalog"
	"github.com/goliatone/go-storefront-cache/services/directory"
	"github.com/goliatone/go-storefront-cache/services/forums"
	"github.com/goliatone/go-storefront-cache/services/localization"
	"github.com/goliatone/go-storefront-cache/services/news"
	"github.com/goliatone/go-storefront-cache/services/stores"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Config is the complete storefront configuration.
type Config struct {
	Cache        cache.Config              `mapstructure:"cache"`
	Storage      storage.Config            `mapstructure:"storage"`
	Catalog      directory.CatalogSettings `mapstructure:"catalog"`
	Localization localization.Settings     `mapstructure:"localization"`
}

// DefaultConfig returns an in-memory cache over an in-memory sqlite database.
func DefaultConfig() Config {
	return Config{
		Cache:   cache.DefaultConfig(),
		Storage: storage.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Storage.Validate()
}

// Option configures NewContainer.
type Option func(*Container)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) { c.logger = logger }
}

// WithStoreContext sets how services resolve the current store. Without one
// store scoped listings are shared by every store.
func WithStoreContext(sc domain.StoreContext) Option {
	return func(c *Container) { c.storeContext = sc }
}

// WithDB uses db instead of opening Config.Storage. The container does not
// close a supplied database.
func WithDB(db *bun.DB) Option {
	return func(c *Container) { c.db = db }
}

// WithCacheOptions forwards options to the cache manager.
func WithCacheOptions(opts ...cacheinfra.Option) Option {
	return func(c *Container) { c.cacheOpts = append(c.cacheOpts, opts...) }
}

// Container wires the storefront: database, static cache, invalidation
// dispatcher and the services on top of them. Every getter returns the
// same instance.
type Container struct {
	config       Config
	logger       zerolog.Logger
	storeContext domain.StoreContext
	cacheOpts    []cacheinfra.Option

	db     *bun.DB
	ownsDB bool

	manager    *cacheinfra.Manager
	dispatcher *repositorycache.Dispatcher

	storeMappings *stores.StoreMappingService
	countries     *directory.CountryService
	localized     *localization.LocalizedEntityService
	attributes    *catalog.SpecificationAttributeService
	forums        *forums.ForumService
	news          *news.NewsService
	cacheAdmin    *admin.CacheController
}

// NewContainer validates config and builds every component. When the
// localization settings ask for it the localized properties are loaded
// into the cache before returning.
func NewContainer(ctx context.Context, config Config, opts ...Option) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		config: config,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.db == nil {
		db, err := storage.Open(config.Storage)
		if err != nil {
			return nil, err
		}
		c.db = db
		c.ownsDB = true
	}

	if err := storage.CreateSchema(ctx, c.db); err != nil {
		c.Close()
		return nil, err
	}

	manager, err := cacheinfra.NewManager(ctx, config.Cache, append([]cacheinfra.Option{cacheinfra.WithLogger(c.logger)}, c.cacheOpts...)...)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.manager = manager
	c.dispatcher = repositorycache.NewDispatcher(manager, repositorycache.WithDispatcherLogger(c.logger))

	c.registerCacheRules()
	c.buildServices()

	if config.Localization.LoadAllLocalizedPropertiesOnStartup {
		if err := c.localized.WarmUp(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}

	c.logger.Debug().
		Str("cache_backend", config.Cache.Backend).
		Str("storage_driver", config.Storage.Driver).
		Msg("Storefront container ready.")

	return c, nil
}

// NewContainerWithDefaults builds a container from DefaultConfig.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, DefaultConfig(), opts...)
}

func (c *Container) registerCacheRules() {
	stores.RegisterCacheRules(c.dispatcher)
	directory.RegisterCacheRules(c.dispatcher)
	localization.RegisterCacheRules(c.dispatcher)
	catalog.RegisterCacheRules(c.dispatcher)
	forums.RegisterCacheRules(c.dispatcher)
	news.RegisterCacheRules(c.dispatcher)
	repositorycache.Track[*domain.Store](c.dispatcher)
	repositorycache.Track[*domain.Language](c.dispatcher)
	repositorycache.Track[*domain.CustomerRole](c.dispatcher)
}

func (c *Container) buildServices() {
	c.storeMappings = stores.NewStoreMappingService(c.manager, NewRepository[domain.StoreMapping](c), c.logger)

	c.localized = localization.NewLocalizedEntityService(
		c.config.Localization, c.manager, NewRepository[domain.LocalizedProperty](c), c.logger)

	c.countries = directory.NewCountryService(
		c.config.Catalog, c.manager, c.localized, NewRepository[domain.Country](c), c.storeContext, c.logger)

	c.attributes = catalog.NewSpecificationAttributeService(c.manager, catalog.Repositories{
		Groups:            NewRepository[domain.SpecificationAttributeGroup](c),
		Attributes:        NewRepository[domain.SpecificationAttribute](c),
		Options:           NewRepository[domain.SpecificationAttributeOption](c),
		ProductAttributes: NewRepository[domain.ProductSpecificationAttribute](c),
	}, c.logger)

	c.forums = forums.NewForumService(c.manager,
		NewRepository[domain.ForumGroup](c), NewRepository[domain.Forum](c), c.logger)

	c.news = news.NewNewsService(c.manager,
		NewRepository[domain.NewsItem](c), NewRepository[domain.NewsComment](c), c.logger)

	c.cacheAdmin = admin.NewCacheController(c.manager, admin.WithLogger(c.logger))
}

// Close releases the cache backend connection and the database when the
// container opened it.
func (c *Container) Close() error {
	var firstErr error
	if c.manager != nil {
		if err := c.manager.Close(); err != nil {
			firstErr = errors.Wrap(err, errors.CategoryExternal, "closing cache backend")
		}
	}
	if c.ownsDB && c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config { return c.config }

func (c *Container) DB() *bun.DB { return c.db }

// Manager returns the static cache.
func (c *Container) Manager() cache.Manager { return c.manager }

func (c *Container) Dispatcher() *repositorycache.Dispatcher { return c.dispatcher }

func (c *Container) StoreMappings() *stores.StoreMappingService { return c.storeMappings }

func (c *Container) Countries() *directory.CountryService { return c.countries }

func (c *Container) LocalizedEntities() *localization.LocalizedEntityService { return c.localized }

func (c *Container) SpecificationAttributes() *catalog.SpecificationAttributeService {
	return c.attributes
}

func (c *Container) Forums() *forums.ForumService { return c.forums }

func (c *Container) News() *news.NewsService { return c.news }

func (c *Container) CacheAdmin() *admin.CacheController { return c.cacheAdmin }

// NewRepository builds an event raising repository for E bound to the
// container's database and dispatcher. Writes through it invalidate the cache.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewRepository[domain.Store](container)
func NewRepository[E any, T interface {
	*E
	domain.Entity
}](c *Container) repository.Repository[T] {
	return repositorycache.NewEventSource[T](storage.NewRepository[E, T](c.db), c.dispatcher)
}
