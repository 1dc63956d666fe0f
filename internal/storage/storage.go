// Package storage opens the storefront database and builds the repositories
// the services write through.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database.
type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// MaxOpenConns caps the pool; sqlite in-memory databases need 1.
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// DefaultConfig returns an in-memory sqlite database.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          "file::memory:?cache=shared",
		MaxOpenConns: 1,
	}
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
	)
	if err != nil {
		return errors.FromOzzoValidation(err, "invalid storage config")
	}
	return nil
}

// Open connects to the database described by cfg.
func Open(cfg Config) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "open "+cfg.Driver)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	var db *bun.DB
	switch cfg.Driver {
	case DriverPostgres:
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CategoryExternal, "ping "+cfg.Driver)
	}
	return db, nil
}

// CreateSchema creates the tables of every domain model that does not exist yet.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range domain.Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryExternal, fmt.Sprintf("create table for %T", model))
		}
	}
	return nil
}

// NewRepository builds the go-repository-bun repository for entity E.
//
//	countries := storage.NewRepository[domain.Country](db)
func NewRepository[E any, T interface {
	*E
	domain.Entity
}](db *bun.DB) repository.Repository[T] {
	handlers := repository.ModelHandlers[T]{
		NewRecord: func() T {
			return T(new(E))
		},
		GetID: func(record T) uuid.UUID {
			return record.GetID()
		},
		SetID: func(record T, id uuid.UUID) {
			record.SetID(id)
		},
		GetIdentifier: func() string {
			return "id"
		},
	}
	return repository.NewRepository[T](db, handlers)
}

// EnsureID assigns a new id to entities that have none.
func EnsureID(e domain.Entity) {
	if e.GetID() == uuid.Nil {
		e.SetID(uuid.New())
	}
}
