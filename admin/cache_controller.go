// Package admin holds maintenance operations of the storefront.
package admin

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront-cache/cache"
	"github.com/rs/zerolog"
)

// PermissionManageMaintenance guards the maintenance operations.
const PermissionManageMaintenance = "ManageMaintenance"

// TextCodeAccessDenied marks a maintenance call without permission.
const TextCodeAccessDenied = "ACCESS_DENIED"

// PermissionChecker authorizes the caller of the current request.
type PermissionChecker interface {
	Authorize(ctx context.Context, permission string) (bool, error)
}

// Option configures a CacheController.
type Option func(*CacheController)

// WithPermissions makes the controller check PermissionManageMaintenance.
func WithPermissions(checker PermissionChecker) Option {
	return func(c *CacheController) {
		c.permissions = checker
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *CacheController) {
		c.logger = logger
	}
}

// CacheController exposes cache maintenance.
type CacheController struct {
	manager     cache.Manager
	permissions PermissionChecker
	logger      zerolog.Logger
}

func NewCacheController(manager cache.Manager, opts ...Option) *CacheController {
	c := &CacheController{
		manager: manager,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "CacheController").Logger()
	return c
}

// ClearCache empties the static cache.
func (c *CacheController) ClearCache(ctx context.Context) error {
	if c.permissions != nil {
		ok, err := c.permissions.Authorize(ctx, PermissionManageMaintenance)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("not allowed to clear the cache", errors.CategoryAuthz).
				WithTextCode(TextCodeAccessDenied)
		}
	}

	if err := c.manager.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear cache.")
		return err
	}

	c.logger.Info().Msg("Cache cleared.")
	return nil
}
