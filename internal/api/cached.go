package api

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-storefront/internal/cache"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// TTLs sets how long each read endpoint stays cached.
type TTLs struct {
	Settings    time.Duration
	Products    time.Duration
	Collections time.Duration
}

// DefaultTTLs mirrors the backend revalidation windows.
func DefaultTTLs() TTLs {
	return TTLs{
		Settings:    60 * time.Second,
		Products:    30 * time.Second,
		Collections: 60 * time.Second,
	}
}

// CachedOption customises a CachedClient.
type CachedOption func(*CachedClient)

// WithTTLs overrides the per endpoint TTLs. Zero fields keep their default.
func WithTTLs(ttls TTLs) CachedOption {
	return func(c *CachedClient) {
		if ttls.Settings > 0 {
			c.ttls.Settings = ttls.Settings
		}
		if ttls.Products > 0 {
			c.ttls.Products = ttls.Products
		}
		if ttls.Collections > 0 {
			c.ttls.Collections = ttls.Collections
		}
	}
}

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(logger interfaces.Logger) CachedOption {
	return func(c *CachedClient) {
		c.logger = logging.OrNoOp(logger)
	}
}

// CachedClient memoises catalog and settings reads. Layouts always go to the
// backend so published edits show up immediately.
type CachedClient struct {
	next   Storefront
	store  interfaces.Cache
	ttls   TTLs
	group  singleflight.Group
	logger interfaces.Logger
}

var _ Storefront = (*CachedClient)(nil)

// NewCachedClient wraps next. A nil store only coalesces concurrent calls.
func NewCachedClient(next Storefront, store interfaces.Cache, opts ...CachedOption) *CachedClient {
	c := &CachedClient{
		next:   next,
		store:  store,
		ttls:   DefaultTTLs(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *CachedClient) GetSettings(ctx context.Context, storeSlug string) (*domain.StoreSettings, error) {
	return cached(ctx, c, cacheKey("settings", storeSlug), c.ttls.Settings, func(ctx context.Context) (*domain.StoreSettings, error) {
		return c.next.GetSettings(ctx, storeSlug)
	})
}

func (c *CachedClient) GetPageLayout(ctx context.Context, storeSlug string, pageType domain.PageType) (*layout.Document, error) {
	return c.next.GetPageLayout(ctx, storeSlug, pageType)
}

func (c *CachedClient) GetCustomPageLayout(ctx context.Context, storeSlug, handle string) (*layout.Document, error) {
	return c.next.GetCustomPageLayout(ctx, storeSlug, handle)
}

func (c *CachedClient) ListProducts(ctx context.Context, storeSlug string, query domain.ProductQuery) (*domain.ProductPage, error) {
	values := productValues(query)
	key := cacheKey("products", storeSlug, values.Encode())
	return cached(ctx, c, key, c.ttls.Products, func(ctx context.Context) (*domain.ProductPage, error) {
		return c.next.ListProducts(ctx, storeSlug, query)
	})
}

func (c *CachedClient) GetProduct(ctx context.Context, storeSlug, productSlug string) (*domain.Product, error) {
	return cached(ctx, c, cacheKey("product", storeSlug, productSlug), c.ttls.Products, func(ctx context.Context) (*domain.Product, error) {
		return c.next.GetProduct(ctx, storeSlug, productSlug)
	})
}

func (c *CachedClient) ListCollections(ctx context.Context, storeSlug string) ([]domain.Collection, error) {
	return cached(ctx, c, cacheKey("collections", storeSlug), c.ttls.Collections, func(ctx context.Context) ([]domain.Collection, error) {
		return c.next.ListCollections(ctx, storeSlug)
	})
}

func (c *CachedClient) GetCollection(ctx context.Context, storeSlug, collectionSlug string) (*domain.Collection, error) {
	return cached(ctx, c, cacheKey("collection", storeSlug, collectionSlug), c.ttls.Collections, func(ctx context.Context) (*domain.Collection, error) {
		return c.next.GetCollection(ctx, storeSlug, collectionSlug)
	})
}

// Invalidate drops the cached settings and collections of a store. Product
// pages expire on their own.
func (c *CachedClient) Invalidate(ctx context.Context, storeSlug string) error {
	if c.store == nil {
		return nil
	}
	for _, key := range []string{cacheKey("settings", storeSlug), cacheKey("collections", storeSlug)} {
		if err := c.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func cached[T any](ctx context.Context, c *CachedClient, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var value T
	hit, err := cache.GetJSON(ctx, c.store, key, &value)
	if err != nil {
		c.logger.Warn("api.cache_read_failed", "key", key, "error", err)
	}
	if hit {
		return value, nil
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return fresh, err
		}
		if err := cache.SetJSON(context.WithoutCancel(ctx), c.store, key, fresh, ttl); err != nil {
			c.logger.Warn("api.cache_write_failed", "key", key, "error", err)
		}
		return fresh, nil
	})
	if shared {
		c.logger.Debug("api.request_coalesced", "key", key)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func cacheKey(parts ...string) string {
	return "api:" + strings.Join(parts, ":")
}
