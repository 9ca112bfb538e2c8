package storefront

import (
	"context"
	"net/http"

	"github.com/goliatone/go-storefront/internal/api"
	"github.com/goliatone/go-storefront/internal/cart"
	"github.com/goliatone/go-storefront/internal/di"
	"github.com/goliatone/go-storefront/internal/editor"
	"github.com/goliatone/go-storefront/internal/sections"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// StorefrontAPI exports the read contract of the commerce backend.
type StorefrontAPI = api.Storefront

// EditorService exports the layout editing session service.
type EditorService = *editor.Service

// CartService exports the cart service.
type CartService = *cart.Service

// SectionRegistry exports the section catalog.
type SectionRegistry = *sections.Registry

// Option overrides a dependency of the runtime.
type Option = di.Option

var (
	WithLoggerProvider  = di.WithLoggerProvider
	WithBunDB           = di.WithBunDB
	WithCache           = di.WithCache
	WithRepositoryCache = di.WithRepositoryCache
	WithHTTPClient      = di.WithHTTPClient
)

// Module is the storefront runtime façade.
type Module struct {
	container *di.Container
}

// New constructs the storefront using cfg and optional dependency overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Handler returns the HTTP handler serving storefront, admin and bridge routes.
func (m *Module) Handler() http.Handler {
	return m.container.Handler()
}

func (m *Module) Logger() interfaces.Logger {
	return m.container.Logger()
}

// Storefront returns the (possibly cached) backend read client.
func (m *Module) Storefront() StorefrontAPI {
	return m.container.Storefront()
}

func (m *Module) Sections() SectionRegistry {
	return m.container.Registry()
}

func (m *Module) Carts() CartService {
	return m.container.Carts()
}

// Editor returns the layout editing session service.
func (m *Module) Editor() EditorService {
	return m.container.Editor()
}

// Close flushes pending editor saves and releases storage and cache connections.
func (m *Module) Close(ctx context.Context) error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close(ctx)
}
