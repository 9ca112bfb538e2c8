package links

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/sections"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// GroupName is the urlkit group holding the storefront routes.
const GroupName = "storefront"

// Route names.
const (
	RouteHome        = "home"
	RouteProducts    = "products"
	RouteProduct     = "product"
	RouteCollections = "collections"
	RouteCollection  = "collection"
	RoutePage        = "page"
	RouteCart        = "cart"
	RouteCartItems   = "cart_items"
	RouteDismiss     = "announcement_dismiss"
	RouteFragment    = "fragment"
	RoutePreview     = "preview"
	RouteBridge      = "bridge"
)

// Paths are the storefront routes in urlkit notation. The chi router mounts
// the same shapes.
var Paths = map[string]string{
	RouteHome:        "/store/:store",
	RouteProducts:    "/store/:store/products",
	RouteProduct:     "/store/:store/products/:product",
	RouteCollections: "/store/:store/collections",
	RouteCollection:  "/store/:store/collections/:collection",
	RoutePage:        "/store/:store/pages/:handle",
	RouteCart:        "/store/:store/cart",
	RouteCartItems:   "/store/:store/cart/items",
	RouteDismiss:     "/store/:store/announcement/dismiss",
	RouteFragment:    "/store/:store/fragments/:page/:section",
	RoutePreview:     "/store/:store/preview",
	RouteBridge:      "/store/:store/bridge",
}

// RouteConfig returns the urlkit configuration for baseURL.
func RouteConfig(baseURL string) *urlkit.Config {
	paths := make(map[string]string, len(Paths))
	for name, path := range Paths {
		paths[name] = path
	}
	return &urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    GroupName,
				BaseURL: strings.TrimRight(baseURL, "/"),
				Paths:   paths,
			},
		},
	}
}

// Builder resolves storefront URLs through a urlkit route manager.
type Builder struct {
	manager *urlkit.RouteManager
	logger  interfaces.Logger

	mu    sync.RWMutex
	group *urlkit.Group
}

// NewBuilder wires a builder on top of manager. A nil manager gets the
// default routes rooted at baseURL.
func NewBuilder(manager *urlkit.RouteManager, baseURL string, logger interfaces.Logger) *Builder {
	if manager == nil {
		manager = urlkit.NewRouteManager(RouteConfig(baseURL))
	}
	return &Builder{manager: manager, logger: logging.OrNoOp(logger)}
}

// Build resolves route with params and optional query values.
func (b *Builder) Build(route string, params map[string]any, query url.Values) (string, error) {
	group, err := b.storefrontGroup()
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, route)
	if err != nil {
		return "", err
	}
	for key, val := range params {
		builder.WithParam(key, val)
	}
	for key, values := range query {
		for _, v := range values {
			builder.WithQuery(key, v)
		}
	}
	return builder.Build()
}

// Store returns the link set of one store.
func (b *Builder) Store(storeSlug string) *Store {
	return &Store{builder: b, slug: storeSlug}
}

func (b *Builder) storefrontGroup() (*urlkit.Group, error) {
	b.mu.RLock()
	group := b.group
	b.mu.RUnlock()
	if group != nil {
		return group, nil
	}

	group, err := lookupGroup(b.manager, GroupName)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.group = group
	b.mu.Unlock()
	return group, nil
}

// Store builds the links of a single store. Resolution failures are logged
// and render as "#".
type Store struct {
	builder *Builder
	slug    string
}

var _ sections.Links = (*Store)(nil)

func (s *Store) Home() string        { return s.resolve(RouteHome, nil) }
func (s *Store) Products() string    { return s.resolve(RouteProducts, nil) }
func (s *Store) Collections() string { return s.resolve(RouteCollections, nil) }
func (s *Store) Cart() string        { return s.resolve(RouteCart, nil) }
func (s *Store) CartItems() string   { return s.resolve(RouteCartItems, nil) }
func (s *Store) Preview() string     { return s.resolve(RoutePreview, nil) }
func (s *Store) Bridge() string      { return s.resolve(RouteBridge, nil) }

func (s *Store) DismissAnnouncement() string {
	return s.resolve(RouteDismiss, nil)
}

func (s *Store) Product(productSlug string) string {
	return s.resolve(RouteProduct, map[string]any{"product": productSlug})
}

func (s *Store) Collection(collectionSlug string) string {
	return s.resolve(RouteCollection, map[string]any{"collection": collectionSlug})
}

func (s *Store) Page(handle string) string {
	return s.resolve(RoutePage, map[string]any{"handle": handle})
}

// Fragment is the URL a deferred section fetches its markup from. page is
// the page type query value or "pages:{handle}" for custom pages.
func (s *Store) Fragment(page, sectionID string) string {
	return s.resolve(RouteFragment, map[string]any{"page": page, "section": sectionID})
}

// ProductsPage links to a filtered product listing.
func (s *Store) ProductsPage(query url.Values) string {
	link, err := s.builder.Build(RouteProducts, map[string]any{"store": s.slug}, query)
	if err != nil {
		s.builder.logger.Warn("links.build_failed", "route", RouteProducts, "store", s.slug, "error", err)
		return "#"
	}
	return link
}

func (s *Store) resolve(route string, params map[string]any) string {
	if params == nil {
		params = make(map[string]any, 1)
	}
	params["store"] = s.slug
	link, err := s.builder.Build(route, params, nil)
	if err != nil {
		s.builder.logger.Warn("links.build_failed", "route", route, "store", s.slug, "error", err)
		return "#"
	}
	return link
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("links: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("links: route %q not found", route)
		}
	}()
	builder = group.Builder(route)
	return builder, nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("links: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("links: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, nil
}
