// Package httpserver exposes the storefront over HTTP: the public store
// pages, the cart endpoints, the preview page with its bridge socket and the
// admin editor API.
package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-storefront/internal/api"
	"github.com/goliatone/go-storefront/internal/appblock"
	"github.com/goliatone/go-storefront/internal/bridge"
	"github.com/goliatone/go-storefront/internal/cart"
	"github.com/goliatone/go-storefront/internal/editor"
	"github.com/goliatone/go-storefront/internal/links"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/internal/sections"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

//go:embed templates/*.html
var pageFS embed.FS

const (
	defaultAnnouncementCookie = "announcement-dismissed"
	cartCookie                = "cart_token"
	defaultProductsLimit      = 24
)

// Server serves the storefront.
type Server struct {
	storefront api.Storefront
	renderer   *render.Renderer
	links      *links.Builder
	carts      *cart.Service
	sessions   *cart.Sessions
	orders     OrderLister
	scripts    appblock.ScriptSource
	previews   *editor.Previews
	hub        *bridge.Hub
	admin      *AdminAPI
	logger     interfaces.Logger
	pages      *template.Template
	router     http.Handler
	now        func() time.Time

	development        bool
	announcementCookie string
	secureCookies      bool
	productsLimit      int
}

// Option configures a Server.
type Option func(*Server)

// WithLinks sets the URL builder. Defaults to links rooted at "/".
func WithLinks(builder *links.Builder) Option {
	return func(s *Server) {
		if builder != nil {
			s.links = builder
		}
	}
}

// WithCart enables the cart endpoints.
func WithCart(service *cart.Service) Option {
	return func(s *Server) { s.carts = service }
}

// WithAccounts enables customer sign-in and the order listing.
func WithAccounts(sessions *cart.Sessions, orders OrderLister) Option {
	return func(s *Server) {
		s.sessions = sessions
		s.orders = orders
	}
}

// WithScriptSource sets where app block scripts are fetched from.
func WithScriptSource(source appblock.ScriptSource) Option {
	return func(s *Server) { s.scripts = source }
}

// WithPreview enables the preview page and its bridge socket.
func WithPreview(previews *editor.Previews, hub *bridge.Hub) Option {
	return func(s *Server) {
		s.previews = previews
		s.hub = hub
	}
}

// WithAdmin mounts the admin editor API.
func WithAdmin(admin *AdminAPI) Option {
	return func(s *Server) { s.admin = admin }
}

// WithLogger sets the server logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNoOp(logger) }
}

// WithDevelopment shows section error details on public pages.
func WithDevelopment(enabled bool) Option {
	return func(s *Server) { s.development = enabled }
}

// WithAnnouncementCookie overrides the dismissed-announcement cookie name.
func WithAnnouncementCookie(name string) Option {
	return func(s *Server) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			s.announcementCookie = trimmed
		}
	}
}

// WithSecureCookies marks cookies Secure.
func WithSecureCookies(enabled bool) Option {
	return func(s *Server) { s.secureCookies = enabled }
}

// WithProductsLimit sets the page size of the product listing.
func WithProductsLimit(limit int) Option {
	return func(s *Server) {
		if limit > 0 {
			s.productsLimit = limit
		}
	}
}

// New builds a server. storefront and renderer are required.
func New(storefront api.Storefront, renderer *render.Renderer, opts ...Option) (*Server, error) {
	if storefront == nil {
		return nil, fmt.Errorf("httpserver: storefront client is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("httpserver: renderer is required")
	}
	pages, err := template.New("pages").Funcs(template.FuncMap{
		"price": sections.FormatPrice,
	}).ParseFS(pageFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("httpserver: parse page templates: %w", err)
	}

	s := &Server{
		storefront:         storefront,
		renderer:           renderer,
		logger:             logging.NoOp(),
		pages:              pages,
		now:                time.Now,
		announcementCookie: defaultAnnouncementCookie,
		productsLimit:      defaultProductsLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.links == nil {
		s.links = links.NewBuilder(nil, "", s.logger)
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP lets the server be used as a handler directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.admin != nil {
		r.Group(func(r chi.Router) {
			if err := s.admin.Register(r); err != nil {
				s.logger.Error("httpserver.admin_register_failed", "error", err)
			}
		})
	}

	r.Route("/store/{store}", func(r chi.Router) {
		r.Get("/", s.home)
		r.Get("/products", s.products)
		r.Get("/products/{product}", s.product)
		r.Get("/collections", s.collections)
		r.Get("/collections/{collection}", s.collection)
		r.Get("/pages/{handle}", s.customPage)
		r.Get("/fragments/{page}/{section}", s.fragment)
		r.Post("/announcement/dismiss", s.dismissAnnouncement)

		if s.carts != nil {
			r.Get("/cart", s.cartPage)
			r.Route("/cart/items", func(r chi.Router) {
				r.Get("/", s.listCartItems)
				r.Post("/", s.addCartItem)
				r.Delete("/", s.clearCart)
				r.Patch("/{productID}", s.updateCartItem)
				r.Patch("/{productID}/{variantID}", s.updateCartItem)
				r.Post("/{productID}/{variantID}", s.updateCartItem)
				r.Delete("/{productID}", s.removeCartItem)
				r.Delete("/{productID}/{variantID}", s.removeCartItem)
			})
		}

		if s.sessions != nil && s.orders != nil {
			r.Route("/account", func(r chi.Router) {
				r.Post("/session", s.signIn)
				r.Delete("/session", s.signOut)
				r.Get("/orders", s.listOrders)
			})
		}

		if s.previews != nil {
			r.Get("/preview", s.preview)
			if s.hub != nil {
				r.Get("/bridge", s.bridge)
			}
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.notFound(w, r, "")
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := s.now()
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(ctx))
		s.logger.WithContext(ctx).Debug("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func storeParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "store"))
}
