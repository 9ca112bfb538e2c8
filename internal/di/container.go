package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-storefront/internal/api"
	"github.com/goliatone/go-storefront/internal/appblock"
	"github.com/goliatone/go-storefront/internal/bridge"
	"github.com/goliatone/go-storefront/internal/cache"
	"github.com/goliatone/go-storefront/internal/cart"
	"github.com/goliatone/go-storefront/internal/commands"
	layoutscmd "github.com/goliatone/go-storefront/internal/commands/layouts"
	"github.com/goliatone/go-storefront/internal/editor"
	"github.com/goliatone/go-storefront/internal/httpserver"
	"github.com/goliatone/go-storefront/internal/links"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/logging/console"
	"github.com/goliatone/go-storefront/internal/logging/gologger"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/internal/runtimeconfig"
	"github.com/goliatone/go-storefront/internal/sections"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

const commandRetries = 2

// Container wires the storefront: backend client, response cache, cart
// storage, renderer, editor and the HTTP server on top of them.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB         *bun.DB
	ownsDB        bool
	cache         interfaces.Cache
	redis         *cache.Redis
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	httpClient    *http.Client

	client     *api.Client
	storefront api.Storefront
	registry   *sections.Registry
	renderer   *render.Renderer
	links      *links.Builder
	carts      *cart.Service
	sessions   *cart.Sessions
	hub        *bridge.Hub
	previews   *editor.Previews
	editor     *editor.Service
	subs       []layoutscmd.Subscription
	server     *httpserver.Server
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies an open database. The caller keeps ownership.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the response cache built from the cache config.
func WithCache(store interfaces.Cache) Option {
	return func(c *Container) {
		c.cache = store
	}
}

// WithRepositoryCache overrides the cache in front of the session store.
func WithRepositoryCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithHTTPClient sets the client used for the backend API and app block
// scripts.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// NewContainer validates cfg and wires every component.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLogging,
		c.configureCache,
		c.configureStorage,
		c.configureClient,
		c.configureRendering,
		c.configureCart,
		c.configureEditor,
		c.configureServer,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = c.Close(context.Background())
			return nil, err
		}
	}
	c.logger.Info("storefront.container_ready",
		"api", c.client.BaseURL(),
		"cache", c.cacheProvider(),
		"storage", normalize(cfg.Storage.Driver),
	)
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil {
		cfg := c.Config.Logging
		switch normalize(cfg.Provider) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     cfg.Level,
				Format:    cfg.Format,
				AddSource: cfg.AddSource,
				Focus:     cfg.Focus,
			})
			if err != nil {
				return err
			}
			c.loggerProvider = provider
		default:
			c.loggerProvider = console.NewProvider(console.Options{
				Writer:   os.Stdout,
				MinLevel: console.ParseLevel(cfg.Level),
			})
		}
	}
	c.logger = c.moduleLogger(logging.RootModule)
	return nil
}

func (c *Container) configureCache() error {
	if c.cache != nil || !c.Config.Cache.Enabled {
		return nil
	}
	switch normalize(c.Config.Cache.Provider) {
	case "redis":
		store, err := cache.NewRedis(context.Background(), cache.RedisConfig{
			Addr: c.Config.Cache.RedisAddr,
			DB:   c.Config.Cache.RedisDB,
		})
		if err != nil {
			return err
		}
		c.redis = store
		c.cache = store
	default:
		c.cache = cache.NewMemory()
	}
	return nil
}

func (c *Container) configureStorage() error {
	if c.bunDB == nil {
		db, err := openDB(c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cart.CreateSchema(ctx, c.bunDB); err != nil {
		return fmt.Errorf("di: create cart schema: %w", err)
	}

	if c.Config.Cache.Enabled && c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.TTL > 0 {
			cfg.TTL = c.Config.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func openDB(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	driver := normalize(cfg.Driver)
	sqldb, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("di: open %s: %w", driver, err)
	}
	switch driver {
	case "postgres":
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
}

func (c *Container) configureClient() error {
	client, err := api.NewClient(api.Config{
		BaseURL:    c.Config.API.BaseURL,
		Token:      c.Config.API.Token,
		Timeout:    c.Config.API.Timeout,
		HTTPClient: c.httpClient,
		Logger:     c.moduleLogger(logging.APIModule),
	})
	if err != nil {
		return err
	}
	c.client = client
	c.storefront = client
	if c.cache != nil {
		ttl := c.Config.Cache.TTL
		c.storefront = api.NewCachedClient(client, c.cache,
			api.WithTTLs(api.TTLs{Settings: ttl, Products: ttl, Collections: ttl}),
			api.WithCacheLogger(c.moduleLogger(logging.APIModule)),
		)
	}
	return nil
}

func (c *Container) configureRendering() error {
	c.registry = sections.NewRegistry()
	sectionRenderer, err := sections.NewRenderer(c.registry,
		sections.WithRendererLogger(c.moduleLogger(logging.RenderModule)),
	)
	if err != nil {
		return err
	}
	c.renderer = render.New(sectionRenderer,
		render.WithSectionBudget(c.Config.Render.SectionTimeout),
		render.WithLogger(c.moduleLogger(logging.RenderModule)),
	)
	c.links = links.NewBuilder(nil, c.Config.HTTP.PublicBaseURL, c.logger)
	return nil
}

func (c *Container) configureCart() error {
	c.carts = cart.NewService(cart.NewBunLineRepository(c.bunDB),
		cart.WithMaxQuantity(c.Config.Cart.MaxQuantity),
		cart.WithLogger(c.moduleLogger(logging.CartModule)),
	)
	var sessions cart.SessionRepository = cart.NewBunSessionRepository(c.bunDB)
	if c.cacheService != nil {
		sessions = cart.NewBunSessionRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	}
	c.sessions = cart.NewSessions(sessions)
	return nil
}

func (c *Container) configureEditor() error {
	editorLogger := c.moduleLogger(logging.EditorModule)
	clients := func(token string) layoutscmd.AdminClient { return c.client.WithToken(token) }

	commandLogger := commands.CommandLogger(c.loggerProvider, "layouts")
	save := layoutscmd.NewSaveLayoutHandler(clients, editor.NewDocumentValidator(c.registry), commandLogger)
	publish := layoutscmd.NewPublishLayoutHandler(clients, commandLogger)
	c.subs = layoutscmd.Subscribe(save, publish, commandRetries)

	origins := c.allowedOrigins()
	c.hub = bridge.NewHub(func(origin string) bool { return slices.Contains(origins, origin) },
		bridge.WithHubLogger(c.moduleLogger(logging.BridgeModule)),
		bridge.WithJoinHandler(func(ctx context.Context, channel, origin string) {
			c.previews.Joined(ctx, channel, origin)
		}),
	)
	c.previews = editor.NewPreviews(c.hub, origins, c.moduleLogger(logging.BridgeModule))

	templates, err := editor.BuiltinTemplates()
	if err != nil {
		return err
	}
	c.editor = editor.NewService(
		func(token string) editor.Backend { return c.client.WithToken(token) },
		c.registry,
		save,
		publish,
		editor.WithLogger(editorLogger),
		editor.WithAutosaveDelay(c.Config.Editor.AutosaveDelay),
		editor.WithPreview(c.previews),
		editor.WithTemplates(templates),
	)
	return nil
}

// scriptSource fetches app block scripts from the configured hosts. Without an
// injected client it builds one bounded by the script timeout.
func (c *Container) scriptSource() *appblock.HTTPSource {
	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: c.Config.Apps.ScriptTimeout}
	}
	return &appblock.HTTPSource{
		Client:       client,
		Cache:        c.cache,
		TTL:          c.Config.Cache.TTL,
		Timeout:      c.Config.Apps.ScriptTimeout,
		AllowedHosts: slices.Clone(c.Config.Apps.AllowedHosts),
	}
}

// allowedOrigins lists the editor origins plus the storefront itself, whose
// preview pages join the same bridge channels.
func (c *Container) allowedOrigins() []string {
	var origins []string
	for _, origin := range append(slices.Clone(c.Config.Editor.AllowedOrigins), c.Config.HTTP.PublicBaseURL) {
		normalized, err := runtimeconfig.NormalizeOrigin(origin)
		if err != nil || slices.Contains(origins, normalized) {
			continue
		}
		origins = append(origins, normalized)
	}
	return origins
}

func (c *Container) configureServer() error {
	admin := httpserver.NewAdminAPI(c.editor,
		httpserver.WithDefaultToken(c.Config.Editor.AdminToken),
		httpserver.WithPreviews(c.previews),
	)
	scripts := c.scriptSource()

	server, err := httpserver.New(c.storefront, c.renderer,
		httpserver.WithLinks(c.links),
		httpserver.WithCart(c.carts),
		httpserver.WithAccounts(c.sessions, c.client),
		httpserver.WithScriptSource(scripts),
		httpserver.WithPreview(c.previews, c.hub),
		httpserver.WithAdmin(admin),
		httpserver.WithLogger(c.moduleLogger(logging.HTTPModule)),
		httpserver.WithDevelopment(c.Config.Render.Development),
		httpserver.WithAnnouncementCookie(c.Config.HTTP.AnnouncementCookie),
		httpserver.WithSecureCookies(strings.HasPrefix(normalize(c.Config.HTTP.PublicBaseURL), "https://")),
		httpserver.WithProductsLimit(c.Config.Render.ProductsLimit),
	)
	if err != nil {
		return err
	}
	c.server = server
	return nil
}

// Close flushes editor sessions and releases the database and cache
// connections the container opened.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.editor != nil {
		errs = append(errs, c.editor.Shutdown(ctx))
	}
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.subs = nil
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.ownsDB && c.bunDB != nil {
		errs = append(errs, c.bunDB.Close())
	}
	return errors.Join(errs...)
}

func (c *Container) moduleLogger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

func (c *Container) cacheProvider() string {
	switch {
	case c.cache == nil:
		return "disabled"
	case c.redis != nil:
		return "redis"
	default:
		return "memory"
	}
}

// Logger returns the root storefront logger.
func (c *Container) Logger() interfaces.Logger { return c.logger }

// Handler returns the routed storefront handler.
func (c *Container) Handler() http.Handler { return c.server }

// Storefront returns the (possibly cached) backend client.
func (c *Container) Storefront() api.Storefront { return c.storefront }

// Client returns the uncached backend client.
func (c *Container) Client() *api.Client { return c.client }

// Registry returns the section registry.
func (c *Container) Registry() *sections.Registry { return c.registry }

// Renderer returns the layout renderer.
func (c *Container) Renderer() *render.Renderer { return c.renderer }

// Links returns the storefront URL builder.
func (c *Container) Links() *links.Builder { return c.links }

// Carts returns the cart service.
func (c *Container) Carts() *cart.Service { return c.carts }

// Sessions returns the customer session store.
func (c *Container) Sessions() *cart.Sessions { return c.sessions }

// Editor returns the layout editor service.
func (c *Container) Editor() *editor.Service { return c.editor }

// Previews returns the live preview sessions.
func (c *Container) Previews() *editor.Previews { return c.previews }

// Hub returns the bridge websocket hub.
func (c *Container) Hub() *bridge.Hub { return c.hub }

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
