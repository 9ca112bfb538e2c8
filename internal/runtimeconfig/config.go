package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	ErrAPIBaseURLInvalid       = errors.New("storefront config: api base url is invalid")
	ErrPublicURLInvalid        = errors.New("storefront config: public base url is invalid")
	ErrAllowedOriginInvalid    = errors.New("storefront config: editor allowed origin is invalid")
	ErrSectionTimeoutInvalid   = errors.New("storefront config: render section timeout must be positive")
	ErrAutosaveDelayInvalid    = errors.New("storefront config: autosave delay must be positive")
	ErrCacheProviderUnknown    = errors.New("storefront config: cache provider is invalid")
	ErrCacheRedisAddrRequired  = errors.New("storefront config: redis address is required for the redis cache")
	ErrStorageDriverUnknown    = errors.New("storefront config: storage driver is invalid")
	ErrStorageDSNRequired      = errors.New("storefront config: storage dsn is required")
	ErrLoggingProviderUnknown  = errors.New("storefront config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("storefront config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("storefront config: logging format is invalid")
	ErrCartMaxQuantityInvalid  = errors.New("storefront config: cart max quantity must be positive")
	ErrAnnouncementCookieEmpty = errors.New("storefront config: announcement cookie name is required")
	ErrScriptTimeoutInvalid    = errors.New("storefront config: app block script timeout must be positive")
	ErrAppHostInvalid          = errors.New("storefront config: app block host is invalid")
)

// Config aggregates every runtime knob of the storefront.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Render  RenderConfig  `mapstructure:"render"`
	Editor  EditorConfig  `mapstructure:"editor"`
	Apps    AppsConfig    `mapstructure:"apps"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Storage StorageConfig `mapstructure:"storage"`
	Cart    CartConfig    `mapstructure:"cart"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig points at the commerce backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPConfig configures the storefront server.
type HTTPConfig struct {
	Addr               string `mapstructure:"addr"`
	PublicBaseURL      string `mapstructure:"public_base_url"`
	AnnouncementCookie string `mapstructure:"announcement_cookie"`
}

// RenderConfig tunes the layout renderer.
type RenderConfig struct {
	SectionTimeout time.Duration `mapstructure:"section_timeout"`
	Development    bool          `mapstructure:"development"`
	ProductsLimit  int           `mapstructure:"products_limit"`
}

// EditorConfig covers the preview bridge and the admin autosave.
type EditorConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	AutosaveDelay  time.Duration `mapstructure:"autosave_delay"`
	AdminToken     string        `mapstructure:"admin_token"`
}

// AppsConfig restricts where app block scripts are fetched from. Hosts are
// exact names or "*.example.com" wildcards; an empty list disables fetching.
type AppsConfig struct {
	AllowedHosts  []string      `mapstructure:"allowed_hosts"`
	ScriptTimeout time.Duration `mapstructure:"script_timeout"`
}

// CacheConfig selects the response cache used in front of the backend API.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Provider  string        `mapstructure:"provider"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
}

// StorageConfig selects the database holding carts and customer sessions.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// CartConfig bounds cart behaviour.
type CartConfig struct {
	MaxQuantity int `mapstructure:"max_quantity"`
}

// LoggingConfig selects the logger provider.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// DefaultConfig returns a configuration suitable for local development.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr:               ":3000",
			PublicBaseURL:      "http://localhost:3000",
			AnnouncementCookie: "announcement-dismissed",
		},
		Render: RenderConfig{
			SectionTimeout: 150 * time.Millisecond,
			ProductsLimit:  24,
		},
		Editor: EditorConfig{
			AllowedOrigins: []string{"http://localhost:3001", "http://localhost:8080"},
			AutosaveDelay:  2 * time.Second,
		},
		Apps: AppsConfig{
			ScriptTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Provider: "memory",
			TTL:      time.Minute,
		},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "file:storefront.db?cache=shared&_fk=1",
		},
		Cart: CartConfig{
			MaxQuantity: 99,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "console",
		},
	}
}

// Validate reports the first inconsistency found in cfg.
func (cfg Config) Validate() error {
	if err := validation.Validate(cfg.API.BaseURL, validation.Required, is.URL); err != nil {
		return fmt.Errorf("%w: %v", ErrAPIBaseURLInvalid, err)
	}
	if err := validation.Validate(cfg.HTTP.PublicBaseURL, validation.Required, is.URL); err != nil {
		return fmt.Errorf("%w: %v", ErrPublicURLInvalid, err)
	}
	if strings.TrimSpace(cfg.HTTP.AnnouncementCookie) == "" {
		return ErrAnnouncementCookieEmpty
	}
	if cfg.Render.SectionTimeout <= 0 {
		return ErrSectionTimeoutInvalid
	}
	if cfg.Editor.AutosaveDelay <= 0 {
		return ErrAutosaveDelayInvalid
	}
	for _, origin := range cfg.Editor.AllowedOrigins {
		if _, err := NormalizeOrigin(origin); err != nil {
			return fmt.Errorf("%w: %s", ErrAllowedOriginInvalid, origin)
		}
	}
	if cfg.Apps.ScriptTimeout <= 0 {
		return ErrScriptTimeoutInvalid
	}
	for _, host := range cfg.Apps.AllowedHosts {
		if err := validation.Validate(strings.TrimPrefix(strings.TrimSpace(host), "*."), validation.Required, is.Host); err != nil {
			return fmt.Errorf("%w: %s", ErrAppHostInvalid, host)
		}
	}
	if cfg.Cache.Enabled {
		switch normalize(cfg.Cache.Provider) {
		case "", "memory":
		case "redis":
			if strings.TrimSpace(cfg.Cache.RedisAddr) == "" {
				return ErrCacheRedisAddrRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrCacheProviderUnknown, cfg.Cache.Provider)
		}
	}
	if !slices.Contains([]string{"sqlite3", "postgres"}, normalize(cfg.Storage.Driver)) {
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if cfg.Cart.MaxQuantity <= 0 {
		return ErrCartMaxQuantityInvalid
	}
	return cfg.Logging.validate()
}

func (cfg LoggingConfig) validate() error {
	if !slices.Contains([]string{"", "console", "gologger"}, normalize(cfg.Provider)) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Provider)
	}
	if !slices.Contains([]string{"", "trace", "debug", "info", "warn", "warning", "error", "fatal"}, normalize(cfg.Level)) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, cfg.Level)
	}
	if !slices.Contains([]string{"", "json", "console", "pretty"}, normalize(cfg.Format)) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, cfg.Format)
	}
	return nil
}

// NormalizeOrigin reduces an origin to scheme://host[:port].
func NormalizeOrigin(origin string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("origin %q must include scheme and host", origin)
	}
	return strings.ToLower(parsed.Scheme + "://" + parsed.Host), nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
