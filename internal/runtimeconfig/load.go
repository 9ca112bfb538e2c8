package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. STOREFRONT_API_BASE_URL.
const EnvPrefix = "STOREFRONT"

// Load resolves configuration from, lowest to highest priority, DefaultConfig,
// the optional file at path (or storefront.{yaml,toml,json} in the working
// directory when path is empty) and STOREFRONT_ environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storefront")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("storefront config: read: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("storefront config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.token", cfg.API.Token)
	v.SetDefault("api.timeout", cfg.API.Timeout)

	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.public_base_url", cfg.HTTP.PublicBaseURL)
	v.SetDefault("http.announcement_cookie", cfg.HTTP.AnnouncementCookie)

	v.SetDefault("render.section_timeout", cfg.Render.SectionTimeout)
	v.SetDefault("render.development", cfg.Render.Development)
	v.SetDefault("render.products_limit", cfg.Render.ProductsLimit)

	v.SetDefault("editor.allowed_origins", cfg.Editor.AllowedOrigins)
	v.SetDefault("editor.autosave_delay", cfg.Editor.AutosaveDelay)
	v.SetDefault("editor.admin_token", cfg.Editor.AdminToken)

	v.SetDefault("apps.allowed_hosts", cfg.Apps.AllowedHosts)
	v.SetDefault("apps.script_timeout", cfg.Apps.ScriptTimeout)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.provider", cfg.Cache.Provider)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.redis_addr", cfg.Cache.RedisAddr)
	v.SetDefault("cache.redis_db", cfg.Cache.RedisDB)

	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)

	v.SetDefault("cart.max_quantity", cfg.Cart.MaxQuantity)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)
}
