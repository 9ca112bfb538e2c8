package storefront

import "github.com/goliatone/go-storefront/internal/runtimeconfig"

var (
	ErrAPIBaseURLInvalid       = runtimeconfig.ErrAPIBaseURLInvalid
	ErrPublicURLInvalid        = runtimeconfig.ErrPublicURLInvalid
	ErrAllowedOriginInvalid    = runtimeconfig.ErrAllowedOriginInvalid
	ErrSectionTimeoutInvalid   = runtimeconfig.ErrSectionTimeoutInvalid
	ErrAutosaveDelayInvalid    = runtimeconfig.ErrAutosaveDelayInvalid
	ErrCacheProviderUnknown    = runtimeconfig.ErrCacheProviderUnknown
	ErrCacheRedisAddrRequired  = runtimeconfig.ErrCacheRedisAddrRequired
	ErrStorageDriverUnknown    = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrCartMaxQuantityInvalid  = runtimeconfig.ErrCartMaxQuantityInvalid
	ErrAnnouncementCookieEmpty = runtimeconfig.ErrAnnouncementCookieEmpty
)

type (
	Config        = runtimeconfig.Config
	APIConfig     = runtimeconfig.APIConfig
	HTTPConfig    = runtimeconfig.HTTPConfig
	RenderConfig  = runtimeconfig.RenderConfig
	EditorConfig  = runtimeconfig.EditorConfig
	CacheConfig   = runtimeconfig.CacheConfig
	StorageConfig = runtimeconfig.StorageConfig
	CartConfig    = runtimeconfig.CartConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
