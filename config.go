package postembed

import "github.com/goliatone/go-postembed/internal/runtimeconfig"

var (
	ErrStorageProviderUnknown    = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDialectUnknown     = runtimeconfig.ErrStorageDialectUnknown
	ErrStorageDSNRequired        = runtimeconfig.ErrStorageDSNRequired
	ErrStorageContentDirRequired = runtimeconfig.ErrStorageContentDirRequired
	ErrSocialProviderUnknown     = runtimeconfig.ErrSocialProviderUnknown
	ErrSocialEndpointRequired    = runtimeconfig.ErrSocialEndpointRequired
	ErrSocialDomainInvalid       = runtimeconfig.ErrSocialDomainInvalid
	ErrSocialRateInvalid         = runtimeconfig.ErrSocialRateInvalid
	ErrLoggingProviderRequired   = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
)

const (
	StorageMemory   = runtimeconfig.StorageMemory
	StorageFS       = runtimeconfig.StorageFS
	StorageBun      = runtimeconfig.StorageBun
	DialectSQLite   = runtimeconfig.DialectSQLite
	DialectPostgres = runtimeconfig.DialectPostgres
	SocialHTTP      = runtimeconfig.SocialHTTP
	SocialMemory    = runtimeconfig.SocialMemory
)

type (
	Config               = runtimeconfig.Config
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	CompilerConfig       = runtimeconfig.CompilerConfig
	StorageConfig        = runtimeconfig.StorageConfig
	CacheConfig          = runtimeconfig.CacheConfig
	SocialConfig         = runtimeconfig.SocialConfig
	Features             = runtimeconfig.Features
	LoggingConfig        = runtimeconfig.LoggingConfig
)

// DefaultConfig returns in-memory defaults suitable for tests and local use.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
