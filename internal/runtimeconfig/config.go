package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrStorageProviderUnknown = errors.New("postembed config: storage provider is invalid")
var ErrStorageDialectUnknown = errors.New("postembed config: storage dialect is invalid")
var ErrStorageDSNRequired = errors.New("postembed config: storage dsn is required for the bun provider")
var ErrStorageContentDirRequired = errors.New("postembed config: content directory is required for the fs provider")
var ErrSocialProviderUnknown = errors.New("postembed config: social provider is invalid")
var ErrSocialEndpointRequired = errors.New("postembed config: social endpoint is required for the http provider")
var ErrSocialDomainInvalid = errors.New("postembed config: social domain is invalid")
var ErrSocialRateInvalid = errors.New("postembed config: social rate must be zero or positive")
var ErrLoggingProviderRequired = errors.New("postembed config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("postembed config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("postembed config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("postembed config: logging format is invalid")

// Storage providers.
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageBun    = "bun"
)

// Storage dialects for the bun provider.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Social metadata providers.
const (
	SocialHTTP   = "http"
	SocialMemory = "memory"
)

// Config aggregates the compiler pipeline settings and adapter bindings.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Markdown MarkdownConfig
	Compiler CompilerConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Social   SocialConfig
	Features Features
	Logging  LoggingConfig
}

// MarkdownConfig captures parser behaviour.
type MarkdownConfig struct {
	Parser MarkdownParserConfig
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// CompilerConfig tunes the compile pipeline.
type CompilerConfig struct {
	// MaxConcurrency bounds in-flight directive lookups per pass. Values <= 0
	// remove the bound.
	MaxConcurrency int
	// LookupConcurrency bounds record lookups inside one example directive.
	LookupConcurrency int
	// ExternalIndicator is appended to external link text; empty disables it.
	ExternalIndicator string
	RewriteMedia      bool
	SocialDomains     []string
	// FrontMatterSchema is an inline schema; FrontMatterSchemaPath loads one
	// from disk. The inline schema wins when both are set.
	FrontMatterSchema     map[string]any
	FrontMatterSchemaPath string
	IncludeDrafts         bool
	// Timeout bounds a single compile command. Zero uses the handler default.
	Timeout time.Duration
}

// StorageConfig selects where posts and examples are read from.
type StorageConfig struct {
	Provider    string
	Dialect     string
	DSN         string
	ContentDir  string
	Extension   string
	AutoMigrate bool
}

// CacheConfig captures cache behaviour toggles.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// SocialConfig configures the social metadata source.
type SocialConfig struct {
	Provider      string
	Endpoint      string
	Token         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	CacheTTL      time.Duration
}

// Features toggles optional functionality.
type Features struct {
	Logger bool
	Social bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns in-memory defaults suitable for tests and local use.
func DefaultConfig() Config {
	return Config{
		Markdown: MarkdownConfig{
			Parser: MarkdownParserConfig{
				Extensions: []string{"table", "strikethrough", "tasklist"},
			},
		},
		Compiler: CompilerConfig{
			MaxConcurrency:    8,
			LookupConcurrency: 8,
			ExternalIndicator: " ↗",
			RewriteMedia:      true,
			SocialDomains:     []string{"twitter.com", "www.twitter.com", "mobile.twitter.com", "x.com", "www.x.com"},
		},
		Storage: StorageConfig{
			Provider:   StorageMemory,
			Dialect:    DialectSQLite,
			ContentDir: "content",
			Extension:  ".md",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Social: SocialConfig{
			Provider:      SocialMemory,
			Timeout:       10 * time.Second,
			RatePerSecond: 5,
			Burst:         5,
			MaxRetries:    2,
			CacheTTL:      15 * time.Minute,
		},
		Features: Features{
			Social: true,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch provider := normalize(cfg.Storage.Provider); provider {
	case StorageMemory:
	case StorageFS:
		if strings.TrimSpace(cfg.Storage.ContentDir) == "" {
			return ErrStorageContentDirRequired
		}
	case StorageBun:
		if dialect := normalize(cfg.Storage.Dialect); dialect != DialectSQLite && dialect != DialectPostgres {
			return fmt.Errorf("%w: %s", ErrStorageDialectUnknown, cfg.Storage.Dialect)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}

	if cfg.Features.Social {
		switch provider := normalize(cfg.Social.Provider); provider {
		case SocialMemory:
		case SocialHTTP:
			if strings.TrimSpace(cfg.Social.Endpoint) == "" {
				return ErrSocialEndpointRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrSocialProviderUnknown, cfg.Social.Provider)
		}
		if cfg.Social.RatePerSecond < 0 {
			return ErrSocialRateInvalid
		}
		for _, domain := range cfg.Compiler.SocialDomains {
			trimmed := strings.TrimSpace(domain)
			if trimmed == "" || strings.ContainsAny(trimmed, "/ ?#") {
				return fmt.Errorf("%w: %q", ErrSocialDomainInvalid, domain)
			}
		}
	}

	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "none", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
