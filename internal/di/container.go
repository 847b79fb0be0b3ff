package di

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-postembed/internal/compiler"
	"github.com/goliatone/go-postembed/internal/documents"
	"github.com/goliatone/go-postembed/internal/embeds"
	"github.com/goliatone/go-postembed/internal/examples"
	"github.com/goliatone/go-postembed/internal/logging"
	"github.com/goliatone/go-postembed/internal/logging/gologger"
	"github.com/goliatone/go-postembed/internal/markdown"
	"github.com/goliatone/go-postembed/internal/migrations"
	"github.com/goliatone/go-postembed/internal/runtimeconfig"
	"github.com/goliatone/go-postembed/internal/social"
	"github.com/goliatone/go-postembed/internal/substitute"
	"github.com/goliatone/go-postembed/internal/validation"
	"github.com/goliatone/go-postembed/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Container wires the compile pipeline from runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	httpClient    *http.Client

	documentStore interfaces.DocumentStore
	exampleStore  interfaces.ExampleStore
	socialStore   interfaces.SocialStore

	parser      interfaces.MarkdownParser
	links       *markdown.LinkRewriter
	substitutor *substitute.Substitutor
	schema      *validation.FrontMatterSchema
	metrics     interfaces.ResolverMetrics

	compilerSvc *compiler.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the logger provider derived from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithBunDB binds a host-managed database. The container never closes it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache wires repository caching for bun-backed stores.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithHTTPClient replaces the HTTP client used by the social metadata client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithDocumentStore overrides the configured document store.
func WithDocumentStore(store interfaces.DocumentStore) Option {
	return func(c *Container) {
		c.documentStore = store
	}
}

// WithExampleStore overrides the configured example store.
func WithExampleStore(store interfaces.ExampleStore) Option {
	return func(c *Container) {
		c.exampleStore = store
	}
}

// WithSocialStore overrides the configured social metadata store.
func WithSocialStore(store interfaces.SocialStore) Option {
	return func(c *Container) {
		c.socialStore = store
	}
}

// WithMarkdownParser overrides the goldmark parser.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		c.parser = parser
	}
}

// WithResolverMetrics records directive pass timings.
func WithResolverMetrics(metrics interfaces.ResolverMetrics) Option {
	return func(c *Container) {
		c.metrics = metrics
	}
}

// NewContainer validates cfg and builds every collaborator the compiler needs.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureSocial(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureSchema(); err != nil {
		c.Close()
		return nil, err
	}
	c.configureCompiler()

	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.Config.Features.Logger {
		return nil
	}
	provider := strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider))
	switch provider {
	case "", "none":
		return nil
	case "gologger":
		p, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure logger: %w", err)
		}
		c.loggerProvider = p
		return nil
	default:
		return fmt.Errorf("%w: %s", runtimeconfig.ErrLoggingProviderUnknown, provider)
	}
}

var newCacheService = repocache.NewCacheService

func buildCacheService(ttl time.Duration) (repocache.CacheService, error) {
	cfg := repocache.DefaultConfig()
	cfg.TTL = ttl
	service, err := newCacheService(cfg)
	if err != nil {
		return nil, fmt.Errorf("di: configure cache: %w", err)
	}
	return service, nil
}

func (c *Container) configureCacheDefaults() error {
	if !c.Config.Cache.Enabled {
		return nil
	}
	if c.cacheService != nil && c.keySerializer != nil {
		return nil
	}

	service, err := buildCacheService(c.cacheTTL)
	if err != nil {
		return err
	}
	c.cacheService = service
	c.keySerializer = repocache.NewDefaultKeySerializer()
	return nil
}

func (c *Container) configureStorage() error {
	storageCfg := c.Config.Storage
	provider := strings.ToLower(strings.TrimSpace(storageCfg.Provider))

	switch provider {
	case runtimeconfig.StorageFS:
		if c.documentStore == nil {
			c.documentStore = documents.NewFSRepository(os.DirFS(storageCfg.ContentDir), documents.FSConfig{
				Extension: storageCfg.Extension,
			})
		}
	case runtimeconfig.StorageBun:
		if err := c.configureBun(); err != nil {
			return err
		}
	}

	if c.documentStore == nil {
		c.documentStore = documents.NewMemoryRepository()
	}
	if c.exampleStore == nil {
		c.exampleStore = examples.NewMemoryRepository()
	}
	return nil
}

func (c *Container) configureBun() error {
	if c.bunDB == nil {
		db, err := openBunDB(c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	if c.Config.Storage.AutoMigrate {
		if err := migrations.Apply(context.Background(), c.bunDB, migrationDialect(c.Config.Storage.Dialect)); err != nil {
			return fmt.Errorf("di: migrate: %w", err)
		}
	}

	if err := c.configureCacheDefaults(); err != nil {
		return err
	}

	if c.documentStore == nil {
		if c.cacheService != nil && c.keySerializer != nil {
			c.documentStore = documents.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		} else {
			c.documentStore = documents.NewBunRepository(c.bunDB)
		}
	}
	if c.exampleStore == nil {
		c.exampleStore = examples.NewBunRepository(c.bunDB)
	}
	return nil
}

func migrationDialect(dialect string) string {
	if strings.ToLower(strings.TrimSpace(dialect)) == runtimeconfig.DialectPostgres {
		return migrations.DialectPostgres
	}
	return migrations.DialectSQLite
}

func openBunDB(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Dialect)) {
	case runtimeconfig.DialectPostgres:
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("di: open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		sqldb, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("di: open sqlite: %w", err)
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
}

func (c *Container) configureSocial() error {
	if c.socialStore != nil || !c.Config.Features.Social {
		return nil
	}

	socialCfg := c.Config.Social
	if strings.ToLower(strings.TrimSpace(socialCfg.Provider)) != runtimeconfig.SocialHTTP {
		c.socialStore = social.NewMemoryStore(nil)
		return nil
	}

	opts := []social.Option{
		social.WithLogger(logging.SocialLogger(c.loggerProvider)),
	}
	if c.httpClient != nil {
		opts = append(opts, social.WithHTTPClient(c.httpClient))
	}
	if c.Config.Cache.Enabled && socialCfg.CacheTTL > 0 {
		service, err := buildCacheService(socialCfg.CacheTTL)
		if err != nil {
			return err
		}
		opts = append(opts, social.WithCache(service))
	}

	client, err := social.NewClient(social.Config{
		Endpoint:      socialCfg.Endpoint,
		Token:         socialCfg.Token,
		Timeout:       socialCfg.Timeout,
		RatePerSecond: socialCfg.RatePerSecond,
		Burst:         socialCfg.Burst,
		MaxRetries:    socialCfg.MaxRetries,
	}, opts...)
	if err != nil {
		return fmt.Errorf("di: configure social client: %w", err)
	}
	c.socialStore = client
	return nil
}

func (c *Container) configureSchema() error {
	compilerCfg := c.Config.Compiler
	if len(compilerCfg.FrontMatterSchema) > 0 {
		schema, err := validation.NewFrontMatterSchema(compilerCfg.FrontMatterSchema)
		if err != nil {
			return fmt.Errorf("di: frontmatter schema: %w", err)
		}
		c.schema = schema
		return nil
	}
	if path := strings.TrimSpace(compilerCfg.FrontMatterSchemaPath); path != "" {
		schema, err := validation.LoadFrontMatterSchema(path)
		if err != nil {
			return fmt.Errorf("di: frontmatter schema: %w", err)
		}
		c.schema = schema
	}
	return nil
}

func (c *Container) configureCompiler() {
	compilerCfg := c.Config.Compiler
	embedsLogger := logging.EmbedsLogger(c.loggerProvider)

	if c.parser == nil {
		c.parser = markdown.NewGoldmarkParser(interfaces.ParseOptions{
			Extensions: c.Config.Markdown.Parser.Extensions,
			HardWraps:  c.Config.Markdown.Parser.HardWraps,
			SafeMode:   c.Config.Markdown.Parser.SafeMode,
		})
	}

	c.links = markdown.NewLinkRewriter(
		markdown.WithExternalIndicator(compilerCfg.ExternalIndicator),
		markdown.WithMediaRewrite(compilerCfg.RewriteMedia),
	)

	subOpts := []substitute.Option{
		substitute.WithMaxConcurrency(compilerCfg.MaxConcurrency),
		substitute.WithLogger(embedsLogger),
	}
	if c.metrics != nil {
		subOpts = append(subOpts, substitute.WithMetrics(c.metrics))
	}
	c.substitutor = substitute.New(subOpts...)

	deps := compiler.Dependencies{
		Parser:      c.parser,
		Links:       c.links,
		Substitutor: c.substitutor,
		Examples: embeds.NewExampleSetResolver(c.exampleStore,
			embeds.WithExampleLogger(embedsLogger),
			embeds.WithLookupConcurrency(compilerCfg.LookupConcurrency),
		),
		Documents: c.documentStore,
		Schema:    c.schema,
		Logger:    logging.CompilerLogger(c.loggerProvider),
	}
	if c.socialStore != nil {
		deps.Social = embeds.NewSocialEmbedResolver(c.socialStore,
			embeds.WithSocialLogger(embedsLogger),
			embeds.WithSocialDomains(compilerCfg.SocialDomains...),
		)
	}

	c.compilerSvc = compiler.NewService(deps, compiler.WithIncludeDrafts(compilerCfg.IncludeDrafts))
}

// CompilerService returns the configured document compiler.
func (c *Container) CompilerService() *compiler.Service {
	return c.compilerSvc
}

// DocumentStore returns the configured post store.
func (c *Container) DocumentStore() interfaces.DocumentStore {
	return c.documentStore
}

// ExampleStore returns the configured example store.
func (c *Container) ExampleStore() interfaces.ExampleStore {
	return c.exampleStore
}

// SocialStore returns the configured social metadata store, or nil when the
// social feature is disabled.
func (c *Container) SocialStore() interfaces.SocialStore {
	return c.socialStore
}

// LoggerProvider returns the configured logger provider. It may be nil.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns a module logger from the configured provider.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

// BunDB exposes the bound database, if any.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// Close releases the database opened by the container. Databases supplied
// through WithBunDB are left open.
func (c *Container) Close() error {
	if c == nil || c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	c.ownsDB = false
	return err
}
