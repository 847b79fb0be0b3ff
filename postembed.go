// Package postembed compiles markdown posts with frontmatter into component
// markup: links become Link and Media invocations, example directives become
// ExampleSetEmbed payloads and bare social post URLs become SocialPostEmbed
// payloads.
package postembed

import (
	"context"
	"errors"

	"github.com/goliatone/go-postembed/internal/commands"
	compilecmd "github.com/goliatone/go-postembed/internal/commands/compile"
	"github.com/goliatone/go-postembed/internal/compiler"
	"github.com/goliatone/go-postembed/internal/di"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// Component names referenced by compiled bodies.
const (
	ComponentLink       = interfaces.ComponentLink
	ComponentMedia      = interfaces.ComponentMedia
	ComponentExampleSet = interfaces.ComponentExampleSet
	ComponentSocialPost = interfaces.ComponentSocialPost
)

type (
	CompiledDocument = interfaces.CompiledDocument
	RawDocument      = interfaces.RawDocument
	FrontMatter      = interfaces.FrontMatter
	ExampleRecord    = interfaces.ExampleRecord
	DocumentStore    = interfaces.DocumentStore
	ExampleStore     = interfaces.ExampleStore
	SocialStore      = interfaces.SocialStore
	DocumentCompiler = interfaces.DocumentCompiler
	LoggerProvider   = interfaces.LoggerProvider
	ResolverMetrics  = interfaces.ResolverMetrics
)

// Option customises the runtime wiring.
type Option = di.Option

var (
	WithLoggerProvider  = di.WithLoggerProvider
	WithBunDB           = di.WithBunDB
	WithCache           = di.WithCache
	WithHTTPClient      = di.WithHTTPClient
	WithDocumentStore   = di.WithDocumentStore
	WithExampleStore    = di.WithExampleStore
	WithSocialStore     = di.WithSocialStore
	WithMarkdownParser  = di.WithMarkdownParser
	WithResolverMetrics = di.WithResolverMetrics
)

// ErrModuleClosed is returned by Module methods after Close.
var ErrModuleClosed = errors.New("postembed: module is closed")

// Module is the top level runtime façade.
type Module struct {
	container *di.Container
}

var _ interfaces.DocumentCompiler = (*Module)(nil)

// New constructs a Module from cfg and optional wiring overrides.
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

// Compiler returns the document compiler.
func (m *Module) Compiler() DocumentCompiler {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.CompilerService()
}

// Compile compiles post text that has not been stored.
func (m *Module) Compile(ctx context.Context, source []byte) (*CompiledDocument, error) {
	svc, err := m.service()
	if err != nil {
		return nil, err
	}
	return svc.Compile(ctx, source)
}

// CompileDocument compiles an already split document.
func (m *Module) CompileDocument(ctx context.Context, doc *RawDocument) (*CompiledDocument, error) {
	svc, err := m.service()
	if err != nil {
		return nil, err
	}
	return svc.CompileDocument(ctx, doc)
}

// CompileBySlug loads a stored post and compiles it.
func (m *Module) CompileBySlug(ctx context.Context, site, slug string) (*CompiledDocument, error) {
	svc, err := m.service()
	if err != nil {
		return nil, err
	}
	return svc.CompileBySlug(ctx, site, slug)
}

// RegisterCommands builds the compile command handlers and registers them
// with reg when it is non-nil. Config.Compiler.Timeout bounds each execution
// unless opts override it.
func (m *Module) RegisterCommands(reg compilecmd.CommandRegistry, opts ...compilecmd.Option) (*compilecmd.HandlerSet, error) {
	svc, err := m.service()
	if err != nil {
		return nil, err
	}
	if timeout := m.container.Config.Compiler.Timeout; timeout > 0 {
		opts = append([]compilecmd.Option{
			compilecmd.WithDocumentHandlerOptions(commands.WithTimeout[compilecmd.CompileDocumentCommand](timeout)),
			compilecmd.WithSourceHandlerOptions(commands.WithTimeout[compilecmd.CompileSourceCommand](timeout)),
		}, opts...)
	}
	return compilecmd.RegisterCompileCommands(reg, svc, m.container.LoggerProvider(), opts...)
}

// Close releases resources opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	err := m.container.Close()
	m.container = nil
	return err
}

func (m *Module) service() (*compiler.Service, error) {
	if m == nil || m.container == nil {
		return nil, ErrModuleClosed
	}
	return m.container.CompilerService(), nil
}

// ReferencedComponents lists the known component names invoked in body.
func ReferencedComponents(body string) []string {
	return compiler.ReferencedComponents(body)
}

// IsMalformedDirective reports whether err came from unparseable directive arguments.
func IsMalformedDirective(err error) bool {
	return compiler.IsMalformedDirective(err)
}

// IsResolverFailure reports whether err came from a failed directive lookup.
func IsResolverFailure(err error) bool {
	return compiler.IsResolverFailure(err)
}
