// Package compiler turns stored markdown posts into compiled documents:
// split frontmatter, render markdown, rewrite links, then resolve example and
// social directives in source order.
package compiler

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-postembed/internal/logging"
	"github.com/goliatone/go-postembed/internal/markdown"
	"github.com/goliatone/go-postembed/internal/substitute"
	"github.com/goliatone/go-postembed/internal/validation"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

var componentPattern = regexp.MustCompile(`<(` + strings.Join([]string{
	interfaces.ComponentLink,
	interfaces.ComponentMedia,
	interfaces.ComponentExampleSet,
	interfaces.ComponentSocialPost,
}, "|") + `)[\s/>]`)

var componentOrder = []string{
	interfaces.ComponentLink,
	interfaces.ComponentMedia,
	interfaces.ComponentExampleSet,
	interfaces.ComponentSocialPost,
}

// Dependencies lists the collaborators a Service runs with. Nil fields fall
// back to defaults; nil directives skip their pass.
type Dependencies struct {
	Parser      interfaces.MarkdownParser
	Links       *markdown.LinkRewriter
	Substitutor *substitute.Substitutor
	Examples    substitute.Directive
	Social      substitute.Directive
	Documents   interfaces.DocumentStore
	Schema      *validation.FrontMatterSchema
	Logger      interfaces.Logger
}

// Service compiles documents.
type Service struct {
	parser        interfaces.MarkdownParser
	parseOptions  *interfaces.ParseOptions
	links         *markdown.LinkRewriter
	substitutor   *substitute.Substitutor
	directives    []substitute.Directive
	shielded      *regexp.Regexp
	documents     interfaces.DocumentStore
	schema        *validation.FrontMatterSchema
	includeDrafts bool
	logger        interfaces.Logger
	now           func() time.Time
}

var _ interfaces.DocumentCompiler = (*Service)(nil)

// ServiceOption configures the service at construction time.
type ServiceOption func(*Service)

// WithIncludeDrafts lets CompileBySlug return documents marked draft.
func WithIncludeDrafts(include bool) ServiceOption {
	return func(s *Service) {
		s.includeDrafts = include
	}
}

// WithParseOptions renders every document with opts instead of the parser defaults.
func WithParseOptions(opts interfaces.ParseOptions) ServiceOption {
	return func(s *Service) {
		copied := opts
		s.parseOptions = &copied
	}
}

// WithClock overrides the clock used for timing logs.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a Service from explicit dependencies.
func NewService(deps Dependencies, opts ...ServiceOption) *Service {
	s := &Service{
		parser:      deps.Parser,
		links:       deps.Links,
		substitutor: deps.Substitutor,
		documents:   deps.Documents,
		schema:      deps.Schema,
		logger:      deps.Logger,
		now:         time.Now,
	}
	if s.parser == nil {
		s.parser = markdown.NewGoldmarkParser(interfaces.ParseOptions{})
	}
	if s.links == nil {
		s.links = markdown.NewLinkRewriter()
	}
	if s.substitutor == nil {
		s.substitutor = substitute.New()
	}
	if s.logger == nil {
		s.logger = logging.NoOp()
	}
	if deps.Examples != nil {
		s.shielded = deps.Examples.Pattern()
	}
	for _, directive := range []substitute.Directive{deps.Examples, deps.Social} {
		if directive != nil {
			s.directives = append(s.directives, directive)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile splits, renders and enriches raw post text.
func (s *Service) Compile(ctx context.Context, source []byte) (*interfaces.CompiledDocument, error) {
	doc, err := markdown.SplitFrontMatter(source)
	if err != nil {
		return nil, wrapFrontMatterError(err)
	}
	return s.CompileDocument(ctx, doc)
}

// CompileBySlug fetches the post from the document store and compiles it.
// Drafts are rejected unless the service includes drafts.
func (s *Service) CompileBySlug(ctx context.Context, site, slug string) (*interfaces.CompiledDocument, error) {
	if s.documents == nil {
		return nil, ErrDocumentStoreRequired
	}
	doc, err := s.documents.Get(ctx, site, slug)
	if err != nil {
		logging.WithDocumentContext(s.logger.WithContext(ctx), site, slug).
			Warn("compiler.document.lookup_failed", "error", err)
		return nil, err
	}
	if doc.FrontMatter.Draft && !s.includeDrafts {
		return nil, draftError(doc.Site, doc.Slug)
	}
	return s.CompileDocument(ctx, doc)
}

// CompileDocument runs the pipeline on an already split document. The
// directive passes run sequentially, each resolving its matches concurrently.
func (s *Service) CompileDocument(ctx context.Context, doc *interfaces.RawDocument) (*interfaces.CompiledDocument, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}
	started := s.now()
	logger := logging.WithDocumentContext(s.logger.WithContext(ctx), doc.Site, doc.Slug)

	if err := s.schema.Validate(doc.FrontMatter); err != nil {
		logger.Warn("compiler.frontmatter.invalid", "error", err)
		return nil, wrapFrontMatterError(err)
	}

	source, shielded := shieldDirectives(doc.Body, s.shielded)
	rendered, err := s.render(source)
	if err != nil {
		logger.Error("compiler.render.failed", "error", err)
		return nil, wrapRenderError(err)
	}

	body := s.links.Rewrite(restoreDirectives(string(rendered), shielded))

	for _, directive := range s.directives {
		body, err = s.substitutor.Apply(ctx, body, directive)
		if err != nil {
			logger.Error("compiler.directive.failed", "directive", directive.Name(), "error", err)
			return nil, wrapDirectiveError(directive.Name(), err)
		}
	}

	compiled := &interfaces.CompiledDocument{
		Site:        doc.Site,
		Slug:        doc.Slug,
		FrontMatter: doc.FrontMatter,
		Body:        body,
		Components:  ReferencedComponents(body),
	}

	logger.Info("compiler.compile.completed",
		"components", compiled.Components,
		"duration_ms", s.now().Sub(started).Milliseconds(),
	)
	return compiled, nil
}

func (s *Service) render(body []byte) ([]byte, error) {
	if s.parseOptions != nil {
		return s.parser.ParseWithOptions(body, *s.parseOptions)
	}
	return s.parser.Parse(body)
}

// ReferencedComponents lists the component names invoked in body, in a fixed
// order.
func ReferencedComponents(body string) []string {
	seen := map[string]bool{}
	for _, match := range componentPattern.FindAllStringSubmatch(body, -1) {
		seen[match[1]] = true
	}
	out := make([]string, 0, len(seen))
	for _, name := range componentOrder {
		if seen[name] {
			out = append(out, name)
		}
	}
	return out
}
