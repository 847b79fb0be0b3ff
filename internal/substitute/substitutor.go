// Package substitute implements ordered, concurrent find-and-replace: every
// pattern match in a text is resolved concurrently and spliced back in source
// order, independent of resolver completion order.
package substitute

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-postembed/internal/logging"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// DefaultMaxConcurrency caps in-flight resolver calls per Replace invocation.
const DefaultMaxConcurrency = 8

// Resolver turns one matched span into its replacement text.
type Resolver func(ctx context.Context, match string) (string, error)

// Directive bundles the matching pattern and resolver for one directive kind.
type Directive interface {
	Name() string
	Pattern() *regexp.Regexp
	Resolve(ctx context.Context, match string) (string, error)
}

// Span is a single match located in the source text.
type Span struct {
	Start int
	End   int
	Text  string
}

// FindSpans scans text once and returns every non-overlapping match in
// appearance order.
func FindSpans(text string, pattern *regexp.Regexp) []Span {
	if pattern == nil {
		return nil
	}
	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := make([]Span, len(locs))
	for i, loc := range locs {
		spans[i] = Span{Start: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]}
	}
	return spans
}

// Substitutor runs ordered concurrent replacements.
type Substitutor struct {
	maxConcurrency int
	logger         interfaces.Logger
	metrics        interfaces.ResolverMetrics
}

// Option customises a Substitutor.
type Option func(*Substitutor)

// WithMaxConcurrency bounds in-flight resolver calls. Values <= 0 remove the
// bound and fan out one goroutine per match.
func WithMaxConcurrency(limit int) Option {
	return func(s *Substitutor) {
		s.maxConcurrency = limit
	}
}

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Substitutor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires the metrics recorder used for telemetry.
func WithMetrics(metrics interfaces.ResolverMetrics) Option {
	return func(s *Substitutor) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// New constructs a Substitutor bounded by DefaultMaxConcurrency.
func New(opts ...Option) *Substitutor {
	s := &Substitutor{
		maxConcurrency: DefaultMaxConcurrency,
		logger:         logging.NoOp(),
		metrics:        NoOpMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply runs Replace with the directive's pattern and resolver.
func (s *Substitutor) Apply(ctx context.Context, text string, directive Directive) (string, error) {
	if directive == nil {
		return text, nil
	}
	return s.replace(ctx, directive.Name(), text, directive.Pattern(), directive.Resolve)
}

// Replace substitutes every match of pattern with the resolver output. Text
// outside matches is preserved byte for byte. The first resolver error aborts
// the call and no partial text is returned.
func (s *Substitutor) Replace(ctx context.Context, text string, pattern *regexp.Regexp, resolve Resolver) (string, error) {
	return s.replace(ctx, "", text, pattern, resolve)
}

func (s *Substitutor) replace(ctx context.Context, name, text string, pattern *regexp.Regexp, resolve Resolver) (string, error) {
	spans := FindSpans(text, pattern)
	if len(spans) == 0 {
		return text, nil
	}
	if resolve == nil {
		return "", fmt.Errorf("substitute: resolver is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.WithFields(s.logger.WithContext(ctx), map[string]any{
		"operation": "substitute.replace",
		"directive": name,
		"matches":   len(spans),
	})

	replacements := make([]string, len(spans))
	group, groupCtx := errgroup.WithContext(ctx)
	if s.maxConcurrency > 0 {
		group.SetLimit(s.maxConcurrency)
	}

	for idx, span := range spans {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			out, err := resolve(groupCtx, span.Text)
			s.metrics.ObserveResolveDuration(name, time.Since(start))
			if err != nil {
				s.metrics.IncrementResolveError(name)
				return err
			}
			replacements[idx] = out
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error("substitute.replace.failed", "error", err)
		return "", err
	}

	logger.Debug("substitute.replace.completed")
	return Splice(text, spans, replacements), nil
}

// Splice rebuilds text in one left-to-right pass, swapping each span for the
// replacement at the same index. spans must be sorted and non-overlapping.
func Splice(text string, spans []Span, replacements []string) string {
	var builder strings.Builder
	size := len(text)
	for i, span := range spans {
		size += len(replacements[i]) - (span.End - span.Start)
	}
	if size > 0 {
		builder.Grow(size)
	}

	cursor := 0
	for i, span := range spans {
		builder.WriteString(text[cursor:span.Start])
		builder.WriteString(replacements[i])
		cursor = span.End
	}
	builder.WriteString(text[cursor:])
	return builder.String()
}
