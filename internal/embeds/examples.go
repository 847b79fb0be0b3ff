package embeds

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-postembed/internal/examples"
	"github.com/goliatone/go-postembed/internal/logging"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// ExampleSetDirective is the directive name reported in logs and metrics.
const ExampleSetDirective = "examples"

var (
	examplesPattern = regexp.MustCompile(`<Examples\b[^>]*?/>`)
	namesPattern    = regexp.MustCompile(`names=\[([^\]]*)\]`)
)

// ExampleSetResolver expands <Examples names=[...]/> into an ExampleSetEmbed
// invocation carrying the looked-up records in directive order.
type ExampleSetResolver struct {
	store       interfaces.ExampleStore
	logger      interfaces.Logger
	isNotFound  func(error) bool
	concurrency int
}

// ExampleSetOption customises an ExampleSetResolver.
type ExampleSetOption func(*ExampleSetResolver)

// WithExampleLogger sets the resolver logger.
func WithExampleLogger(logger interfaces.Logger) ExampleSetOption {
	return func(r *ExampleSetResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotFoundMatcher overrides how store errors are classified as absent
// records. Absent records serialise as null.
func WithNotFoundMatcher(fn func(error) bool) ExampleSetOption {
	return func(r *ExampleSetResolver) {
		if fn != nil {
			r.isNotFound = fn
		}
	}
}

// WithLookupConcurrency bounds concurrent lookups inside a single directive.
// Values <= 0 remove the bound.
func WithLookupConcurrency(limit int) ExampleSetOption {
	return func(r *ExampleSetResolver) {
		r.concurrency = limit
	}
}

// NewExampleSetResolver constructs a resolver backed by store.
func NewExampleSetResolver(store interfaces.ExampleStore, opts ...ExampleSetOption) *ExampleSetResolver {
	r := &ExampleSetResolver{
		store:       store,
		logger:      logging.NoOp(),
		isNotFound:  examples.IsNotFound,
		concurrency: 0,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ExampleSetResolver) Name() string {
	return ExampleSetDirective
}

func (r *ExampleSetResolver) Pattern() *regexp.Regexp {
	return examplesPattern
}

// Resolve parses the id list, fetches every record concurrently and renders
// the results in list order. Store failures other than not-found propagate
// unchanged.
func (r *ExampleSetResolver) Resolve(ctx context.Context, match string) (string, error) {
	ids, err := ParseExampleIDs(match)
	if err != nil {
		return "", err
	}
	if r.store == nil {
		return "", errors.New("embeds: example store is not configured")
	}

	records := make([]*interfaces.ExampleRecord, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		group.SetLimit(r.concurrency)
	}
	for idx, id := range ids {
		group.Go(func() error {
			record, err := r.store.GetByID(groupCtx, id)
			if err != nil {
				if r.isNotFound(err) {
					return nil
				}
				return err
			}
			records[idx] = record
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		r.logger.WithContext(ctx).Error("embeds.examples.lookup_failed", "error", err, "ids", ids)
		return "", err
	}

	missing := 0
	for _, record := range records {
		if record == nil {
			missing++
		}
	}
	if missing > 0 {
		r.logger.WithContext(ctx).Warn("embeds.examples.missing", "ids", ids, "missing", missing)
	}

	return ExampleSetMarkup(records)
}

// ParseExampleIDs extracts the id list from an Examples directive. Tokens are
// split on commas without trimming and parsed leniently: leading whitespace and
// trailing non-digit characters are ignored, so " 2" reads as 2 and "4x" as 4.
// A token without leading digits is malformed, as is one whose digits overflow
// int64. An empty list yields no ids.
func ParseExampleIDs(match string) ([]int64, error) {
	sub := namesPattern.FindStringSubmatch(match)
	if sub == nil {
		return nil, malformed(ExampleSetDirective, match, "missing names=[...] list")
	}
	if sub[1] == "" {
		return []int64{}, nil
	}

	tokens := strings.Split(sub[1], ",")
	ids := make([]int64, 0, len(tokens))
	for _, token := range tokens {
		id, ok := parseLeadingInt(token)
		if !ok {
			return nil, malformed(ExampleSetDirective, match, "invalid example id "+strconv.Quote(token))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseLeadingInt(token string) (int64, bool) {
	trimmed := strings.TrimLeftFunc(token, unicode.IsSpace)
	end := 0
	if end < len(trimmed) && (trimmed[end] == '-' || trimmed[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	id, err := strconv.ParseInt(trimmed[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
