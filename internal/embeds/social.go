package embeds

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/goliatone/go-postembed/internal/logging"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// SocialPostDirective is the directive name reported in logs and metrics.
const SocialPostDirective = "social_post"

// DefaultSocialDomains lists the hosts whose status links are embedded.
var DefaultSocialDomains = []string{"twitter.com", "www.twitter.com", "mobile.twitter.com", "x.com", "www.x.com"}

var statusIDPattern = regexp.MustCompile(`/status(?:es)?/(\d+)`)

// SocialEmbedResolver replaces paragraphs holding only a social status URL
// with a SocialPostEmbed invocation carrying the post metadata.
type SocialEmbedResolver struct {
	store   interfaces.SocialStore
	logger  interfaces.Logger
	pattern *regexp.Regexp
}

// SocialOption customises a SocialEmbedResolver.
type SocialOption func(*socialConfig)

type socialConfig struct {
	logger  interfaces.Logger
	domains []string
}

// WithSocialLogger sets the resolver logger.
func WithSocialLogger(logger interfaces.Logger) SocialOption {
	return func(c *socialConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSocialDomains replaces the accepted hosts. Empty input keeps the defaults.
func WithSocialDomains(domains ...string) SocialOption {
	return func(c *socialConfig) {
		cleaned := make([]string, 0, len(domains))
		for _, domain := range domains {
			domain = strings.ToLower(strings.TrimSpace(domain))
			if domain != "" {
				cleaned = append(cleaned, domain)
			}
		}
		if len(cleaned) > 0 {
			c.domains = cleaned
		}
	}
}

// NewSocialEmbedResolver constructs a resolver backed by store.
func NewSocialEmbedResolver(store interfaces.SocialStore, opts ...SocialOption) *SocialEmbedResolver {
	cfg := socialConfig{
		logger:  logging.NoOp(),
		domains: DefaultSocialDomains,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SocialEmbedResolver{
		store:   store,
		logger:  cfg.logger,
		pattern: SocialPostPattern(cfg.domains...),
	}
}

// SocialPostPattern builds the paragraph matcher for the given hosts. The URL
// may carry one trailing non-query character after the status id and an
// optional query string.
func SocialPostPattern(domains ...string) *regexp.Regexp {
	if len(domains) == 0 {
		domains = DefaultSocialDomains
	}
	quoted := make([]string, len(domains))
	for i, domain := range domains {
		quoted[i] = regexp.QuoteMeta(domain)
	}
	return regexp.MustCompile(`<p>(https?://(?:` + strings.Join(quoted, "|") + `)/[^/\s<"]+/status(?:es)?/\d+[^?\s<]?(?:\?[^\s<]*)?)</p>`)
}

func (r *SocialEmbedResolver) Name() string {
	return SocialPostDirective
}

func (r *SocialEmbedResolver) Pattern() *regexp.Regexp {
	return r.pattern
}

// Resolve extracts the status id, fetches its metadata and renders the
// embed. Store failures propagate unchanged.
func (r *SocialEmbedResolver) Resolve(ctx context.Context, match string) (string, error) {
	id, err := ParseStatusID(match)
	if err != nil {
		return "", err
	}
	if r.store == nil {
		return "", errors.New("embeds: social store is not configured")
	}
	metadata, err := r.store.GetMetadataByID(ctx, id)
	if err != nil {
		r.logger.WithContext(ctx).Error("embeds.social.lookup_failed", "error", err, "id", id)
		return "", err
	}
	return SocialPostMarkup(id, metadata)
}

// ParseStatusID returns the numeric status id contained in match.
func ParseStatusID(match string) (string, error) {
	sub := statusIDPattern.FindStringSubmatch(match)
	if sub == nil {
		return "", malformed(SocialPostDirective, match, "status id not found")
	}
	return sub[1], nil
}
