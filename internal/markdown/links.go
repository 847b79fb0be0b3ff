package markdown

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// DefaultExternalIndicator is appended to the text of links leaving the site.
const DefaultExternalIndicator = " ↗"

var (
	anchorPattern = regexp.MustCompile(`(?s)<a\s[^>]*>.*?</a>`)
	openTagPrefix = regexp.MustCompile(`^<a\s[^>]*>`)
	imagePattern  = regexp.MustCompile(`<img\s[^>]*?/?>`)
)

// LinkRewriter turns rendered anchors into navigation-aware markup: external
// http(s) anchors open in a new browsing context and gain a trailing
// indicator, root-relative anchors become Link component invocations. Images
// optionally become Media component invocations.
type LinkRewriter struct {
	indicator    string
	rewriteMedia bool
}

// LinkRewriterOption customises a LinkRewriter.
type LinkRewriterOption func(*LinkRewriter)

// WithExternalIndicator overrides the suffix appended to external link text.
func WithExternalIndicator(indicator string) LinkRewriterOption {
	return func(r *LinkRewriter) {
		r.indicator = indicator
	}
}

// WithMediaRewrite toggles the <img> to Media component rewrite.
func WithMediaRewrite(enabled bool) LinkRewriterOption {
	return func(r *LinkRewriter) {
		r.rewriteMedia = enabled
	}
}

// NewLinkRewriter builds a rewriter with the default indicator and media
// rewriting enabled.
func NewLinkRewriter(opts ...LinkRewriterOption) *LinkRewriter {
	r := &LinkRewriter{
		indicator:    DefaultExternalIndicator,
		rewriteMedia: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite applies the anchor (and media) rewrites to rendered HTML. Markup
// outside matched tags is left byte-identical.
func (r *LinkRewriter) Rewrite(markup string) string {
	out := anchorPattern.ReplaceAllStringFunc(markup, r.rewriteAnchor)
	if r.rewriteMedia {
		out = imagePattern.ReplaceAllStringFunc(out, rewriteImage)
	}
	return out
}

func (r *LinkRewriter) rewriteAnchor(anchor string) string {
	open := openTagPrefix.FindString(anchor)
	if open == "" {
		return anchor
	}
	inner := strings.TrimSuffix(anchor[len(open):], "</a>")

	token, ok := parseStartTag(open)
	if !ok {
		return anchor
	}
	href, _ := attr(token, "href")

	switch {
	case isExternal(href):
		token.Attr = setAttr(token.Attr, "target", "_blank")
		token.Attr = setAttr(token.Attr, "rel", "noopener noreferrer")
		return token.String() + inner + r.indicator + "</a>"
	case isRootRelative(href):
		token.Data = interfaces.ComponentLink
		return token.String() + inner + "</" + interfaces.ComponentLink + ">"
	default:
		return anchor
	}
}

func rewriteImage(tag string) string {
	token, ok := parseStartTag(tag)
	if !ok {
		return tag
	}
	token.Type = html.SelfClosingTagToken
	token.Data = interfaces.ComponentMedia
	return token.String()
}

func parseStartTag(tag string) (html.Token, bool) {
	tokenizer := html.NewTokenizer(strings.NewReader(tag))
	switch tokenizer.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
		return tokenizer.Token(), true
	default:
		return html.Token{}, false
	}
}

func attr(token html.Token, key string) (string, bool) {
	for _, a := range token.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(attrs []html.Attribute, key, value string) []html.Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val = value
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: key, Val: value})
}

func isExternal(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// isRootRelative excludes protocol-relative "//host" targets.
func isRootRelative(href string) bool {
	return strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")
}
