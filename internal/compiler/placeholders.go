package compiler

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/goliatone/go-postembed/internal/substitute"
)

// placeholderFormat is a bare custom element, so the renderer treats it the
// way it treats a well-formed directive tag: raw HTML block on its own line,
// inline HTML inside a paragraph, escaped text inside code.
const placeholderFormat = "<postembed-directive-%d/>"

// shieldDirectives swaps every span matching pattern for a numbered
// placeholder. Directive markup such as names=[1, 2] is not a valid HTML tag
// and would otherwise be escaped by the renderer.
func shieldDirectives(body []byte, pattern *regexp.Regexp) ([]byte, []string) {
	if pattern == nil {
		return body, nil
	}
	text := string(body)
	spans := substitute.FindSpans(text, pattern)
	if len(spans) == 0 {
		return body, nil
	}

	originals := make([]string, len(spans))
	placeholders := make([]string, len(spans))
	for i, span := range spans {
		originals[i] = span.Text
		placeholders[i] = fmt.Sprintf(placeholderFormat, i)
	}
	return []byte(substitute.Splice(text, spans, placeholders)), originals
}

// restoreDirectives puts the original markup back in one pass. Placeholders
// the renderer escaped come back escaped.
func restoreDirectives(rendered string, originals []string) string {
	if len(originals) == 0 {
		return rendered
	}
	pairs := make([]string, 0, len(originals)*4)
	for i, original := range originals {
		placeholder := fmt.Sprintf(placeholderFormat, i)
		pairs = append(pairs,
			placeholder, original,
			html.EscapeString(placeholder), html.EscapeString(original),
		)
	}
	return strings.NewReplacer(pairs...).Replace(rendered)
}
