package embeds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// ExampleSetMarkup renders the component invocation for an ordered example
// list. Nil entries serialise as null at their position.
func ExampleSetMarkup(records []*interfaces.ExampleRecord) (string, error) {
	if records == nil {
		records = []*interfaces.ExampleRecord{}
	}
	payload, err := marshalCompact(records)
	if err != nil {
		return "", fmt.Errorf("embeds: encode examples: %w", err)
	}
	return "<" + interfaces.ComponentExampleSet + " examples={" + payload + "} />", nil
}

// SocialPostMarkup renders the component invocation for one social post. The
// metadata is embedded inside a template literal so it is escaped for that
// context.
func SocialPostMarkup(id string, metadata json.RawMessage) (string, error) {
	encoded := "null"
	if len(bytes.TrimSpace(metadata)) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, metadata); err != nil {
			return "", fmt.Errorf("embeds: social metadata for %s is not valid JSON: %w", id, err)
		}
		encoded = buf.String()
	}
	return fmt.Sprintf("<%s id=%q metadata={`%s`} />", interfaces.ComponentSocialPost, id, EscapeTemplateLiteral(encoded)), nil
}

var templateLiteralEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"${", `\${`,
)

// EscapeTemplateLiteral escapes backslashes, backticks and interpolation
// openers so value can sit between backticks verbatim.
func EscapeTemplateLiteral(value string) string {
	return templateLiteralEscaper.Replace(value)
}

func marshalCompact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
