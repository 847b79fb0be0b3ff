package markdown

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. Sources without a frontmatter block yield an empty
// FrontMatter and the full input as body.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return envelopeToFrontMatter(meta), body, nil
}

// SplitFrontMatter builds a RawDocument from stored post text.
func SplitFrontMatter(source []byte) (*interfaces.RawDocument, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(source)
	return &interfaces.RawDocument{
		FrontMatter: fm,
		Body:        body,
		Checksum:    sum[:],
	}, nil
}

// BuildDocument splits source and stamps the store coordinates onto the result.
func BuildDocument(site, slug string, source []byte, modified time.Time) (*interfaces.RawDocument, error) {
	doc, err := SplitFrontMatter(source)
	if err != nil {
		return nil, err
	}
	doc.Site = site
	doc.Slug = slug
	doc.UpdatedAt = modified
	return doc, nil
}

type frontMatterEnvelope struct {
	Title    string         `yaml:"title"`
	Slug     string         `yaml:"slug"`
	Summary  string         `yaml:"summary"`
	Status   string         `yaml:"status"`
	Template string         `yaml:"template"`
	Tags     []string       `yaml:"tags"`
	Author   string         `yaml:"author"`
	Date     time.Time      `yaml:"date"`
	Draft    bool           `yaml:"draft"`
	Custom   map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) interfaces.FrontMatter {
	raw := cloneMap(env.Custom)

	set := func(key, value string) {
		if value != "" {
			raw[key] = value
		}
	}
	set("title", env.Title)
	set("slug", env.Slug)
	set("summary", env.Summary)
	set("status", env.Status)
	set("template", env.Template)
	set("author", env.Author)
	if len(env.Tags) > 0 {
		raw["tags"] = append([]string(nil), env.Tags...)
	}
	if !env.Date.IsZero() {
		raw["date"] = env.Date
	}
	raw["draft"] = env.Draft

	return interfaces.FrontMatter{
		Title:    env.Title,
		Slug:     env.Slug,
		Summary:  env.Summary,
		Status:   env.Status,
		Template: env.Template,
		Tags:     append([]string(nil), env.Tags...),
		Author:   env.Author,
		Date:     env.Date,
		Draft:    env.Draft,
		Custom:   cloneMap(env.Custom),
		Raw:      raw,
	}
}

func cloneMap(input map[string]any) map[string]any {
	out := make(map[string]any, len(input)+8)
	for key, value := range input {
		out[key] = value
	}
	return out
}
