package interfaces

import (
	"context"
	"encoding/json"
	"time"
)

// Component names understood by the rendering layer that mounts compiled output.
const (
	ComponentLink       = "Link"
	ComponentMedia      = "Media"
	ComponentExampleSet = "ExampleSetEmbed"
	ComponentSocialPost = "SocialPostEmbed"
)

// CompiledDocument is the inert payload returned by a compile. Body holds
// markup plus component invocations; Components lists the component names the
// body references so renderers can preload them. It is never mutated after
// being returned.
type CompiledDocument struct {
	Site        string      `json:"site,omitempty"`
	Slug        string      `json:"slug,omitempty"`
	FrontMatter FrontMatter `json:"frontmatter"`
	Body        string      `json:"body"`
	Components  []string    `json:"components"`
}

// ExampleRecord is a single entry owned by the example store.
type ExampleRecord struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Language    string         `json:"language,omitempty"`
	Code        string         `json:"code"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DocumentStore fetches stored posts keyed by site and slug.
type DocumentStore interface {
	Get(ctx context.Context, site, slug string) (*RawDocument, error)
}

// ExampleStore looks up example records by primary key. An absent record is
// reported either as (nil, nil) or as an error wrapping the store's not-found
// sentinel.
type ExampleStore interface {
	GetByID(ctx context.Context, id int64) (*ExampleRecord, error)
}

// SocialStore returns externally maintained metadata for a social post. The
// implementation owns caching, throttling and backoff.
type SocialStore interface {
	GetMetadataByID(ctx context.Context, id string) (json.RawMessage, error)
}

// DocumentCompiler turns stored posts into compiled documents.
type DocumentCompiler interface {
	Compile(ctx context.Context, source []byte) (*CompiledDocument, error)
	CompileDocument(ctx context.Context, doc *RawDocument) (*CompiledDocument, error)
	CompileBySlug(ctx context.Context, site, slug string) (*CompiledDocument, error)
}

// ResolverMetrics receives directive resolution telemetry.
type ResolverMetrics interface {
	ObserveResolveDuration(directive string, duration time.Duration)
	IncrementResolveError(directive string)
}
