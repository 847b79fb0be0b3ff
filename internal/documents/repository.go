// Package documents stores post sources keyed by site and slug and hands them
// to the compiler as split RawDocuments.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// ErrDocumentNotFound is matched by every NotFoundError.
var ErrDocumentNotFound = errors.New("documents: document not found")

// NotFoundError reports a missing post.
type NotFoundError struct {
	Site string
	Slug string
}

func (e *NotFoundError) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("document %q not found", e.Slug)
	}
	return fmt.Sprintf("document %q not found in site %q", e.Slug, e.Site)
}

func (e *NotFoundError) Unwrap() error {
	return ErrDocumentNotFound
}

// IsNotFound reports whether err signals an absent document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// Repository reads and writes stored posts.
type Repository interface {
	interfaces.DocumentStore
	Put(ctx context.Context, site, slug string, source []byte) (*interfaces.RawDocument, error)
	Delete(ctx context.Context, site, slug string) error
}

// NormalizeKey canonicalises the site and slug pair. The slug must not be
// empty after normalisation.
func NormalizeKey(site, slugValue string) (string, string, error) {
	site = normalizeSegment(site)
	normalized := normalizeSegment(slugValue)
	if normalized == "" {
		return "", "", fmt.Errorf("documents: slug required")
	}
	return site, normalized, nil
}

func normalizeSegment(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized, err := slug.Normalize(trimmed)
	if err != nil || normalized == "" {
		return strings.ToLower(trimmed)
	}
	return normalized
}
