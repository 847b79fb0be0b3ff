package compiler

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-postembed/internal/embeds"
)

var (
	// ErrDocumentStoreRequired indicates CompileBySlug was called without a document store.
	ErrDocumentStoreRequired = errors.New("compiler: document store is required")
	// ErrDraftDocument indicates a draft was requested while drafts are excluded.
	ErrDraftDocument = errors.New("compiler: document is a draft")
	// ErrDocumentRequired indicates CompileDocument received a nil document.
	ErrDocumentRequired = errors.New("compiler: document is required")
)

// Text codes attached to compile failures.
const (
	TextCodeMalformedDirective = "MALFORMED_DIRECTIVE"
	TextCodeResolverFailure    = "RESOLVER_FAILURE"
	TextCodeInvalidFrontMatter = "INVALID_FRONTMATTER"
	TextCodeRenderFailure      = "RENDER_FAILURE"
	TextCodeDraftDocument      = "DRAFT_DOCUMENT"
)

// IsMalformedDirective reports whether err was caused by a directive whose
// arguments could not be parsed.
func IsMalformedDirective(err error) bool {
	return embeds.IsMalformedDirective(err)
}

// IsResolverFailure reports whether err carries the resolver failure text code.
func IsResolverFailure(err error) bool {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeResolverFailure
}

func wrapDirectiveError(directive string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	meta := map[string]any{"directive": directive}
	if embeds.IsMalformedDirective(err) {
		return goerrors.Wrap(err, goerrors.CategoryValidation, fmt.Sprintf("malformed %s directive", directive)).
			WithTextCode(TextCodeMalformedDirective).
			WithMetadata(meta)
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, fmt.Sprintf("%s directive resolution failed", directive)).
		WithTextCode(TextCodeResolverFailure).
		WithMetadata(meta)
}

func wrapFrontMatterError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid frontmatter").
		WithTextCode(TextCodeInvalidFrontMatter)
}

func wrapRenderError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "render markdown").
		WithTextCode(TextCodeRenderFailure)
}

func draftError(site, slug string) error {
	return goerrors.Wrap(ErrDraftDocument, goerrors.CategoryNotFound, fmt.Sprintf("document %s/%s is a draft", site, slug)).
		WithTextCode(TextCodeDraftDocument)
}
