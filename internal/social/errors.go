package social

import (
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ErrPostNotFound is returned when the upstream has no metadata for an id.
var ErrPostNotFound = errors.New("social: post not found")

const (
	textCodePostNotFound   = "SOCIAL_POST_NOT_FOUND"
	textCodeRateLimited    = "SOCIAL_RATE_LIMITED"
	textCodeUpstreamStatus = "SOCIAL_UPSTREAM_STATUS"
	textCodeInvalidPayload = "SOCIAL_INVALID_PAYLOAD"
)

// StatusError reports an unexpected upstream HTTP status.
type StatusError struct {
	ID         string
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("social: metadata for %s returned status %d", e.ID, e.StatusCode)
}

func notFoundError(id string) error {
	return goerrors.Wrap(ErrPostNotFound, goerrors.CategoryNotFound, fmt.Sprintf("social post %s not found", id)).
		WithTextCode(textCodePostNotFound).
		WithMetadata(map[string]any{"id": id})
}

func statusError(id string, status int, retryAfter time.Duration) error {
	err := &StatusError{ID: id, StatusCode: status, RetryAfter: retryAfter}
	category := goerrors.CategoryExternal
	code := textCodeUpstreamStatus
	if status == 429 {
		category = goerrors.CategoryRateLimit
		code = textCodeRateLimited
	}
	return goerrors.Wrap(err, category, err.Error()).
		WithTextCode(code).
		WithCode(status).
		WithMetadata(map[string]any{"id": id})
}

func invalidPayloadError(id string, cause error) error {
	return goerrors.Wrap(cause, goerrors.CategoryExternal, fmt.Sprintf("social metadata for %s is not valid JSON", id)).
		WithTextCode(textCodeInvalidPayload)
}
