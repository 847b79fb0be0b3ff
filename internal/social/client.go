// Package social fetches externally maintained metadata for social posts.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-postembed/internal/logging"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

const (
	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 10 * time.Second

	// DefaultRatePerSecond is the proactive request rate.
	DefaultRatePerSecond = 5.0

	// DefaultBurst is the token bucket size.
	DefaultBurst = 5

	// DefaultMaxRetries caps retries after a 429 response.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is used when a 429 response carries no Retry-After header.
	DefaultRetryDelay = time.Second

	// IDPlaceholder is replaced with the escaped post id in the endpoint template.
	IDPlaceholder = "{id}"

	maxPayloadBytes = 1 << 20
)

// Config configures the HTTP metadata client.
type Config struct {
	// Endpoint is a URL template containing IDPlaceholder.
	Endpoint      string
	Token         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	RetryDelay    time.Duration
}

// Client implements interfaces.SocialStore over HTTP with proactive
// throttling and an optional response cache.
type Client struct {
	endpoint   string
	token      string
	http       *http.Client
	limiter    *rate.Limiter
	cache      repocache.CacheService
	maxRetries int
	retryDelay time.Duration
	logger     interfaces.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithCache memoises successful responses in service. Entries expire after
// the service TTL; failures are never cached.
func WithCache(cache repocache.CacheService) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the client logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient validates cfg and constructs a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("social: endpoint is required")
	}
	if !strings.Contains(endpoint, IDPlaceholder) {
		return nil, fmt.Errorf("social: endpoint must contain %s", IDPlaceholder)
	}
	if _, err := url.Parse(strings.ReplaceAll(endpoint, IDPlaceholder, "0")); err != nil {
		return nil, fmt.Errorf("social: invalid endpoint: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = DefaultRatePerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	c := &Client{
		endpoint:   endpoint,
		token:      cfg.Token,
		http:       &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		maxRetries: retries,
		retryDelay: retryDelay,
		logger:     logging.NoOp(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetMetadataByID returns the metadata document for id. Cached responses are
// served without touching the limiter, and concurrent lookups of one id share
// a single upstream request.
func (c *Client) GetMetadataByID(ctx context.Context, id string) (json.RawMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("social: id is required")
	}
	logger := logging.WithFields(c.logger.WithContext(ctx), map[string]any{"id": id})

	if c.cache == nil {
		return c.load(ctx, id, logger)
	}

	payload, err := repocache.GetOrFetch[json.RawMessage](ctx, c.cache, cacheKey(id), func(ctx context.Context) (json.RawMessage, error) {
		return c.load(ctx, id, logger)
	})
	if err != nil {
		return nil, err
	}
	return append(json.RawMessage(nil), payload...), nil
}

// load fetches id upstream, retrying rate limited responses.
func (c *Client) load(ctx context.Context, id string, logger interfaces.Logger) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		payload, retryAfter, err := c.fetch(ctx, id)
		if err == nil {
			logger.Debug("social.metadata.fetched", "attempt", attempt+1)
			return payload, nil
		}
		lastErr = err
		if retryAfter < 0 || attempt == c.maxRetries {
			break
		}
		logger.Warn("social.metadata.rate_limited", "attempt", attempt+1, "retry_after", retryAfter.String())
		if err := c.sleep(ctx, retryAfter); err != nil {
			return nil, err
		}
	}

	logger.Error("social.metadata.failed", "error", lastErr)
	return nil, lastErr
}

// fetch performs one request. A non-negative retryAfter marks the error as
// retryable after that delay.
func (c *Client) fetch(ctx context.Context, id string) (json.RawMessage, time.Duration, error) {
	target := strings.ReplaceAll(c.endpoint, IDPlaceholder, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, -1, fmt.Errorf("social: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, -1, fmt.Errorf("social: request %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, -1, notFoundError(id)
	case resp.StatusCode == http.StatusTooManyRequests:
		delay := parseRetryAfter(resp.Header.Get("Retry-After"), c.retryDelay)
		return nil, delay, statusError(id, resp.StatusCode, delay)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, -1, statusError(id, resp.StatusCode, 0)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, -1, fmt.Errorf("social: read %s: %w", id, err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, -1, invalidPayloadError(id, err)
	}
	return json.RawMessage(buf.Bytes()), 0, nil
}

func cacheKey(id string) string {
	return "postembed:social:" + id
}

func parseRetryAfter(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
