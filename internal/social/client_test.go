package social

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repocache "github.com/goliatone/go-repository-cache/cache"
)

func newCacheService(t *testing.T) repocache.CacheService {
	t.Helper()
	cfg := repocache.DefaultConfig()
	cfg.TTL = time.Minute
	service, err := repocache.NewCacheService(cfg)
	if err != nil {
		t.Fatalf("NewCacheService() error = %v", err)
	}
	return service
}

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if cfg.Endpoint == "" {
		cfg.Endpoint = server.URL + "/posts/{id}"
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = 1000
	}
	client, err := NewClient(cfg, opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	client.sleep = func(context.Context, time.Duration) error { return nil }
	return client
}

func TestNewClient_ValidatesEndpoint(t *testing.T) {
	cases := []struct {
		name     string
		endpoint string
	}{
		{name: "empty", endpoint: ""},
		{name: "missing placeholder", endpoint: "https://api.example.com/posts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClient(Config{Endpoint: tc.endpoint}); err == nil {
				t.Fatalf("expected error for %q", tc.endpoint)
			}
		})
	}
}

func TestClient_FetchAndCache(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/posts/123456" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{ "id": "123456", "text": "hello" }`))
	}, Config{Token: "secret"}, WithCache(newCacheService(t)))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		payload, err := client.GetMetadataByID(ctx, "123456")
		if err != nil {
			t.Fatalf("GetMetadataByID() #%d error = %v", i, err)
		}
		if string(payload) != `{"id":"123456","text":"hello"}` {
			t.Fatalf("unexpected payload %s", payload)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream request, got %d", hits.Load())
	}
}

func TestClient_CacheSharesConcurrentLookups(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"id":"7"}`))
	}, Config{}, WithCache(newCacheService(t)))

	ctx := context.Background()
	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, err := client.GetMetadataByID(ctx, "7")
			results <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	for i := 0; i < 3; i++ {
		if err := <-results; err != nil {
			t.Fatalf("GetMetadataByID() error = %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream request, got %d", hits.Load())
	}
}

func TestClient_CacheSkipsFailures(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"8"}`))
	}, Config{}, WithCache(newCacheService(t)))

	ctx := context.Background()
	if _, err := client.GetMetadataByID(ctx, "8"); err == nil {
		t.Fatal("expected first lookup to fail")
	}
	payload, err := client.GetMetadataByID(ctx, "8")
	if err != nil {
		t.Fatalf("GetMetadataByID() error = %v", err)
	}
	if string(payload) != `{"id":"8"}` {
		t.Fatalf("unexpected payload %s", payload)
	}

	if _, err := client.GetMetadataByID(ctx, "8"); err != nil {
		t.Fatalf("GetMetadataByID() error = %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected cached success after one failure, got %d requests", hits.Load())
	}
}

func TestClient_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}, Config{})

	_, err := client.GetMetadataByID(context.Background(), "1")
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", err)
	}
}

func TestClient_RetriesAfterRateLimit(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, Config{MaxRetries: 2})

	payload, err := client.GetMetadataByID(context.Background(), "9")
	if err != nil {
		t.Fatalf("GetMetadataByID() error = %v", err)
	}
	if string(payload) != `{"ok":true}` || hits.Load() != 2 {
		t.Fatalf("expected retry to succeed, payload=%s hits=%d", payload, hits.Load())
	}
}

func TestClient_RateLimitExhausted(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, Config{MaxRetries: 1})

	_, err := client.GetMetadataByID(context.Background(), "9")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 StatusError, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryRateLimit) {
		t.Fatalf("expected rate limit category, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits.Load())
	}
}

func TestClient_UpstreamFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
					t.Fatalf("expected 502 StatusError, got %v", err)
				}
				if !goerrors.IsCategory(err, goerrors.CategoryExternal) {
					t.Fatalf("expected external category, got %v", err)
				}
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"broken"`))
			},
			check: func(t *testing.T, err error) {
				var syntaxErr *json.SyntaxError
				if !errors.As(err, &syntaxErr) {
					t.Fatalf("expected json syntax error, got %v", err)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler, Config{})
			_, err := client.GetMetadataByID(context.Background(), "5")
			if err == nil {
				t.Fatalf("expected error")
			}
			tc.check(t, err)
		})
	}
}

func TestClient_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetMetadataByID(ctx, "1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(map[string]json.RawMessage{"1": json.RawMessage(`{"a":1}`)})
	ctx := context.Background()

	payload, err := store.GetMetadataByID(ctx, "1")
	if err != nil || string(payload) != `{"a":1}` {
		t.Fatalf("unexpected payload %s err %v", payload, err)
	}
	if _, err := store.GetMetadataByID(ctx, "2"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	store.Put("2", json.RawMessage(`{}`))
	if _, err := store.GetMetadataByID(ctx, "2"); err != nil {
		t.Fatalf("expected stored payload, got %v", err)
	}
}
