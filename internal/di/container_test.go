package di

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/internal/appblock"
	"github.com/goliatone/go-storefront/internal/logging/console"
	"github.com/goliatone/go-storefront/internal/runtimeconfig"
	"github.com/goliatone/go-storefront/pkg/testsupport"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type backend struct {
	settingsHits atomic.Int32
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/storefront/acme/settings":
		b.settingsHits.Add(1)
		_, _ = io.WriteString(w, `{"storeName":"Acme","storeSlug":"acme"}`)
	case "/api/v1/storefront/acme/layout":
		_, _ = io.WriteString(w, `{"content":[{"type":"HeroBanner","props":{"id":"hero","title":"Welcome home"}}],"root":{"props":{"title":""}}}`)
	default:
		http.NotFound(w, r)
	}
}

func newDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := testsupport.NewBunSQLiteDB(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig(t *testing.T, backendURL string) runtimeconfig.Config {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.API.BaseURL = backendURL
	cfg.HTTP.PublicBaseURL = "http://shop.test"
	return cfg
}

func newTestContainer(t *testing.T, cfg runtimeconfig.Config, opts ...Option) (*Container, *syncBuffer) {
	t.Helper()
	logs := &syncBuffer{}
	provider := console.NewProvider(console.Options{Writer: logs, MinLevel: console.ParseLevel("debug")})
	opts = append([]Option{WithLoggerProvider(provider), WithBunDB(newDB(t))}, opts...)
	container, err := NewContainer(cfg, opts...)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close(context.Background()) })
	return container, logs
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := runtimeconfig.DefaultConfig()
	cfg.Cart.MaxQuantity = 0
	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrCartMaxQuantityInvalid) {
		t.Fatalf("expected max quantity error, got %v", err)
	}
}

func TestContainerServesCachedStorefront(t *testing.T) {
	t.Parallel()

	upstream := &backend{}
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	container, logs := newTestContainer(t, testConfig(t, server.URL))
	for range 2 {
		rec := httptest.NewRecorder()
		container.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/store/acme", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "Welcome home") {
			t.Fatalf("expected rendered layout")
		}
	}
	if got := upstream.settingsHits.Load(); got != 1 {
		t.Fatalf("expected settings to be cached, got %d fetches", got)
	}
	if container.cacheProvider() != "memory" {
		t.Fatalf("expected memory cache, got %s", container.cacheProvider())
	}

	out := logs.String()
	if !strings.Contains(out, "storefront.container_ready") || !strings.Contains(out, "module=storefront") {
		t.Fatalf("expected ready log with module field, got %s", out)
	}
}

func TestContainerWithoutCacheHitsBackend(t *testing.T) {
	t.Parallel()

	upstream := &backend{}
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := testConfig(t, server.URL)
	cfg.Cache.Enabled = false
	container, _ := newTestContainer(t, cfg)
	for range 2 {
		rec := httptest.NewRecorder()
		container.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/store/acme", nil))
	}
	if got := upstream.settingsHits.Load(); got != 2 {
		t.Fatalf("expected every request to reach the backend, got %d", got)
	}
	if container.cacheProvider() != "disabled" {
		t.Fatalf("expected disabled cache, got %s", container.cacheProvider())
	}
}

func TestContainerRedisCache(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := testConfig(t, "http://backend.test")
	cfg.Cache.Provider = "redis"
	cfg.Cache.RedisAddr = mr.Addr()

	container, _ := newTestContainer(t, cfg)
	if container.cacheProvider() != "redis" {
		t.Fatalf("expected redis cache, got %s", container.cacheProvider())
	}
}

func TestContainerAllowedOrigins(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://backend.test")
	cfg.Editor.AllowedOrigins = []string{"http://localhost:3001/", "HTTP://LOCALHOST:3001", "http://shop.test"}

	container, _ := newTestContainer(t, cfg)
	want := []string{"http://localhost:3001", "http://shop.test"}
	if got := container.allowedOrigins(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestContainerScriptSourceIsBounded(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://backend.test")
	cfg.Apps.AllowedHosts = []string{"apps.example.com"}
	cfg.Apps.ScriptTimeout = 3 * time.Second

	container, _ := newTestContainer(t, cfg)
	scripts := container.scriptSource()
	if scripts.Client == nil || scripts.Client.Timeout != 3*time.Second {
		t.Fatalf("expected a client bounded by the script timeout, got %+v", scripts.Client)
	}
	if scripts.Timeout != 3*time.Second || !slices.Equal(scripts.AllowedHosts, []string{"apps.example.com"}) {
		t.Fatalf("unexpected script source %+v", scripts)
	}
	if _, err := scripts.Fetch(context.Background(), "http://169.254.169.254/latest/meta-data"); !errors.Is(err, appblock.ErrScriptNotAllowed) {
		t.Fatalf("expected metadata url to be rejected, got %v", err)
	}
}

func TestContainerCartRoundTrip(t *testing.T) {
	t.Parallel()

	container, _ := newTestContainer(t, testConfig(t, "http://backend.test"))
	ctx := context.Background()
	if _, err := container.Carts().Items(ctx, "token"); err != nil {
		t.Fatalf("items on empty cart: %v", err)
	}
	if container.Editor() == nil || container.Previews() == nil || container.Hub() == nil {
		t.Fatalf("expected the editor stack to be wired")
	}
}
