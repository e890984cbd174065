package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/storefront/internal/platform/objectstore"
	"github.com/louisbranch/storefront/internal/services/shop/auth"
	"go.uber.org/zap"
)

func testRuntimeConfig(t *testing.T) RuntimeConfig {
	t.Helper()
	dir := t.TempDir()
	return RuntimeConfig{
		DBPath: filepath.Join(dir, "db", "storefront.db"),
		Auth: auth.Config{
			SessionSecret: strings.Repeat("s", 32),
			SessionTTL:    time.Hour,
			Passkey: auth.PasskeyConfig{
				RPDisplayName: "Storefront",
				RPID:          "localhost",
				RPOrigins:     []string{"http://localhost:8080"},
			},
		},
		Media: objectstore.Config{Backend: objectstore.BackendLocal, Dir: filepath.Join(dir, "media")},
	}
}

func TestOpenRuntimeRequiresSessionSecret(t *testing.T) {
	cfg := testRuntimeConfig(t)
	cfg.Auth.SessionSecret = ""
	if _, err := OpenRuntime(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without session secret")
	}
}

func TestOpenRuntimeRejectsUnknownMediaBackend(t *testing.T) {
	cfg := testRuntimeConfig(t)
	cfg.Media.Backend = "ftp"
	if _, err := OpenRuntime(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestServerServesUntilCanceled(t *testing.T) {
	server, err := NewServer(context.Background(), Config{Runtime: testRuntimeConfig(t)}, zap.NewNop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer server.Close()

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/up", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("up status = %d", rec.Code)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/api/categories")
	if err != nil {
		t.Fatalf("get categories: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("categories status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestLoadRuntimeConfigFromEnv(t *testing.T) {
	t.Setenv("STOREFRONT_DB_PATH", "/tmp/store.db")
	t.Setenv("STOREFRONT_WEBAUTHN_RP_ORIGINS", " https://shop.example , ")
	t.Setenv("STOREFRONT_MEDIA_BACKEND", "s3")

	cfg, err := LoadRuntimeConfigFromEnv()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBPath != "/tmp/store.db" || cfg.CacheTTL != 30*time.Second {
		t.Fatalf("storage config = %+v", cfg)
	}
	if len(cfg.Auth.Passkey.RPOrigins) != 1 || cfg.Auth.Passkey.RPOrigins[0] != "https://shop.example" {
		t.Fatalf("origins = %v", cfg.Auth.Passkey.RPOrigins)
	}
	if cfg.Media.Backend != objectstore.BackendS3 || cfg.Media.S3Region != "us-east-1" {
		t.Fatalf("media config = %+v", cfg.Media)
	}
}
