package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/storefront/internal/platform/objectstore"
	shopapp "github.com/louisbranch/storefront/internal/services/shop/app"
	"github.com/louisbranch/storefront/internal/services/shop/auth"
)

func TestServerRoutesAdminAPI(t *testing.T) {
	dir := t.TempDir()
	server, err := NewServer(context.Background(), Config{
		Runtime: shopapp.RuntimeConfig{
			DBPath: filepath.Join(dir, "storefront.db"),
			Auth:   auth.Config{SessionSecret: strings.Repeat("s", 32), SessionTTL: time.Hour},
			Media:  objectstore.Config{Backend: objectstore.BackendLocal, Dir: filepath.Join(dir, "media")},
		},
	}, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer server.Close()

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/dashboard", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous dashboard status = %d, want 401", rec.Code)
	}
}

func TestNewServerFailsWithoutSecret(t *testing.T) {
	_, err := NewServer(context.Background(), Config{
		Runtime: shopapp.RuntimeConfig{DBPath: filepath.Join(t.TempDir(), "storefront.db")},
	}, nil)
	if err == nil {
		t.Fatal("expected error without session secret")
	}
}
