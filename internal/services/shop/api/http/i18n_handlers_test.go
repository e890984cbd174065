package httpapi

import (
	"net/http"
	"testing"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/i18n"
)

func TestLanguages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/i18n/languages?lang=pt-BR", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[languagesResponse](t, rec)
	if body.Active != "pt-BR" || len(body.Languages) != 2 {
		t.Fatalf("languages = %+v", body)
	}
	var persisted bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == i18n.LangCookieName && cookie.Value == "pt-BR" {
			persisted = true
		}
	}
	if !persisted {
		t.Fatal("expected language cookie")
	}

	body = decode[languagesResponse](t, env.do(http.MethodGet, "/api/i18n/languages", "", nil))
	if body.Active != "en-US" {
		t.Fatalf("default active = %q", body.Active)
	}
}

func TestCatalogNamespace(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path       string
		wantLocale string
	}{
		{path: "/api/i18n/pt-BR/errors", wantLocale: "pt-BR"},
		{path: "/api/i18n/pt/errors", wantLocale: "pt-BR"},
		{path: "/api/i18n/xx/errors", wantLocale: "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.path, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			body := decode[catalogResponse](t, rec)
			if body.Locale != tt.wantLocale || body.Messages["CART_EMPTY"] == "" {
				t.Fatalf("catalog = %s %d messages", body.Locale, len(body.Messages))
			}
		})
	}

	expectError(t, env.do(http.MethodGet, "/api/i18n/en-US/secrets", "", nil), http.StatusNotFound, apperrors.CodeNotFound)
}
