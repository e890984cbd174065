package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/shop/auth"
)

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie
		}
	}
	return nil
}

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "Ada@Example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d (%s)", rec.Code, rec.Body.String())
	}
	registered := decode[sessionResponse](t, rec)
	if registered.User == nil || registered.User.Email != "ada@example.com" || registered.User.Role != "customer" {
		t.Fatalf("registered = %+v", registered)
	}
	if registered.User.Locale != "en-US" || registered.Token == "" || registered.ExpiresAt == nil {
		t.Fatalf("registered = %+v", registered)
	}
	if cookie := sessionCookie(rec); cookie == nil || !cookie.HttpOnly || cookie.Value != registered.Token {
		t.Fatalf("session cookie = %+v", cookie)
	}

	expectError(t, env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": "another one",
	}), http.StatusConflict, apperrors.CodeAuthEmailTaken)

	expectError(t, env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong password",
	}), http.StatusUnauthorized, apperrors.CodeAuthInvalidCredentials)
	expectError(t, env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "wrong password",
	}), http.StatusUnauthorized, apperrors.CodeAuthInvalidCredentials)

	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d (%s)", rec.Code, rec.Body.String())
	}
	token := decode[sessionResponse](t, rec).Token

	current := decode[sessionResponse](t, env.do(http.MethodGet, "/api/auth/session", token, nil))
	if current.User == nil || current.User.ID != registered.User.ID || current.Token != "" {
		t.Fatalf("session = %+v", current)
	}

	rec = env.do(http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if cookie := sessionCookie(rec); cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}

	anonymous := decode[sessionResponse](t, env.do(http.MethodGet, "/api/auth/session", token, nil))
	if anonymous.User != nil {
		t.Fatalf("revoked token still signed in: %+v", anonymous)
	}
}

func TestRegisterUsesRequestLocale(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"bia@example.com","password":"senha secreta"}`))
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := decode[sessionResponse](t, rec).User.Locale; got != "pt-BR" {
		t.Fatalf("locale = %q", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body string
		code apperrors.Code
	}{
		{name: "short password", body: `{"email":"a@example.com","password":"short"}`, code: apperrors.CodeAuthPasswordTooShort},
		{name: "bad email", body: `{"email":"not an email","password":"long enough"}`, code: apperrors.CodeAuthEmailInvalid},
		{name: "unknown field", body: `{"email":"a@example.com","password":"long enough","admin":true}`, code: apperrors.CodeInvalidBody},
		{name: "not json", body: `email=a`, code: apperrors.CodeInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)
			expectError(t, rec, http.StatusBadRequest, tt.code)
		})
	}
}

func TestCookieSessionRequiresSameOrigin(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser("user-1", "ada@example.com")

	post := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/api/cart", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec
	}

	expectError(t, post("https://evil.example"), http.StatusForbidden, apperrors.CodeSameOrigin)
	expectError(t, post(""), http.StatusForbidden, apperrors.CodeSameOrigin)
	if rec := post("http://example.com"); rec.Code != http.StatusOK {
		t.Fatalf("same-origin status = %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestPasskeyLoginBeginReturnsChallenge(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/passkeys/login/begin", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	challenge := decode[passkeyChallengeResponse](t, rec)
	if challenge.SessionID == "" || len(challenge.Options) == 0 {
		t.Fatalf("challenge = %+v", challenge)
	}

	expectError(t, env.do(http.MethodPost, "/api/auth/passkeys/login/finish", "", map[string]any{
		"session_id": "missing",
		"credential": map[string]string{},
	}), http.StatusUnauthorized, apperrors.CodeAuthPasskeyExpired)
}
