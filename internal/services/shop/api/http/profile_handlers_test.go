package httpapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/shop/media"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func (e *testEnv) upload(target, token string, content []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(media.FormField, "avatar.png")
	if err != nil {
		e.t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		e.t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		e.t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestProfileUpdate(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser("user-1", "ada@example.com")

	got := decode[profileResponse](t, env.do(http.MethodGet, "/api/profile", token, nil))
	if got.User.Email != "ada@example.com" || got.Profile.DisplayName != "" {
		t.Fatalf("initial profile = %+v", got)
	}

	rec := env.do(http.MethodPut, "/api/profile", token, map[string]any{
		"display_name": "  Ada Lovelace ",
		"phone":        "+44 (20) 7946-0000",
		"address":      testAddress,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	updated := decode[profileResponse](t, rec)
	if updated.Profile.DisplayName != "Ada Lovelace" || updated.Profile.Address.Country != "GB" || !updated.Profile.UpdatedAt.Equal(testNow) {
		t.Fatalf("updated = %+v", updated.Profile)
	}

	expectError(t, env.do(http.MethodPut, "/api/profile", token, map[string]any{"phone": "call me"}),
		http.StatusBadRequest, apperrors.CodeProfileInvalidField)
	expectError(t, env.do(http.MethodPut, "/api/profile", token, map[string]any{"display_name": strings.Repeat("a", 65)}),
		http.StatusBadRequest, apperrors.CodeProfileInvalidField)
}

func TestAvatarUploadReplacesPrevious(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser("user-1", "ada@example.com")

	rec := env.upload("/api/profile/avatar", token, pngBytes)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	first := decode[profileResponse](t, rec).Profile.AvatarURL
	if !strings.HasPrefix(first, "/media/avatars/user-1/") || !strings.HasSuffix(first, ".png") {
		t.Fatalf("avatar url = %q", first)
	}
	served := env.do(http.MethodGet, first, "", nil)
	if served.Code != http.StatusOK || !bytes.Equal(served.Body.Bytes(), pngBytes) {
		t.Fatalf("serve avatar status = %d", served.Code)
	}

	second := decode[profileResponse](t, env.upload("/api/profile/avatar", token, pngBytes)).Profile.AvatarURL
	if second == first {
		t.Fatal("expected a new object key")
	}
	expectError(t, env.do(http.MethodGet, first, "", nil), http.StatusNotFound, apperrors.CodeNotFound)

	expectError(t, env.upload("/api/profile/avatar", token, []byte("plain text")),
		http.StatusBadRequest, apperrors.CodeMediaUnsupportedType)
}
