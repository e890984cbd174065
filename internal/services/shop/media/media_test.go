package media

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/objectstore"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, "upload.bin")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestReadUpload(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode apperrors.Code
		wantType string
	}{
		{
			name:     "png",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, FormField, pngHeader) },
			wantType: "image/png",
		},
		{
			name: "wrong field",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "avatar", pngHeader)
			},
			wantCode: apperrors.CodeMediaMissingFile,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
			},
			wantCode: apperrors.CodeMediaMissingFile,
		},
		{
			name: "text file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, FormField, []byte("hello, world"))
			},
			wantCode: apperrors.CodeMediaUnsupportedType,
		},
		{
			name: "over limit",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, FormField, append(pngHeader, make([]byte, MaxAvatarBytes)...))
			},
			wantCode: apperrors.CodeMediaTooLarge,
		},
		{
			name: "far over limit",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, FormField, append(pngHeader, make([]byte, 2*MaxAvatarBytes)...))
			},
			wantCode: apperrors.CodeMediaTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload, err := ReadUpload(httptest.NewRecorder(), tt.req(t), KindAvatar)
			if tt.wantCode != "" {
				if code := apperrors.CodeOf(err); code != tt.wantCode {
					t.Fatalf("code = %s, want %s (err %v)", code, tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("read upload: %v", err)
			}
			defer upload.Close()
			if upload.ContentType != tt.wantType || upload.Extension != ".png" {
				t.Fatalf("unexpected upload: %+v", upload)
			}
			data, err := io.ReadAll(upload.File)
			if err != nil {
				t.Fatalf("read file: %v", err)
			}
			if !bytes.Equal(data, pngHeader) {
				t.Fatal("expected file rewound to start")
			}
		})
	}
}

func TestKindLimits(t *testing.T) {
	if KindAvatar.Limit() != 2<<20 {
		t.Fatalf("avatar limit = %d", KindAvatar.Limit())
	}
	if KindProduct.Limit() != 5<<20 {
		t.Fatalf("product limit = %d", KindProduct.Limit())
	}
	domainErr, ok := apperrors.As(tooLarge(KindProduct.Limit()))
	if !ok || domainErr.Metadata["Limit"] != "5 MiB" {
		t.Fatalf("unexpected error: %+v", domainErr)
	}
}

func TestUploaderPutAndServe(t *testing.T) {
	store, err := objectstore.NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	uploader := NewUploader(store, zap.NewNop())
	uploader.idGenerator = func() (string, error) { return "obj-1", nil }

	upload, err := ReadUpload(httptest.NewRecorder(), multipartRequest(t, FormField, pngHeader), KindAvatar)
	if err != nil {
		t.Fatalf("read upload: %v", err)
	}
	defer upload.Close()

	object, err := uploader.Put(context.Background(), KindAvatar, "user-1", upload)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if object.Key != "avatars/user-1/obj-1.png" {
		t.Fatalf("key = %q", object.Key)
	}
	if got := uploader.URL(object.Key); got != "/media/avatars/user-1/obj-1.png" {
		t.Fatalf("url = %q", got)
	}
	if got := uploader.URL(""); got != "" {
		t.Fatalf("url for empty key = %q", got)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /media/{key...}", Handler(store, zap.NewNop()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/avatars/user-1/obj-1.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("content type = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngHeader) {
		t.Fatal("unexpected body")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/avatars/user-1/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}

	uploader.Discard(context.Background(), object.Key)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/avatars/user-1/obj-1.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("discarded status = %d", rec.Code)
	}
}
