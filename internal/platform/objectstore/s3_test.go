package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = fakeObject{body: data, contentType: r.Header.Get("Content-Type")}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(obj.body)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Store(t *testing.T, publicURL string) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]fakeObject{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	sess, err := session.NewSession(aws.NewConfig().
		WithRegion("us-east-1").
		WithEndpoint(server.URL).
		WithS3ForcePathStyle(true).
		WithCredentials(credentials.NewStaticCredentials("id", "secret", "")))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	store, err := NewS3Store(sess, "media", publicURL)
	if err != nil {
		t.Fatalf("new s3 store: %v", err)
	}
	return store, fake
}

func TestS3StoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, fake := newTestS3Store(t, "")
	ctx := context.Background()

	if _, err := store.Put(ctx, "product/p1/img.jpg", "image/jpeg", strings.NewReader("jpeg"), 4); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := fake.objects["media/product/p1/img.jpg"]; !ok {
		t.Fatalf("objects = %v", fake.objects)
	}

	body, obj, err := store.Get(ctx, "product/p1/img.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(body)
	_ = body.Close()
	if string(data) != "jpeg" || obj.ContentType != "image/jpeg" {
		t.Fatalf("get = %q %+v", data, obj)
	}

	if err := store.Delete(ctx, "product/p1/img.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := store.Get(ctx, "product/p1/img.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete = %v", err)
	}
	if store.Redirects() {
		t.Fatal("store without public URL should not redirect")
	}
}

func TestS3StoreURL(t *testing.T) {
	t.Parallel()

	store, _ := newTestS3Store(t, "https://media.example.com/")
	if got := store.URL("avatar/u1/a.png"); got != "https://media.example.com/avatar/u1/a.png" {
		t.Fatalf("url = %q", got)
	}
	if !store.Redirects() {
		t.Fatal("expected redirects with public URL")
	}
}
