// Package objectstore stores uploaded media in S3 or on the local filesystem.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that are empty, absolute or escape the
// store root.
var ErrInvalidKey = errors.New("invalid object key")

// Object describes one stored object.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// Store persists media objects by key.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) (Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
	// URL returns the address clients should use to fetch key.
	URL(key string) string
}

// ValidateKey checks that key is a relative slash-separated path without
// empty, dot or dot-dot segments.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
