package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
)

// LocalStore keeps objects as files under Root.
type LocalStore struct {
	Root string
	// PublicURL prefixes keys in URL; defaults to "/media".
	PublicURL string
}

// NewLocalStore creates root if needed and returns a store rooted there.
func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("media dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if publicURL == "" {
		publicURL = "/media"
	}
	return &LocalStore{Root: root, PublicURL: publicURL}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(key)), nil
}

// Put writes body to a temporary file and renames it into place.
func (s *LocalStore) Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) (Object, error) {
	target, err := s.path(key)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	written, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return Object{}, fmt.Errorf("write object %s: %w", key, errors.Join(copyErr, closeErr))
	}
	if size >= 0 && written != size {
		_ = os.Remove(tmpName)
		return Object{}, fmt.Errorf("write object %s: wrote %d bytes, want %d", key, written, size)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return Object{}, fmt.Errorf("commit object %s: %w", key, err)
	}
	return Object{Key: key, ContentType: contentType, Size: written}, nil
}

// Get opens the object file. The content type is derived from the key extension.
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Object{}, err
	}
	file, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, ErrNotFound
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("open object %s: %w", key, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, Object{}, fmt.Errorf("stat object %s: %w", key, err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, Object{}, ErrNotFound
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, Object{Key: key, ContentType: contentType, Size: info.Size()}, nil
}

// Delete removes the object file. Missing objects are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// URL returns PublicURL joined with key.
func (s *LocalStore) URL(key string) string {
	return publicURL(s.PublicURL, key)
}
