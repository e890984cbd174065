// Package media validates image uploads and stores them in an object store.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/platform/objectstore"
	"go.uber.org/zap"
)

// FormField is the multipart field carrying the file.
const FormField = "file"

// Kind groups uploads by purpose; it is the first key segment.
type Kind string

const (
	KindAvatar  Kind = "avatars"
	KindProduct Kind = "products"
)

const (
	MaxAvatarBytes       int64 = 2 << 20
	MaxProductImageBytes int64 = 5 << 20
	multipartOverhead    int64 = 64 << 10
	sniffBytes                 = 512
)

// Limit returns the size limit for kind.
func (k Kind) Limit() int64 {
	if k == KindProduct {
		return MaxProductImageBytes
	}
	return MaxAvatarBytes
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	errMissingFile     = apperrors.New(apperrors.CodeMediaMissingFile, "file is required")
	errUnsupportedType = apperrors.New(apperrors.CodeMediaUnsupportedType, "unsupported media type")
)

func tooLarge(limit int64) error {
	return apperrors.WithMetadata(apperrors.CodeMediaTooLarge, "file too large", map[string]string{
		"Limit": fmt.Sprintf("%d MiB", limit>>20),
	})
}

// Upload is a validated image ready to store.
type Upload struct {
	File        multipart.File
	Size        int64
	ContentType string
	Extension   string
}

// Close releases the uploaded file.
func (u Upload) Close() error {
	if u.File == nil {
		return nil
	}
	return u.File.Close()
}

// ReadUpload parses the multipart request and validates the image in the
// file field against kind's size limit and the allowed types.
func ReadUpload(w http.ResponseWriter, r *http.Request, kind Kind) (Upload, error) {
	limit := kind.Limit()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return Upload{}, tooLarge(limit)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return Upload{}, errMissingFile
		}
		return Upload{}, apperrors.Wrap(apperrors.CodeInvalidBody, "parse multipart form", err)
	}
	file, header, err := r.FormFile(FormField)
	if err != nil {
		return Upload{}, errMissingFile
	}
	upload, err := Validate(file, header.Size, kind)
	if err != nil {
		_ = file.Close()
		return Upload{}, err
	}
	return upload, nil
}

// Validate sniffs file and checks it against kind's limits.
func Validate(file multipart.File, size int64, kind Kind) (Upload, error) {
	if size <= 0 {
		return Upload{}, errMissingFile
	}
	if size > kind.Limit() {
		return Upload{}, tooLarge(kind.Limit())
	}
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := extensions[contentType]
	if !ok {
		return Upload{}, errUnsupportedType
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return Upload{}, fmt.Errorf("rewind upload: %w", err)
	}
	return Upload{File: file, Size: size, ContentType: contentType, Extension: ext}, nil
}

// Uploader stores validated uploads under generated keys.
type Uploader struct {
	store       objectstore.Store
	logger      *zap.Logger
	idGenerator func() (string, error)
}

// NewUploader builds an uploader over store.
func NewUploader(store objectstore.Store, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{store: store, logger: logger, idGenerator: id.NewID}
}

// Key builds "<kind>/<owner>/<object-id><ext>".
func Key(kind Kind, owner, objectID, ext string) string {
	return string(kind) + "/" + owner + "/" + objectID + ext
}

// Put stores upload for owner and returns the stored object.
func (u *Uploader) Put(ctx context.Context, kind Kind, owner string, upload Upload) (objectstore.Object, error) {
	if strings.TrimSpace(owner) == "" {
		return objectstore.Object{}, fmt.Errorf("owner is required")
	}
	objectID, err := u.idGenerator()
	if err != nil {
		return objectstore.Object{}, fmt.Errorf("generate object id: %w", err)
	}
	key := Key(kind, owner, objectID, upload.Extension)
	object, err := u.store.Put(ctx, key, upload.ContentType, upload.File, upload.Size)
	if err != nil {
		return objectstore.Object{}, fmt.Errorf("store upload: %w", err)
	}
	return object, nil
}

// Discard deletes a replaced object. Failures are logged, not returned.
func (u *Uploader) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := u.store.Delete(ctx, key); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		u.logger.Warn("delete replaced media", zap.String("key", key), zap.Error(err))
	}
}

// URL returns the client address for key, or "" for an empty key.
func (u *Uploader) URL(key string) string {
	if key == "" {
		return ""
	}
	return u.store.URL(key)
}
