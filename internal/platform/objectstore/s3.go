package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Store keeps objects in one S3 bucket.
type S3Store struct {
	Bucket string
	// PublicURL, when set, is where clients fetch objects directly.
	PublicURL string

	client   *s3.S3
	uploader *s3manager.Uploader
}

// NewS3Store builds a store from an AWS session.
func NewS3Store(sess *session.Session, bucket, publicURL string) (*S3Store, error) {
	if sess == nil {
		return nil, fmt.Errorf("aws session is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &S3Store{
		Bucket:    bucket,
		PublicURL: publicURL,
		client:    s3.New(sess),
		uploader:  s3manager.NewUploader(sess),
	}, nil
}

// Put uploads body with the multipart-capable uploader.
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) (Object, error) {
	if err := ValidateKey(key); err != nil {
		return Object{}, err
	}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Body:        body,
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Object{}, fmt.Errorf("upload object %s: %w", key, err)
	}
	return Object{Key: key, ContentType: contentType, Size: size}, nil
}

// Get streams the object body.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	if err := ValidateKey(key); err != nil {
		return nil, Object{}, err
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, Object{}, ErrNotFound
		}
		return nil, Object{}, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, Object{
		Key:         key,
		ContentType: aws.StringValue(out.ContentType),
		Size:        aws.Int64Value(out.ContentLength),
	}, nil
}

// Delete removes the object. S3 treats missing keys as deleted.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL when configured, otherwise the media proxy path.
func (s *S3Store) URL(key string) string {
	if s.PublicURL == "" {
		return publicURL("/media", key)
	}
	return publicURL(s.PublicURL, key)
}

// Redirects reports whether clients should be redirected to URL instead of
// streaming through the service.
func (s *S3Store) Redirects() bool {
	return s.PublicURL != ""
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	default:
		return false
	}
}
