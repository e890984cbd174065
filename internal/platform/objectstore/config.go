package objectstore

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config selects and configures the media backend.
type Config struct {
	Backend   string `env:"STOREFRONT_MEDIA_BACKEND" envDefault:"local"`
	Dir       string `env:"STOREFRONT_MEDIA_DIR" envDefault:"data/media"`
	PublicURL string `env:"STOREFRONT_MEDIA_PUBLIC_URL"`

	S3Bucket         string `env:"STOREFRONT_S3_BUCKET"`
	S3Region         string `env:"STOREFRONT_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint       string `env:"STOREFRONT_S3_ENDPOINT"`
	S3ForcePathStyle bool   `env:"STOREFRONT_S3_FORCE_PATH_STYLE"`
}

// Open builds the configured store. S3 credentials come from the default
// AWS provider chain.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendLocal:
		return NewLocalStore(cfg.Dir, cfg.PublicURL)
	case BackendS3:
		awsCfg := aws.NewConfig().
			WithRegion(cfg.S3Region).
			WithS3ForcePathStyle(cfg.S3ForcePathStyle)
		if cfg.S3Endpoint != "" {
			awsCfg = awsCfg.WithEndpoint(cfg.S3Endpoint)
		}
		sess, err := session.NewSession(awsCfg)
		if err != nil {
			return nil, fmt.Errorf("aws session: %w", err)
		}
		return NewS3Store(sess, cfg.S3Bucket, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}
