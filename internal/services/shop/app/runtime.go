package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/storefront/internal/platform/config"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/objectstore"
	"github.com/louisbranch/storefront/internal/services/shop/auth"
	"github.com/louisbranch/storefront/internal/services/shop/storage/cache"
	"github.com/louisbranch/storefront/internal/services/shop/storage/sqlite"
	"go.uber.org/zap"
)

// RuntimeConfig configures the shared storefront runtime.
type RuntimeConfig struct {
	DBPath   string        `env:"STOREFRONT_DB_PATH"   envDefault:"data/storefront.db"`
	CacheTTL time.Duration `env:"STOREFRONT_CACHE_TTL" envDefault:"30s"`
	Auth     auth.Config
	Media    objectstore.Config
}

// LoadRuntimeConfigFromEnv reads storage, session and media settings.
func LoadRuntimeConfigFromEnv() (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return RuntimeConfig{}, err
	}
	authCfg, err := auth.LoadConfigFromEnv()
	if err != nil {
		return RuntimeConfig{}, err
	}
	cfg.Auth = authCfg
	return cfg, nil
}

// Runtime holds the collaborators shared by the HTTP services.
type Runtime struct {
	Store  *cache.Store
	Auth   *auth.Service
	Media  objectstore.Store
	Policy httpx.SchemePolicy
}

// OpenRuntime opens the database, applies migrations and builds the session
// and media services.
func OpenRuntime(ctx context.Context, cfg RuntimeConfig, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := cfg.Auth.SessionKey()
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokens(key, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}
	mediaStore, err := objectstore.Open(cfg.Media)
	if err != nil {
		return nil, fmt.Errorf("open media store: %w", err)
	}

	db, err := sqlite.Open(ctx, cfg.DBPath, logger.Named("storage"))
	if err != nil {
		return nil, err
	}
	store := cache.New(db, cfg.CacheTTL)
	authService := auth.NewService(store, tokens, cfg.Auth.Passkey, logger.Named("auth"))

	return &Runtime{
		Store:  store,
		Auth:   authService,
		Media:  mediaStore,
		Policy: httpx.SchemePolicy{TrustForwardedProto: cfg.Auth.TrustProxy},
	}, nil
}

// Close releases the database.
func (r *Runtime) Close() error {
	if r == nil || r.Store == nil {
		return errors.New("runtime is not open")
	}
	return r.Store.Close()
}
