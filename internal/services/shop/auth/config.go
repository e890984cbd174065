package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/platform/config"
)

// developmentSessionKey signs sessions only when STOREFRONT_ENV=development.
const developmentSessionKey = "storefront-development-session-key-not-for-production"

const minSessionKeyBytes = 32

// SessionKind describes the WebAuthn ceremony purpose.
type SessionKind string

const (
	SessionKindRegistration SessionKind = "registration"
	SessionKindLogin        SessionKind = "login"
)

// PasskeyConfig controls WebAuthn relying party settings.
type PasskeyConfig struct {
	RPDisplayName string        `env:"STOREFRONT_WEBAUTHN_RP_DISPLAY_NAME" envDefault:"Storefront"`
	RPID          string        `env:"STOREFRONT_WEBAUTHN_RP_ID"           envDefault:"localhost"`
	RPOrigins     []string      `env:"STOREFRONT_WEBAUTHN_RP_ORIGINS"      envSeparator:","`
	SessionTTL    time.Duration `env:"STOREFRONT_WEBAUTHN_SESSION_TTL"     envDefault:"5m"`
}

// Config holds session and passkey settings.
type Config struct {
	Environment   string        `env:"STOREFRONT_ENV"             envDefault:"production"`
	SessionSecret string        `env:"STOREFRONT_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"STOREFRONT_SESSION_TTL"     envDefault:"168h"`
	TrustProxy    bool          `env:"STOREFRONT_TRUST_FORWARDED_PROTO"`
	Passkey       PasskeyConfig
}

// LoadConfigFromEnv parses auth configuration and fills passkey defaults.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Passkey.RPOrigins = config.TrimCSV(cfg.Passkey.RPOrigins)
	if len(cfg.Passkey.RPOrigins) == 0 {
		cfg.Passkey.RPOrigins = []string{"http://localhost:8080"}
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("STOREFRONT_SESSION_TTL must be positive")
	}
	return cfg, nil
}

// SessionKey returns the HMAC key for session tokens. A missing secret is
// only accepted in development.
func (c Config) SessionKey() ([]byte, error) {
	secret := strings.TrimSpace(c.SessionSecret)
	if secret == "" {
		if strings.EqualFold(strings.TrimSpace(c.Environment), "development") {
			return []byte(developmentSessionKey), nil
		}
		return nil, fmt.Errorf("STOREFRONT_SESSION_SECRET is required")
	}
	if len(secret) < minSessionKeyBytes {
		return nil, fmt.Errorf("STOREFRONT_SESSION_SECRET must be at least %d bytes", minSessionKeyBytes)
	}
	return []byte(secret), nil
}
