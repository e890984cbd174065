package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/services/shop/account"
)

// Issuer is the iss claim of every session token.
const Issuer = "storefront"

// ErrSessionInvalid is returned for any token that fails verification.
var ErrSessionInvalid = apperrors.New(apperrors.CodeAuthSessionInvalid, "session is invalid")

// Claims is the verified content of a session token.
type Claims struct {
	UserID    string
	Role      account.Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	key         []byte
	ttl         time.Duration
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewTokens builds a token signer.
func NewTokens(key []byte, ttl time.Duration) (*Tokens, error) {
	if len(key) < minSessionKeyBytes {
		return nil, fmt.Errorf("session key must be at least %d bytes", minSessionKeyBytes)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Tokens{key: key, ttl: ttl, clock: time.Now, idGenerator: id.NewID}, nil
}

// TTL returns the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a new session token for u.
func (t *Tokens) Issue(u account.User) (string, Claims, error) {
	tokenID, err := t.idGenerator()
	if err != nil {
		return "", Claims{}, fmt.Errorf("generate token id: %w", err)
	}
	issuedAt := t.clock().UTC().Truncate(time.Second)
	claims := Claims{
		UserID:    u.ID,
		Role:      u.Role,
		TokenID:   tokenID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(t.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   claims.UserID,
			ID:        claims.TokenID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		Role: string(claims.Role),
	})
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies a token and returns its claims.
func (t *Tokens) Parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrSessionInvalid
	}
	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock),
	)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeAuthSessionInvalid, "session is invalid", err)
	}
	if parsed.Subject == "" || parsed.ID == "" {
		return Claims{}, ErrSessionInvalid
	}
	claims := Claims{
		UserID:    parsed.Subject,
		Role:      account.Role(parsed.Role),
		TokenID:   parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}
