package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords.
var ErrInvalidCredentials = apperrors.New(apperrors.CodeAuthInvalidCredentials, "invalid credentials")

// Store is the persistence the auth service needs.
type Store interface {
	storage.UserStore
	storage.SessionStore
	storage.PasskeyStore
}

// Session is an issued token and its claims.
type Session struct {
	Token  string
	Claims Claims
}

// Service implements registration, sign-in and session verification.
type Service struct {
	store           Store
	tokens          *Tokens
	logger          *zap.Logger
	passkeyConfig   PasskeyConfig
	passkeyWebAuthn passkeyProvider
	passkeyInitErr  error
	passkeyParser   passkeyParser
	passwordCost    int
	clock           func() time.Time
	idGenerator     func() (string, error)

	dummyOnce sync.Once
	dummyHash string
}

// NewService builds the auth service. Passkey setup errors are kept and
// reported when a passkey endpoint is used.
func NewService(store Store, tokens *Tokens, passkeys PasskeyConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	webAuthn, err := webauthn.New(&webauthn.Config{
		RPDisplayName: passkeys.RPDisplayName,
		RPID:          passkeys.RPID,
		RPOrigins:     passkeys.RPOrigins,
	})
	if passkeys.SessionTTL <= 0 {
		passkeys.SessionTTL = 5 * time.Minute
	}
	return &Service{
		store:           store,
		tokens:          tokens,
		logger:          logger,
		passkeyConfig:   passkeys,
		passkeyWebAuthn: webAuthn,
		passkeyInitErr:  err,
		passkeyParser:   defaultPasskeyParser{},
		passwordCost:    bcrypt.DefaultCost,
		clock:           time.Now,
		idGenerator:     id.NewID,
	}
}

// RegisterInput carries a sign-up request.
type RegisterInput struct {
	Email    string
	Password string
	Locale   string
}

// Register creates a customer with an empty profile and signs them in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (account.User, Session, error) {
	u, err := account.CreateUser(account.CreateUserInput{
		Email:  input.Email,
		Locale: input.Locale,
		Role:   account.RoleCustomer,
	}, s.clock, s.idGenerator)
	if err != nil {
		return account.User{}, Session{}, err
	}
	hash, err := HashPassword(input.Password, s.passwordCost)
	if err != nil {
		return account.User{}, Session{}, err
	}
	if err := s.store.CreateUser(ctx, u, hash, account.Profile{UserID: u.ID, UpdatedAt: u.CreatedAt}); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return account.User{}, Session{}, apperrors.New(apperrors.CodeAuthEmailTaken, "email already registered")
		}
		return account.User{}, Session{}, fmt.Errorf("create user: %w", err)
	}
	session, err := s.issue(u)
	if err != nil {
		return account.User{}, Session{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return u, session, nil
}

// Login verifies an email and password.
func (s *Service) Login(ctx context.Context, email, password string) (account.User, Session, error) {
	normalized, err := account.NormalizeEmail(email)
	if err != nil {
		s.burnPasswordCheck(password)
		return account.User{}, Session{}, ErrInvalidCredentials
	}
	u, err := s.store.GetUserByEmail(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		s.burnPasswordCheck(password)
		return account.User{}, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return account.User{}, Session{}, fmt.Errorf("get user: %w", err)
	}
	hash, err := s.store.GetPasswordHash(ctx, u.ID)
	if errors.Is(err, storage.ErrNotFound) {
		s.burnPasswordCheck(password)
		return account.User{}, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return account.User{}, Session{}, fmt.Errorf("get password: %w", err)
	}
	if !CheckPassword(hash, password) {
		return account.User{}, Session{}, ErrInvalidCredentials
	}
	session, err := s.issue(u)
	if err != nil {
		return account.User{}, Session{}, err
	}
	return u, session, nil
}

// burnPasswordCheck spends one bcrypt comparison so unknown accounts take as
// long as wrong passwords.
func (s *Service) burnPasswordCheck(password string) {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), s.passwordCost)
		if err == nil {
			s.dummyHash = string(hash)
		}
	})
	_ = CheckPassword(s.dummyHash, password)
}

// Logout revokes the session until it would have expired.
func (s *Service) Logout(ctx context.Context, claims Claims) error {
	if strings.TrimSpace(claims.TokenID) == "" {
		return nil
	}
	if err := s.store.RevokeSession(ctx, claims.TokenID, claims.UserID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// AuthenticateToken verifies a token and loads its user. The returned user's role
// comes from storage, not from the token.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (account.User, Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return account.User{}, Claims{}, err
	}
	revoked, err := s.store.IsSessionRevoked(ctx, claims.TokenID)
	if err != nil {
		return account.User{}, Claims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return account.User{}, Claims{}, ErrSessionInvalid
	}
	u, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return account.User{}, Claims{}, ErrSessionInvalid
	}
	if err != nil {
		return account.User{}, Claims{}, fmt.Errorf("get user: %w", err)
	}
	claims.Role = u.Role
	return u, claims, nil
}

// IssueSession signs a session for an existing user.
func (s *Service) IssueSession(u account.User) (Session, error) {
	return s.issue(u)
}

// CreateUser creates a user with an explicit role, for operator tooling.
func (s *Service) CreateUser(ctx context.Context, email, password string, role account.Role) (account.User, error) {
	u, err := account.CreateUser(account.CreateUserInput{Email: email, Role: role}, s.clock, s.idGenerator)
	if err != nil {
		return account.User{}, err
	}
	hash, err := HashPassword(password, s.passwordCost)
	if err != nil {
		return account.User{}, err
	}
	if err := s.store.CreateUser(ctx, u, hash, account.Profile{UserID: u.ID, UpdatedAt: u.CreatedAt}); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return account.User{}, apperrors.New(apperrors.CodeAuthEmailTaken, "email already registered")
		}
		return account.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Service) issue(u account.User) (Session, error) {
	token, claims, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Claims: claims}, nil
}

// StartCleanup periodically removes expired passkey ceremonies and
// revocations until ctx is done.
func (s *Service) StartCleanup(ctx context.Context, interval time.Duration) {
	if s == nil || s.store == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup(ctx)
			}
		}
	}()
}

// Cleanup runs one expiry sweep.
func (s *Service) Cleanup(ctx context.Context) {
	now := s.clock().UTC()
	sessions, err := s.store.DeleteExpiredPasskeySessions(ctx, now)
	if err != nil {
		s.logger.Warn("sweep passkey sessions", zap.Error(err))
	}
	revocations, err := s.store.DeleteExpiredRevocations(ctx, now)
	if err != nil {
		s.logger.Warn("sweep revocations", zap.Error(err))
	}
	if sessions > 0 || revocations > 0 {
		s.logger.Debug("expired auth records removed",
			zap.Int64("passkey_sessions", sessions),
			zap.Int64("revocations", revocations),
		)
	}
}
