package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

var (
	errPasskeyUnavailable = apperrors.New(apperrors.CodeAuthPasskeyUnavailable, "passkeys are not configured")
	errPasskeyExpired     = apperrors.New(apperrors.CodeAuthPasskeyExpired, "passkey session expired")
)

func passkeyInvalid(err error) error {
	return apperrors.Wrap(apperrors.CodeAuthPasskeyInvalid, "passkey response rejected", err)
}

type passkeyProvider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginDiscoverableLogin(opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidatePasskeyLogin(handler webauthn.DiscoverableUserHandler, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (webauthn.User, *webauthn.Credential, error)
}

type passkeyParser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type defaultPasskeyParser struct{}

func (defaultPasskeyParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (defaultPasskeyParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

// PasskeyChallenge is the first half of a WebAuthn ceremony.
type PasskeyChallenge struct {
	SessionID string
	Options   json.RawMessage
}

func (s *Service) passkeysReady() error {
	if s.passkeyInitErr != nil || s.passkeyWebAuthn == nil || s.passkeyParser == nil {
		return errPasskeyUnavailable
	}
	return nil
}

// BeginPasskeyRegistration starts adding a passkey to a signed-in user.
func (s *Service) BeginPasskeyRegistration(ctx context.Context, userID string) (PasskeyChallenge, error) {
	if err := s.passkeysReady(); err != nil {
		return PasskeyChallenge{}, err
	}
	baseUser, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return PasskeyChallenge{}, err
	}
	user, err := s.loadPasskeyUser(ctx, baseUser)
	if err != nil {
		return PasskeyChallenge{}, fmt.Errorf("load passkey user: %w", err)
	}

	options := []webauthn.RegistrationOption{
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	}
	if len(user.credentials) > 0 {
		options = append(options, webauthn.WithExclusions(webauthn.Credentials(user.credentials).CredentialDescriptors()))
	}
	creation, session, err := s.passkeyWebAuthn.BeginRegistration(user, options...)
	if err != nil {
		return PasskeyChallenge{}, fmt.Errorf("begin passkey registration: %w", err)
	}
	return s.storeChallenge(ctx, SessionKindRegistration, baseUser.ID, session, creation)
}

// FinishPasskeyRegistration verifies the authenticator response and stores
// the credential. It returns the encoded credential id.
func (s *Service) FinishPasskeyRegistration(ctx context.Context, userID, sessionID string, response []byte) (string, error) {
	if err := s.passkeysReady(); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", passkeyInvalid(errors.New("credential response is required"))
	}
	session, err := s.loadPasskeySession(ctx, sessionID, SessionKindRegistration)
	if err != nil {
		return "", err
	}
	if session.UserID != userID {
		return "", errPasskeyExpired
	}
	baseUser, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	user, err := s.loadPasskeyUser(ctx, baseUser)
	if err != nil {
		return "", fmt.Errorf("load passkey user: %w", err)
	}

	parsed, err := s.passkeyParser.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		return "", passkeyInvalid(err)
	}
	credential, err := s.passkeyWebAuthn.CreateCredential(user, session.Data, parsed)
	if err != nil {
		return "", passkeyInvalid(err)
	}
	if err := s.storePasskeyCredential(ctx, baseUser.ID, *credential, false); err != nil {
		return "", fmt.Errorf("store passkey credential: %w", err)
	}
	_ = s.store.DeletePasskeySession(ctx, sessionID)
	return encodeCredentialID(credential.ID), nil
}

// BeginPasskeyLogin starts a discoverable passkey sign-in.
func (s *Service) BeginPasskeyLogin(ctx context.Context) (PasskeyChallenge, error) {
	if err := s.passkeysReady(); err != nil {
		return PasskeyChallenge{}, err
	}
	assertion, session, err := s.passkeyWebAuthn.BeginDiscoverableLogin()
	if err != nil {
		return PasskeyChallenge{}, fmt.Errorf("begin passkey login: %w", err)
	}
	return s.storeChallenge(ctx, SessionKindLogin, "", session, assertion)
}

// FinishPasskeyLogin verifies an assertion and signs the user in.
func (s *Service) FinishPasskeyLogin(ctx context.Context, sessionID string, response []byte) (account.User, Session, error) {
	if err := s.passkeysReady(); err != nil {
		return account.User{}, Session{}, err
	}
	if len(response) == 0 {
		return account.User{}, Session{}, passkeyInvalid(errors.New("credential response is required"))
	}
	session, err := s.loadPasskeySession(ctx, sessionID, SessionKindLogin)
	if err != nil {
		return account.User{}, Session{}, err
	}
	parsed, err := s.passkeyParser.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return account.User{}, Session{}, passkeyInvalid(err)
	}
	validatedUser, credential, err := s.passkeyWebAuthn.ValidatePasskeyLogin(s.passkeyUserHandler(ctx), session.Data, parsed)
	if err != nil {
		return account.User{}, Session{}, passkeyInvalid(err)
	}
	record, ok := validatedUser.(*passkeyUser)
	if !ok {
		return account.User{}, Session{}, fmt.Errorf("passkey user type mismatch")
	}
	if err := s.storePasskeyCredential(ctx, record.user.ID, *credential, true); err != nil {
		return account.User{}, Session{}, fmt.Errorf("store passkey credential: %w", err)
	}
	_ = s.store.DeletePasskeySession(ctx, sessionID)

	issued, err := s.issue(record.user)
	if err != nil {
		return account.User{}, Session{}, err
	}
	return record.user, issued, nil
}

type passkeyUser struct {
	user        account.User
	credentials []webauthn.Credential
}

func (u *passkeyUser) WebAuthnID() []byte {
	return []byte(u.user.ID)
}

func (u *passkeyUser) WebAuthnName() string {
	return u.user.Email
}

func (u *passkeyUser) WebAuthnDisplayName() string {
	return u.user.Email
}

func (u *passkeyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

func (s *Service) loadPasskeyUser(ctx context.Context, base account.User) (*passkeyUser, error) {
	records, err := s.store.ListPasskeyCredentials(ctx, base.ID)
	if err != nil {
		return nil, err
	}
	credentials := make([]webauthn.Credential, 0, len(records))
	for _, record := range records {
		var credential webauthn.Credential
		if err := json.Unmarshal([]byte(record.CredentialJSON), &credential); err != nil {
			return nil, fmt.Errorf("decode credential %s: %w", record.CredentialID, err)
		}
		credentials = append(credentials, credential)
	}
	return &passkeyUser{user: base, credentials: credentials}, nil
}

func (s *Service) storePasskeyCredential(ctx context.Context, userID string, credential webauthn.Credential, used bool) error {
	credentialID := encodeCredentialID(credential.ID)
	now := s.clock().UTC()
	stored, err := s.store.GetPasskeyCredential(ctx, credentialID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if errors.Is(err, storage.ErrNotFound) && used {
		return fmt.Errorf("passkey credential not found")
	}
	createdAt := now
	if err == nil {
		createdAt = stored.CreatedAt
	}
	payload, err := json.Marshal(credential)
	if err != nil {
		return err
	}
	var lastUsed *time.Time
	if used {
		value := now
		lastUsed = &value
	}
	return s.store.PutPasskeyCredential(ctx, storage.PasskeyCredential{
		CredentialID:   credentialID,
		UserID:         userID,
		CredentialJSON: string(payload),
		CreatedAt:      createdAt,
		UpdatedAt:      now,
		LastUsedAt:     lastUsed,
	})
}

func (s *Service) storeChallenge(ctx context.Context, kind SessionKind, userID string, session *webauthn.SessionData, options any) (PasskeyChallenge, error) {
	if session == nil {
		return PasskeyChallenge{}, fmt.Errorf("session data is required")
	}
	sessionID, err := s.idGenerator()
	if err != nil {
		return PasskeyChallenge{}, fmt.Errorf("create passkey session: %w", err)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return PasskeyChallenge{}, err
	}
	if err := s.store.PutPasskeySession(ctx, storage.PasskeySession{
		ID:          sessionID,
		Kind:        string(kind),
		UserID:      userID,
		SessionJSON: string(payload),
		ExpiresAt:   s.clock().UTC().Add(s.passkeyConfig.SessionTTL),
	}); err != nil {
		return PasskeyChallenge{}, fmt.Errorf("store passkey session: %w", err)
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return PasskeyChallenge{}, fmt.Errorf("encode passkey options: %w", err)
	}
	return PasskeyChallenge{SessionID: sessionID, Options: encoded}, nil
}

type loadedSession struct {
	Data   webauthn.SessionData
	UserID string
}

// loadPasskeySession rejects unknown, mismatched and expired ceremonies alike.
func (s *Service) loadPasskeySession(ctx context.Context, sessionID string, kind SessionKind) (loadedSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return loadedSession{}, errPasskeyExpired
	}
	stored, err := s.store.GetPasskeySession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return loadedSession{}, errPasskeyExpired
	}
	if err != nil {
		return loadedSession{}, fmt.Errorf("load passkey session: %w", err)
	}
	if stored.Kind != string(kind) {
		return loadedSession{}, errPasskeyExpired
	}
	if !stored.ExpiresAt.After(s.clock().UTC()) {
		_ = s.store.DeletePasskeySession(ctx, sessionID)
		return loadedSession{}, errPasskeyExpired
	}
	var data webauthn.SessionData
	if err := json.Unmarshal([]byte(stored.SessionJSON), &data); err != nil {
		return loadedSession{}, fmt.Errorf("decode passkey session: %w", err)
	}
	return loadedSession{Data: data, UserID: stored.UserID}, nil
}

func (s *Service) passkeyUserHandler(ctx context.Context) webauthn.DiscoverableUserHandler {
	return func(_, userHandle []byte) (webauthn.User, error) {
		userID := string(userHandle)
		if strings.TrimSpace(userID) == "" {
			return nil, fmt.Errorf("user handle is required")
		}
		baseUser, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.loadPasskeyUser(ctx, baseUser)
	}
}

func encodeCredentialID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
