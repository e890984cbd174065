package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"github.com/louisbranch/storefront/internal/services/shop/storage/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := NewTokens(testKey, time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	svc := NewService(store, tokens, PasskeyConfig{
		RPDisplayName: "Storefront",
		RPID:          "localhost",
		RPOrigins:     []string{"http://localhost:8080"},
		SessionTTL:    5 * time.Minute,
	}, zap.NewNop())
	svc.passwordCost = bcrypt.MinCost
	return svc, store
}

func TestRegisterCreatesCustomer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	u, session, err := svc.Register(ctx, RegisterInput{Email: " Ada@Example.com ", Password: "correct horse", Locale: "pt-br"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ada@example.com" || u.Role != account.RoleCustomer || u.Locale != "pt-BR" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if session.Token == "" || session.Claims.UserID != u.ID {
		t.Fatalf("unexpected session: %+v", session)
	}
	if _, err := store.GetProfile(ctx, u.ID); err != nil {
		t.Fatalf("expected profile: %v", err)
	}

	_, _, err = svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "another one"})
	if code := apperrors.CodeOf(err); code != apperrors.CodeAuthEmailTaken {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeAuthEmailTaken)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "correct horse"})
	if code := apperrors.CodeOf(err); code != apperrors.CodeAuthEmailInvalid {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeAuthEmailInvalid)
	}
	_, _, err = svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "short"})
	if code := apperrors.CodeOf(err); code != apperrors.CodeAuthPasswordTooShort {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeAuthPasswordTooShort)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, unknown := svc.Login(ctx, "nobody@example.com", "correct horse")
	_, _, wrong := svc.Login(ctx, "ada@example.com", "wrong horse")
	_, _, malformed := svc.Login(ctx, "bogus", "correct horse")
	for name, err := range map[string]error{"unknown": unknown, "wrong": wrong, "malformed": malformed} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected invalid credentials, got %v", name, err)
		}
		if err.Error() != ErrInvalidCredentials.Error() {
			t.Fatalf("%s: message %q differs", name, err.Error())
		}
	}

	u, session, err := svc.Login(ctx, "ADA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Claims.UserID != u.ID {
		t.Fatalf("claims user = %q, want %q", session.Claims.UserID, u.ID)
	}
}

func TestAuthenticateTokenReadsCurrentRole(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	u, session, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := store.UpdateUserRole(ctx, u.ID, account.RoleAdmin, time.Now()); err != nil {
		t.Fatalf("promote: %v", err)
	}

	got, claims, err := svc.AuthenticateToken(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.Role != account.RoleAdmin || claims.Role != account.RoleAdmin {
		t.Fatalf("role = %s / %s, want admin", got.Role, claims.Role)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, session, err := svc.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Logout(ctx, session.Claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, _, err = svc.AuthenticateToken(ctx, session.Token)
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected invalid session, got %v", err)
	}
}

func TestCreateUserWithRole(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.CreateUser(context.Background(), "root@example.com", "correct horse", account.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !u.IsAdmin() {
		t.Fatalf("expected admin, got %s", u.Role)
	}
}

func TestCleanupRemovesExpiredRecords(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	if err := store.RevokeSession(ctx, "jti-old", "user-1", now.Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := store.PutPasskeySession(ctx, storage.PasskeySession{ID: "s-old", Kind: "login", SessionJSON: "{}", ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("put session: %v", err)
	}

	svc.Cleanup(ctx)

	revoked, err := store.IsSessionRevoked(ctx, "jti-old")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("expected expired revocation removed")
	}
	if _, err := store.GetPasskeySession(ctx, "s-old"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}
