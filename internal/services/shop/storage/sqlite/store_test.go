package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.db")
	store, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func seedUser(t *testing.T, store *Store, id, email string) account.User {
	t.Helper()
	u := account.User{
		ID:        id,
		Email:     email,
		Role:      account.RoleCustomer,
		Locale:    "en-US",
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
	if err := store.CreateUser(context.Background(), u, "hash-"+id, account.Profile{}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " ", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storefront.db")
	first, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if len(first.AppliedMigrations()) == 0 {
		t.Fatal("expected migrations on first open")
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer second.Close()
	if got := second.AppliedMigrations(); len(got) != 0 {
		t.Fatalf("expected no migrations on reopen, got %v", got)
	}
}

func TestStoreNilSafe(t *testing.T) {
	var store *Store
	if store.DB() != nil {
		t.Fatal("expected nil DB for nil store")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if _, err := store.GetUser(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error from nil store")
	}
}

func TestCanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.GetUser(ctx, "user-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestCreateUserRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	want := seedUser(t, store, "user-1", "ada@example.com")

	got, err := store.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}

	byEmail, err := store.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Fatalf("by email id = %q", byEmail.ID)
	}

	hash, err := store.GetPasswordHash(ctx, "user-1")
	if err != nil {
		t.Fatalf("get password hash: %v", err)
	}
	if hash != "hash-user-1" {
		t.Fatalf("hash = %q", hash)
	}

	profile, err := store.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.UserID != "user-1" || !profile.UpdatedAt.Equal(testTime) {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := openTempStore(t)
	seedUser(t, store, "user-1", "ada@example.com")

	dup := account.User{ID: "user-2", Email: "ada@example.com", Role: account.RoleCustomer, CreatedAt: testTime, UpdatedAt: testTime}
	err := store.CreateUser(context.Background(), dup, "", account.Profile{})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := store.GetUser(context.Background(), "user-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected rolled back user, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := openTempStore(t)
	if _, err := store.GetUser(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.GetPasswordHash(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetPasswordHash(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedUser(t, store, "user-1", "ada@example.com")

	if err := store.SetPasswordHash(ctx, "user-1", "new-hash", testTime.Add(time.Hour)); err != nil {
		t.Fatalf("set hash: %v", err)
	}
	hash, err := store.GetPasswordHash(ctx, "user-1")
	if err != nil {
		t.Fatalf("get hash: %v", err)
	}
	if hash != "new-hash" {
		t.Fatalf("hash = %q", hash)
	}
	if err := store.SetPasswordHash(ctx, "missing", "x", testTime); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateUserRoleAndList(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedUser(t, store, "user-1", "ada@example.com")
	later := account.User{ID: "user-2", Email: "grace_h@example.com", Role: account.RoleCustomer, CreatedAt: testTime.Add(time.Minute), UpdatedAt: testTime.Add(time.Minute)}
	if err := store.CreateUser(ctx, later, "", account.Profile{}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := store.UpdateUserRole(ctx, "user-1", account.RoleAdmin, testTime.Add(time.Hour)); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if err := store.UpdateUserRole(ctx, "missing", account.RoleAdmin, testTime); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	tests := []struct {
		name  string
		query storage.UserQuery
		want  []string
	}{
		{name: "all newest first", query: storage.UserQuery{Limit: 10}, want: []string{"user-2", "user-1"}},
		{name: "by role", query: storage.UserQuery{Role: account.RoleAdmin, Limit: 10}, want: []string{"user-1"}},
		{name: "email substring escapes wildcards", query: storage.UserQuery{Email: "_", Limit: 10}, want: []string{"user-2"}},
		{name: "offset", query: storage.UserQuery{Limit: 10, Offset: 1}, want: []string{"user-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := store.ListUsers(ctx, tt.query)
			if err != nil {
				t.Fatalf("list users: %v", err)
			}
			var got []string
			for _, u := range users {
				got = append(got, u.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("users mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPutProfileAndAvatar(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedUser(t, store, "user-1", "ada@example.com")

	want := account.Profile{
		UserID:      "user-1",
		DisplayName: "Ada",
		Phone:       "+1 555 0100",
		Address: account.Address{
			Line1:      "1 Main St",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
		},
		UpdatedAt: testTime.Add(time.Hour),
	}
	if err := store.PutProfile(ctx, want); err != nil {
		t.Fatalf("put profile: %v", err)
	}

	previous, err := store.SetAvatarKey(ctx, "user-1", "avatars/user-1/a.png", testTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("set avatar: %v", err)
	}
	if previous != "" {
		t.Fatalf("previous = %q, want empty", previous)
	}
	previous, err = store.SetAvatarKey(ctx, "user-1", "avatars/user-1/b.png", testTime.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("set avatar: %v", err)
	}
	if previous != "avatars/user-1/a.png" {
		t.Fatalf("previous = %q", previous)
	}

	got, err := store.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	want.AvatarKey = "avatars/user-1/b.png"
	want.UpdatedAt = testTime.Add(3 * time.Hour)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.SetAvatarKey(ctx, "missing", "k", testTime); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPasskeyCredentialsAndSessions(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedUser(t, store, "user-1", "ada@example.com")

	used := testTime.Add(time.Minute)
	credential := storage.PasskeyCredential{
		CredentialID:   "cred-1",
		UserID:         "user-1",
		CredentialJSON: `{"id":"cred-1"}`,
		CreatedAt:      testTime,
		UpdatedAt:      testTime,
		LastUsedAt:     &used,
	}
	if err := store.PutPasskeyCredential(ctx, credential); err != nil {
		t.Fatalf("put credential: %v", err)
	}
	got, err := store.GetPasskeyCredential(ctx, "cred-1")
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if diff := cmp.Diff(credential, got); diff != "" {
		t.Fatalf("credential mismatch (-want +got):\n%s", diff)
	}
	list, err := store.ListPasskeyCredentials(ctx, "user-1")
	if err != nil {
		t.Fatalf("list credentials: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("credentials = %d, want 1", len(list))
	}
	if err := store.PutPasskeyCredential(ctx, storage.PasskeyCredential{CredentialID: "x", UserID: "user-1"}); err == nil {
		t.Fatal("expected error for missing credential json")
	}

	session := storage.PasskeySession{ID: "s-1", Kind: "login", SessionJSON: "{}", ExpiresAt: testTime.Add(5 * time.Minute)}
	if err := store.PutPasskeySession(ctx, session); err != nil {
		t.Fatalf("put session: %v", err)
	}
	gotSession, err := store.GetPasskeySession(ctx, "s-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if diff := cmp.Diff(session, gotSession); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	deleted, err := store.DeleteExpiredPasskeySessions(ctx, testTime)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted = %d before expiry", deleted)
	}
	deleted, err = store.DeleteExpiredPasskeySessions(ctx, testTime.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, err := store.GetPasskeySession(ctx, "s-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionRevocation(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.RevokeSession(ctx, "jti-1", "user-1", testTime.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := store.RevokeSession(ctx, "jti-1", "user-1", testTime.Add(time.Hour)); err != nil {
		t.Fatalf("revoke twice: %v", err)
	}
	revoked, err := store.IsSessionRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected revoked")
	}
	revoked, err = store.IsSessionRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("expected not revoked")
	}

	deleted, err := store.DeleteExpiredRevocations(ctx, testTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
}
