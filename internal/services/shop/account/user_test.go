package account

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "  Ann@Example.COM ", want: "ann@example.com"},
		{in: "bob@shop.example", want: "bob@shop.example"},
		{in: "", wantErr: true},
		{in: "not-an-email", wantErr: true},
		{in: "Ann <ann@example.com>", wantErr: true},
	}
	for _, tc := range tests {
		got, err := NormalizeEmail(tc.in)
		if tc.wantErr {
			if apperrors.CodeOf(err) != apperrors.CodeAuthEmailInvalid {
				t.Fatalf("NormalizeEmail(%q) err = %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("NormalizeEmail(%q) = (%q, %v), want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	if role, err := ParseRole(" Admin "); err != nil || role != RoleAdmin {
		t.Fatalf("ParseRole(Admin) = (%q, %v)", role, err)
	}
	if _, err := ParseRole("owner"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("ParseRole(owner) err = %v", err)
	}
}

func TestCreateUserDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	u, err := CreateUser(CreateUserInput{Email: "Ann@Example.com", Locale: "pt"},
		func() time.Time { return now },
		func() (string, error) { return "user-1", nil },
	)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID != "user-1" || u.Email != "ann@example.com" || u.Role != RoleCustomer || u.Locale != "pt-BR" {
		t.Fatalf("user = %+v", u)
	}
	if !u.CreatedAt.Equal(now) || u.CreatedAt.Location() != time.UTC {
		t.Fatalf("created at = %v", u.CreatedAt)
	}
	if u.IsAdmin() {
		t.Fatal("new customer reported as admin")
	}
}

func TestCreateUserIDFailure(t *testing.T) {
	t.Parallel()

	_, err := CreateUser(CreateUserInput{Email: "a@b.example"}, nil, func() (string, error) {
		return "", errors.New("entropy")
	})
	if err == nil {
		t.Fatal("expected id generation error")
	}
}
