package account

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/platform/id"
)

// Role controls access to the admin console.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

const maxEmailLength = 254

var (
	// ErrInvalidEmail indicates an address that does not parse as a bare email.
	ErrInvalidEmail = apperrors.New(apperrors.CodeAuthEmailInvalid, "email is invalid")
	// ErrInvalidRole indicates a role outside customer and admin.
	ErrInvalidRole = apperrors.New(apperrors.CodeUserInvalidRole, "role must be customer or admin")
)

// ParseRole validates a role name.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// User is a registered storefront identity.
type User struct {
	ID        string
	Email     string
	Role      Role
	Locale    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user may use the admin console.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CreateUserInput describes the metadata needed to create a user.
type CreateUserInput struct {
	Email  string
	Locale string
	Role   Role
}

// NormalizeEmail trims and lowercases an address and rejects display-name
// forms such as "Ann <ann@example.com>".
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > maxEmailLength {
		return "", ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Address != trimmed || parsed.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(parsed.Address), nil
}

// NormalizeCreateUserInput trims and normalizes input before validation.
func NormalizeCreateUserInput(input CreateUserInput) (CreateUserInput, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return CreateUserInput{}, err
	}
	input.Email = email
	input.Locale = i18n.NormalizeLocale(input.Locale)
	if input.Role == "" {
		input.Role = RoleCustomer
	}
	role, err := ParseRole(string(input.Role))
	if err != nil {
		return CreateUserInput{}, err
	}
	input.Role = role
	return input, nil
}

// CreateUser builds a new user from validated input.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateUserInput(input)
	if err != nil {
		return User{}, err
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:        userID,
		Email:     normalized.Email,
		Role:      normalized.Role,
		Locale:    normalized.Locale,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}
