package auth

import (
	"strconv"
	"unicode/utf8"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is counted in characters.
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

// ValidatePassword enforces length limits.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.WithMetadata(apperrors.CodeAuthPasswordTooShort, "password too short", map[string]string{
			"Min": strconv.Itoa(MinPasswordLength),
		})
	}
	if len(password) > MaxPasswordBytes {
		return apperrors.WithMetadata(apperrors.CodeAuthPasswordTooLong, "password too long", map[string]string{
			"Max": strconv.Itoa(MaxPasswordBytes),
		})
	}
	return nil
}

// HashPassword validates and hashes a password with cost.
func HashPassword(password string, cost int) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	if hash == "" || len(password) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
