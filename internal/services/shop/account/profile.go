package account

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"golang.org/x/text/language"
)

const (
	maxDisplayNameRunes = 64
	maxPhoneLength      = 32
	maxAddressRunes     = 128
)

// Address is a postal shipping address.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Complete reports whether the address has every field needed to ship.
func (a Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.PostalCode != "" && a.Country != ""
}

// Profile holds display and shipping data for a user.
type Profile struct {
	UserID      string
	DisplayName string
	Phone       string
	Address     Address
	AvatarKey   string
	UpdatedAt   time.Time
}

// ProfileInput is the mutable part of a profile.
type ProfileInput struct {
	DisplayName string
	Phone       string
	Address     Address
}

func invalidField(field string, max int) error {
	metadata := map[string]string{"Field": field}
	if max > 0 {
		metadata["Max"] = strconv.Itoa(max)
	}
	return apperrors.WithMetadata(apperrors.CodeProfileInvalidField, field+" is invalid", metadata)
}

// NormalizeProfile trims input and enforces field limits. Country codes are
// uppercased and must be ISO 3166-1 alpha-2 regions.
func NormalizeProfile(input ProfileInput) (ProfileInput, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if utf8.RuneCountInString(input.DisplayName) > maxDisplayNameRunes {
		return ProfileInput{}, invalidField("display_name", maxDisplayNameRunes)
	}

	input.Phone = strings.TrimSpace(input.Phone)
	if len(input.Phone) > maxPhoneLength || !validPhone(input.Phone) {
		return ProfileInput{}, invalidField("phone", maxPhoneLength)
	}

	address, err := NormalizeAddress(input.Address)
	if err != nil {
		return ProfileInput{}, err
	}
	input.Address = address
	return input, nil
}

// NormalizeAddress trims address lines and validates the country code.
func NormalizeAddress(address Address) (Address, error) {
	lines := []struct {
		name  string
		value *string
	}{
		{"line1", &address.Line1},
		{"line2", &address.Line2},
		{"city", &address.City},
		{"region", &address.Region},
		{"postal_code", &address.PostalCode},
	}
	for _, line := range lines {
		*line.value = strings.TrimSpace(*line.value)
		if utf8.RuneCountInString(*line.value) > maxAddressRunes {
			return Address{}, invalidField(line.name, maxAddressRunes)
		}
	}

	address.Country = strings.ToUpper(strings.TrimSpace(address.Country))
	if address.Country != "" {
		if len(address.Country) != 2 {
			return Address{}, invalidField("country", 0)
		}
		region, err := language.ParseRegion(address.Country)
		if err != nil || !region.IsCountry() {
			return Address{}, invalidField("country", 0)
		}
		address.Country = region.String()
	}
	return address, nil
}

func validPhone(value string) bool {
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r == ' ', r == '+', r == '(', r == ')', r == '-':
		default:
			return false
		}
	}
	return true
}

// Apply returns p updated with normalized input.
func (p Profile) Apply(input ProfileInput, now time.Time) Profile {
	p.DisplayName = input.DisplayName
	p.Phone = input.Phone
	p.Address = input.Address
	p.UpdatedAt = now.UTC()
	return p
}
