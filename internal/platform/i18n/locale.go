// Package i18n resolves request languages and formats localized values.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

var supportedTags = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
}

var matcher = language.NewMatcher(supportedTags)

// DefaultTag returns the fallback language.
func DefaultTag() language.Tag {
	return language.AmericanEnglish
}

// ParseTag parses value and reports whether it maps to a supported language.
// Bare languages such as "pt" resolve to their supported regional variant.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultTag(), false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return DefaultTag(), false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence < language.High {
		return DefaultTag(), false
	}
	return supportedTags[index], true
}

// MatchTags picks the best supported language for a preference list.
func MatchTags(tags []language.Tag) language.Tag {
	if len(tags) == 0 {
		return DefaultTag()
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultTag()
	}
	return supportedTags[index]
}

// LocaleString returns the catalog locale identifier for tag.
func LocaleString(tag language.Tag) string {
	for _, supported := range supportedTags {
		if supported == tag {
			return supported.String()
		}
	}
	return DefaultTag().String()
}

// NormalizeLocale maps a free-form locale to a supported catalog locale.
func NormalizeLocale(value string) string {
	tag, _ := ParseTag(value)
	return LocaleString(tag)
}
