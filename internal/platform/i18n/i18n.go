// Package i18n defines the site's supported languages and tag matching.
package i18n

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

var supportedTags = []language.Tag{
	language.English,
	language.German,
}

var tagMatcher = language.NewMatcher(supportedTags)

// SupportedTags returns the supported language tags, default first.
func SupportedTags() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// DefaultTag returns the fallback language.
func DefaultTag() language.Tag {
	return language.English
}

// ParseTag parses value and reports whether it maps onto a supported language.
// Regional variants such as de-AT or en-GB collapse to their base language.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Tag{}, false
	}
	parsed, err := language.Parse(value)
	if err != nil {
		return language.Tag{}, false
	}
	base, confidence := parsed.Base()
	if confidence == language.No {
		return language.Tag{}, false
	}
	for _, tag := range supportedTags {
		if tagBase, _ := tag.Base(); tagBase == base {
			return tag, true
		}
	}
	return language.Tag{}, false
}

// MatchTags picks the best supported tag for an Accept-Language preference list.
func MatchTags(tags []language.Tag) language.Tag {
	if len(tags) == 0 {
		return DefaultTag()
	}
	_, index, confidence := tagMatcher.Match(tags...)
	if confidence == language.No {
		return DefaultTag()
	}
	return supportedTags[index]
}

// Code returns the two-letter code used in storage and URLs.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// NormalizeCode maps a stored or submitted language code onto a supported
// code, falling back to the default.
func NormalizeCode(value string) string {
	if tag, ok := ParseTag(value); ok {
		return Code(tag)
	}
	return Code(DefaultTag())
}

// LabelKey returns the catalog key naming a language in the language switcher.
func LabelKey(tag language.Tag) string {
	return "core.lang." + Code(tag)
}

// Pick returns the value for lang from a per-language map, falling back to
// the default language and then to any non-blank value in code order.
func Pick(values map[string]string, lang string) string {
	if value := strings.TrimSpace(values[lang]); value != "" {
		return value
	}
	if value := strings.TrimSpace(values[Code(DefaultTag())]); value != "" {
		return value
	}
	for _, code := range slices.Sorted(maps.Keys(values)) {
		if value := strings.TrimSpace(values[code]); value != "" {
			return value
		}
	}
	return ""
}
