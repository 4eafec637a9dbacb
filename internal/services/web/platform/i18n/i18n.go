// Package i18n resolves the request language for web pages and exposes the
// catalog-backed message printer handlers render with.
package i18n

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	platformi18n "github.com/pepedome/site/internal/platform/i18n"
	_ "github.com/pepedome/site/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the visitor's language preference.
	LangCookieName = "pd_lang"
)

const langCookieMaxAge = 365 * 24 * time.Hour

// Localizer provides translated strings for templates.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ResolveTag determines the language for r: the lang query parameter, then
// the language cookie, then Accept-Language, then the default. The bool
// reports whether the query parameter chose it and should be persisted.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return platformi18n.DefaultTag(), false
	}
	if r.URL != nil {
		if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
			if tag, ok := platformi18n.ParseTag(value); ok {
				return tag, true
			}
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := platformi18n.ParseTag(cookie.Value); ok {
			return tag, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return platformi18n.MatchTags(tags), false
		}
	}
	return platformi18n.DefaultTag(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    platformi18n.Code(tag),
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve resolves the request language, persists an explicit choice, and
// returns the language code with its printer.
func Resolve(w http.ResponseWriter, r *http.Request) (string, *message.Printer) {
	tag, persist := ResolveTag(r)
	if persist && w != nil {
		SetLanguageCookie(w, tag)
	}
	return platformi18n.Code(tag), Printer(tag)
}

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Code   string
	Label  string
	URL    string
	Active bool
}

// LanguageOptions lists the supported languages with switch links that keep
// the current path and query.
func LanguageOptions(loc Localizer, active string, path string, rawQuery string) []LanguageOption {
	tags := platformi18n.SupportedTags()
	options := make([]LanguageOption, 0, len(tags))
	for _, tag := range tags {
		code := platformi18n.Code(tag)
		label := code
		if loc != nil {
			label = loc.Sprintf(platformi18n.LabelKey(tag))
		}
		options = append(options, LanguageOption{
			Code:   code,
			Label:  label,
			URL:    LanguageURL(path, rawQuery, code),
			Active: code == active,
		})
	}
	return options
}

// LanguageURL returns path with the language parameter set to code.
func LanguageURL(path string, rawQuery string, code string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "/"
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	query.Set(LangParam, code)
	return (&url.URL{Path: path, RawQuery: query.Encode()}).String()
}
