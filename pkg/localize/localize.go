// Package localize resolves per-locale text with a fixed fallback chain.
package localize

import (
	"regexp"
	"strings"
)

type Locale string

const (
	VI Locale = "vi"
	EN Locale = "en"

	Default = VI
)

var englishHeader = regexp.MustCompile(`(?i)en`)

// Parse accepts a supported locale code and reports whether it was one.
func Parse(s string) (Locale, bool) {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case VI:
		return VI, true
	case EN:
		return EN, true
	}
	return "", false
}

// Detect maps an Accept-Language header to a locale. Any mention of "en"
// selects English; everything else falls back to Vietnamese.
func Detect(acceptLanguage string) Locale {
	if englishHeader.MatchString(acceptLanguage) {
		return EN
	}
	return Default
}

// FromRequest prefers an explicit ?locale= value and otherwise detects the
// locale from the Accept-Language header.
func FromRequest(query, acceptLanguage string) Locale {
	if loc, ok := Parse(query); ok {
		return loc
	}
	return Detect(acceptLanguage)
}

// Raw reports whether the raw query flag asks for unlocalized documents.
func Raw(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// Text holds one string per locale code.
type Text map[string]string

// Pick resolves the value for locale: the locale entry, then the Vietnamese
// entry, then the legacy plain value, then "".
func Pick(t Text, locale Locale, legacy string) string {
	if v := t[string(locale)]; v != "" {
		return v
	}
	if v := t[string(Default)]; v != "" {
		return v
	}
	return legacy
}

// Lift seeds a locale map from a legacy plain value when the map carries no
// text yet. An already populated map is returned untouched.
func Lift(t Text, plain string) Text {
	if len(t) > 0 || plain == "" {
		return t
	}
	return Text{string(Default): plain}
}
