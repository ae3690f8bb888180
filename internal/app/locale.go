package app

import (
	"sort"
	"strings"
)

// Locales served by the site. English is the default; Spanish is the
// editorial source language, so both sit in the fallback chain.
var SupportedLocales = []string{"en", "es", "de", "fr", "it"}

const DefaultLocale = "en"

// NormalizeLocale lower-cases a locale code (accepting Accept-Language
// style values like "fr-CH") and maps anything unsupported to the default.
func NormalizeLocale(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_,;"); i >= 0 {
		s = s[:i]
	}
	for _, l := range SupportedLocales {
		if s == l {
			return l
		}
	}
	return DefaultLocale
}

// ResolveLocalized resolves a field that may be a plain string or a
// locale-keyed dictionary into one display string. Preference order for
// dictionaries: requested locale, "en", "es", first non-empty entry (in
// sorted key order, for determinism), then fallback. Malformed input never
// fails; worst case is the fallback.
func ResolveLocalized(content any, locale, fallback string) string {
	switch v := content.(type) {
	case nil:
		return fallback
	case string:
		if v == "" {
			return fallback
		}
		return v
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return resolveDict(m, locale, fallback)
	case map[string]any:
		return resolveDict(v, locale, fallback)
	default:
		return fallback
	}
}

func resolveDict(m map[string]any, locale, fallback string) string {
	for _, l := range []string{locale, "en", "es"} {
		if s := dictStr(m, l); s != "" {
			return s
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := dictStr(m, k); s != "" {
			return s
		}
	}
	return fallback
}

func dictStr(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
