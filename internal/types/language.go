package types

import (
	"fmt"
	"strings"
)

// Language enumerates the localizations the API serves. The set is closed:
// each language carries a fixed name key, preferred country and default city.
type Language string

const (
	LanguageCS Language = "CS"
	LanguageDE Language = "DE"
	LanguageEN Language = "EN"
	LanguagePL Language = "PL"
	LanguageSK Language = "SK"
)

// ParseLanguage parses the query-string form of a language code,
// case-insensitively.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToUpper(s)); l {
	case LanguageCS, LanguageDE, LanguageEN, LanguagePL, LanguageSK:
		return l, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// NameKey returns the key under which location records store this
// language's translation in their names map.
func (l Language) NameKey() string {
	return strings.ToLower(string(l))
}

// PreferredCountryISO returns the country whose cities are listed first in
// featured results for this language.
func (l Language) PreferredCountryISO() string {
	switch l {
	case LanguageCS, LanguageEN:
		return "CZ"
	case LanguageDE:
		return "DE"
	case LanguagePL:
		return "PL"
	case LanguageSK:
		return "SK"
	default:
		return ""
	}
}

// defaultCityIDs is the fallback table for closest-city lookups that have
// no location signal at all, explicit or inferred.
var defaultCityIDs = map[Language]int64{
	LanguageCS: 101748113,  // Prague
	LanguageDE: 101909779,  // Berlin
	LanguageEN: 101748113,  // also Prague
	LanguagePL: 101752777,  // Warsaw
	LanguageSK: 1108800123, // Bratislava
}

// DefaultCityID returns the city served when a closest-city lookup has no
// location signal at all.
func (l Language) DefaultCityID() int64 {
	return defaultCityIDs[l]
}
