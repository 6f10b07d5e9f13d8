package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var coinIDPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// MaxCoinIDLength bounds coin identifiers accepted from clients.
const MaxCoinIDLength = 64

// NormalizeCoinID lowercases and trims a coin identifier.
func NormalizeCoinID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ValidCoinID reports whether id looks like a provider coin slug, e.g. "bitcoin" or "shiba-inu".
func ValidCoinID(id string) bool {
	return id != "" && len(id) <= MaxCoinIDLength && coinIDPattern.MatchString(id)
}

// DisplayName derives a human name from a coin slug: "shiba-inu" becomes "Shiba Inu".
func DisplayName(coinID string) string {
	words := strings.FieldsFunc(coinID, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}
