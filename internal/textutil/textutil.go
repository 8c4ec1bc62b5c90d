package textutil

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics strips combining marks, e.g. "Conférence" -> "Conference".
// Characters without a canonical decomposition (such as "ø") are kept.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Lower lowercases s using the casing rules of tag.
func Lower(s string, tag language.Tag) string {
	return cases.Lower(tag).String(s)
}

// Fold strips diacritics then lowercases, for accent and case insensitive
// keyword matching.
func Fold(s string, tag language.Tag) string {
	return Lower(RemoveDiacritics(s), tag)
}
