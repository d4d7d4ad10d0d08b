package enrollment

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeDiacritics strips diacritical marks from a string (e.g. "Jiří" -> "Jiri").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeLabel canonicalizes an identity label for storage and uniqueness
// checks: trimmed, lowercase, no diacritics, dashes collapsed to spaces.
// "Jan-Novák " and "jan novak" name the same identity.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	label = removeDiacritics(label)
	label = strings.ToLower(label)
	label = strings.ReplaceAll(label, "-", " ")
	return strings.Join(strings.Fields(label), " ")
}
