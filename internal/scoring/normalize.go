package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decomposes to NFD, drops combining marks and recomposes,
// stripping diacritics such as the umlaut in "Müller".
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// latinFold maps Latin letters that carry no combining mark and therefore
// survive the NFD pass, such as the stroked o in "Søren", to their ASCII
// counterparts.
var latinFold = strings.NewReplacer(
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ß", "ss",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
	"ł", "l", "Ł", "L",
)

// StripDiacritics folds s to its ASCII skeleton: "Søren Müller" becomes
// "Soren Muller". On transform failure the input is returned unchanged.
func StripDiacritics(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		return latinFold.Replace(s)
	}
	return latinFold.Replace(out)
}

// Normalize produces the canonical comparison form used by the scorers:
// diacritics stripped, case folded, whitespace collapsed to single spaces.
func Normalize(s string) string {
	s = StripDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits a normalized string into its whitespace-separated tokens.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// commonPrefixLen returns the length of the shared leading run of s1 and s2,
// capped at max.
func commonPrefixLen(s1, s2 string, max int) int {
	n := 0
	for n < len(s1) && n < len(s2) && n < max && s1[n] == s2[n] {
		n++
	}
	return n
}
