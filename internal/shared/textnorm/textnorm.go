// Package textnorm folds free-form French labels into comparable keys.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics, lowercases and trims s. "Île-de-France " -> "ile-de-france".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Collapse is Fold with spaces, hyphens and apostrophes removed, so
// "Saint-Étienne" and "saint etienne" share a key.
func Collapse(s string) string {
	folded := Fold(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '\'', '’', '_':
			return -1
		}
		return r
	}, folded)
}

// Contains reports whether needle occurs in haystack after folding both.
// An empty needle never matches.
func Contains(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Fold(haystack), n)
}

// Tokens splits a folded string into words of at least minLen runes.
func Tokens(s string, minLen int) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minLen {
			out = append(out, f)
		}
	}
	return out
}
