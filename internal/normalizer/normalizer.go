// Package normalizer folds raw Vietnamese text to a canonical form and
// produces a secondary diacritic-stripped form for fuzzy matching.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuationKeep lists punctuation preserved because it can delimit
// meaningful tokens (addresses, ranges, phone numbers).
const punctuationKeep = "-.,()[]/"

// diacriticStripper removes Unicode non-spacing marks (Mn) left behind by
// an NFD decomposition, isolating base Latin letters from combining accents.
var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// đReplacer handles Vietnamese đ/Đ, which does not decompose into a base
// letter plus a combining mark under Unicode normalization.
var đReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// Normalize returns the canonical form (NFC, lowercase, whitespace-collapsed,
// diacritics retained) and a diacritic-stripped form of raw. Empty input
// yields empty outputs; Normalize never errors.
func Normalize(raw string) (normalized, stripped string) {
	if raw == "" {
		return "", ""
	}

	nfc := norm.NFC.String(raw)
	lowered := strings.ToLower(nfc)
	cleaned := stripControlAndPunctuation(lowered)
	normalized = collapseWhitespace(cleaned)

	stripped = stripDiacritics(normalized)
	return normalized, stripped
}

func stripControlAndPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
			continue
		case strings.ContainsRune(punctuationKeep, r):
			b.WriteRune(r)
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// stripDiacritics removes Vietnamese diacritics via NFD decomposition and
// combining-mark removal, with đ/Đ handled separately since it does not
// decompose under Unicode normalization.
func stripDiacritics(s string) string {
	folded := đReplacer.Replace(s)
	out, _, err := transform.String(diacriticStripper, folded)
	if err != nil {
		return folded
	}
	return out
}
