package keyword

import (
	"log/slog"
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lower-cases free-form text and applies unicode NFC normalization, so that visually identical strings compare equal.
//
// This is the form used for substring matching (NSFW terms, GIF filter terms).
func NormalizeText(text string) string {
	lower := strings.ToLower(text)
	out, _, err := transform.String(norm.NFC, lower)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		return lower
	}
	return out
}

// Splits free-form text in to tokens on whitespace, after normalization.
//
// Punctuation is not stripped: "damn!" is a different token than "damn". Matching on these tokens is whole-word.
func TokenizeText(text string) []string {
	return strings.Fields(NormalizeText(text))
}

// Normalizes a single lexicon entry (admin-supplied word or term) the same way message text is normalized.
func NormalizeTerm(term string) string {
	return strings.TrimSpace(NormalizeText(term))
}
