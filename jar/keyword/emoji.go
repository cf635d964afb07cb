package keyword

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Whether a rune starts an emoji grapheme cluster. Covers the pictographic blocks plus the older symbol blocks which carry emoji presentation (hearts, stars, arrows).
func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FFFF:
		// pictographs, flags (regional indicators), transport, supplemental symbols
		return true
	case r >= 0x2600 && r <= 0x27BF:
		// misc symbols and dingbats
		return true
	case r >= 0x2300 && r <= 0x23FF, r >= 0x2B00 && r <= 0x2BFF, r >= 0x2190 && r <= 0x21FF:
		return true
	case r == 0x00A9, r == 0x00AE, r == 0x203C, r == 0x2049, r == 0x2122, r == 0x2139, r == 0x3030, r == 0x303D, r == 0x3297, r == 0x3299:
		return true
	}
	return false
}

// Checks that a string is exactly one emoji: either a single unicode grapheme cluster starting with an emoji rune (so "❤️", "👍🏽", "🇺🇸" and "👨‍👩‍👧" all count), or a custom platform emoji reference like "<:coin:1234>" / "<a:spin:1234>".
func IsSingleEmoji(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if strings.HasPrefix(v, "<:") || strings.HasPrefix(v, "<a:") {
		return strings.HasSuffix(v, ">") && strings.Count(v, ":") == 2 && !strings.ContainsAny(v, " \t\n")
	}

	gr := uniseg.NewGraphemes(v)
	if !gr.Next() {
		return false
	}
	if !isEmojiRune(gr.Runes()[0]) {
		return false
	}
	// anything after the first cluster means more than one character
	return !gr.Next()
}
