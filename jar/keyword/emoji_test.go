package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSingleEmoji(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		s  string
		ok bool
	}{
		{s: "💰", ok: true},
		{s: "❤️", ok: true},
		{s: "👍🏽", ok: true},
		{s: "🇺🇸", ok: true},
		{s: "👨‍👩‍👧", ok: true},
		{s: "🏳️‍🌈", ok: true},
		{s: "🎟️", ok: true},
		{s: "⭐", ok: true},
		{s: " 🤬 ", ok: true},
		{s: "<:coin:1234>", ok: true},
		{s: "<a:spin:1234>", ok: true},
		{s: "", ok: false},
		{s: "a", ok: false},
		{s: "ab", ok: false},
		{s: "x!", ok: false},
		{s: "💰💰", ok: false},
		{s: "💰 coins", ok: false},
		{s: "<:coin:1234", ok: false},
		{s: "<:not an emoji>", ok: false},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.ok, IsSingleEmoji(fix.s), fix.s)
	}
}
